package execution

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/samber/do/v2"
	"github.com/vreid/gambit/internal/pkg/blockstore"
	"github.com/vreid/gambit/internal/pkg/common"
	"github.com/vreid/gambit/internal/pkg/game"
)

// ExecutionService implements the block-execution protocol. One lock guards
// the application state and the block store. Writes hold it exclusively and
// lookups share it.
//
// ExecuteBlock has no replay protection. Game state changes before the block
// is stored, so a retried call applies its transactions a second time and
// produces another block. Callers that need exactly-once submission must
// serialize and deduplicate on their side.
type ExecutionService struct {
	mu sync.RWMutex

	app    Application
	blocks *blockstore.BlockStore

	genesis    GenesisInfo
	blockSinks []chan<- blockstore.Block
	logger     *slog.Logger
}

func New(
	app Application,
	genesis GenesisInfo,
	baseSettlementHeight uint64,
	logger *slog.Logger,
	blockSinks ...chan<- blockstore.Block,
) *ExecutionService {
	return &ExecutionService{
		app:        app,
		blocks:     blockstore.New(baseSettlementHeight),
		genesis:    genesis,
		blockSinks: blockSinks,
		logger:     logger,
	}
}

func NewExecutionService(i do.Injector) (*ExecutionService, error) {
	logger := do.MustInvoke[*slog.Logger](i)

	rollupID := do.MustInvokeNamed[string](i, "rollup-id")
	sequencerGenesisHeight := do.MustInvokeNamed[int](i, "sequencer-genesis-height")
	settlementBlockVariance := do.MustInvokeNamed[int](i, "settlement-block-variance")
	baseSettlementHeight := do.MustInvokeNamed[int](i, "base-settlement-height")
	blockSinks := do.MustInvokeNamed[[]chan<- blockstore.Block](i, "block-sinks")

	if sequencerGenesisHeight < 0 || settlementBlockVariance < 0 || baseSettlementHeight < 0 {
		return nil, fmt.Errorf("%w: genesis heights must not be negative", ErrInvalidArgument)
	}

	genesis := GenesisInfo{
		RollupID:                    rollupID,
		SequencerGenesisBlockHeight: uint32(sequencerGenesisHeight),
		SettlementBlockVariance:     uint64(settlementBlockVariance),
	}

	result := New(
		game.NewManager[*chess.Position](game.ChessRules{}),
		genesis,
		uint64(baseSettlementHeight),
		logger,
		blockSinks...,
	)

	echoService, err := do.Invoke[*common.EchoService](i)
	if err != nil {
		return nil, fmt.Errorf("failed to create echo service: %w", err)
	}

	echoService.Register(result.RegisterRoutes)

	return result, nil
}

func (s *ExecutionService) GenesisInfo() GenesisInfo {
	return s.genesis
}

func (s *ExecutionService) GetBlock(id BlockIdentifier) (blockstore.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.resolve(id)
}

// BatchGetBlocks fails as a whole if any identifier cannot be resolved.
func (s *ExecutionService) BatchGetBlocks(ids []BlockIdentifier) ([]blockstore.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]blockstore.Block, 0, len(ids))

	for index, id := range ids {
		block, err := s.resolve(id)
		if err != nil {
			return nil, fmt.Errorf("identifier %d: %w", index, err)
		}

		result = append(result, block)
	}

	return result, nil
}

func (s *ExecutionService) ExecuteBlock(req ExecuteBlockRequest) (blockstore.Block, error) {
	payloads := SequencedPayloads(req.Transactions)

	block, outcomes, err := s.execute(req.ParentHash, req.Timestamp, payloads)
	if err != nil {
		return blockstore.Block{}, err
	}

	s.logExecuted(block, len(payloads), outcomes)

	return block, nil
}

// ExecuteAndFinalize executes entries on top of the current soft block and
// commits the result as both soft and firm without releasing the lock, so no
// other write can land between the two steps.
func (s *ExecutionService) ExecuteAndFinalize(entries []RollupData, timestamp time.Time) (blockstore.Block, error) {
	payloads := SequencedPayloads(entries)

	block, outcomes, err := s.executeAndFinalize(timestamp, payloads)
	if err != nil {
		return blockstore.Block{}, err
	}

	s.logExecuted(block, len(payloads), outcomes)
	s.logger.Info("finalized block", "height", block.Height)

	return block, nil
}

func (s *ExecutionService) execute(parentHash []byte, timestamp time.Time, payloads [][]byte) (blockstore.Block, []game.TxOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.executeLocked(parentHash, timestamp, payloads)
}

func (s *ExecutionService) executeAndFinalize(timestamp time.Time, payloads [][]byte) (blockstore.Block, []game.TxOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	block, outcomes, err := s.executeLocked(s.blocks.SoftBlock().Hash, timestamp, payloads)
	if err != nil {
		return blockstore.Block{}, nil, err
	}

	err = s.blocks.Commit(block.Height, block.Height, s.blocks.BaseSettlementHeight())
	if err != nil {
		return blockstore.Block{}, nil, fmt.Errorf("failed to finalize block %d: %w", block.Height, err)
	}

	return block, outcomes, nil
}

// executeLocked must be called with the write lock held. Sinks are fed here
// so every sink sees blocks in height order.
func (s *ExecutionService) executeLocked(parentHash []byte, timestamp time.Time, payloads [][]byte) (blockstore.Block, []game.TxOutcome, error) {
	if s.blocks.SoftHeight() == math.MaxUint32 {
		return blockstore.Block{}, nil, fmt.Errorf("%w: block height limit %d reached", ErrInvalidArgument, uint32(math.MaxUint32))
	}

	hash, outcomes := s.app.ProcessBatch(payloads, parentHash)

	block := blockstore.Block{
		Height:       s.blocks.SoftHeight() + 1,
		Hash:         hash,
		ParentHash:   bytes.Clone(parentHash),
		Timestamp:    timestamp,
		Transactions: payloads,
	}

	err := s.blocks.AddBlock(block)
	if err != nil {
		return blockstore.Block{}, nil, fmt.Errorf("failed to store block: %w", err)
	}

	s.notify(block)

	return block, outcomes, nil
}

func (s *ExecutionService) logExecuted(block blockstore.Block, transactions int, outcomes []game.TxOutcome) {
	applied := 0

	for _, outcome := range outcomes {
		if outcome.Status == game.TxSuccess {
			applied++

			continue
		}

		s.logger.Debug("skipped transaction",
			"height", block.Height,
			"index", outcome.Index,
			"status", outcome.Status.String(),
			"error", outcome.Err)
	}

	s.logger.Info("executed block",
		"height", block.Height,
		"hash", hex.EncodeToString(block.Hash),
		"transactions", transactions,
		"applied", applied)
}

func (s *ExecutionService) CommitmentState() CommitmentState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.commitmentState()
}

// UpdateCommitmentState checks the claimed soft and firm hashes against the
// stored blocks before touching anything, then moves both watermarks.
func (s *ExecutionService) UpdateCommitmentState(req CommitmentState) (CommitmentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.verify("soft", req.Soft)
	if err != nil {
		return CommitmentState{}, err
	}

	err = s.verify("firm", req.Firm)
	if err != nil {
		return CommitmentState{}, err
	}

	err = s.blocks.Commit(req.Soft.Height, req.Firm.Height, req.BaseSettlementHeight)
	if err != nil {
		return CommitmentState{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	state := s.commitmentState()

	s.logger.Info("updated commitment state",
		"soft", state.Soft.Height,
		"firm", state.Firm.Height,
		"base_settlement_height", state.BaseSettlementHeight)

	return state, nil
}

func (s *ExecutionService) GameSession(gameID uint32) (game.SessionSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.app.Session(gameID)
}

func (s *ExecutionService) resolve(id BlockIdentifier) (blockstore.Block, error) {
	if id.Hash != nil {
		return blockstore.Block{}, fmt.Errorf("%w: lookup by hash", ErrUnimplemented)
	}

	if id.Height == nil {
		return blockstore.Block{}, fmt.Errorf("%w: missing block identifier", ErrInvalidArgument)
	}

	block, ok := s.blocks.Block(*id.Height)
	if !ok {
		return blockstore.Block{}, fmt.Errorf("%w: %w: %d", ErrInvalidArgument, blockstore.ErrBlockNotFound, *id.Height)
	}

	return block, nil
}

func (s *ExecutionService) verify(label string, claimed blockstore.Block) error {
	stored, ok := s.blocks.Block(claimed.Height)
	if !ok {
		return fmt.Errorf("%w: %w: %s block %d", ErrInvalidArgument, blockstore.ErrBlockNotFound, label, claimed.Height)
	}

	if !bytes.Equal(stored.Hash, claimed.Hash) {
		return fmt.Errorf("%w: %s block %d", ErrHashMismatch, label, claimed.Height)
	}

	return nil
}

func (s *ExecutionService) commitmentState() CommitmentState {
	return CommitmentState{
		Soft:                 s.blocks.SoftBlock(),
		Firm:                 s.blocks.FirmBlock(),
		BaseSettlementHeight: s.blocks.BaseSettlementHeight(),
	}
}

// notify never blocks; a full sink drops the block.
func (s *ExecutionService) notify(block blockstore.Block) {
	for _, sink := range s.blockSinks {
		select {
		case sink <- block.Clone():
		default:
			s.logger.Warn("block sink full, dropping block", "height", block.Height)
		}
	}
}

// SequencedPayloads keeps the sequenced-data entries of a block in order.
func SequencedPayloads(entries []RollupData) [][]byte {
	payloads := make([][]byte, 0, len(entries))

	for _, entry := range entries {
		if entry.SequencedData == nil {
			continue
		}

		payloads = append(payloads, entry.SequencedData)
	}

	return payloads
}
