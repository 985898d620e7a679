package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/vreid/gambit/internal/pkg/blockstore"
	"github.com/vreid/gambit/internal/pkg/game"
)

var (
	ErrUnimplemented   = errors.New("unimplemented")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrHashMismatch    = fmt.Errorf("%w: hash mismatch", ErrInvalidArgument)
)

const (
	DefaultRollupID                    = "chess"
	DefaultSequencerGenesisBlockHeight = 2
	DefaultSettlementBlockVariance     = 2
)

// Application is the state machine the service executes blocks against.
type Application interface {
	ProcessBatch(txs [][]byte, seed []byte) ([]byte, []game.TxOutcome)
	Session(gameID uint32) (game.SessionSnapshot, bool)
}

type GenesisInfo struct {
	RollupID                    string `json:"rollup_id"`
	SequencerGenesisBlockHeight uint32 `json:"sequencer_genesis_block_height"`
	SettlementBlockVariance     uint64 `json:"settlement_block_variance"`
}

func DefaultGenesisInfo() GenesisInfo {
	return GenesisInfo{
		RollupID:                    DefaultRollupID,
		SequencerGenesisBlockHeight: DefaultSequencerGenesisBlockHeight,
		SettlementBlockVariance:     DefaultSettlementBlockVariance,
	}
}

// BlockIdentifier selects a block by height or by hash. Exactly one should
// be set.
type BlockIdentifier struct {
	Height *uint32 `json:"height,omitempty"`
	Hash   []byte  `json:"hash,omitempty"`
}

func ByHeight(height uint32) BlockIdentifier {
	return BlockIdentifier{Height: &height}
}

func ByHash(hash []byte) BlockIdentifier {
	return BlockIdentifier{Hash: hash}
}

// RollupData is one entry of a sequenced block. Only SequencedData entries
// are executed; deposits are carried by the sequencer but ignored here.
type RollupData struct {
	SequencedData []byte `json:"sequenced_data,omitempty"`
	Deposit       []byte `json:"deposit,omitempty"`
}

type ExecuteBlockRequest struct {
	ParentHash   []byte       `json:"parent_hash"`
	Timestamp    time.Time    `json:"timestamp"`
	Transactions []RollupData `json:"transactions"`
}

type CommitmentState struct {
	Soft                 blockstore.Block `json:"soft"`
	Firm                 blockstore.Block `json:"firm"`
	BaseSettlementHeight uint64           `json:"base_settlement_height"`
}

type GetBlockRequest struct {
	Identifier *BlockIdentifier `json:"identifier"`
}

type BatchGetBlocksRequest struct {
	Identifiers []BlockIdentifier `json:"identifiers"`
}

type BatchGetBlocksResponse struct {
	Blocks []blockstore.Block `json:"blocks"`
}

type UpdateCommitmentStateRequest struct {
	CommitmentState *CommitmentState `json:"commitment_state"`
}
