package sequencer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/do/v2"
	"github.com/vreid/gambit/internal/pkg/execution"
)

// LocalSequencer stands in for the external sequencing layer during
// development. Submissions are queued and turned into blocks on every tick;
// each block is committed soft and firm immediately.
type LocalSequencer struct {
	Executor Executor
	Logger   *slog.Logger

	Enabled  bool
	Interval time.Duration
	MaxBatch int

	pending chan []byte
}

func NewLocalSequencer(executor Executor, logger *slog.Logger, enabled bool, interval time.Duration, maxBatch, queueSize int) *LocalSequencer {
	return &LocalSequencer{
		Executor: executor,
		Logger:   logger,
		Enabled:  enabled,
		Interval: interval,
		MaxBatch: maxBatch,
		pending:  make(chan []byte, queueSize),
	}
}

func NewLocalSequencerService(i do.Injector) (*LocalSequencer, error) {
	logger := do.MustInvoke[*slog.Logger](i)
	executor := do.MustInvoke[*execution.ExecutionService](i)

	enabled := do.MustInvokeNamed[bool](i, "local-sequencer")
	interval := do.MustInvokeNamed[time.Duration](i, "block-interval")
	maxBatch := do.MustInvokeNamed[int](i, "max-batch")
	queueSize := do.MustInvokeNamed[int](i, "queue-size")

	if interval <= 0 || maxBatch <= 0 || queueSize <= 0 {
		return nil, fmt.Errorf("%w: block interval, max batch and queue size must be positive", execution.ErrInvalidArgument)
	}

	return NewLocalSequencer(executor, logger, enabled, interval, maxBatch, queueSize), nil
}

func (s *LocalSequencer) Submit(_ context.Context, tx []byte) (Ack, error) {
	if !s.Enabled {
		return Ack{}, ErrDisabled
	}

	ack, err := newAck(tx)
	if err != nil {
		return Ack{}, err
	}

	select {
	case s.pending <- tx:
		return ack, nil
	default:
		return Ack{}, ErrQueueFull
	}
}

func (s *LocalSequencer) Start(ctx context.Context) {
	if !s.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *LocalSequencer) run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := s.ProduceBlock()
			if err != nil {
				s.Logger.Error("failed to produce block", "error", err)
			}
		}
	}
}

// ProduceBlock drains up to MaxBatch queued transactions into a block on top
// of the current soft head and finalizes it. It reports false when nothing
// was queued.
func (s *LocalSequencer) ProduceBlock() (bool, error) {
	txs := s.drain()
	if len(txs) == 0 {
		return false, nil
	}

	entries := make([]execution.RollupData, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, execution.RollupData{SequencedData: tx})
	}

	_, err := s.Executor.ExecuteAndFinalize(entries, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to produce block: %w", err)
	}

	return true, nil
}

func (s *LocalSequencer) drain() [][]byte {
	txs := [][]byte{}

	for len(txs) < s.MaxBatch {
		select {
		case tx := <-s.pending:
			txs = append(txs, tx)
		default:
			return txs
		}
	}

	return txs
}

func newAck(tx []byte) (Ack, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Ack{}, fmt.Errorf("failed to generate ack id: %w", err)
	}

	hash := sha256.Sum256(tx)

	return Ack{
		ID:       id.String(),
		TxHash:   hex.EncodeToString(hash[:]),
		QueuedAt: time.Now().UTC(),
	}, nil
}
