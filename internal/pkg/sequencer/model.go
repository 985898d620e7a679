package sequencer

import (
	"context"
	"errors"
	"time"

	"github.com/vreid/gambit/internal/pkg/blockstore"
	"github.com/vreid/gambit/internal/pkg/execution"
)

var (
	ErrDisabled  = errors.New("local sequencer is disabled")
	ErrQueueFull = errors.New("submission queue is full")
	ErrRejected  = errors.New("submission rejected")
)

// Submitter hands an encoded transaction to the sequencing layer.
type Submitter interface {
	Submit(ctx context.Context, tx []byte) (Ack, error)
}

type Ack struct {
	ID       string    `json:"id"`
	TxHash   string    `json:"tx_hash"`
	QueuedAt time.Time `json:"queued_at"`
}

// Executor is the part of the execution service the local sequencer drives.
type Executor interface {
	ExecuteAndFinalize(entries []execution.RollupData, timestamp time.Time) (blockstore.Block, error)
}

type submitRequest struct {
	Tx []byte `json:"tx"`
}
