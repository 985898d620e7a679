package sequencer_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vreid/gambit/internal/pkg/blockstore"
	"github.com/vreid/gambit/internal/pkg/execution"
	"github.com/vreid/gambit/internal/pkg/game"
	"github.com/vreid/gambit/internal/pkg/sequencer"
	"github.com/vreid/gambit/internal/pkg/transaction"
)

func newExecutor() *execution.ExecutionService {
	return execution.New(
		game.NewManager[*chess.Position](game.ChessRules{}),
		execution.DefaultGenesisInfo(),
		blockstore.DefaultBaseSettlementHeight,
		slog.New(slog.DiscardHandler),
	)
}

func newSequencer(executor sequencer.Executor, enabled bool, maxBatch, queueSize int) *sequencer.LocalSequencer {
	return sequencer.NewLocalSequencer(executor, slog.New(slog.DiscardHandler), enabled, time.Hour, maxBatch, queueSize)
}

func TestSubmitDisabled(t *testing.T) {
	t.Parallel()

	s := newSequencer(newExecutor(), false, 10, 10)

	_, err := s.Submit(context.Background(), transaction.Encode(transaction.StartGame{GameID: 1}))
	require.ErrorIs(t, err, sequencer.ErrDisabled)
}

func TestSubmitQueueFull(t *testing.T) {
	t.Parallel()

	s := newSequencer(newExecutor(), true, 10, 1)
	tx := transaction.Encode(transaction.StartGame{GameID: 1})

	ack, err := s.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.NotEmpty(t, ack.ID)
	assert.Len(t, ack.TxHash, 64)

	_, err = s.Submit(context.Background(), tx)
	require.ErrorIs(t, err, sequencer.ErrQueueFull)
}

func TestProduceBlock(t *testing.T) {
	t.Parallel()

	executor := newExecutor()
	s := newSequencer(executor, true, 2, 10)
	ctx := context.Background()

	produced, err := s.ProduceBlock()
	require.NoError(t, err)
	assert.False(t, produced)

	for _, tx := range []transaction.Transaction{
		transaction.StartGame{GameID: 1},
		transaction.MakeMove{GameID: 1, Move: "e4"},
		transaction.MakeMove{GameID: 1, Move: "e5"},
	} {
		_, err := s.Submit(ctx, transaction.Encode(tx))
		require.NoError(t, err)
	}

	produced, err = s.ProduceBlock()
	require.NoError(t, err)
	assert.True(t, produced)

	state := executor.CommitmentState()
	assert.Equal(t, uint32(1), state.Soft.Height)
	assert.Equal(t, uint32(1), state.Firm.Height)
	assert.Equal(t, blockstore.GenesisHash, state.Soft.ParentHash)
	assert.Len(t, state.Soft.Transactions, 2)

	produced, err = s.ProduceBlock()
	require.NoError(t, err)
	assert.True(t, produced)

	state = executor.CommitmentState()
	assert.Equal(t, uint32(2), state.Firm.Height)

	block1, err := executor.GetBlock(execution.ByHeight(1))
	require.NoError(t, err)
	assert.Equal(t, block1.Hash, state.Soft.ParentHash)

	session, ok := executor.GameSession(1)
	require.True(t, ok)
	assert.Equal(t, []string{"e4", "e5"}, session.Moves)
}

// interleavingExecutor runs an outside ExecuteBlock right after every block
// the sequencer produces, the way a request to the execute-block route would.
type interleavingExecutor struct {
	*execution.ExecutionService
	t *testing.T
}

func (e interleavingExecutor) ExecuteAndFinalize(entries []execution.RollupData, timestamp time.Time) (blockstore.Block, error) {
	block, err := e.ExecutionService.ExecuteAndFinalize(entries, timestamp)
	if err != nil {
		return blockstore.Block{}, err
	}

	_, err = e.ExecuteBlock(execution.ExecuteBlockRequest{
		ParentHash: block.Hash,
		Timestamp:  timestamp,
		Transactions: []execution.RollupData{
			{SequencedData: transaction.Encode(transaction.StartGame{GameID: 99})},
		},
	})
	require.NoError(e.t, err)

	return block, nil
}

func TestProduceBlockWithOutsideExecution(t *testing.T) {
	t.Parallel()

	executor := newExecutor()
	s := newSequencer(interleavingExecutor{ExecutionService: executor, t: t}, true, 10, 10)
	ctx := context.Background()

	_, err := s.Submit(ctx, transaction.Encode(transaction.StartGame{GameID: 1}))
	require.NoError(t, err)

	produced, err := s.ProduceBlock()
	require.NoError(t, err)
	assert.True(t, produced)

	state := executor.CommitmentState()
	assert.Equal(t, uint32(2), state.Soft.Height)
	assert.Equal(t, uint32(1), state.Firm.Height)

	_, err = s.Submit(ctx, transaction.Encode(transaction.MakeMove{GameID: 1, Move: "e4"}))
	require.NoError(t, err)

	produced, err = s.ProduceBlock()
	require.NoError(t, err)
	assert.True(t, produced)

	block2, err := executor.GetBlock(execution.ByHeight(2))
	require.NoError(t, err)

	block3, err := executor.GetBlock(execution.ByHeight(3))
	require.NoError(t, err)
	assert.Equal(t, block2.Hash, block3.ParentHash)

	state = executor.CommitmentState()
	assert.Equal(t, uint32(4), state.Soft.Height)
	assert.Equal(t, uint32(3), state.Firm.Height)

	session, ok := executor.GameSession(1)
	require.True(t, ok)
	assert.Equal(t, []string{"e4"}, session.Moves)
}

func TestComposerClient(t *testing.T) {
	t.Parallel()

	tx := transaction.Encode(transaction.StartGame{GameID: 3})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/submit", r.URL.Path)

		var body struct {
			Tx []byte `json:"tx"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, tx, body.Tx)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"ack-1","tx_hash":"abc"}`))
	}))
	defer server.Close()

	client := sequencer.NewComposerClient(server.URL, time.Second)

	ack, err := client.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "ack-1", ack.ID)
	assert.Equal(t, "abc", ack.TxHash)
}

func TestComposerClientRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := sequencer.NewComposerClient(server.URL, time.Second)

	_, err := client.Submit(context.Background(), []byte{0, 0, 0, 0, 1})
	require.ErrorIs(t, err, sequencer.ErrRejected)
}
