package game

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"slices"

	"github.com/vreid/gambit/internal/pkg/transaction"
)

// Manager holds every game session. It is not safe for concurrent use.
type Manager[P any] struct {
	rules    MoveValidator[P]
	sessions map[uint32]*Session[P]
}

func NewManager[P any](rules MoveValidator[P]) *Manager[P] {
	return &Manager[P]{
		rules:    rules,
		sessions: map[uint32]*Session[P]{},
	}
}

// StartGame replaces any existing session under the same id.
func (m *Manager[P]) StartGame(gameID uint32) {
	m.sessions[gameID] = &Session[P]{
		ID:       gameID,
		Position: m.rules.StartingPosition(),
		Moves:    []string{},
	}
}

func (m *Manager[P]) ApplyMove(gameID uint32, move string) error {
	session, ok := m.sessions[gameID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}

	position, err := m.rules.Apply(session.Position, move)
	if err != nil {
		return fmt.Errorf("%w: %q in game %d: %w", ErrInvalidMove, move, gameID, err)
	}

	session.Position = position
	session.Moves = append(session.Moves, move)

	if result, done := m.rules.TerminalResult(position); done {
		session.Result = &result
		session.Winner = nil

		if winner, ok := result.Winner(); ok {
			session.Winner = &winner
		}
	}

	return nil
}

func (m *Manager[P]) Session(gameID uint32) (SessionSnapshot, bool) {
	session, ok := m.sessions[gameID]
	if !ok {
		return SessionSnapshot{}, false
	}

	snapshot := SessionSnapshot{
		ID:       session.ID,
		Position: fmt.Sprint(session.Position),
		Status:   StatusOngoing,
		Moves:    slices.Clone(session.Moves),
	}

	if session.Result != nil {
		result := *session.Result
		snapshot.Status = StatusFinished
		snapshot.Result = &result
	}

	if session.Winner != nil {
		winner := *session.Winner
		snapshot.Winner = &winner
	}

	return snapshot, true
}

// ProcessBatch applies txs in order and returns the SHA-256 of seed followed
// by the encoding of every transaction that applied cleanly. A transaction
// that fails to decode or apply is recorded in the outcomes and skipped.
func (m *Manager[P]) ProcessBatch(txs [][]byte, seed []byte) ([]byte, []TxOutcome) {
	hasher := sha256.New()
	hasher.Write(seed)

	outcomes := make([]TxOutcome, 0, len(txs))

	for index, data := range txs {
		outcomes = append(outcomes, m.processOne(index, data, hasher))
	}

	return hasher.Sum(nil), outcomes
}

func (m *Manager[P]) processOne(index int, data []byte, hasher hash.Hash) TxOutcome {
	tx, err := transaction.Decode(data)
	if err != nil {
		return TxOutcome{Index: index, Status: TxDecodeFailed, Err: err}
	}

	switch tx := tx.(type) {
	case transaction.StartGame:
		m.StartGame(tx.GameID)
	case transaction.MakeMove:
		err = m.ApplyMove(tx.GameID, tx.Move)
	}

	if err != nil {
		return TxOutcome{Index: index, Status: TxApplyFailed, Err: err}
	}

	hasher.Write(transaction.Encode(tx))

	return TxOutcome{Index: index, Status: TxSuccess}
}
