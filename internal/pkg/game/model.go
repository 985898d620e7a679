package game

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrInvalidMove   = errors.New("invalid move")
	ErrUnknownSide   = errors.New("unknown side")
	ErrUnknownResult = errors.New("unknown result")
)

type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	switch s {
	case White:
		return "white"
	case Black:
		return "black"
	}

	return fmt.Sprintf("side(%d)", int(s))
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "white":
		*s = White
	case "black":
		*s = Black
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSide, text)
	}

	return nil
}

// Result is how a finished game ended.
type Result int

const (
	ResultWhiteCheckmates Result = iota + 1
	ResultBlackCheckmates
	ResultWhiteResigns
	ResultBlackResigns
	ResultDrawAccepted
	ResultStalemate
	ResultDrawDeclared
)

var resultNames = map[Result]string{
	ResultWhiteCheckmates: "white-checkmates",
	ResultBlackCheckmates: "black-checkmates",
	ResultWhiteResigns:    "white-resigns",
	ResultBlackResigns:    "black-resigns",
	ResultDrawAccepted:    "draw-accepted",
	ResultStalemate:       "stalemate",
	ResultDrawDeclared:    "draw-declared",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}

	return fmt.Sprintf("result(%d)", int(r))
}

func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(text []byte) error {
	for result, name := range resultNames {
		if name == string(text) {
			*r = result

			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownResult, text)
}

// Winner maps a result to the winning side. Draws report false.
func (r Result) Winner() (Side, bool) {
	switch r {
	case ResultWhiteCheckmates, ResultBlackResigns:
		return White, true
	case ResultBlackCheckmates, ResultWhiteResigns:
		return Black, true
	case ResultDrawAccepted, ResultStalemate, ResultDrawDeclared:
		return 0, false
	}

	return 0, false
}

// MoveValidator is the rule engine a Manager delegates move legality to.
// P is the engine's board position; the manager never inspects it.
type MoveValidator[P any] interface {
	StartingPosition() P
	Apply(position P, move string) (P, error)
	TerminalResult(position P) (Result, bool)
}

type Session[P any] struct {
	ID       uint32
	Position P
	Result   *Result
	Winner   *Side
	Moves    []string
}

type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusFinished Status = "finished"
)

type SessionSnapshot struct {
	ID       uint32   `json:"id"`
	Position string   `json:"position"`
	Status   Status   `json:"status"`
	Result   *Result  `json:"result,omitempty"`
	Winner   *Side    `json:"winner,omitempty"`
	Moves    []string `json:"moves"`
}

type TxStatus int

const (
	TxSuccess TxStatus = iota
	TxDecodeFailed
	TxApplyFailed
)

func (s TxStatus) String() string {
	switch s {
	case TxSuccess:
		return "success"
	case TxDecodeFailed:
		return "decode-failed"
	case TxApplyFailed:
		return "apply-failed"
	}

	return fmt.Sprintf("tx-status(%d)", int(s))
}

// TxOutcome records what happened to one transaction of a batch.
type TxOutcome struct {
	Index  int
	Status TxStatus
	Err    error
}
