package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

var errEmptyMove = errors.New("empty move")

// ChessRules validates standard algebraic notation against a chess position.
// Check and annotation suffixes are optional.
type ChessRules struct{}

func (ChessRules) StartingPosition() *chess.Position {
	return chess.StartingPosition()
}

func (ChessRules) Apply(position *chess.Position, move string) (*chess.Position, error) {
	want := normalizeSAN(move)
	if want == "" {
		return nil, errEmptyMove
	}

	notation := chess.AlgebraicNotation{}

	for _, candidate := range position.ValidMoves() {
		if normalizeSAN(notation.Encode(position, candidate)) == want {
			return position.Update(candidate), nil
		}
	}

	return nil, fmt.Errorf("%q is not legal in %s", move, position)
}

func (ChessRules) TerminalResult(position *chess.Position) (Result, bool) {
	//nolint:exhaustive
	switch position.Status() {
	case chess.Checkmate:
		// The side to move is the one that got mated.
		if position.Turn() == chess.Black {
			return ResultWhiteCheckmates, true
		}

		return ResultBlackCheckmates, true
	case chess.Stalemate:
		return ResultStalemate, true
	}

	return 0, false
}

func normalizeSAN(move string) string {
	return strings.TrimRight(strings.TrimSpace(move), "+#!?")
}
