package games

import "github.com/vreid/gambit/internal/pkg/game"

// SessionReader exposes game sessions for status reporting.
type SessionReader interface {
	GameSession(gameID uint32) (game.SessionSnapshot, bool)
}

type StartGameRequest struct {
	GameID *uint32 `json:"game_id"`
}

type MakeMoveRequest struct {
	Move string `json:"move"`
}
