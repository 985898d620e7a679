package transaction

import "errors"

var ErrDecode = errors.New("malformed transaction")

type Tag uint8

const (
	TagStartGame Tag = 0
	TagMakeMove  Tag = 1
)

// Transaction is one of StartGame or MakeMove.
type Transaction interface {
	Tag() Tag
}

type StartGame struct {
	GameID uint32 `json:"game_id"`
}

type MakeMove struct {
	GameID uint32 `json:"game_id"`
	Move   string `json:"move"`
}

func (StartGame) Tag() Tag { return TagStartGame }

func (MakeMove) Tag() Tag { return TagMakeMove }
