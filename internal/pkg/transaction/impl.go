package transaction

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
)

// Every payload starts with the tag and the game id.
const minLength = 5

type decoder func(gameID uint32, rest *cryptobyte.String) (Transaction, error)

var decoders = map[Tag]decoder{
	TagStartGame: decodeStartGame,
	TagMakeMove:  decodeMakeMove,
}

func Encode(tx Transaction) []byte {
	var b cryptobyte.Builder

	switch tx := tx.(type) {
	case StartGame:
		b.AddUint8(uint8(TagStartGame))
		b.AddUint32(tx.GameID)
	case MakeMove:
		b.AddUint8(uint8(TagMakeMove))
		b.AddUint32(tx.GameID)
		//nolint:gosec // move text is bounded by the caller
		b.AddUint32(uint32(len(tx.Move)))
		b.AddBytes([]byte(tx.Move))
	default:
		panic(fmt.Sprintf("transaction: unknown type %T", tx))
	}

	return b.BytesOrPanic()
}

func Decode(data []byte) (Transaction, error) {
	if len(data) < minLength {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrDecode, minLength, len(data))
	}

	s := cryptobyte.String(data)

	var (
		tag    uint8
		gameID uint32
	)

	if !s.ReadUint8(&tag) || !s.ReadUint32(&gameID) {
		return nil, fmt.Errorf("%w: truncated header", ErrDecode)
	}

	decode, ok := decoders[Tag(tag)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tag %d", ErrDecode, tag)
	}

	return decode(gameID, &s)
}

func decodeStartGame(gameID uint32, _ *cryptobyte.String) (Transaction, error) {
	return StartGame{GameID: gameID}, nil
}

func decodeMakeMove(gameID uint32, rest *cryptobyte.String) (Transaction, error) {
	var length uint32
	if !rest.ReadUint32(&length) {
		return nil, fmt.Errorf("%w: missing move length", ErrDecode)
	}

	if uint64(length) > uint64(len(*rest)) {
		return nil, fmt.Errorf("%w: move length %d exceeds remaining %d bytes", ErrDecode, length, len(*rest))
	}

	var move []byte
	if !rest.ReadBytes(&move, int(length)) {
		return nil, fmt.Errorf("%w: truncated move", ErrDecode)
	}

	if !utf8.Valid(move) {
		return nil, fmt.Errorf("%w: move is not valid UTF-8", ErrDecode)
	}

	return MakeMove{GameID: gameID, Move: string(move)}, nil
}
