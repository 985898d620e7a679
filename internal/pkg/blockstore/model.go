package blockstore

import (
	"bytes"
	"errors"
	"time"
)

var (
	ErrHeightConflict = errors.New("height conflict")
	ErrBlockNotFound  = errors.New("block not found")
)

const (
	GenesisHeight = 0

	// DefaultBaseSettlementHeight is the settlement-layer height the genesis
	// commitment is anchored to.
	DefaultBaseSettlementHeight = 2
)

// GenesisHash is the fixed placeholder hash of the genesis block.
var GenesisHash = bytes.Repeat([]byte{0x45}, 32)

type Block struct {
	Height       uint32    `json:"height"`
	Hash         []byte    `json:"hash"`
	ParentHash   []byte    `json:"parent_hash"`
	Timestamp    time.Time `json:"timestamp"`
	Transactions [][]byte  `json:"transactions"`
}

func Genesis() Block {
	return Block{
		Height:       GenesisHeight,
		Hash:         bytes.Clone(GenesisHash),
		ParentHash:   []byte{},
		Timestamp:    time.Unix(0, 0).UTC(),
		Transactions: [][]byte{},
	}
}

// Clone returns a copy that shares no memory with b.
func (b Block) Clone() Block {
	if b.Transactions != nil {
		transactions := make([][]byte, len(b.Transactions))
		for index, tx := range b.Transactions {
			transactions[index] = bytes.Clone(tx)
		}

		b.Transactions = transactions
	}

	b.Hash = bytes.Clone(b.Hash)
	b.ParentHash = bytes.Clone(b.ParentHash)

	return b
}
