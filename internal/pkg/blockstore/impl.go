package blockstore

import (
	"bytes"
	"fmt"
)

// BlockStore tracks executed blocks and the soft/firm watermarks. It is not
// safe for concurrent use; the owner serializes access. Blocks are copied in
// and out, so stored blocks never change.
type BlockStore struct {
	blocks map[uint32]Block

	softHeight           uint32
	firmHeight           uint32
	baseSettlementHeight uint64
}

func New(baseSettlementHeight uint64) *BlockStore {
	genesis := Genesis()

	return &BlockStore{
		blocks: map[uint32]Block{
			genesis.Height: genesis,
		},
		softHeight:           genesis.Height,
		firmHeight:           genesis.Height,
		baseSettlementHeight: baseSettlementHeight,
	}
}

func (s *BlockStore) SoftHeight() uint32 {
	return s.softHeight
}

func (s *BlockStore) FirmHeight() uint32 {
	return s.firmHeight
}

func (s *BlockStore) BaseSettlementHeight() uint64 {
	return s.baseSettlementHeight
}

// AddBlock stores block and makes it the soft head. Blocks at or below the
// current soft height are rejected.
func (s *BlockStore) AddBlock(block Block) error {
	if block.Height <= s.softHeight {
		return fmt.Errorf("%w: block %d is not above soft height %d", ErrHeightConflict, block.Height, s.softHeight)
	}

	s.blocks[block.Height] = block.Clone()
	s.softHeight = block.Height

	return nil
}

func (s *BlockStore) SetFirmHeight(height uint32) error {
	if height > s.softHeight {
		return fmt.Errorf("%w: firm height %d is above soft height %d", ErrHeightConflict, height, s.softHeight)
	}

	s.firmHeight = height

	return nil
}

// Commit moves both watermarks and the base settlement height at once. It
// changes nothing unless soft is a stored block, neither watermark moves
// backwards and firm does not pass soft.
func (s *BlockStore) Commit(soft, firm uint32, baseSettlementHeight uint64) error {
	if _, ok := s.blocks[soft]; !ok {
		return fmt.Errorf("%w: soft block %d", ErrBlockNotFound, soft)
	}

	if soft < s.softHeight {
		return fmt.Errorf("%w: soft height %d is below current %d", ErrHeightConflict, soft, s.softHeight)
	}

	if firm < s.firmHeight {
		return fmt.Errorf("%w: firm height %d is below current %d", ErrHeightConflict, firm, s.firmHeight)
	}

	if firm > soft {
		return fmt.Errorf("%w: firm height %d is above soft height %d", ErrHeightConflict, firm, soft)
	}

	s.softHeight = soft
	s.firmHeight = firm
	s.baseSettlementHeight = baseSettlementHeight

	return nil
}

func (s *BlockStore) Block(height uint32) (Block, bool) {
	block, ok := s.blocks[height]
	if !ok {
		return Block{}, false
	}

	return block.Clone(), true
}

func (s *BlockStore) ParentHash(height uint32) ([]byte, error) {
	block, ok := s.blocks[height]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBlockNotFound, height)
	}

	return bytes.Clone(block.ParentHash), nil
}

func (s *BlockStore) SoftBlock() Block {
	return s.blocks[s.softHeight].Clone()
}

func (s *BlockStore) FirmBlock() Block {
	return s.blocks[s.firmHeight].Clone()
}
