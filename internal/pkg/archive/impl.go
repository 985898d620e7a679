package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/vreid/gambit/internal/pkg/blockstore"
	"github.com/vreid/gambit/internal/pkg/common"
	"go.etcd.io/bbolt"
)

var ErrBlocksBucketNotFound = errors.New("archive blocks bucket doesn't exist")

// ArchiveService writes every executed block to bolt as an audit trail. The
// archive is never loaded back into the execution state.
type ArchiveService struct {
	DatabaseService *common.DatabaseService
	Logger          *slog.Logger

	BlockSource <-chan blockstore.Block
}

func NewArchiveService(i do.Injector) (*ArchiveService, error) {
	databaseService := do.MustInvoke[*common.DatabaseService](i)
	logger := do.MustInvoke[*slog.Logger](i)
	blockSource := do.MustInvokeNamed[<-chan blockstore.Block](i, "archive-source")

	result := &ArchiveService{
		DatabaseService: databaseService,
		Logger:          logger,

		BlockSource: blockSource,
	}

	return result, nil
}

func (s *ArchiveService) Start() {
	go s.processBlocks()
}

func (s *ArchiveService) HandleBlock(block blockstore.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block %d: %w", block.Height, err)
	}

	err = s.DatabaseService.DB.Update(func(tx *bbolt.Tx) error {
		blocks := tx.Bucket([]byte(common.ArchiveBlocksBucket))
		if blocks == nil {
			return ErrBlocksBucketNotFound
		}

		err := blocks.Put(common.Uint32ToBytes(block.Height), data)
		if err != nil {
			return fmt.Errorf("failed to put block %d: %w", block.Height, err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to archive block: %w", err)
	}

	return nil
}

func (s *ArchiveService) Lookup(height uint32) (blockstore.Block, bool, error) {
	var (
		block blockstore.Block
		found bool
	)

	err := s.DatabaseService.DB.View(func(tx *bbolt.Tx) error {
		blocks := tx.Bucket([]byte(common.ArchiveBlocksBucket))
		if blocks == nil {
			return ErrBlocksBucketNotFound
		}

		data := blocks.Get(common.Uint32ToBytes(height))
		if data == nil {
			return nil
		}

		found = true

		//nolint:wrapcheck
		return json.Unmarshal(data, &block)
	})
	if err != nil {
		return blockstore.Block{}, false, fmt.Errorf("failed to read block %d: %w", height, err)
	}

	return block, found, nil
}

// LatestHeight returns the highest archived height.
func (s *ArchiveService) LatestHeight() (uint32, bool, error) {
	var (
		height uint32
		found  bool
	)

	err := s.DatabaseService.DB.View(func(tx *bbolt.Tx) error {
		blocks := tx.Bucket([]byte(common.ArchiveBlocksBucket))
		if blocks == nil {
			return ErrBlocksBucketNotFound
		}

		key, _ := blocks.Cursor().Last()
		if key != nil {
			height = common.BytesToUint32(key, 0)
			found = true
		}

		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to read latest height: %w", err)
	}

	return height, found, nil
}

func (s *ArchiveService) processBlocks() {
	for block := range s.BlockSource {
		err := s.HandleBlock(block)
		if err != nil {
			s.Logger.Error("failed to archive block", "height", block.Height, "error", err)
		}
	}
}
