package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"
	"github.com/valkey-io/valkey-go"
	"github.com/vreid/gambit/internal/pkg/blockstore"
)

const (
	BlocksChannel  = "gambit:blocks"
	LatestBlockKey = "gambit:blocks:latest"
	publishTimeout = 5 * time.Second
)

// Broker is the subset of valkey the publisher needs.
type Broker interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Set(ctx context.Context, key string, value []byte) error
	Close()
}

// PublisherService announces executed blocks to subscribers.
type PublisherService struct {
	Broker Broker
	Logger *slog.Logger

	BlockSource <-chan blockstore.Block
}

func NewPublisherService(i do.Injector) (*PublisherService, error) {
	logger := do.MustInvoke[*slog.Logger](i)
	address := do.MustInvokeNamed[string](i, "valkey-addr")
	blockSource := do.MustInvokeNamed[<-chan blockstore.Block](i, "publisher-source")

	broker, err := NewValkeyBroker(address)
	if err != nil {
		return nil, err
	}

	return &PublisherService{
		Broker:      broker,
		Logger:      logger,
		BlockSource: blockSource,
	}, nil
}

func (s *PublisherService) Start(ctx context.Context) {
	go s.processBlocks(ctx)
}

func (s *PublisherService) HandleBlock(ctx context.Context, block blockstore.Block) error {
	message, err := json.Marshal(block)
	if err != nil {
		return fmt.Errorf("failed to marshal block %d: %w", block.Height, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.Broker.Set(ctx, LatestBlockKey, message)
	if err != nil {
		return fmt.Errorf("failed to store latest block %d: %w", block.Height, err)
	}

	err = s.Broker.Publish(ctx, BlocksChannel, message)
	if err != nil {
		return fmt.Errorf("failed to publish block %d: %w", block.Height, err)
	}

	return nil
}

func (s *PublisherService) Shutdown() error {
	s.Broker.Close()

	return nil
}

func (s *PublisherService) processBlocks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case block, ok := <-s.BlockSource:
			if !ok {
				return
			}

			err := s.HandleBlock(ctx, block)
			if err != nil {
				s.Logger.Error("failed to publish block", "height", block.Height, "error", err)
			}
		}
	}
}

type ValkeyBroker struct {
	client valkey.Client
}

func NewValkeyBroker(address string) (*ValkeyBroker, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{address},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", address, err)
	}

	return &ValkeyBroker{client: client}, nil
}

func (b *ValkeyBroker) Publish(ctx context.Context, channel string, message []byte) error {
	cmd := b.client.B().Publish().Channel(channel).Message(valkey.BinaryString(message)).Build()

	//nolint:wrapcheck
	return b.client.Do(ctx, cmd).Error()
}

func (b *ValkeyBroker) Set(ctx context.Context, key string, value []byte) error {
	cmd := b.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()

	//nolint:wrapcheck
	return b.client.Do(ctx, cmd).Error()
}

func (b *ValkeyBroker) Close() {
	b.client.Close()
}
