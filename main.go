package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"
	"github.com/vreid/gambit/internal/pkg/archive"
	"github.com/vreid/gambit/internal/pkg/blockstore"
	"github.com/vreid/gambit/internal/pkg/common"
	"github.com/vreid/gambit/internal/pkg/execution"
	"github.com/vreid/gambit/internal/pkg/games"
	"github.com/vreid/gambit/internal/pkg/publisher"
	"github.com/vreid/gambit/internal/pkg/sequencer"

	"github.com/urfave/cli/v3"
)

const blockBufferSize = 1000

type GambitService struct {
	EchoService *common.EchoService `do:""`

	ExecutionService *execution.ExecutionService `do:""`
	LocalSequencer   *sequencer.LocalSequencer   `do:""`
	GamesService     *games.GamesService         `do:""`
}

func runServer(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	i := do.New()
	defer func() { _ = i.Shutdown() }()

	do.ProvideNamedValue(i, "port", cmd.Int("port"))
	do.ProvideNamedValue(i, "data-dir", cmd.String("data-dir"))
	do.ProvideNamedValue(i, "log-level", cmd.String("log-level"))
	do.ProvideNamedValue(i, "log-format", cmd.String("log-format"))

	do.ProvideNamedValue(i, "rollup-id", cmd.String("rollup-id"))
	do.ProvideNamedValue(i, "sequencer-genesis-height", cmd.Int("sequencer-genesis-height"))
	do.ProvideNamedValue(i, "settlement-block-variance", cmd.Int("settlement-block-variance"))
	do.ProvideNamedValue(i, "base-settlement-height", cmd.Int("base-settlement-height"))

	do.ProvideNamedValue(i, "composer-url", cmd.String("composer-url"))
	do.ProvideNamedValue(i, "local-sequencer", cmd.Bool("local-sequencer"))
	do.ProvideNamedValue(i, "block-interval", cmd.Duration("block-interval"))
	do.ProvideNamedValue(i, "max-batch", cmd.Int("max-batch"))
	do.ProvideNamedValue(i, "queue-size", cmd.Int("queue-size"))

	var blockSinks []chan<- blockstore.Block

	archiveEnabled := cmd.Bool("archive")
	if archiveEnabled {
		archiveChan := make(chan blockstore.Block, blockBufferSize)
		var archiveSource <-chan blockstore.Block = archiveChan

		do.ProvideNamedValue(i, "archive-source", archiveSource)
		blockSinks = append(blockSinks, archiveChan)

		do.Provide(i, common.NewDatabaseService)
		do.Provide(i, archive.NewArchiveService)
	}

	valkeyAddr := cmd.String("valkey-addr")
	if valkeyAddr != "" {
		publisherChan := make(chan blockstore.Block, blockBufferSize)
		var publisherSource <-chan blockstore.Block = publisherChan

		do.ProvideNamedValue(i, "valkey-addr", valkeyAddr)
		do.ProvideNamedValue(i, "publisher-source", publisherSource)
		blockSinks = append(blockSinks, publisherChan)

		do.Provide(i, publisher.NewPublisherService)
	}

	do.ProvideNamedValue(i, "block-sinks", blockSinks)

	do.Provide(i, common.NewLogger)
	do.Provide(i, common.NewEchoService)

	do.Provide(i, execution.NewExecutionService)
	do.Provide(i, sequencer.NewLocalSequencerService)
	do.Provide(i, sequencer.NewSubmitter)
	do.Provide(i, games.NewGamesService)

	do.Provide(i, do.InvokeStruct[GambitService])

	gambitService, err := do.Invoke[GambitService](i)
	if err != nil {
		return fmt.Errorf("failed to create gambit service: %w", err)
	}

	if archiveEnabled {
		archiveService, err := do.Invoke[*archive.ArchiveService](i)
		if err != nil {
			return fmt.Errorf("failed to create archive service: %w", err)
		}

		archiveService.Start()
	}

	if valkeyAddr != "" {
		publisherService, err := do.Invoke[*publisher.PublisherService](i)
		if err != nil {
			return fmt.Errorf("failed to create publisher service: %w", err)
		}

		publisherService.Start(ctx)
	}

	gambitService.LocalSequencer.Start(ctx)

	//nolint:wrapcheck
	return gambitService.EchoService.Start(ctx)
}

func main() {
	//nolint:exhaustruct
	cmd := &cli.Command{
		Name:  "gambit",
		Usage: "chess rollup execution node",
		Commands: []*cli.Command{
			{
				Name: "server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Value:   3000, //nolint:mnd
						Sources: cli.EnvVars("GAMBIT_PORT"),
					},
					&cli.StringFlag{
						Name:    "data-dir",
						Value:   "./gambit/data",
						Sources: cli.EnvVars("GAMBIT_DATA_DIR"),
					},
					&cli.StringFlag{
						Name:    "log-level",
						Value:   "info",
						Sources: cli.EnvVars("GAMBIT_LOG_LEVEL"),
					},
					&cli.StringFlag{
						Name:    "log-format",
						Value:   "text",
						Sources: cli.EnvVars("GAMBIT_LOG_FORMAT"),
					},
					&cli.StringFlag{
						Name:    "rollup-id",
						Value:   execution.DefaultRollupID,
						Sources: cli.EnvVars("GAMBIT_ROLLUP_ID"),
					},
					&cli.IntFlag{
						Name:    "sequencer-genesis-height",
						Value:   execution.DefaultSequencerGenesisBlockHeight,
						Sources: cli.EnvVars("GAMBIT_SEQUENCER_GENESIS_HEIGHT"),
					},
					&cli.IntFlag{
						Name:    "settlement-block-variance",
						Value:   execution.DefaultSettlementBlockVariance,
						Sources: cli.EnvVars("GAMBIT_SETTLEMENT_BLOCK_VARIANCE"),
					},
					&cli.IntFlag{
						Name:    "base-settlement-height",
						Value:   blockstore.DefaultBaseSettlementHeight,
						Sources: cli.EnvVars("GAMBIT_BASE_SETTLEMENT_HEIGHT"),
					},
					&cli.StringFlag{
						Name:    "composer-url",
						Value:   "",
						Sources: cli.EnvVars("GAMBIT_COMPOSER_URL"),
					},
					&cli.BoolFlag{
						Name:    "local-sequencer",
						Value:   false,
						Sources: cli.EnvVars("GAMBIT_LOCAL_SEQUENCER"),
					},
					&cli.DurationFlag{
						Name:    "block-interval",
						Value:   2 * time.Second, //nolint:mnd
						Sources: cli.EnvVars("GAMBIT_BLOCK_INTERVAL"),
					},
					&cli.IntFlag{
						Name:    "max-batch",
						Value:   100, //nolint:mnd
						Sources: cli.EnvVars("GAMBIT_MAX_BATCH"),
					},
					&cli.IntFlag{
						Name:    "queue-size",
						Value:   1000, //nolint:mnd
						Sources: cli.EnvVars("GAMBIT_QUEUE_SIZE"),
					},
					&cli.BoolFlag{
						Name:    "archive",
						Value:   false,
						Sources: cli.EnvVars("GAMBIT_ARCHIVE"),
					},
					&cli.StringFlag{
						Name:    "valkey-addr",
						Value:   "",
						Sources: cli.EnvVars("GAMBIT_VALKEY_ADDR"),
					},
				},
				Action: runServer,
			},
		},
		DefaultCommand: "server",
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
