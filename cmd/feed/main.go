package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chainfeed/internal/chain"
	"chainfeed/internal/chaindata"
	"chainfeed/internal/config"
	"chainfeed/internal/feed"
	"chainfeed/internal/model"
	"chainfeed/internal/storage"
	"chainfeed/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "feed",
		Short:        "Solana websocket state feed",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the feed",
		RunE:  runFeed,
	}

	runCmd.Flags().String("ws-url", "", "node websocket URL")
	runCmd.Flags().String("program", "", "program whose accounts are all tracked")
	runCmd.Flags().String("scoped-program", "", "program tracked through the scoped filter")
	runCmd.Flags().String("authority", "", "authority pubkey for the scoped filter")
	runCmd.Flags().StringSlice("account", nil, "individually tracked accounts (comma-separated)")
	runCmd.Flags().Uint64("scoped-data-size", 3228, "exact account size for the scoped filter")
	runCmd.Flags().String("scoped-tag", "AcUQf4PGf6fCHGwmpB", "base58 tag the scoped accounts start with")
	runCmd.Flags().Uint64("scoped-tag-offset", 0, "byte offset of the tag")
	runCmd.Flags().Uint64("scoped-authority-offset", 45, "byte offset of the authority field")
	runCmd.Flags().Int("channel-size", 4096, "outbound event channel capacity")
	runCmd.Flags().Duration("idle-timeout", 60*time.Second, "reconnect after this long without any notification")
	runCmd.Flags().Duration("bootstrap-timeout", 30*time.Second, "how long to wait for the first new-block event")
	runCmd.Flags().String("journal-out", "", "optional JSONL event journal path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for event persistence")
	runCmd.Flags().Int("flush-batch", 256, "events per persistence batch")
	runCmd.Flags().Duration("flush-interval", time.Second, "persistence flush interval")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runFeed(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.WSURL == "" {
		return fmt.Errorf("ws url is required")
	}

	program, err := solana.PublicKeyFromBase58(cfg.Program)
	if err != nil {
		return fmt.Errorf("parse program: %w", err)
	}
	scopedProgram, err := solana.PublicKeyFromBase58(cfg.ScopedProgram)
	if err != nil {
		return fmt.Errorf("parse scoped program: %w", err)
	}
	authority, err := solana.PublicKeyFromBase58(cfg.Authority)
	if err != nil {
		return fmt.Errorf("parse authority: %w", err)
	}
	accounts, err := parseAccounts(cfg.Accounts)
	if err != nil {
		return err
	}

	scopedFilters, err := chain.ScopedAccountFilters(
		cfg.ScopedDataSize, cfg.ScopedTagOffset, cfg.ScopedTag, cfg.ScopedAuthorityOffset, authority)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var journal storage.Storage
	if cfg.JournalOut != "" {
		journal = storage.NewJsonlStorage(cfg.JournalOut)
	}
	var db *postgres.Store
	if cfg.PGDSN != "" {
		db, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	recorder := storage.NewRecorder(journal, db, cfg.FlushBatch)

	events := make(chan model.Event, cfg.ChannelSize)
	feed.Start(ctx, feed.Config{
		Program:         program,
		ScopedProgram:   scopedProgram,
		ScopedFilters:   scopedFilters,
		TrackedAccounts: accounts,
		IdleTimeout:     cfg.IdleTimeout,
		Dial: func(ctx context.Context) (chain.Session, error) {
			return chain.Dial(ctx, cfg.WSURL)
		},
	}, events, logger)

	logger.Info("feed start",
		zap.String("ws_url", cfg.WSURL),
		zap.Stringer("program", program),
		zap.Stringer("scoped_program", scopedProgram),
		zap.Stringer("authority", authority),
		zap.Int("accounts", len(accounts)),
		zap.Duration("idle_timeout", cfg.IdleTimeout),
		zap.String("journal_out", cfg.JournalOut),
		zap.Bool("postgres", db != nil),
	)

	firstSlot, err := feed.AwaitFirstNewBlock(ctx, events, cfg.BootstrapTimeout)
	if err != nil {
		return fmt.Errorf("waiting for feed to go live: %w", err)
	}
	logger.Info("feed live", zap.Uint64("first_slot", firstSlot))

	store := chaindata.New()
	return consume(ctx, events, store, recorder, cfg.FlushInterval, logger)
}

// consume applies every feed event to the chain state store and records it
// to the configured sinks. It returns once the feed closes the channel.
func consume(ctx context.Context, events <-chan model.Event, store *chaindata.ChainData, recorder *storage.Recorder, flushInterval time.Duration, logger *zap.Logger) error {
	flush := time.NewTicker(flushInterval)
	defer flush.Stop()
	stats := time.NewTicker(30 * time.Second)
	defer stats.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return recorder.Flush(context.Background())
			}
			store.Apply(event)
			if err := recorder.Record(ctx, event, time.Now()); err != nil {
				logger.Warn("record event", zap.Error(err))
			}
		case <-flush.C:
			if err := recorder.Flush(ctx); err != nil {
				logger.Warn("flush events", zap.Error(err))
			}
		case <-stats.C:
			logger.Info("chain state",
				zap.Uint64("best_chain_slot", store.BestChainSlot()),
				zap.Uint64("newest_rooted_slot", store.NewestRootedSlot()),
				zap.Int("accounts", store.AccountCount()),
				zap.Int("slots", store.SlotCount()),
			)
		}
	}
}

func parseAccounts(inputs []string) ([]solana.PublicKey, error) {
	accounts := make([]solana.PublicKey, 0, len(inputs))
	for _, input := range inputs {
		pubkey, err := solana.PublicKeyFromBase58(input)
		if err != nil {
			return nil, fmt.Errorf("parse account %q: %w", input, err)
		}
		accounts = append(accounts, pubkey)
	}
	return accounts, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
