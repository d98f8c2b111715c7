package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/bulk"
	"github.com/bazarr-bulk/bb/internal/cache"
	"github.com/bazarr-bulk/bb/internal/client"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/errtrack"
	"github.com/bazarr-bulk/bb/internal/metrics"
	"github.com/bazarr-bulk/bb/internal/models"
	"github.com/bazarr-bulk/bb/internal/progress"
	"github.com/bazarr-bulk/bb/internal/store"
)

const (
	pushTimeout  = 10 * time.Second
	flushTimeout = 2 * time.Second
)

func (c *commandContext) runBulk(cmd *cobra.Command, target bulk.Target, action models.Action, filter models.Filter) (err error) {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return err
	}
	logCloser := config.ConfigureLogger(cfg)
	defer logCloser.Close()

	runID := uuid.NewString()
	logger := config.GetLogger().With().Str("run_id", runID).Logger()
	config.SetLogger(logger)

	command := targetCommand(target) + " " + action.Kind.Command()
	logger.Info().
		Str("version", config.Version).
		Str("command", command).
		Ints("ids", filter.IDs).
		Int("offset", filter.Offset).
		Str("language", filter.Language).
		Bool("skip_processed", filter.SkipProcessed).
		Msg("Starting bulk run")

	tracker, trackErr := errtrack.FromConfig(cfg, runID)
	if trackErr != nil {
		logger.Warn().Err(trackErr).Msg("Error reporting disabled")
	}
	defer tracker.Flush(flushTimeout)
	defer func() {
		if err != nil && apperrors.IsFatal(err) {
			tracker.Capture(err, map[string]string{"command": command})
		}
	}()

	ledger, ledgerPath, lock, err := openLedger(cfg, true)
	if err != nil {
		return err
	}
	defer lock.Release()
	ledger = store.Memoize(ledger, store.DefaultMemoSize)
	defer ledger.Close()

	inventoryCache := newInventoryCache(cfg, ledgerPath)
	apiClient, err := client.NewClient(cfg, client.WithCache(inventoryCache))
	if err != nil {
		if inventoryCache != nil {
			_ = inventoryCache.Close()
		}
		return err
	}
	// The client owns the cache from here on.
	defer apiClient.Close()

	tally := progress.NewTally()
	reporters := progress.Fanout{tally, progress.MetricsReporter{}}
	interactive := config.IsTerminal(os.Stderr)
	var terminal *progress.TerminalReporter
	if interactive {
		terminal = progress.NewTerminalReporter(os.Stderr)
		reporters = append(reporters, terminal)
	} else {
		reporters = append(reporters, progress.NewLogReporter(logger))
	}

	runErr := bulk.NewRunner(apiClient, ledger, reporters).Run(cmd.Context(), target, action, filter)
	if terminal != nil {
		terminal.Stop()
	}

	if interactive {
		fmt.Fprintln(cmd.OutOrStdout(), progress.RenderSummary(tally))
	} else {
		logger.Info().
			Str("summary", tally.String()).
			Dur("elapsed", tally.Elapsed()).
			Msg("Run finished")
	}

	metrics.RunDurationSeconds.Set(tally.Elapsed().Seconds())
	metrics.LastRunTimestamp.SetToCurrentTime()
	pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()
	if pushErr := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, runID, command, nil); pushErr != nil {
		logger.Warn().Err(pushErr).Msg("Failed to push metrics")
	}

	return runErr
}

// openLedger resolves and opens the configured ledger and returns its path.
// With exclusive set, a lock next to it is held until released.
func openLedger(cfg *config.Config, exclusive bool) (store.Store, string, *store.Lock, error) {
	path, err := store.NewResolver().ResolvePath(cfg.Store.Path, cfg.Store.Provider)
	if err != nil {
		return nil, "", nil, err
	}

	var lock *store.Lock
	if exclusive {
		if lock, err = store.AcquireLock(path); err != nil {
			return nil, "", nil, err
		}
	}

	ledger, err := store.Open(cfg.Store.Provider, path)
	if err != nil {
		_ = lock.Release()
		return nil, "", nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	logger := config.GetLogger()
	logger.Debug().Str("provider", cfg.Store.Provider).Str("path", path).Msg("Ledger opened")
	return ledger, path, lock, nil
}

// inventoryCacheDir is where the disk cache lives unless cache.dir is set.
// Runs holding the ledger lock are the only writers.
func inventoryCacheDir(cfg *config.Config, ledgerPath string) string {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	return filepath.Join(filepath.Dir(ledgerPath), "inventory-cache")
}

// newInventoryCache returns nil when caching is disabled or the backend is unusable.
func newInventoryCache(cfg *config.Config, ledgerPath string) cache.Cache {
	logger := config.GetLogger()
	c, err := cache.New(cache.Options{
		Provider:      cfg.Cache.Provider,
		TTL:           cfg.CacheTTL(),
		Dir:           inventoryCacheDir(cfg, ledgerPath),
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Logger:        cacheLogger{},
	})
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.Cache.Provider).Msg("Inventory cache unavailable, continuing without it")
		return nil
	}
	return c
}

type cacheLogger struct{}

func (cacheLogger) Error(msg string, err error) {
	logger := config.GetLogger()
	logger.Warn().Err(err).Msg(msg)
}
