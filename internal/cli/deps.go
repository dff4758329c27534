package cli

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/pagesync/internal/config"
	"github.com/klauern/pagesync/internal/progress"
	"github.com/klauern/pagesync/internal/render"
	"github.com/klauern/pagesync/internal/source"
	"github.com/klauern/pagesync/internal/store"
	"github.com/klauern/pagesync/internal/sync"
)

// loadConfig loads configuration, honoring the global --config flag.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// openStore opens the content store from config.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}
	return st, nil
}

// syncOptions maps config onto pass coordinator options.
func syncOptions(cfg *config.Config, dryRun bool) sync.Options {
	opts := sync.DefaultOptions()
	opts.Collection = cfg.Source.Collection
	opts.CompareHashes = cfg.Sync.CompareHashes
	opts.BulkMode = cfg.Sync.BulkMode
	opts.BulkThreshold = cfg.Sync.BulkThreshold
	opts.RefilterThreshold = cfg.Sync.RefilterThreshold
	opts.GraceWindow = cfg.Sync.GraceWindow
	opts.DeleteBatchSize = cfg.Sync.DeleteBatchSize
	opts.ProgressEvery = cfg.Sync.ProgressEvery
	opts.ReclaimEvery = cfg.Sync.ReclaimEvery
	opts.MemoryBudgetMB = cfg.Sync.MemoryBudgetMB
	opts.DryRun = dryRun

	switch cfg.Sync.Background {
	case "always":
		opts.Background = true
	case "never":
		opts.Background = false
	default:
		opts.Background = sync.DetectBackground()
	}

	return opts
}

// buildSyncer assembles the pass coordinator from config. The caller
// owns the returned store and must close it.
func buildSyncer(cfg *config.Config, st *store.Store, sink progress.Sink, dryRun bool) *sync.Syncer {
	client := source.New(source.Config{
		BaseURL:  cfg.Source.BaseURL,
		Token:    cfg.Source.Token,
		Timeout:  cfg.Source.Timeout,
		PageSize: cfg.Source.PageSize,
	})
	return sync.New(client, st, render.NewMarkdown(), sink, syncOptions(cfg, dryRun))
}
