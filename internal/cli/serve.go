package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/klauern/pagesync/internal/progress"
	"github.com/klauern/pagesync/internal/sync"
	"github.com/klauern/pagesync/internal/trigger"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the webhook listener and optional sync schedule",
		Description: `Start serve mode: listen for webhook events from the workspace
   and optionally run scheduled passes.

   Examples:
     pagesync serve
     pagesync serve --schedule 30m`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides config)",
			},
			&cli.DurationFlag{
				Name:  "schedule",
				Usage: "Run a pass on this interval (overrides config)",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w (run 'pagesync config init')", err)
	}

	addr := cfg.Server.Addr
	if v := cmd.String("addr"); v != "" {
		addr = v
	}
	schedule := cfg.Server.Schedule
	if v := cmd.Duration("schedule"); v > 0 {
		schedule = v
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// Serve mode always runs unattended; the log sink carries progress
	// and the memory sink backs the status endpoint.
	memory := progress.NewMemorySink()
	sink := progress.Multi{progress.LogSink{}, memory}
	syncer := buildSyncer(cfg, st, sink, false)

	dispatcher := trigger.NewDispatcher(syncer)
	server := trigger.NewServer(dispatcher, memory)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if schedule > 0 {
		scheduler := trigger.NewScheduler(syncer, schedule, sync.PassConfig{
			Incremental:    cfg.Sync.Incremental,
			CheckDeletions: cfg.Sync.CheckDeletions,
		})
		go scheduler.Start(ctx)
	}

	fmt.Printf("serving on %s", addr)
	if schedule > 0 {
		fmt.Printf(" (scheduled pass every %s)", schedule.Round(time.Second))
	}
	fmt.Println()

	return server.Serve(ctx, addr)
}
