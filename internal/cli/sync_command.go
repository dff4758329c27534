package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/pagesync/internal/progress"
	"github.com/klauern/pagesync/internal/sync"
	"github.com/klauern/pagesync/internal/ui"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Run a sync pass against the remote workspace",
		Description: `Run one synchronization pass: fetch changed pages, update the
   local content store, and reconcile deletions.

   Examples:
     pagesync sync
     pagesync sync --full --no-deletions
     pagesync sync --dry-run
     pagesync sync --page 6f1d2c`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "full",
				Usage: "Fetch the full listing instead of an incremental pass",
			},
			&cli.BoolFlag{
				Name:  "no-deletions",
				Usage: "Skip deletion reconciliation",
			},
			&cli.BoolFlag{
				Name:  "force-refresh",
				Usage: "Reprocess every page, ignoring the watermark and skip checks",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Preview changes without writing to the store",
			},
			&cli.StringFlag{
				Name:  "page",
				Usage: "Sync a single page by its external id",
			},
		},
		Action: runSync,
	}
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w (run 'pagesync config init')", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	syncer := buildSyncer(cfg, st, progress.NewBarSink(nil), cmd.Bool("dry-run"))

	var res *sync.Result
	if pageID := cmd.String("page"); pageID != "" {
		res, err = syncer.SyncPage(ctx, pageID)
	} else {
		res, err = syncer.Run(ctx, sync.PassConfig{
			Incremental:    !cmd.Bool("full") && cfg.Sync.Incremental,
			CheckDeletions: !cmd.Bool("no-deletions") && cfg.Sync.CheckDeletions,
			ForceRefresh:   cmd.Bool("force-refresh"),
		})
	}
	if err != nil {
		return err
	}

	fmt.Print(res.Summary())
	if res.Success() {
		fmt.Println(ui.StatusSuccess("sync pass complete"))
	} else {
		fmt.Println(ui.StatusWarning(fmt.Sprintf("sync pass finished with %d failures", res.Failed)))
	}
	return nil
}
