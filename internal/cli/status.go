package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/klauern/pagesync/internal/ui"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show sync state: watermark age and store contents",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			watermark, err := st.Watermark(ctx)
			if err != nil {
				return err
			}
			links, err := st.CountLinks(ctx)
			if err != nil {
				return err
			}
			docs, err := st.CountDocuments(ctx)
			if err != nil {
				return err
			}

			fmt.Println(ui.Header("pagesync status"))
			if watermark == nil {
				fmt.Printf("  Last sync: %s\n", ui.Dim("never"))
			} else {
				fmt.Printf("  Last sync: %s (%s)\n",
					watermark.Format("2006-01-02 15:04:05 MST"),
					humanize.Time(*watermark))
			}
			fmt.Printf("  Documents: %d\n", docs)
			fmt.Printf("  Links:     %d\n", links)
			fmt.Printf("  Store:     %s\n", cfg.Store.Path)
			return nil
		},
	}
}
