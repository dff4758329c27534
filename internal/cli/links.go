package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/pagesync/internal/model"
	"github.com/klauern/pagesync/internal/source"
	"github.com/klauern/pagesync/internal/store"
	"github.com/klauern/pagesync/internal/ui"
)

// linkPageSize is the listing page size for the links commands.
const linkPageSize = 500

func linksCommand() *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Inspect and manage the page link index",
		Commands: []*cli.Command{
			linksListCommand(),
			linksProtectCommand("protect", true),
			linksProtectCommand("unprotect", false),
		},
	}
}

func linksListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List synced page links",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "orphans",
				Usage: "Show only links whose page no longer exists upstream",
			},
		},
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

			var current map[string]struct{}
			if cmd.Bool("orphans") {
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("invalid config: %w", err)
				}
				client := source.New(source.Config{
					BaseURL:  cfg.Source.BaseURL,
					Token:    cfg.Source.Token,
					Timeout:  cfg.Source.Timeout,
					PageSize: cfg.Source.PageSize,
				})
				pages, err := client.ListPages(ctx, cfg.Source.Collection, nil)
				if err != nil {
					return fmt.Errorf("fetch source listing: %w", err)
				}
				current = make(map[string]struct{}, len(pages))
				for _, p := range pages {
					current[p.ID] = struct{}{}
				}
			}

			return printLinks(ctx, st, current)
		},
	}
}

// printLinks walks the whole link index and prints each row, filtering
// to orphans when current is non-nil.
func printLinks(ctx context.Context, st *store.Store, current map[string]struct{}) error {
	fmt.Printf("%-40s %-10s %-22s %s\n",
		ui.Header("EXTERNAL ID"), ui.Header("LOCAL ID"), ui.Header("LAST SYNCED EDIT"), ui.Header("FLAGS"))

	afterID := int64(0)
	shown := 0
	for {
		links, err := st.ListLinks(ctx, afterID, linkPageSize)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			break
		}

		for _, link := range links {
			afterID = link.LocalID
			if current != nil {
				if _, present := current[link.ExternalID]; present {
					continue
				}
			}
			fmt.Printf("%-40s %-10d %-22s %s\n",
				link.ExternalID,
				link.LocalID,
				link.LastSyncedEdit.Format("2006-01-02 15:04:05Z"),
				linkFlags(link))
			shown++
		}

		if len(links) < linkPageSize {
			break
		}
	}

	if shown == 0 {
		fmt.Println(ui.Dim("no links"))
	}
	return nil
}

// linkFlags renders the display flags for a link row.
func linkFlags(link model.Link) string {
	if link.Protected {
		return ui.Warning("protected")
	}
	return ""
}

func linksProtectCommand(name string, protected bool) *cli.Command {
	usage := "Protect a link from deletion reconciliation"
	if !protected {
		usage = "Remove deletion protection from a link"
	}

	return &cli.Command{
		Name:      name,
		Usage:     usage,
		UsageText: fmt.Sprintf("pagesync links %s <external-id>", name),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("expected exactly one external id")
			}
			externalID := cmd.Args().Get(0)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ok, err := st.SetProtected(ctx, externalID, protected)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no link for external id %s", externalID)
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf("%sed %s", name, externalID)))
			return nil
		},
	}
}
