package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/klauern/pagesync/internal/config"
	"github.com/klauern/pagesync/internal/ui"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage pagesync configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					if config.Exists() && !cmd.Bool("force") {
						return fmt.Errorf("config already exists at %s (use --force to overwrite)", config.FilePath())
					}
					if err := config.Default().Save(); err != nil {
						return fmt.Errorf("write config: %w", err)
					}
					fmt.Println(ui.StatusSuccess("wrote " + config.FilePath()))
					fmt.Println(ui.Dim("set source.base_url, source.collection, and PAGESYNC_SOURCE_TOKEN to get started"))
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return fmt.Errorf("load config: %w", err)
					}

					// Never print credentials.
					redacted := *cfg
					if redacted.Source.Token != "" {
						redacted.Source.Token = "<redacted>"
					}

					data, err := yaml.Marshal(&redacted)
					if err != nil {
						return err
					}
					fmt.Print(string(data))
					return nil
				},
			},
		},
	}
}
