package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/varga/larkpub/internal"
	"github.com/varga/larkpub/internal/publisher"
	pkgconfig "github.com/varga/larkpub/pkg/config"
)

func loadApp(cmd *cli.Command) (*internal.App, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return internal.NewApp(internal.WithConfig(cfg))
}

func targetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "target",
			Usage: "Destination: space, folder, or wiki",
			Value: string(publisher.TargetSpace),
		},
		&cli.StringFlag{
			Name:  "folder",
			Usage: "Folder token (for --target folder)",
		},
		&cli.StringFlag{
			Name:  "wiki-node",
			Usage: "Wiki parent node token (for --target wiki)",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "larkpub",
		Usage: "Publish Markdown files as Feishu documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "publish",
				Usage:     "Publish a Markdown file as a new document",
				ArgsUsage: "<file.md>",
				Flags: append(targetFlags(),
					&cli.BoolFlag{
						Name:  "check-duplicate",
						Usage: "Skip creation when the folder already has a document with the same title",
						Value: true,
					},
				),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("missing markdown file argument")
					}
					app, err := loadApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.Publish(ctx, os.Stdout, path,
						publisher.Target(cmd.String("target")),
						cmd.String("folder"), cmd.String("wiki-node"),
						cmd.Bool("check-duplicate"))
				},
			},
			{
				Name:      "update",
				Usage:     "Overwrite an existing document with a Markdown file's content",
				ArgsUsage: "<file.md>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "document-id",
						Usage: "Document id to overwrite (defaults to the ledger entry for the file)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("missing markdown file argument")
					}
					app, err := loadApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.Update(ctx, os.Stdout, cmd.String("document-id"), path)
				},
			},
			{
				Name:      "watch",
				Usage:     "Watch a Markdown file and republish it on change",
				ArgsUsage: "<file.md>",
				Flags:     targetFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("missing markdown file argument")
					}
					app, err := loadApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.Watch(ctx, path,
						publisher.Target(cmd.String("target")),
						cmd.String("folder"), cmd.String("wiki-node"))
				},
			},
			{
				Name:  "list",
				Usage: "List documents published from this machine",
				Action: func(_ context.Context, cmd *cli.Command) error {
					app, err := loadApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.List(os.Stdout)
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve publish tools over MCP on stdin/stdout",
				Action: func(_ context.Context, cmd *cli.Command) error {
					app, err := loadApp(cmd)
					if err != nil {
						return err
					}
					defer app.Close()
					return app.ServeMCP()
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
