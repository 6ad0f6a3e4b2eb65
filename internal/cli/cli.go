// Package cli provides the command-line interface for notionsync.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/notionsync/internal/config"
	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "notionsync",
		Usage:   "Synchronize a Notion database into a folder of markdown notes",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (.yaml or .toml)",
				Sources: cli.EnvVars("NOTIONSYNC_CONFIG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColors(cmd)
			return ctx, configureLogging(cmd)
		},
		Commands: []*cli.Command{
			versionCommand(),
			syncCommand(),
			schemaCommand(),
			mappingsCommand(),
			configCommand(),
			backupCommand(),
			statsCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColors sets up color output based on CLI flags.
func configureColors(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		ui.DisableColors()
	}
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}

// loadConfig reads the file named by --config, or the default config file.
// The output.color setting is applied unless --no-color already won.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !cmd.Bool("no-color") {
		switch strings.ToLower(cfg.Output.Color) {
		case "never":
			ui.DisableColors()
		case "always":
			ui.EnableColors()
		}
	}
	return cfg, nil
}

// saveConfig writes cfg back to where loadConfig read it from.
func saveConfig(cmd *cli.Command, cfg *config.Config) (string, error) {
	path := configPath(cmd)
	if err := cfg.SaveToPath(path); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	return path, nil
}

func configPath(cmd *cli.Command) string {
	if path := cmd.String("config"); path != "" {
		return path
	}
	return config.FilePath()
}
