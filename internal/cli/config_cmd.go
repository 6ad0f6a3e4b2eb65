package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/klauern/notionsync/internal/config"
	"github.com/klauern/notionsync/internal/storage"
	"github.com/klauern/notionsync/internal/template"
	"github.com/klauern/notionsync/internal/ui"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and initialize the configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration with the token masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "toml",
						Usage: "Print as TOML instead of YAML",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					data, err := cfg.Redacted().Marshal(cmd.Bool("toml"))
					if err != nil {
						return fmt.Errorf("failed to encode config: %w", err)
					}
					fmt.Print(string(data))
					return nil
				},
			},
			{
				Name:  "path",
				Usage: "Print the config file location",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Println(configPath(cmd))
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "Write a default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing config file",
					},
					&cli.StringFlag{
						Name:  "database",
						Usage: "Database id to sync",
					},
					&cli.StringFlag{
						Name:  "vault",
						Usage: "Vault root directory",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runConfigInit(cmd)
				},
			},
			{
				Name:  "validate",
				Usage: "Check the configuration for problems that would stop a sync",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					if err := cfg.Validate(); err != nil {
						return err
					}
					fmt.Println(ui.StatusSuccess("Configuration is valid"))
					return nil
				},
			},
			{
				Name:  "templates",
				Usage: "List built-in templates and template files in the vault",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runConfigTemplates(cmd)
				},
			},
		},
	}
}

func runConfigInit(cmd *cli.Command) error {
	path := configPath(cmd)
	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	if db := cmd.String("database"); db != "" {
		cfg.Notion.DatabaseID = db
	}
	if vault := cmd.String("vault"); vault != "" {
		cfg.Sync.Vault = vault
	}

	if _, err := saveConfig(cmd, cfg); err != nil {
		return err
	}
	fmt.Println(ui.StatusSuccess("Wrote " + path))
	fmt.Println("Set the integration token with notion.token or NOTIONSYNC_NOTION_TOKEN.")
	return nil
}

func runConfigTemplates(cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println(ui.Bold("Built-in templates:"))
	for _, name := range template.ListBuiltins() {
		marker := " "
		if name == cfg.Sync.TemplateName || (cfg.Sync.TemplateName == "" && name == string(template.Default)) {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, name)
	}

	vaultPath := cfg.VaultPath()
	if info, err := os.Stat(vaultPath); err != nil || !info.IsDir() {
		return nil
	}

	files, err := templateFiles(storage.NewOS(vaultPath), cfg.Sync.Extension, cfg.Sync.Folder)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s %s\n", ui.Bold("Template files in"), vaultPath)
	if len(files) == 0 {
		fmt.Println("  (none)")
		return nil
	}
	for _, f := range files {
		marker := " "
		if storage.Normalize(f) == storage.Normalize(cfg.Sync.TemplatePath) {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, f)
	}
	return nil
}

// templateFiles returns the vault files with extension ext that contain a
// placeholder, ignoring the synced notes in folder.
func templateFiles(vault *storage.Vault, ext, folder string) ([]string, error) {
	files, err := vault.ListExt(ext)
	if err != nil {
		return nil, fmt.Errorf("failed to list vault files: %w", err)
	}

	prefix := storage.Normalize(folder) + "/"
	var found []string
	for _, f := range files {
		if prefix != "/" && strings.HasPrefix(f, prefix) {
			continue
		}
		content, err := vault.Read(f)
		if err != nil {
			return nil, err
		}
		if strings.Contains(content, "{{") {
			found = append(found, f)
		}
	}
	return found, nil
}
