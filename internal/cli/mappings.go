package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/notionsync/internal/config"
	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/ui"
)

func mappingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "mappings",
		Usage: "Manage property to frontmatter field mappings",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show the configured mappings",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					if len(cfg.Mappings) == 0 {
						fmt.Println("No mappings configured. Run 'notionsync mappings rebuild' to create them.")
						return nil
					}
					printMappings(os.Stdout, cfg.Mappings)
					return nil
				},
			},
			{
				Name:  "rebuild",
				Usage: "Rebuild the mappings from the database schema, keeping existing edits",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "refresh",
						Usage: "Bypass the schema cache",
					},
					&cli.BoolFlag{
						Name:    "dry-run",
						Aliases: []string{"d"},
						Usage:   "Show the rebuilt mappings without saving them",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runMappingsRebuild(ctx, cmd)
				},
			},
		},
	}
}

func runMappingsRebuild(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := requireRemote(cfg); err != nil {
		return err
	}

	schema, err := newSchemas(cfg, cmd.Bool("refresh")).RetrieveSchema(ctx, cfg.Notion.DatabaseID)
	if err != nil {
		return err
	}

	before := len(cfg.Mappings)
	cfg.Mappings = config.RebuildMappings(schema, cfg.Mappings)
	printMappings(os.Stdout, cfg.Mappings)

	if cmd.Bool("dry-run") {
		fmt.Println("\nDry run - config not saved")
		return nil
	}

	path, err := saveConfig(cmd, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", ui.StatusSuccess(fmt.Sprintf("Saved %d mapping(s) (previously %d) to %s", len(cfg.Mappings), before, path)))
	return nil
}

func printMappings(w io.Writer, mappings []model.PropertyMapping) {
	fmt.Fprintf(w, "  %-28s %-18s %-24s %-5s %s\n", "PROPERTY", "TYPE", "FIELD", "SYNC", "TEMPLATE")
	for _, m := range mappings {
		fmt.Fprintf(w, "  %-28s %-18s %-24s %-5s %s\n",
			m.RemoteProperty, m.RemoteKind, m.LocalField, yesNo(m.SyncEnabled), yesNo(m.TemplateEligible))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
