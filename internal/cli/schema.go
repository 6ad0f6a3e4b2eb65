package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/ui"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Show the properties of the configured database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Bypass the schema cache",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format for scripting",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
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

			if cmd.Bool("json") {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(schema); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			}
			printSchema(os.Stdout, schema, cfg.Mappings)
			return nil
		},
	}
}

// printSchema lists every property with its kind and the frontmatter field it
// maps to, if any.
func printSchema(w io.Writer, schema *model.Schema, mappings []model.PropertyMapping) {
	title := schema.Title
	if title == "" {
		title = model.UntitledTitle
	}
	fmt.Fprintf(w, "%s %s (%s)\n\n", ui.Header("Database:"), title, schema.ID)
	fmt.Fprintf(w, "  %-28s %-18s %s\n", "PROPERTY", "TYPE", "FIELD")

	for _, name := range schema.PropertyNames() {
		prop := schema.Properties[name]
		kind := string(prop.Type)
		if !prop.Type.IsKnown() {
			kind = ui.Dim(kind)
		}

		field := ui.Dim("(unmapped)")
		if m, ok := model.FindMapping(mappings, name); ok {
			field = m.LocalField
			if !m.SyncEnabled {
				field = ui.Dim(m.LocalField + " (disabled)")
			}
		}
		fmt.Fprintf(w, "  %-28s %-18s %s\n", name, kind, field)
	}
}
