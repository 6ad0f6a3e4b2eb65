package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/klauern/notionsync/internal/backup"
	"github.com/klauern/notionsync/internal/config"
	"github.com/klauern/notionsync/internal/storage"
	"github.com/klauern/notionsync/internal/ui"
	"github.com/klauern/notionsync/internal/ui/tui"
	"github.com/klauern/notionsync/internal/util"
)

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Inspect and restore notes saved before they were overwritten",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List backups, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Only show backups of this vault-relative note",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output in JSON format for scripting",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runBackupList(cmd)
				},
			},
			{
				Name:      "restore",
				Usage:     "Write a backup back into the vault",
				ArgsUsage: "[backup-id]",
				Description: `Restores the note a backup was taken from. Without an id, an
   interactive list of backups is shown.`,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runBackupRestore(cmd)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a backup",
				ArgsUsage: "<backup-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return errors.New("expected exactly one backup id")
					}
					_, store, err := openBackups(cmd)
					if err != nil {
						return err
					}
					if err := store.Delete(cmd.Args().First()); err != nil {
						return err
					}
					fmt.Println(ui.StatusSuccess("Deleted backup " + cmd.Args().First()))
					return nil
				},
			},
			{
				Name:  "cleanup",
				Usage: "Remove old backups according to the retention policy",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "max-age",
						Usage: "Remove backups older than this",
						Value: backup.DefaultCleanupOptions().MaxAge,
					},
					&cli.BoolFlag{
						Name:    "dry-run",
						Aliases: []string{"d"},
						Usage:   "Show what would be removed",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, store, err := openBackups(cmd)
					if err != nil {
						return err
					}
					opts := backup.DefaultCleanupOptions()
					opts.MaxBackups = cfg.Backup.MaxBackups
					opts.MaxAge = cmd.Duration("max-age")
					opts.DryRun = cmd.Bool("dry-run")

					deleted, err := store.Cleanup(opts)
					if err != nil {
						return err
					}
					verb := "Removed"
					if opts.DryRun {
						verb = "Would remove"
					}
					fmt.Printf("%s %d backup(s)\n", verb, len(deleted))
					for _, id := range deleted {
						fmt.Printf("  %s\n", id)
					}
					return nil
				},
			},
		},
	}
}

func openBackups(cmd *cli.Command) (*config.Config, *backup.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := backup.Open(util.ExpandPath(cfg.Backup.Location, ""))
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func runBackupList(cmd *cli.Command) error {
	_, store, err := openBackups(cmd)
	if err != nil {
		return err
	}
	backups, err := store.List(cmd.String("path"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(backups); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}

	stats, err := store.Stats()
	if err != nil {
		return err
	}
	printBackups(os.Stdout, backups, stats)
	return nil
}

func printBackups(w io.Writer, backups []backup.Metadata, stats *backup.Stats) {
	if len(backups) == 0 {
		fmt.Fprintln(w, "No backups found")
		return
	}

	fmt.Fprintf(w, "  %-28s %-19s %10s  %s\n", "ID", "CREATED", "SIZE", "NOTE")
	for _, b := range backups {
		fmt.Fprintf(w, "  %-28s %-19s %10s  %s\n",
			b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04:05"), formatBytes(b.Size), b.SourcePath)
	}

	if stats != nil {
		fmt.Fprintf(w, "\n%d backup(s) of %d note(s), %s total", stats.TotalBackups, stats.SourceFiles, formatBytes(stats.TotalSize))
		if !stats.NewestBackup.IsZero() {
			fmt.Fprintf(w, ", last %s", formatDuration(time.Since(stats.NewestBackup)))
		}
		fmt.Fprintln(w)
	}
}

func runBackupRestore(cmd *cli.Command) error {
	cfg, store, err := openBackups(cmd)
	if err != nil {
		return err
	}
	vault := storage.NewOS(cfg.VaultPath())

	if cmd.Args().Len() > 0 {
		return restoreBackup(store, vault, cmd.Args().First())
	}

	if !isInteractive() {
		return errors.New("a backup id is required when not running in a terminal")
	}

	for {
		backups, err := store.List("")
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println("No backups found")
			return nil
		}

		res, err := tui.RunBackupList(backups, store.Content)
		if err != nil {
			return fmt.Errorf("backup list error: %w", err)
		}

		switch res.Action {
		case tui.BackupActionRestore:
			return restoreBackup(store, vault, res.BackupID)
		case tui.BackupActionDelete:
			if err := store.Delete(res.BackupID); err != nil {
				return err
			}
			fmt.Println(ui.StatusSuccess("Deleted backup " + res.BackupID))
		case tui.BackupActionVerify:
			if err := store.Verify(res.BackupID); err != nil {
				fmt.Println(ui.StatusError(fmt.Sprintf("Backup %s: %v", res.BackupID, err)))
			} else {
				fmt.Println(ui.StatusSuccess("Backup " + res.BackupID + " is intact"))
			}
		default:
			return nil
		}
	}
}

func restoreBackup(store *backup.Store, vault storage.Storage, id string) error {
	metadata, err := store.Restore(id, vault)
	if err != nil {
		return err
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Restored %s from backup %s", metadata.SourcePath, id)))
	return nil
}
