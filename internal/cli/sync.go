package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/klauern/notionsync/internal/backup"
	"github.com/klauern/notionsync/internal/config"
	"github.com/klauern/notionsync/internal/diff"
	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/progress"
	"github.com/klauern/notionsync/internal/storage"
	"github.com/klauern/notionsync/internal/sync"
	"github.com/klauern/notionsync/internal/template"
	"github.com/klauern/notionsync/internal/ui"
	"github.com/klauern/notionsync/internal/ui/tui"
	"github.com/klauern/notionsync/internal/util"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch the database and write the approved records as notes",
		Description: `Fetches every record of the configured database, keeps the ones that
   pass the sync rules and offers them for approval before writing.

   Interactive terminals get a selection list; otherwise (or with --yes)
   every candidate is approved with the default overwrite strategy.

   Examples:
     notionsync sync
     notionsync sync --dry-run
     notionsync sync --yes --diff
     notionsync sync --folder Reading --strategy skip`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Show the candidates without writing anything",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Approve every candidate without the selection list",
			},
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "Print a line diff for every overwritten note",
			},
			&cli.BoolFlag{
				Name:  "review",
				Usage: "Open the diff viewer on the overwritten notes after syncing",
			},
			&cli.StringFlag{
				Name:  "folder",
				Usage: "Override sync.folder",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Override sync.default_strategy (overwrite, skip)",
			},
			&cli.BoolFlag{
				Name:  "no-backup",
				Usage: "Do not back up notes before overwriting them",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSync(ctx, cmd)
		},
	}
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if folder := cmd.String("folder"); folder != "" {
		cfg.Sync.Folder = folder
	}
	if strategy := cmd.String("strategy"); strategy != "" {
		cfg.Sync.DefaultStrategy = strategy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	vaultPath := cfg.VaultPath()
	if info, err := os.Stat(vaultPath); err != nil || !info.IsDir() {
		return fmt.Errorf("vault directory %s does not exist", vaultPath)
	}

	unlock, err := lockFolder(vaultPath, cfg.Sync.Folder)
	if err != nil {
		return err
	}
	defer unlock()

	dryRun := cmd.Bool("dry-run")
	vault := storage.NewOS(vaultPath)
	tracker := progress.NewTracker(os.Stderr)
	defer tracker.Finish()

	opts := cfg.SyncOptions()
	opts.Progress = tracker.Callback()
	if cfg.Backup.Enabled && !dryRun && !cmd.Bool("no-backup") {
		hook, err := backupHook(cfg)
		if err != nil {
			return err
		}
		opts.Backup = hook
	}

	log := logging.With(
		logging.Database(cfg.Notion.DatabaseID),
		slog.String("folder", cfg.Sync.Folder),
	)
	ctx = logging.NewContext(ctx, log)
	log.Info("starting sync", logging.Path(vaultPath))

	s := sync.New(newClient(cfg), vault)
	plan, err := s.Prepare(ctx, opts)
	tracker.Finish()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	out := os.Stdout
	if plan.Empty() {
		fmt.Fprintf(out, "No records to sync (%d fetched, %d skipped by rules)\n", plan.Fetched, plan.Skipped)
		return nil
	}

	if dryRun {
		printPlan(out, plan, cfg.Sync.Folder)
		fmt.Fprintln(out, "\nDry run - no changes made")
		return nil
	}

	interactive := !cmd.Bool("yes") && isInteractive()
	items := plan.Candidates
	if interactive {
		selected, ok, err := selectItems(plan, vault, opts, cfg.Sync.Folder)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Sync cancelled")
			return nil
		}
		items = selected
	}

	result, execErr := s.Execute(ctx, plan, items)
	tracker.Finish()

	// A failed run still reports what it wrote before the failure.
	if result != nil {
		printResult(out, result)
		if cmd.Bool("diff") {
			printUpdateDiffs(out, result.Updated)
		}
	}
	if execErr != nil {
		var ee *sync.ExecutionError
		if errors.As(execErr, &ee) {
			fmt.Fprintln(out, ui.StatusError(fmt.Sprintf("Stopped at %s; %d write(s) were applied and kept", ee.Path, ee.Applied)))
		}
		return fmt.Errorf("sync failed: %w", execErr)
	}

	if cmd.Bool("review") && interactive && len(result.Updated) > 0 {
		if _, err := tui.RunSyncDiff(updateEntries(result.Updated)); err != nil {
			return fmt.Errorf("diff viewer error: %w", err)
		}
	}
	return nil
}

// isInteractive reports whether both stdin and stdout are terminals.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func backupHook(cfg *config.Config) (sync.BackupFunc, error) {
	store, err := backup.Open(util.ExpandPath(cfg.Backup.Location, ""))
	if err != nil {
		return nil, err
	}
	opts := backup.DefaultCleanupOptions()
	opts.MaxBackups = cfg.Backup.MaxBackups
	return store.Hook(opts), nil
}

// selectItems runs the selection list until the user confirms or quits,
// showing a rendered preview whenever one is requested.
func selectItems(plan *sync.Plan, vault storage.Storage, opts sync.Options, folder string) ([]sync.FileSelectionItem, bool, error) {
	items := plan.Candidates
	for {
		res, err := tui.RunSyncList(items, folder)
		if err != nil {
			return nil, false, fmt.Errorf("selection list error: %w", err)
		}

		switch res.Action {
		case tui.SelectionConfirm:
			return res.Items, true, nil
		case tui.SelectionPreview:
			items = res.Items
			if res.Preview < 0 || res.Preview >= len(items) {
				continue
			}
			entry, err := previewEntry(plan, vault, opts, items[res.Preview])
			if err != nil {
				return nil, false, err
			}
			if _, err := tui.RunSyncDiff([]tui.DiffEntry{entry}); err != nil {
				return nil, false, fmt.Errorf("diff viewer error: %w", err)
			}
		default:
			return nil, false, nil
		}
	}
}

// previewEntry renders item and pairs it with the note currently on disk.
func previewEntry(plan *sync.Plan, vault storage.Storage, opts sync.Options, item sync.FileSelectionItem) (tui.DiffEntry, error) {
	entry := tui.DiffEntry{
		Title:  item.Filename,
		Path:   item.Path,
		Exists: item.Exists,
		New:    template.Render(item.Record, plan.Template(), opts.Mappings),
	}
	if item.Exists {
		old, err := vault.Read(item.Path)
		if err != nil {
			return tui.DiffEntry{}, fmt.Errorf("failed to read %s: %w", item.Path, err)
		}
		entry.Old = old
	}
	return entry, nil
}

func updateEntries(updates []sync.Update) []tui.DiffEntry {
	entries := make([]tui.DiffEntry, 0, len(updates))
	for _, u := range updates {
		entries = append(entries, tui.DiffEntry{
			Title:  u.Filename,
			Path:   u.Path,
			Exists: true,
			Old:    u.OldContent,
			New:    u.NewContent,
		})
	}
	return entries
}

// printPlan lists the candidates with what executing them would do.
func printPlan(w io.Writer, plan *sync.Plan, folder string) {
	fmt.Fprintf(w, "%s %d candidate(s) for %s (%d fetched, %d skipped by rules)\n\n",
		ui.Header("Sync plan:"), len(plan.Candidates), folder, plan.Fetched, plan.Skipped)

	for _, item := range plan.Candidates {
		switch item.Action() {
		case sync.ActionCreated:
			fmt.Fprintf(w, "  %s %s\n", ui.Success("+ create"), item.Path)
		case sync.ActionUpdated:
			fmt.Fprintf(w, "  %s %s\n", ui.Warning("~ update"), item.Path)
		default:
			fmt.Fprintf(w, "  %s %s\n", ui.Dim("= keep  "), item.Path)
		}
	}
}

// printResult writes the run summary.
func printResult(w io.Writer, result *sync.Result) {
	fmt.Fprintln(w, ui.Bold("Sync summary:"))

	for _, name := range result.Created {
		fmt.Fprintf(w, "  %s\n", ui.StatusSuccess("created "+name))
	}
	for _, u := range result.Updated {
		if u.Changed() {
			fmt.Fprintf(w, "  %s\n", ui.StatusWarning(fmt.Sprintf("updated %s (%s)", u.Filename, diff.Summary(u.Diff()))))
		} else {
			fmt.Fprintf(w, "  %s\n", ui.StatusSkipped("updated "+u.Filename+" (no changes)"))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, result.Summary())
}

// printUpdateDiffs writes a colored diff for every overwritten note whose
// content changed.
func printUpdateDiffs(w io.Writer, updates []sync.Update) {
	for _, u := range updates {
		if !u.Changed() {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", ui.Header(u.Path))
		fmt.Fprint(w, ui.Diff(u.Diff()))
	}
}
