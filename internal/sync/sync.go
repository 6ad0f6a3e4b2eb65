package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/render"
	"github.com/klauern/notionsync/internal/rules"
	"github.com/klauern/notionsync/internal/storage"
	"github.com/klauern/notionsync/internal/template"
)

// ErrInvalidOptions is wrapped by every error returned from Options.Validate.
var ErrInvalidOptions = errors.New("invalid sync options")

// Source pages through the records of a remote database.
type Source interface {
	QueryPage(ctx context.Context, databaseID, cursor string) (model.RecordPage, error)
}

// BackupFunc saves the current content of path before it is overwritten.
type BackupFunc func(path, content string) error

// Options configures a sync run.
type Options struct {
	// DatabaseID is the remote database to read.
	DatabaseID string

	// Folder is the vault-relative directory receiving the files.
	Folder string

	// Extension is appended to every filename (default: .md).
	Extension string

	// FilenameProperty names the property used for filenames instead of
	// the record title.
	FilenameProperty string

	// Template selects the file template. An empty source uses the
	// built-in default.
	Template template.Source

	Mappings []model.PropertyMapping
	Rules    []model.SyncRule

	// Strategy sets each candidate's default Overwrite flag.
	Strategy Strategy

	// Progress receives progress events when set.
	Progress ProgressCallback

	// Backup is called with the previous content of every file about to
	// be overwritten.
	Backup BackupFunc
}

// DefaultOptions returns the default sync options.
func DefaultOptions() Options {
	return Options{
		Extension: render.DefaultExtension,
		Strategy:  StrategyOverwrite,
	}
}

// Validate checks the options that must be known before anything is fetched.
func (o Options) Validate() error {
	if o.DatabaseID == "" {
		return fmt.Errorf("%w: database id is required", ErrInvalidOptions)
	}
	if o.Strategy != "" && !o.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidOptions, o.Strategy)
	}
	return nil
}

// Plan is the outcome of Prepare, awaiting the caller's approval.
type Plan struct {
	DatabaseID string

	// Candidates are the records that passed the rules, in fetch order.
	Candidates []FileSelectionItem

	// Fetched counts every record read from the source.
	Fetched int

	// Skipped counts records rejected by the rules.
	Skipped int

	template string
	opts     Options
}

// Empty reports whether no record passed the rules.
func (p *Plan) Empty() bool {
	return len(p.Candidates) == 0
}

// Template returns the template text resolved for the run.
func (p *Plan) Template() string {
	return p.template
}

// Synchronizer runs the fetch, filter, select and execute pipeline.
type Synchronizer struct {
	source Source
	store  storage.Storage
	stage  Stage
	log    *slog.Logger
}

// New creates a Synchronizer reading from source and writing to store.
func New(source Source, store storage.Storage) *Synchronizer {
	return &Synchronizer{
		source: source,
		store:  store,
		stage:  StageIdle,
		log:    logging.Default(),
	}
}

// Stage returns the stage the last run reached.
func (s *Synchronizer) Stage() Stage {
	return s.stage
}

// Prepare fetches every record, applies the rules and probes the target
// paths. A plan without candidates means there is nothing to offer.
func (s *Synchronizer) Prepare(ctx context.Context, opts Options) (*Plan, error) {
	defer logging.Timer("prepare")()
	s.log = logging.WithContext(ctx)

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, r := range opts.Rules {
		if !r.Condition.IsValid() {
			s.log.Warn("unknown rule condition always matches",
				slog.String("property", r.Property),
				slog.String("condition", string(r.Condition)),
			)
		}
	}
	if opts.Extension == "" {
		opts.Extension = render.DefaultExtension
	}

	tmpl, err := template.Resolve(s.store, opts.Template)
	if err != nil {
		return nil, err
	}

	if err := s.enter(StageFetching, opts); err != nil {
		return nil, s.fail(opts, err)
	}
	records, err := s.fetchAll(ctx, opts)
	if err != nil {
		return nil, s.fail(opts, fmt.Errorf("failed to fetch records: %w", err))
	}

	if err := s.enter(StageRuleFiltering, opts); err != nil {
		return nil, s.fail(opts, err)
	}
	plan := &Plan{
		DatabaseID: opts.DatabaseID,
		Candidates: make([]FileSelectionItem, 0, len(records)),
		Fetched:    len(records),
		template:   tmpl,
		opts:       opts,
	}

	for _, record := range records {
		if !rules.Evaluate(opts.Rules, record.Properties) {
			plan.Skipped++
			s.log.Debug("record rejected by rules", logging.Record(record.ID))
			continue
		}

		name := render.Filename(record, opts.Mappings, opts.FilenameProperty)
		target := render.TargetPath(opts.Folder, name, opts.Extension)
		exists, err := s.store.Exists(target)
		if err != nil {
			return nil, s.fail(opts, err)
		}

		plan.Candidates = append(plan.Candidates, FileSelectionItem{
			Record:    record,
			Filename:  name,
			Path:      target,
			Exists:    exists,
			Selected:  true,
			Overwrite: opts.Strategy.Overwrite(),
		})
	}

	s.log.Debug("rule filtering completed",
		logging.Database(opts.DatabaseID),
		logging.Count(len(plan.Candidates)),
		slog.Int("skipped", plan.Skipped),
	)

	if plan.Empty() {
		return plan, nil
	}
	if err := s.enter(StageAwaitingSelection, opts); err != nil {
		return nil, s.fail(opts, err)
	}
	return plan, nil
}

// fetchAll pages through the database until the source reports no further
// cursor.
func (s *Synchronizer) fetchAll(ctx context.Context, opts Options) ([]model.Record, error) {
	var (
		records []model.Record
		cursor  string
		pageNum int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.source.QueryPage(ctx, opts.DatabaseID, cursor)
		if err != nil {
			return nil, err
		}
		pageNum++
		records = append(records, page.Records...)

		if err := emit(opts, ProgressEvent{
			Type:    ProgressEventPage,
			Stage:   StageFetching,
			Current: pageNum,
			Total:   len(records),
		}); err != nil {
			return nil, err
		}

		if !page.HasMore() {
			break
		}
		if page.NextCursor == cursor {
			return nil, fmt.Errorf("pagination did not advance past cursor %q", cursor)
		}
		cursor = page.NextCursor
	}

	s.log.Debug("fetched records",
		logging.Database(opts.DatabaseID),
		logging.Count(len(records)),
		slog.Int("pages", pageNum),
	)
	return records, nil
}

// Execute renders and applies the approved items of plan. Items that are not
// Selected are treated as unapproved.
//
// On the first failure the returned Result holds everything applied so far
// and the error is an *ExecutionError.
func (s *Synchronizer) Execute(ctx context.Context, plan *Plan, approved []FileSelectionItem) (*Result, error) {
	defer logging.Timer("execute")()
	s.log = logging.WithContext(ctx)

	opts := plan.opts
	approved = Approved(approved)
	result := &Result{
		Created:      make([]string, 0),
		Updated:      make([]Update, 0),
		SkippedCount: plan.Skipped + len(plan.Candidates) - len(approved),
	}
	if result.SkippedCount < plan.Skipped {
		result.SkippedCount = plan.Skipped
	}

	if err := s.enter(StageExecuting, opts); err != nil {
		return result, s.fail(opts, err)
	}

	if len(approved) > 0 {
		if err := s.store.Mkdir(opts.Folder); err != nil {
			return result, s.fail(opts, &ExecutionError{Path: opts.Folder, Err: err})
		}
	}

	for i, item := range approved {
		if err := ctx.Err(); err != nil {
			return result, s.fail(opts, s.itemError(item, result, err))
		}

		action, err := s.apply(item, plan, result)
		if err != nil {
			return result, s.fail(opts, s.itemError(item, result, err))
		}

		if err := emit(opts, ProgressEvent{
			Type:     ProgressEventItem,
			Stage:    StageExecuting,
			Filename: item.Filename,
			Action:   action,
			Current:  i + 1,
			Total:    len(approved),
		}); err != nil {
			return result, s.fail(opts, s.itemError(item, result, err))
		}
	}

	if err := s.enter(StageReported, opts); err != nil {
		return result, err
	}

	s.log.Debug("sync run completed",
		logging.Database(opts.DatabaseID),
		slog.Int("created", len(result.Created)),
		slog.Int("updated", len(result.Updated)),
		slog.Int("unchanged", result.UnchangedCount),
		slog.Int("skipped", result.SkippedCount),
	)
	return result, nil
}

// apply performs exactly one of create, overwrite or no-op for item. The
// target is probed again because an earlier item in the same run may have
// written it; such a file is always overwritten.
func (s *Synchronizer) apply(item FileSelectionItem, plan *Plan, result *Result) (Action, error) {
	content := template.Render(item.Record, plan.template, plan.opts.Mappings)

	exists, err := s.store.Exists(item.Path)
	if err != nil {
		return "", err
	}

	switch {
	case !exists:
		if err := s.store.Create(item.Path, content); err != nil {
			return "", err
		}
		result.Created = append(result.Created, item.Filename)
		s.log.Debug("created file", logging.Record(item.Record.ID), logging.Path(item.Path))
		return ActionCreated, nil

	case item.Overwrite || !item.Exists:
		old, err := s.store.Read(item.Path)
		if err != nil {
			return "", err
		}
		if owner := render.RecordID(old); owner != "" && owner != item.Record.ID {
			msg := fmt.Sprintf("%s belonged to record %s and was overwritten by %s", item.Path, owner, item.Record.ID)
			result.Warnings = append(result.Warnings, msg)
			s.log.Warn("overwriting file owned by another record",
				logging.Path(item.Path),
				logging.Record(item.Record.ID),
				slog.String("owner", owner),
			)
		}
		if plan.opts.Backup != nil {
			if err := plan.opts.Backup(item.Path, old); err != nil {
				return "", fmt.Errorf("backup failed: %w", err)
			}
		}
		if err := s.store.Write(item.Path, content); err != nil {
			return "", err
		}
		result.Updated = append(result.Updated, Update{
			Filename:   item.Filename,
			Path:       item.Path,
			OldContent: old,
			NewContent: content,
		})
		s.log.Debug("updated file", logging.Record(item.Record.ID), logging.Path(item.Path))
		return ActionUpdated, nil

	default:
		result.UnchangedCount++
		s.log.Debug("left existing file", logging.Record(item.Record.ID), logging.Path(item.Path))
		return ActionUnchanged, nil
	}
}

func (s *Synchronizer) itemError(item FileSelectionItem, result *Result, err error) *ExecutionError {
	return &ExecutionError{
		Filename: item.Filename,
		Path:     item.Path,
		Applied:  result.Applied(),
		Err:      err,
	}
}

func (s *Synchronizer) enter(stage Stage, opts Options) error {
	s.stage = stage
	s.log.Debug("entering stage", logging.Stage(stage.String()), logging.Database(opts.DatabaseID))
	return emit(opts, ProgressEvent{Type: ProgressEventStage, Stage: stage})
}

func (s *Synchronizer) fail(opts Options, err error) error {
	s.stage = StageFailed
	s.log.Error("sync run failed", logging.Database(opts.DatabaseID), logging.Err(err))
	// The run already failed; a cancellation from the callback changes nothing.
	_ = emit(opts, ProgressEvent{Type: ProgressEventError, Stage: StageFailed, Err: err})
	return err
}

func emit(opts Options, event ProgressEvent) error {
	if opts.Progress == nil {
		return nil
	}
	return opts.Progress(event)
}
