// Package sync turns the rows of a remote database into local markdown files.
//
// A run is split at the point where a person has to decide what gets written:
//
//	s := sync.New(client, vault)
//	plan, err := s.Prepare(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	if plan.Empty() {
//	    fmt.Println("nothing to sync")
//	    return nil
//	}
//	approved := pick(plan.Candidates) // selection UI, or sync.Approved
//	result, err := s.Execute(ctx, plan, approved)
//
// Prepare walks the stages FETCHING and RULE_FILTERING: every page of the
// database is fetched in order, records failing the configured rules are
// counted as skipped, and each remaining record becomes a FileSelectionItem
// with its derived filename, target path and an existence probe.
//
// Execute walks EXECUTING and REPORTED. Each approved item is rendered and
// then created, overwritten, or left alone when the file exists and the item
// does not allow overwriting. The first storage failure stops the batch.
// Writes that already happened are kept and reported through the partial
// Result returned next to an *ExecutionError.
//
// # Progress Reporting
//
// A ProgressCallback in Options receives stage changes, fetched pages and
// applied items:
//
//	opts.Progress = func(event sync.ProgressEvent) error {
//	    fmt.Printf("%s %d/%d\n", event.Stage, event.Current, event.Total)
//	    return nil // return an error to cancel the run
//	}
//
// # Strategies
//
// The strategy only sets the default Overwrite flag of each candidate:
//   - StrategyOverwrite: existing files are replaced (the default)
//   - StrategySkip: existing files are left alone unless the caller flips
//     the item's Overwrite flag
package sync
