package sync

// ProgressEventType identifies what a ProgressEvent reports.
type ProgressEventType string

const (
	// ProgressEventStage is emitted when the run enters a new stage.
	ProgressEventStage ProgressEventType = "stage"

	// ProgressEventPage is emitted after each fetched page. Current is the
	// page number and Total the number of records fetched so far.
	ProgressEventPage ProgressEventType = "page"

	// ProgressEventItem is emitted after each executed item. Current counts
	// from 1 up to Total approved items.
	ProgressEventItem ProgressEventType = "item"

	// ProgressEventError is emitted once when the run fails.
	ProgressEventError ProgressEventType = "error"
)

// ProgressEvent describes one step of a run.
type ProgressEvent struct {
	Type     ProgressEventType
	Stage    Stage
	Filename string
	Action   Action
	Current  int
	Total    int
	Err      error
}

// ProgressCallback receives progress events. Returning an error cancels the
// run.
type ProgressCallback func(ProgressEvent) error
