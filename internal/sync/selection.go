package sync

import "github.com/klauern/notionsync/internal/model"

// FileSelectionItem is a candidate write offered to the caller for approval.
type FileSelectionItem struct {
	Record model.Record

	// Filename is the sanitized base name without extension.
	Filename string

	// Path is the vault-relative target path.
	Path string

	// Exists is the result of the existence probe taken while planning.
	Exists bool

	Selected  bool
	Overwrite bool
}

// Action returns what executing the item would do given the planning probe.
func (i FileSelectionItem) Action() Action {
	switch {
	case !i.Exists:
		return ActionCreated
	case i.Overwrite:
		return ActionUpdated
	default:
		return ActionUnchanged
	}
}

// Approved returns the selected items.
func Approved(items []FileSelectionItem) []FileSelectionItem {
	approved := make([]FileSelectionItem, 0, len(items))
	for _, item := range items {
		if item.Selected {
			approved = append(approved, item)
		}
	}
	return approved
}
