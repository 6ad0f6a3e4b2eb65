package backup

import (
	"fmt"
	"time"

	"github.com/klauern/notionsync/internal/storage"
)

// CleanupOptions configures backup cleanup behavior
type CleanupOptions struct {
	// MaxBackups limits the number of backups to keep per source file (0 = unlimited)
	MaxBackups int

	// MaxAge is the maximum age of backups to keep (0 = unlimited)
	MaxAge time.Duration

	// KeepAtLeastOne ensures at least one backup is kept per source file
	KeepAtLeastOne bool

	// SourcePath limits cleanup to one source file (empty = all files)
	SourcePath string

	// DryRun previews what would be deleted without actually deleting
	DryRun bool
}

// DefaultCleanupOptions returns sensible defaults for cleanup
func DefaultCleanupOptions() CleanupOptions {
	return CleanupOptions{
		MaxBackups:     10,
		MaxAge:         30 * 24 * time.Hour,
		KeepAtLeastOne: true,
	}
}

// Cleanup removes old backups according to opts and returns the IDs of the
// deleted backups (or, with DryRun, the ones that would be deleted).
func (s *Store) Cleanup(opts CleanupOptions) ([]string, error) {
	index, err := s.loadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	sourceFilter := ""
	if opts.SourcePath != "" {
		sourceFilter = storage.Normalize(opts.SourcePath)
	}

	groups := make(map[string][]Metadata)
	for _, backup := range index.Backups {
		if sourceFilter != "" && backup.SourcePath != sourceFilter {
			continue
		}
		groups[backup.SourcePath] = append(groups[backup.SourcePath], backup)
	}

	var toDelete []Metadata
	now := s.now()

	for _, group := range groups {
		sortNewestFirst(group)

		var doomed []Metadata
		for i, backup := range group {
			expired := opts.MaxAge > 0 && now.Sub(backup.CreatedAt) > opts.MaxAge
			overflow := opts.MaxBackups > 0 && i >= opts.MaxBackups
			if expired || overflow {
				doomed = append(doomed, backup)
			}
		}

		// Keep the newest one if everything in the group would go.
		if opts.KeepAtLeastOne && len(doomed) == len(group) && len(doomed) > 0 {
			doomed = doomed[1:]
		}
		toDelete = append(toDelete, doomed...)
	}

	sortNewestFirst(toDelete)

	deleted := make([]string, 0, len(toDelete))
	if opts.DryRun {
		for _, backup := range toDelete {
			deleted = append(deleted, backup.ID)
		}
		return deleted, nil
	}

	for _, backup := range toDelete {
		if err := s.removeFile(backup); err != nil {
			return deleted, fmt.Errorf("failed to delete backup %q: %w", backup.ID, err)
		}
		index.Remove(backup.ID)
		deleted = append(deleted, backup.ID)
	}

	if len(deleted) > 0 {
		if err := s.saveIndex(index); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// Stats contains statistics about backups
type Stats struct {
	TotalBackups int
	TotalSize    int64
	// SourceFiles counts the distinct notes that have at least one backup.
	SourceFiles  int
	OldestBackup time.Time
	NewestBackup time.Time
}

// Stats returns statistics about the stored backups.
func (s *Store) Stats() (*Stats, error) {
	index, err := s.loadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	stats := &Stats{TotalBackups: len(index.Backups)}
	sources := make(map[string]struct{})

	for _, backup := range index.Backups {
		stats.TotalSize += backup.Size
		sources[backup.SourcePath] = struct{}{}

		if stats.OldestBackup.IsZero() || backup.CreatedAt.Before(stats.OldestBackup) {
			stats.OldestBackup = backup.CreatedAt
		}
		if backup.CreatedAt.After(stats.NewestBackup) {
			stats.NewestBackup = backup.CreatedAt
		}
	}
	stats.SourceFiles = len(sources)

	return stats, nil
}
