package backup

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Metadata describes one saved copy of an overwritten file.
type Metadata struct {
	ID         string    `json:"id"`                  // Unique backup identifier (timestamp-based)
	SourcePath string    `json:"source_path"`         // Vault-relative path of the overwritten file
	BackupPath string    `json:"backup_path"`         // Path of the copy, relative to the backup directory
	RecordID   string    `json:"record_id,omitempty"`   // Record id anchor found in the old content
	LastEdited string    `json:"last_edited,omitempty"` // Remote last-edited anchor of the old content
	CreatedAt  time.Time `json:"created_at"`
	Hash       string    `json:"hash"` // SHA256 of the content
	Size       int64     `json:"size"`
}

// Index maintains an index of all backups
type Index struct {
	Version string              `json:"version"`
	Updated time.Time           `json:"updated"`
	Backups map[string]Metadata `json:"backups"` // Key: backup ID
}

const (
	// IndexVersion is the current version of the backup index format
	IndexVersion = "1.0"
	// IndexFilename is the name of the index file
	IndexFilename = "index.json"
)

func newIndex() *Index {
	return &Index{
		Version: IndexVersion,
		Backups: make(map[string]Metadata),
	}
}

// loadIndex reads the index, returning an empty one if none was saved yet.
func (s *Store) loadIndex() (*Index, error) {
	ok, err := s.vault.Exists(IndexFilename)
	if err != nil {
		return nil, err
	}
	if !ok {
		return newIndex(), nil
	}

	data, err := s.vault.Read(IndexFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index Index
	if err := json.Unmarshal([]byte(data), &index); err != nil {
		return nil, fmt.Errorf("failed to parse index file: %w", err)
	}
	if index.Backups == nil {
		index.Backups = make(map[string]Metadata)
	}
	return &index, nil
}

func (s *Store) saveIndex(index *Index) error {
	index.Updated = s.now()

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := s.vault.Write(IndexFilename, string(data)); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	return nil
}

// Add records a backup in the index.
func (idx *Index) Add(metadata Metadata) {
	if idx.Backups == nil {
		idx.Backups = make(map[string]Metadata)
	}
	idx.Backups[metadata.ID] = metadata
}

// Remove drops a backup from the index.
func (idx *Index) Remove(id string) {
	delete(idx.Backups, id)
}

// List returns all backups sorted by creation time (newest first). Backups
// created in the same instant are ordered by descending ID.
func (idx *Index) List() []Metadata {
	backups := make([]Metadata, 0, len(idx.Backups))
	for _, backup := range idx.Backups {
		backups = append(backups, backup)
	}
	sortNewestFirst(backups)
	return backups
}

func sortNewestFirst(backups []Metadata) {
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].ID > backups[j].ID
	})
}
