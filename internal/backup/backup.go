// Package backup keeps copies of notes before a sync overwrites them.
//
// Backups live in their own directory (by default under the notionsync
// config directory) with a JSON index. They are a safety net for manual
// recovery; restoring a backup is always an explicit user action.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/render"
	"github.com/klauern/notionsync/internal/storage"
	"github.com/klauern/notionsync/internal/sync"
)

// BackupDirPerm is the permission for the backup directory (rwxr-x---)
const BackupDirPerm = 0o750

// ErrNotFound is returned when a backup ID is not in the index.
var ErrNotFound = errors.New("backup not found")

// filesDir holds the saved copies inside the backup directory.
const filesDir = "files"

// Store manages the backups in one directory.
type Store struct {
	vault *storage.Vault
	now   func() time.Time
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, BackupDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}
	return NewStore(storage.NewOS(dir)), nil
}

// NewStore returns a Store kept in vault.
func NewStore(vault *storage.Vault) *Store {
	return &Store{vault: vault, now: time.Now}
}

// Create saves content as the previous version of sourcePath.
func (s *Store) Create(sourcePath, content string) (*Metadata, error) {
	sourcePath = storage.Normalize(sourcePath)

	hash := sha256.Sum256([]byte(content))
	hashStr := hex.EncodeToString(hash[:])

	// Two files with the same content backed up in the same second still
	// need distinct IDs.
	key := sha256.Sum256([]byte(sourcePath + "\x00" + content))
	created := s.now()
	backupID := created.UTC().Format("20060102-150405-") + hex.EncodeToString(key[:4])

	ext := path.Ext(sourcePath)
	if ext == "" {
		ext = render.DefaultExtension
	}
	backupPath := path.Join(filesDir, backupID+ext)

	if err := s.vault.Write(backupPath, content); err != nil {
		return nil, fmt.Errorf("failed to write backup file: %w", err)
	}

	metadata := &Metadata{
		ID:         backupID,
		SourcePath: sourcePath,
		BackupPath: backupPath,
		RecordID:   render.RecordID(content),
		LastEdited: render.LastEdited(content),
		CreatedAt:  created,
		Hash:       hashStr,
		Size:       int64(len(content)),
	}

	index, err := s.loadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}
	index.Add(*metadata)
	if err := s.saveIndex(index); err != nil {
		return nil, fmt.Errorf("failed to add backup to index: %w", err)
	}

	logging.Debug("backed up file", logging.Path(sourcePath), slog.String("backup", backupID))
	return metadata, nil
}

// Get returns the metadata of one backup.
func (s *Store) Get(backupID string) (Metadata, error) {
	index, err := s.loadIndex()
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to load backup index: %w", err)
	}
	metadata, ok := index.Backups[backupID]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %q", ErrNotFound, backupID)
	}
	return metadata, nil
}

// Content returns the saved content of a backup after checking its hash.
func (s *Store) Content(backupID string) (string, error) {
	metadata, err := s.Get(backupID)
	if err != nil {
		return "", err
	}

	content, err := s.vault.Read(metadata.BackupPath)
	if err != nil {
		return "", fmt.Errorf("failed to read backup file: %w", err)
	}

	hash := sha256.Sum256([]byte(content))
	if hashStr := hex.EncodeToString(hash[:]); hashStr != metadata.Hash {
		return "", fmt.Errorf("backup file corrupted: hash mismatch (expected %s, got %s)", metadata.Hash, hashStr)
	}
	return content, nil
}

// Verify checks that a backup file is present and matches its hash.
func (s *Store) Verify(backupID string) error {
	_, err := s.Content(backupID)
	return err
}

// Restore writes a backup back to its source path in target.
func (s *Store) Restore(backupID string, target storage.Storage) (Metadata, error) {
	content, err := s.Content(backupID)
	if err != nil {
		return Metadata{}, err
	}
	metadata, err := s.Get(backupID)
	if err != nil {
		return Metadata{}, err
	}

	if err := target.Write(metadata.SourcePath, content); err != nil {
		return Metadata{}, fmt.Errorf("failed to restore %s: %w", metadata.SourcePath, err)
	}

	logging.Info("restored backup", logging.Path(metadata.SourcePath), slog.String("backup", backupID))
	return metadata, nil
}

// List returns all backups, newest first, optionally filtered by source path.
func (s *Store) List(sourcePath string) ([]Metadata, error) {
	index, err := s.loadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load backup index: %w", err)
	}

	backups := index.List()
	if sourcePath == "" {
		return backups, nil
	}

	sourcePath = storage.Normalize(sourcePath)
	filtered := make([]Metadata, 0)
	for _, backup := range backups {
		if backup.SourcePath == sourcePath {
			filtered = append(filtered, backup)
		}
	}
	return filtered, nil
}

// Delete removes a backup file and its index entry.
func (s *Store) Delete(backupID string) error {
	index, err := s.loadIndex()
	if err != nil {
		return fmt.Errorf("failed to load backup index: %w", err)
	}

	metadata, ok := index.Backups[backupID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, backupID)
	}
	if err := s.removeFile(metadata); err != nil {
		return err
	}

	index.Remove(backupID)
	return s.saveIndex(index)
}

func (s *Store) removeFile(metadata Metadata) error {
	err := s.vault.Fs().Remove("/" + storage.Normalize(metadata.BackupPath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete backup file: %w", err)
	}
	return nil
}

// Hook returns a sync.BackupFunc that saves the old content of every
// overwritten file and then applies the retention policy in opts.
func (s *Store) Hook(opts CleanupOptions) sync.BackupFunc {
	return func(sourcePath, content string) error {
		if _, err := s.Create(sourcePath, content); err != nil {
			return err
		}
		opts.SourcePath = sourcePath
		if _, err := s.Cleanup(opts); err != nil {
			logging.Warn("backup cleanup failed", logging.Path(sourcePath), logging.Err(err))
		}
		return nil
	}
}
