// Package storage provides vault-relative file access for synced notes.
//
// Paths are '/'-separated and relative to the vault root. A leading '/' is
// ignored and '.' / '..' elements are cleaned before use, so a path can never
// leave the vault.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/klauern/notionsync/internal/logging"
)

// ErrExist is returned by Create when the target already exists.
var ErrExist = errors.New("file already exists")

// Storage is the local file collaborator used by the sync orchestrator.
type Storage interface {
	Exists(path string) (bool, error)
	Read(path string) (string, error)
	// Write creates or replaces the file at path.
	Write(path, content string) error
	// Create writes a new file and fails with ErrExist if path is taken.
	Create(path, content string) error
	Mkdir(path string) error
	// List returns every regular file in the vault, sorted.
	List() ([]string, error)
}

// Vault implements Storage on an afero filesystem.
type Vault struct {
	fs afero.Fs
}

// New wraps fs. The root of fs is the vault root.
func New(fs afero.Fs) *Vault {
	return &Vault{fs: fs}
}

// NewOS returns a Vault rooted at dir on the local disk.
func NewOS(dir string) *Vault {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewMemory returns an empty in-memory Vault.
func NewMemory() *Vault {
	return New(afero.NewMemMapFs())
}

// Fs exposes the underlying filesystem.
func (v *Vault) Fs() afero.Fs {
	return v.fs
}

// Normalize cleans p into the vault-relative form used by every operation.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Exists reports whether path exists.
func (v *Vault) Exists(p string) (bool, error) {
	ok, err := afero.Exists(v.fs, v.native(p))
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", Normalize(p), err)
	}
	return ok, nil
}

// Read returns the content of path.
func (v *Vault) Read(p string) (string, error) {
	data, err := afero.ReadFile(v.fs, v.native(p))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", Normalize(p), err)
	}
	return string(data), nil
}

// Write creates or replaces path, creating parent directories as needed.
func (v *Vault) Write(p, content string) error {
	if err := v.mkdirParent(p); err != nil {
		return err
	}
	if err := afero.WriteFile(v.fs, v.native(p), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", Normalize(p), err)
	}
	logging.Debug("wrote file", logging.Path(Normalize(p)), logging.Count(len(content)))
	return nil
}

// Create writes a new file at path. It fails with ErrExist if path exists.
func (v *Vault) Create(p, content string) error {
	if err := v.mkdirParent(p); err != nil {
		return err
	}

	f, err := v.fs.OpenFile(v.native(p), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("failed to create %s: %w", Normalize(p), ErrExist)
		}
		return fmt.Errorf("failed to create %s: %w", Normalize(p), err)
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", Normalize(p), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", Normalize(p), err)
	}

	logging.Debug("created file", logging.Path(Normalize(p)), logging.Count(len(content)))
	return nil
}

// Mkdir creates path and any missing parents. An empty path is the vault
// root and is a no-op.
func (v *Vault) Mkdir(p string) error {
	if Normalize(p) == "" {
		return nil
	}
	if err := v.fs.MkdirAll(v.native(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", Normalize(p), err)
	}
	return nil
}

// List returns every regular file in the vault, sorted.
func (v *Vault) List() ([]string, error) {
	var files []string
	err := afero.Walk(v.fs, "/", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, Normalize(p))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list vault: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// ListExt returns the files from List whose name ends in ext.
func (v *Vault) ListExt(ext string) ([]string, error) {
	files, err := v.List()
	if err != nil {
		return nil, err
	}
	filtered := files[:0]
	for _, f := range files {
		if strings.EqualFold(path.Ext(f), ext) {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

func (v *Vault) mkdirParent(p string) error {
	dir := path.Dir(Normalize(p))
	if dir == "." {
		return nil
	}
	return v.Mkdir(dir)
}

// native maps a vault path onto the afero filesystem.
func (v *Vault) native(p string) string {
	return "/" + Normalize(p)
}
