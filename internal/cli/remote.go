package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/klauern/notionsync/internal/cache"
	"github.com/klauern/notionsync/internal/config"
	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/notion"
	"github.com/klauern/notionsync/internal/util"
)

// ErrSyncInProgress is returned when another run holds the folder lock.
var ErrSyncInProgress = errors.New("another sync is in progress")

// newClient builds the API client described by cfg.
func newClient(cfg *config.Config) *notion.Client {
	return notion.NewClient(&http.Client{Timeout: cfg.Notion.Timeout}, cfg.Notion.Token, cfg.NotionOptions())
}

// requireRemote checks the settings needed for any API call.
func requireRemote(cfg *config.Config) error {
	var errs config.Errors
	if cfg.Notion.Token == "" {
		errs = append(errs, &config.Error{Field: "notion.token", Message: "an integration token is required"})
	}
	if cfg.Notion.DatabaseID == "" {
		errs = append(errs, &config.Error{Field: "notion.database_id", Message: "a database id is required"})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// newSchemas returns a schema fetcher that goes through the on-disk cache
// when caching is enabled.
func newSchemas(cfg *config.Config, refresh bool) *cache.Schemas {
	client := newClient(cfg)
	if !cfg.Cache.Enabled {
		return cache.NewSchemas(client, nil, 0)
	}

	c, err := cache.New(util.ExpandPath(cfg.Cache.Location, ""))
	if err != nil {
		logging.Warn("schema cache unavailable", logging.Path(cfg.Cache.Location), logging.Err(err))
		return cache.NewSchemas(client, nil, 0)
	}
	c.Prune(cfg.Cache.TTL)

	schemas := cache.NewSchemas(client, c, cfg.Cache.TTL)
	schemas.Refresh = refresh
	return schemas
}

// lockFolder takes the exclusive lock for syncs into folder of vault. The
// returned func releases it.
func lockFolder(vault, folder string) (func(), error) {
	path := util.LockPath(vault, folder)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w for %s", ErrSyncInProgress, folder)
	}

	logging.Debug("acquired folder lock", logging.Path(path))
	return func() {
		if err := fl.Unlock(); err != nil {
			logging.Warn("failed to release folder lock", logging.Path(path), logging.Err(err))
		}
	}, nil
}
