package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/klauern/notionsync/internal/backup"
	"github.com/klauern/notionsync/internal/cache"
	"github.com/klauern/notionsync/internal/config"
	"github.com/klauern/notionsync/internal/logging"
	"github.com/klauern/notionsync/internal/storage"
	"github.com/klauern/notionsync/internal/ui"
	"github.com/klauern/notionsync/internal/util"
)

// Stats holds overall statistics.
type Stats struct {
	DatabaseID     string     `json:"database_id"`
	Vault          string     `json:"vault"`
	Folder         string     `json:"folder"`
	NoteCount      int        `json:"note_count"`
	BackupCount    int        `json:"backup_count"`
	BackupSize     int64      `json:"backup_size_bytes"`
	LastBackup     *time.Time `json:"last_backup,omitempty"`
	CacheEnabled   bool       `json:"cache_enabled"`
	CachedSchemas  int        `json:"cached_schemas"`
	CacheSize      int64      `json:"cache_size_bytes"`
	MappingCount   int        `json:"mapping_count"`
	RuleCount      int        `json:"rule_count"`
	ConfigFile     string     `json:"config_file"`
	ConfigFileSeen bool       `json:"config_file_exists"`
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Display statistics about the synced folder, backups and cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output in JSON format for scripting",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.Debug("collecting statistics")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			stats := collectStats(cfg, configPath(cmd))

			if cmd.Bool("json") {
				return outputStatsJSON(stats)
			}

			return outputStatsTable(stats)
		},
	}
}

// collectStats gathers statistics from the vault, backups and cache. Parts
// that cannot be read are logged and left at zero.
func collectStats(cfg *config.Config, cfgPath string) *Stats {
	stats := &Stats{
		DatabaseID:   cfg.Notion.DatabaseID,
		Vault:        cfg.VaultPath(),
		Folder:       cfg.Sync.Folder,
		CacheEnabled: cfg.Cache.Enabled,
		MappingCount: len(cfg.Mappings),
		RuleCount:    len(cfg.Rules),
		ConfigFile:   cfgPath,
	}
	if _, err := os.Stat(cfgPath); err == nil {
		stats.ConfigFileSeen = true
	}

	if count, err := countNotes(stats.Vault, cfg.Sync.Folder, cfg.Sync.Extension); err != nil {
		logging.Warn("failed to count notes", logging.Path(stats.Vault), logging.Err(err))
	} else {
		stats.NoteCount = count
	}

	if store, err := backup.Open(util.ExpandPath(cfg.Backup.Location, "")); err != nil {
		logging.Warn("failed to open backups", logging.Path(cfg.Backup.Location), logging.Err(err))
	} else if bs, err := store.Stats(); err != nil {
		logging.Warn("failed to read backup stats", logging.Err(err))
	} else {
		stats.BackupCount = bs.TotalBackups
		stats.BackupSize = bs.TotalSize
		if !bs.NewestBackup.IsZero() {
			newest := bs.NewestBackup
			stats.LastBackup = &newest
		}
	}

	if cfg.Cache.Enabled {
		cacheDir := util.ExpandPath(cfg.Cache.Location, "")
		if c, err := cache.New(cacheDir); err == nil {
			stats.CachedSchemas = c.Size()
		}
		if size, err := calculateDiskUsage(cacheDir); err == nil {
			stats.CacheSize = size
		}
	}

	return stats
}

// countNotes counts the files with extension ext directly managed in folder.
func countNotes(vault, folder, ext string) (int, error) {
	if info, err := os.Stat(vault); err != nil || !info.IsDir() {
		return 0, nil
	}
	files, err := storage.NewOS(vault).ListExt(ext)
	if err != nil {
		return 0, err
	}

	prefix := storage.Normalize(folder)
	count := 0
	for _, f := range files {
		if prefix == "" || strings.HasPrefix(f, prefix+"/") {
			count++
		}
	}
	return count, nil
}

// calculateDiskUsage recursively calculates disk usage for a directory.
func calculateDiskUsage(path string) (int64, error) {
	var totalSize int64

	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			// Skip paths that don't exist or can't be accessed
			if os.IsNotExist(err) || os.IsPermission(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to calculate disk usage: %w", err)
	}

	return totalSize, nil
}

// outputStatsJSON outputs statistics in JSON format.
func outputStatsJSON(stats *Stats) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(stats); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// outputStatsTable outputs statistics in human-readable table format.
func outputStatsTable(stats *Stats) error {
	fmt.Println(ui.Bold("notionsync Statistics"))
	fmt.Println()

	fmt.Println(ui.Bold("Sync:"))
	database := stats.DatabaseID
	if database == "" {
		database = ui.Warning("not configured")
	}
	fmt.Printf("  Database: %s\n", database)
	fmt.Printf("  Folder:   %s\n", filepath.Join(stats.Vault, stats.Folder))
	fmt.Printf("  Notes:    %d\n", stats.NoteCount)
	fmt.Printf("  Mappings: %d\n", stats.MappingCount)
	fmt.Printf("  Rules:    %d\n", stats.RuleCount)
	fmt.Println()

	fmt.Println(ui.Bold("Backups:"))
	fmt.Printf("  Count: %d (%s)\n", stats.BackupCount, formatBytes(stats.BackupSize))
	if stats.LastBackup != nil {
		fmt.Printf("  Last Backup: %s (%s)\n",
			stats.LastBackup.Format("2006-01-02 15:04:05"),
			formatDuration(time.Since(*stats.LastBackup)))
	} else {
		fmt.Println("  Last Backup: None")
	}
	fmt.Println()

	fmt.Println(ui.Bold("Cache:"))
	if stats.CacheEnabled {
		fmt.Printf("  Status:  %s\n", ui.Success("Enabled"))
		fmt.Printf("  Schemas: %d\n", stats.CachedSchemas)
		fmt.Printf("  Size:    %s\n", formatBytes(stats.CacheSize))
	} else {
		fmt.Printf("  Status: %s\n", ui.Warning("Disabled"))
	}
	fmt.Println()

	cfgFile := stats.ConfigFile
	if !stats.ConfigFileSeen {
		cfgFile += ui.Dim(" (not found, using defaults)")
	}
	fmt.Printf("%s %s\n", ui.Bold("Config:"), cfgFile)

	return nil
}

// formatBytes formats byte count in human-readable format.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration in human-readable format.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	if days < 30 {
		return fmt.Sprintf("%d days ago", days)
	}
	months := days / 30
	if months == 1 {
		return "1 month ago"
	}
	if months < 12 {
		return fmt.Sprintf("%d months ago", months)
	}
	years := months / 12
	if years == 1 {
		return "1 year ago"
	}
	return fmt.Sprintf("%d years ago", years)
}
