// Package config loads archivist.toml, the single configuration file
// covering the archive root, catalog location, worker-pool sizing, and the
// ambient logging configuration. Grounded on the operator-framework
// example's BurntSushi/toml dependency, the only pack repo to carry a TOML
// library — see SPEC_FULL.md's AMBIENT STACK section.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/bizzlechizzle/archivist-core/internal/logging"
	"github.com/bizzlechizzle/archivist-core/internal/memory"
)

// QueueConfig controls a single named job queue's worker pool.
type QueueConfig struct {
	Workers     int `toml:"workers"`
	MaxAttempts int `toml:"max_attempts"`
}

// Config is the root configuration structure.
type Config struct {
	ArchiveRoot string `toml:"archive_root"`
	CatalogPath string `toml:"catalog_path"`

	Logging logging.Config `toml:"logging"`

	HashBufferBytes memory.Size `toml:"hash_buffer_bytes"`
	ScanCeiling     memory.Size `toml:"scan_ceiling_bytes"`

	ImportScanWorkers int `toml:"import_scan_workers"`
	ImportHashWorkers int `toml:"import_hash_workers"`
	ImportCopyWorkers int `toml:"import_copy_workers"`

	Queues map[string]QueueConfig `toml:"queues"`

	JobRetryBaseSeconds int `toml:"job_retry_base_seconds"`
	JobRetryCapSeconds  int `toml:"job_retry_cap_seconds"`
	JobLockTimeoutSecs  int `toml:"job_lock_timeout_seconds"`

	RefMapLinkRadiusMeters   float64 `toml:"ref_map_link_radius_meters"`
	MergeGPSRadiusMeters     float64 `toml:"merge_gps_radius_meters"`
	MergeCombinedRadiusMeters float64 `toml:"merge_combined_radius_meters"`
	MergeGenericNameRadiusKM float64 `toml:"merge_generic_name_radius_km"`

	TimelineWindowDays int `toml:"timeline_window_days"`

	ThumbnailSmallPx   int `toml:"thumbnail_small_px"`
	ThumbnailLargePx   int `toml:"thumbnail_large_px"`
	ThumbnailPreviewPx int `toml:"thumbnail_preview_px"`

	MediaServerAddr string `toml:"media_server_addr"`

	ScreenshotCommand []string `toml:"screenshot_command"`
	PDFCommand        []string `toml:"pdf_command"`
	ProxyCommand      []string `toml:"proxy_command"`

	// WatchFolders are "watch this folder" import sources: each
	// directory is watched for newly created files, which are
	// imported into that entry's LocationID as they settle.
	WatchFolders []WatchFolderConfig `toml:"watch_folders"`
}

// WatchFolderConfig is one "watch this folder" import source.
type WatchFolderConfig struct {
	Dir        string `toml:"dir"`
	LocationID string `toml:"location_id"`
}

// Default returns the configuration used when no archivist.toml is present.
func Default() Config {
	return Config{
		ArchiveRoot:       "./archive",
		CatalogPath:       "./archive/catalog.db",
		Logging:           logging.Config{Level: "info"},
		HashBufferBytes:   1 * memory.MB,
		ScanCeiling:       50 * memory.GB,
		ImportScanWorkers: 1,
		ImportHashWorkers: 4,
		ImportCopyWorkers: 4,
		Queues: map[string]QueueConfig{
			"import":             {Workers: 2, MaxAttempts: 3},
			"exiftool":           {Workers: 2, MaxAttempts: 3},
			"thumbnail":          {Workers: 4, MaxAttempts: 3},
			"proxy":              {Workers: 1, MaxAttempts: 2},
			"perceptual-hash":    {Workers: 4, MaxAttempts: 3},
			"ref-map-point-match": {Workers: 1, MaxAttempts: 3},
			"bagit-validate":     {Workers: 1, MaxAttempts: 2},
			"extraction":         {Workers: 2, MaxAttempts: 3},
			"location-stats":     {Workers: 1, MaxAttempts: 3},
		},
		JobRetryBaseSeconds:       1,
		JobRetryCapSeconds:        300,
		JobLockTimeoutSecs:        600,
		RefMapLinkRadiusMeters:    25,
		MergeGPSRadiusMeters:      25,
		MergeCombinedRadiusMeters: 100,
		MergeGenericNameRadiusKM:  5,
		TimelineWindowDays:        365,
		ThumbnailSmallPx:          400,
		ThumbnailLargePx:          800,
		ThumbnailPreviewPx:        1920,
		MediaServerAddr:           "127.0.0.1:47100",
	}
}

// Load reads and validates archivist.toml at path. A missing file is not an
// error; Default() is returned instead.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks structural invariants that must hold before any component
// opens the archive or catalog.
func (c Config) Validate() error {
	if c.ArchiveRoot == "" {
		return fmt.Errorf("config: archive_root must not be empty")
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("config: catalog_path must not be empty")
	}
	if c.ImportHashWorkers <= 0 || c.ImportCopyWorkers <= 0 {
		return fmt.Errorf("config: import worker counts must be positive")
	}
	for name, q := range c.Queues {
		if q.Workers <= 0 {
			return fmt.Errorf("config: queue %q must have at least one worker", name)
		}
	}
	root, err := filepath.Abs(c.ArchiveRoot)
	if err != nil {
		return fmt.Errorf("config: resolve archive_root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("config: create archive_root %s: %w", root, err)
	}
	return nil
}
