// Package config holds fotoredo configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the optional configuration file looked up in the working directory.
var FileName = "fotoredo.yaml"

// ThumbOpts are thumbnail options.
type ThumbOpts struct {
	X       int `yaml:"x,omitempty"`
	Y       int `yaml:"y,omitempty"`
	Quality int `yaml:"quality,omitempty"`
}

// Config holds configuration for fotoredo.
type Config struct {
	// LibraryDir is the picture library root to scan.
	LibraryDir string `yaml:"library"`
	// CacheDir holds generated thumbnails. Empty disables the on-disk cache.
	CacheDir string `yaml:"cache,omitempty"`
	// Extensions are the file types the scan picks up, without the dot.
	Extensions []string `yaml:"extensions,omitempty"`
	// RemoteMarkers are path components that identify cloud-provider folders.
	// Files beneath them are counted as unsupported rather than loaded.
	RemoteMarkers []string `yaml:"remote_markers,omitempty"`
	// Thumbnail controls grid tile renditions.
	Thumbnail ThumbOpts `yaml:"thumbnail,omitempty"`
	// Workers bounds concurrent thumbnail decoding.
	Workers int `yaml:"workers,omitempty"`
	// PreviewMaxDim bounds the longer side of on-screen previews.
	PreviewMaxDim int `yaml:"preview_max_dim,omitempty"`
	// PickerPreviewDim bounds the longer side of effect picker previews.
	PickerPreviewDim int `yaml:"picker_preview_dim,omitempty"`
	// ZoomMin and ZoomMax bound manual zoom.
	ZoomMin float64 `yaml:"zoom_min,omitempty"`
	ZoomMax float64 `yaml:"zoom_max,omitempty"`
	// Backup copies the original aside before a save overwrites it.
	Backup bool `yaml:"backup,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		LibraryDir:       filepath.Join(home, "Pictures"),
		Extensions:       []string{"jpg", "png", "gif"},
		RemoteMarkers:    []string{"OneDrive", "iCloud Drive"},
		Thumbnail:        ThumbOpts{Y: 250, Quality: 80},
		Workers:          8,
		PreviewMaxDim:    1600,
		PickerPreviewDim: 160,
		ZoomMin:          0.1,
		ZoomMax:          8,
		Backup:           true,
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if len(c.Extensions) == 0 {
		return errors.New("no extensions configured")
	}
	for i, e := range c.Extensions {
		c.Extensions[i] = strings.ToLower(strings.TrimPrefix(e, "."))
	}
	if c.Thumbnail.X == 0 && c.Thumbnail.Y == 0 {
		return errors.New("thumbnail needs x or y")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.ZoomMin <= 0 || c.ZoomMax < c.ZoomMin {
		return fmt.Errorf("invalid zoom bounds [%g, %g]", c.ZoomMin, c.ZoomMax)
	}
	return nil
}
