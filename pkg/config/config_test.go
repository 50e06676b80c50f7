package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, []string{"jpg", "png", "gif"}, c.Extensions)
		assert.Equal(t, 250, c.Thumbnail.Y)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "fotoredo.yaml")
		require.NoError(t, os.WriteFile(p, []byte("library: /srv/pics\nextensions: [.JPG, png]\nworkers: 0\n"), 0o644))

		c, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, "/srv/pics", c.LibraryDir)
		assert.Equal(t, []string{"jpg", "png"}, c.Extensions)
		assert.Equal(t, 1, c.Workers)
		assert.Equal(t, []string{"OneDrive", "iCloud Drive"}, c.RemoteMarkers)
	})

	t.Run("bad zoom bounds", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "fotoredo.yaml")
		require.NoError(t, os.WriteFile(p, []byte("zoom_min: 2\nzoom_max: 1\n"), 0o644))
		_, err := Load(p)
		assert.Error(t, err)
	})

	t.Run("unparseable", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "fotoredo.yaml")
		require.NoError(t, os.WriteFile(p, []byte("workers: [\n"), 0o644))
		_, err := Load(p)
		assert.Error(t, err)
	})
}
