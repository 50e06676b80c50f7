package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotoredo/pkg/effect"
)

// Encoder persists a flattened image to dst in the given format ("jpg", "png", "gif").
type Encoder interface {
	Encode(dst string, img image.Image, format string) error
}

// FileEncoder writes through a temporary file and renames it into place, so a
// failed save never leaves a truncated destination.
type FileEncoder struct {
	// Quality is the JPEG quality.
	Quality int
}

// Encode implements Encoder.
func (e FileEncoder) Encode(dst string, img image.Image, format string) error {
	enc, err := e.encoder(format)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".fotoredo-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := enc(tmp, img); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	// CreateTemp makes the file 0600; keep the mode of the file being replaced.
	mode := os.FileMode(0o644)
	if st, err := os.Stat(dst); err == nil {
		mode = st.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("failed to chmod temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file before rename: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (e FileEncoder) encoder(format string) (imgio.Encoder, error) {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		q := e.Quality
		if q == 0 {
			q = 95
		}
		return imgio.JPEGEncoder(q), nil
	case "png":
		return imgio.PNGEncoder(), nil
	case "gif":
		return func(w io.Writer, img image.Image) error {
			return gif.Encode(w, img, nil)
		}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// Format returns the encoder format for path, taken from its extension.
func Format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// BackupPath is where the original is copied before it is overwritten.
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".orig" + ext
}

// Save flattens the current composite at source resolution and writes it to
// dst in the original photo's format. Failures come back as *ExportError and
// leave the edit session untouched so the user can retry.
func (c *Controller) Save(ctx context.Context, dst string, enc Encoder) error {
	comp := c.Composite()
	if comp == nil {
		return &ExportError{Op: "flatten", Path: dst, Err: effect.ErrSourceUnavailable}
	}

	klog.Infof("saving %v to %s ...", comp, dst)
	img, err := comp.Brush().Render(ctx)
	if err != nil {
		return &ExportError{Op: "flatten", Path: dst, Err: err}
	}

	if c.cfg.Backup && sameFile(dst, c.photo.Path()) {
		if err := backup(c.photo.Path()); err != nil {
			return &ExportError{Op: "backup", Path: dst, Err: err}
		}
	}

	if err := enc.Encode(dst, img, Format(c.photo.Path())); err != nil {
		return &ExportError{Op: "encode", Path: dst, Err: err}
	}

	klog.Infof("saved %s (%dx%d)", dst, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// backup copies path aside once; an existing backup is kept as the true original.
func backup(path string) error {
	bp := BackupPath(path)
	if _, err := os.Stat(bp); err == nil {
		klog.V(1).Infof("backup %s exists", bp)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	klog.Infof("backing up %s to %s", path, bp)
	return copy.Copy(path, bp)
}

func sameFile(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return false
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return false
	}
	return aa == bb
}
