package library

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotoredo/pkg/config"
	"github.com/tstromberg/fotoredo/pkg/photo"
)

// ModTimeFormat is part of cached thumbnail names so edits to the source bust the cache.
var ModTimeFormat = "20060102150405"

// thumbnail returns a grid rendition of p, reading it from the cache when a
// fresh copy exists there.
func thumbnail(p *photo.Photo, cacheDir string, t config.ThumbOpts) (image.Image, error) {
	if cacheDir == "" {
		return scaled(p, t)
	}

	path := filepath.Join(cacheDir, thumbRelPath(p, t))
	if st, err := os.Stat(path); err == nil && st.Size() > int64(128) {
		img, err := imgio.Open(path)
		if err == nil {
			klog.V(1).Infof("found thumb: %s (%d bytes)", path, st.Size())
			return img, nil
		}
		klog.Warningf("unable to read thumb: %v", err)
	}

	img, err := scaled(p, t)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	if err := imgio.Save(path, img, imgio.JPEGEncoder(t.Quality)); err != nil {
		// The rendition is still usable; only the cache write failed.
		klog.Warningf("save thumb %s: %v", path, err)
	}
	return img, nil
}

func scaled(p *photo.Photo, t config.ThumbOpts) (image.Image, error) {
	img, err := p.Open()
	if err != nil {
		return nil, err
	}
	return photo.Scale(img, t.X, t.Y)
}

// thumbRelPath names a cached thumbnail after its source, size, and mod time.
func thumbRelPath(p *photo.Photo, t config.ThumbOpts) string {
	dir := strings.TrimPrefix(filepath.Dir(p.Path()), string(filepath.Separator))
	dimensions := ""
	if t.X != 0 {
		dimensions = fmt.Sprintf("x%d", t.X)
	}
	if t.Y != 0 {
		dimensions = fmt.Sprintf("y%d", t.Y)
	}
	base := fmt.Sprintf("%s@%s_%s.jpg", p.Name(), dimensions, p.ModTime().Format(ModTimeFormat))
	return filepath.Join(dir, base)
}

// Placeholder is shown in place of images that cannot be decoded.
func Placeholder(t config.ThumbOpts) image.Image {
	w, h := t.X, t.Y
	switch {
	case w == 0 && h == 0:
		w, h = 250, 250
	case w == 0:
		w = h
	case h == 0:
		h = w
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}), image.Point{}, draw.Src)
	return img
}
