// Package library scans a picture library into a collection of photos.
package library

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/tstromberg/fotoredo/pkg/config"
	"github.com/tstromberg/fotoredo/pkg/photo"
)

// UnsupportedTitle and UnsupportedMessage are shown once when a scan skipped remote files.
const (
	UnsupportedTitle   = "Unsupported images found"
	UnsupportedMessage = "Only images stored locally on the computer are supported. " +
		"Files in your library are stored in OneDrive or another network location, and were not loaded."
)

// Item is a photo plus the rendition shown in the grid.
type Item struct {
	Photo *photo.Photo
	Thumb image.Image
	// Placeholder is set when Thumb stands in for an image that failed to decode.
	Placeholder bool
}

// Library is the result of a scan.
type Library struct {
	Items []*Item
	// Unsupported lists files skipped because they are not stored locally.
	Unsupported []string
}

// Photos returns the photos in scan order.
func (l *Library) Photos() []*photo.Photo {
	ps := make([]*photo.Photo, len(l.Items))
	for i, it := range l.Items {
		ps[i] = it.Photo
	}
	return ps
}

// Empty reports whether no pictures were found.
func (l *Library) Empty() bool { return len(l.Items) == 0 }

// Options are the collaborators a scan uses.
type Options struct {
	// Metadata reads sizes and titles. Defaults to photo.HeaderReader.
	Metadata photo.MetadataReader
	// Titles persists title edits. May be nil.
	Titles photo.TitleStore
	// OnUnsupported is called at most once, after enumeration, if remote files were found.
	OnUnsupported func(count int)
}

// Collect enumerates the library, reads per-file metadata, and decodes grid
// thumbnails concurrently. Per-file failures never abort the scan: files that
// cannot be decoded get a placeholder.
func Collect(ctx context.Context, c *config.Config, o Options) (*Library, error) {
	if o.Metadata == nil {
		o.Metadata = photo.HeaderReader{}
	}

	klog.Infof("scanning %s for %v ...", c.LibraryDir, c.Extensions)
	f, err := find(c.LibraryDir, c.Extensions, c.RemoteMarkers)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	l := &Library{Unsupported: f.remote}
	for _, path := range f.local {
		p := photo.New(info(path, o.Metadata), o.Titles)
		l.Items = append(l.Items, &Item{Photo: p})
	}

	if len(l.Unsupported) > 0 {
		klog.Warningf("%d files not stored locally were skipped", len(l.Unsupported))
		if o.OnUnsupported != nil {
			o.OnUnsupported(len(l.Unsupported))
		}
	}

	if err := l.decodeThumbs(ctx, c); err != nil {
		return l, err
	}

	klog.Infof("found %d photos, %d unsupported", len(l.Items), len(l.Unsupported))
	return l, nil
}

// decodeThumbs fills each item's Thumb. Every goroutine writes only its own item.
func (l *Library) decodeThumbs(ctx context.Context, c *config.Config) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.Workers))

	for _, it := range l.Items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := thumbnail(it.Photo, c.CacheDir, c.Thumbnail)
			if err != nil {
				klog.Warningf("thumbnail for %s: %v", it.Photo.Path(), err)
				it.Thumb = Placeholder(c.Thumbnail)
				it.Placeholder = true
				return nil
			}
			it.Thumb = img
			return nil
		})
	}
	return g.Wait()
}
