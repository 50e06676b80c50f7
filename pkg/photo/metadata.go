package photo

import (
	"fmt"
	"image"
	"os"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// MetadataReader returns the size and title stored in an image file.
type MetadataReader interface {
	ReadInfo(path string) (Info, error)
}

// ExifTool reads and writes metadata through a running exiftool process.
type ExifTool struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewExifTool starts exiftool.
func NewExifTool() (*ExifTool, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

// Close stops the exiftool process.
func (e *ExifTool) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.et.Close()
}

// ReadInfo implements MetadataReader.
func (e *ExifTool) ReadInfo(path string) (Info, error) {
	e.mu.Lock()
	fis := e.et.ExtractMetadata(path)
	e.mu.Unlock()

	i := Info{Path: path}
	if len(fis) == 0 {
		return i, fmt.Errorf("no metadata for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return i, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	h, err := fi.GetInt("ImageHeight")
	if err != nil {
		return i, fmt.Errorf("get ImageHeight: %w", err)
	}
	w, err := fi.GetInt("ImageWidth")
	if err != nil {
		return i, fmt.Errorf("get ImageWidth: %w", err)
	}
	i.Width, i.Height = int(w), int(h)

	i.Title, err = fi.GetString("Title")
	if err != nil {
		i.Title, err = fi.GetString("Headline")
		if err != nil {
			klog.V(2).Infof("no title for %s: %v", path, err)
		}
	}

	return i, nil
}

// SaveTitle implements TitleStore.
func (e *ExifTool) SaveTitle(path string, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fis := e.et.ExtractMetadata(path)
	if len(fis) == 0 {
		return fmt.Errorf("no metadata for %q", path)
	}
	if fis[0].Err != nil {
		return fmt.Errorf("extract fail for %q: %w", path, fis[0].Err)
	}
	fis[0].SetString("Title", title)
	fis[0].SetString("Headline", title)

	e.et.WriteMetadata(fis)
	if fis[0].Err != nil {
		return fmt.Errorf("write metadata for %q: %w", path, fis[0].Err)
	}
	return nil
}

// HeaderReader reads only the image header. It is used when exiftool is not
// installed, and knows nothing about titles.
type HeaderReader struct{}

// ReadInfo implements MetadataReader.
func (HeaderReader) ReadInfo(path string) (Info, error) {
	i := Info{Path: path}
	f, err := os.Open(path)
	if err != nil {
		return i, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return i, fmt.Errorf("%w: %q: %w", ErrDecodeFailure, path, err)
	}
	i.Width, i.Height = ic.Width, ic.Height
	return i, nil
}
