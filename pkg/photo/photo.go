// Package photo models a single image in the picture library and its editable state.
package photo

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/tstromberg/fotoredo/pkg/notify"
)

var (
	// ErrDecodeFailure means the thumbnail or full image could not be decoded.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrPersistFailure means a title could not be written to file metadata.
	ErrPersistFailure = errors.New("persist failure")
)

// Info is what the library scan learns about a file before it becomes a Photo.
type Info struct {
	Path     string
	Name     string
	FileType string
	ModTime  time.Time
	Width    int
	Height   int
	Title    string
}

// TitleStore persists a title to file metadata.
type TitleStore interface {
	SaveTitle(path string, title string) error
}

// Photo is one image on disk plus its mutable effect parameters.
type Photo struct {
	info Info

	mu     sync.RWMutex
	title  string
	params Params

	store    TitleStore
	persists sync.WaitGroup

	changed notify.Notifier
}

// New returns a Photo with default parameters. store may be nil, in which case
// title changes are kept in memory only.
func New(info Info, store TitleStore) *Photo {
	if info.Name == "" {
		base := filepath.Base(info.Path)
		info.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if info.FileType == "" {
		info.FileType = FileType(info.Path)
	}
	return &Photo{
		info:   info,
		title:  info.Title,
		params: Defaults,
		store:  store,
	}
}

// FileType returns a display label for the file's format, e.g. "JPG File".
func FileType(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "File"
	}
	return strings.ToUpper(ext) + " File"
}

// Path is the file the photo was loaded from.
func (p *Photo) Path() string { return p.info.Path }

// Name is the display name: the file name without its extension.
func (p *Photo) Name() string { return p.info.Name }

// FileType is the display label for the file format.
func (p *Photo) FileType() string { return p.info.FileType }

// ModTime is the file's modification time at scan time.
func (p *Photo) ModTime() time.Time { return p.info.ModTime }

// Size returns the natural pixel dimensions.
func (p *Photo) Size() (width, height int) { return p.info.Width, p.info.Height }

// Dimensions returns the natural size formatted for display.
func (p *Photo) Dimensions() string {
	return fmt.Sprintf("%d x %d", p.info.Width, p.info.Height)
}

// Title returns the stored title, or the display name if none is set.
func (p *Photo) Title() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.title == "" {
		return p.info.Name
	}
	return p.title
}

// SetTitle stores a new title and persists it in the background.
// Persist failures are logged and never returned.
func (p *Photo) SetTitle(v string) {
	p.mu.Lock()
	if p.title == v {
		p.mu.Unlock()
		return
	}
	p.title = v
	p.mu.Unlock()

	if p.store != nil {
		p.persists.Add(1)
		go func() {
			defer p.persists.Done()
			if err := p.store.SaveTitle(p.info.Path, v); err != nil {
				klog.Errorf("title for %s not saved: %v", p.info.Path, fmt.Errorf("%w: %w", ErrPersistFailure, err))
				return
			}
			klog.V(1).Infof("saved title %q to %s", v, p.info.Path)
		}()
	}

	p.changed.Notify(PropTitle)
}

// Flush waits for background title writes to finish.
func (p *Photo) Flush() {
	p.persists.Wait()
}

// Params returns a snapshot of all effect parameters.
func (p *Photo) Params() Params {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.params
}

func (p *Photo) Exposure() float64    { return p.Params().Exposure }
func (p *Photo) Temperature() float64 { return p.Params().Temperature }
func (p *Photo) Tint() float64        { return p.Params().Tint }
func (p *Photo) Contrast() float64    { return p.Params().Contrast }
func (p *Photo) Saturation() float64  { return p.Params().Saturation }
func (p *Photo) BlurAmount() float64  { return p.Params().BlurAmount }
func (p *Photo) Intensity() float64   { return p.Params().Intensity }

func (p *Photo) SetExposure(v float64)    { p.update(PropExposure, &p.params.Exposure, v) }
func (p *Photo) SetTemperature(v float64) { p.update(PropTemperature, &p.params.Temperature, v) }
func (p *Photo) SetTint(v float64)        { p.update(PropTint, &p.params.Tint, v) }
func (p *Photo) SetContrast(v float64)    { p.update(PropContrast, &p.params.Contrast, v) }
func (p *Photo) SetSaturation(v float64)  { p.update(PropSaturation, &p.params.Saturation, v) }
func (p *Photo) SetIntensity(v float64)   { p.update(PropIntensity, &p.params.Intensity, v) }

// SetBlurAmount sets the blur radius. Negative values are stored as 0.
func (p *Photo) SetBlurAmount(v float64) {
	if v < 0 {
		v = 0
	}
	p.update(PropBlurAmount, &p.params.BlurAmount, v)
}

// Set assigns a parameter by name.
func (p *Photo) Set(name string, v float64) error {
	switch name {
	case PropExposure:
		p.SetExposure(v)
	case PropTemperature:
		p.SetTemperature(v)
	case PropTint:
		p.SetTint(v)
	case PropContrast:
		p.SetContrast(v)
	case PropSaturation:
		p.SetSaturation(v)
	case PropBlurAmount:
		p.SetBlurAmount(v)
	case PropIntensity:
		p.SetIntensity(v)
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// Reset restores every parameter in g to its default.
func (p *Photo) Reset(g Group) {
	for _, name := range g {
		v, err := Defaults.Get(name)
		if err != nil {
			klog.Warningf("reset: %v", err)
			continue
		}
		if err := p.Set(name, v); err != nil {
			klog.Warningf("reset: %v", err)
		}
	}
}

// Subscribe registers a handler for property changes.
func (p *Photo) Subscribe(h notify.Handler) notify.Token {
	return p.changed.Subscribe(h)
}

// Unsubscribe removes a handler registered with Subscribe.
func (p *Photo) Unsubscribe(t notify.Token) {
	p.changed.Unsubscribe(t)
}

// update stores v and notifies only if the value actually changed. NaN is
// treated as equal to NaN.
func (p *Photo) update(name string, field *float64, v float64) {
	p.mu.Lock()
	if *field == v || (math.IsNaN(*field) && math.IsNaN(v)) {
		p.mu.Unlock()
		return
	}
	*field = v
	p.mu.Unlock()

	p.changed.Notify(name)
}
