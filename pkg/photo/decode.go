package photo

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// Open decodes the full-resolution image.
func (p *Photo) Open() (image.Image, error) {
	img, err := imgio.Open(p.info.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailure, p.info.Path, err)
	}
	return img, nil
}

// Thumbnail decodes the image and scales it to the given height.
func (p *Photo) Thumbnail(height int) (image.Image, error) {
	img, err := p.Open()
	if err != nil {
		return nil, err
	}
	return Scale(img, 0, height)
}

// Scale resizes img so it matches x or y, preserving aspect ratio for the
// dimension left at zero.
func Scale(img image.Image, x, y int) (image.Image, error) {
	b := img.Bounds()
	if b.Dy() == 0 {
		return nil, fmt.Errorf("%w: no Y for %v", ErrDecodeFailure, b)
	}
	if b.Dx() == 0 {
		return nil, fmt.Errorf("%w: no X for %v", ErrDecodeFailure, b)
	}

	if x == 0 {
		scale := float64(b.Dy()) / float64(y)
		x = int(float64(b.Dx()) / scale)
	}
	if y == 0 {
		scale := float64(b.Dx()) / float64(x)
		y = int(float64(b.Dy()) / scale)
	}
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}

	klog.V(2).Infof("scaling %v to %dx%d", b, x, y)
	return transform.Resize(img, x, y, transform.Lanczos), nil
}
