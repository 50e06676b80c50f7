package effect

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	bildeffect "github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// Brush paints a composite's output.
type Brush struct {
	root   *Node
	source image.Image
}

// Render flattens the chain at source resolution.
func (b *Brush) Render(ctx context.Context) (*image.RGBA, error) {
	return b.render(ctx, b.source)
}

// Preview renders the chain over a copy of the source scaled so its longer
// side is at most maxDim. A maxDim of 0 renders at source resolution.
func (b *Brush) Preview(ctx context.Context, maxDim int) (*image.RGBA, error) {
	src := b.source
	sb := src.Bounds()
	long := max(sb.Dx(), sb.Dy())
	if maxDim > 0 && long > maxDim {
		scale := float64(maxDim) / float64(long)
		w := max(1, int(math.Round(float64(sb.Dx())*scale)))
		h := max(1, int(math.Round(float64(sb.Dy())*scale)))
		src = transform.Resize(src, w, h, transform.Linear)
	}
	return b.render(ctx, src)
}

// render walks from the root back to the identity stage, then applies each
// stage in order. The context is checked between stages.
func (b *Brush) render(ctx context.Context, src image.Image) (*image.RGBA, error) {
	chain := []*Node{}
	for n := b.root; n != nil; n = n.Input {
		chain = append(chain, n)
	}
	slices.Reverse(chain)

	var out *image.RGBA
	for _, n := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n.Input == nil {
			out = clone.AsRGBA(src)
			continue
		}
		if out == nil {
			return nil, fmt.Errorf("%v has no upstream output", n)
		}
		out = Apply(n.Settings, out)
		klog.V(2).Infof("applied %v", n)
	}
	return out, nil
}

// Apply runs a single effect over img.
func Apply(s Settings, img image.Image) *image.RGBA {
	switch s := s.(type) {
	case Source:
		return clone.AsRGBA(img)
	case ContrastSettings:
		return adjust.Contrast(img, s.Contrast)
	case ExposureSettings:
		return exposure(img, s.Exposure)
	case TemperatureAndTintSettings:
		return temperatureAndTint(img, s.Temperature, s.Tint)
	case GaussianBlurSettings:
		return blur.Gaussian(img, s.Amount)
	case SaturationSettings:
		return adjust.Saturation(img, s.Saturation-1)
	case SepiaSettings:
		return blend.Opacity(img, bildeffect.Sepia(img), s.Intensity)
	case GrayscaleSettings:
		return clone.AsRGBA(bildeffect.Grayscale(img))
	case InvertSettings:
		return bildeffect.Invert(img)
	}
	klog.Warningf("unknown effect settings %T, passing through", s)
	return clone.AsRGBA(img)
}

// exposure scales color by 2^stops. Values are premultiplied, so channels
// are capped at alpha.
func exposure(img image.Image, stops float64) *image.RGBA {
	if stops == 0 {
		return clone.AsRGBA(img)
	}
	f := math.Pow(2, stops)
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: channel(float64(c.R)*f, c.A),
			G: channel(float64(c.G)*f, c.A),
			B: channel(float64(c.B)*f, c.A),
			A: c.A,
		}
	})
}

// tempShift is the largest per-channel shift applied by temperature and tint, as a fraction of full scale.
const tempShift = 0.2

// temperatureAndTint warms (positive temperature) by raising red and lowering
// blue, and shifts toward magenta (positive tint) by lowering green.
func temperatureAndTint(img image.Image, temperature, tint float64) *image.RGBA {
	if temperature == 0 && tint == 0 {
		return clone.AsRGBA(img)
	}
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		a := float64(c.A)
		t := tempShift * temperature * a
		n := tempShift * tint * a
		return color.RGBA{
			R: channel(float64(c.R)+t+n/2, c.A),
			G: channel(float64(c.G)-n, c.A),
			B: channel(float64(c.B)-t+n/2, c.A),
			A: c.A,
		}
	})
}

func channel(v float64, alpha uint8) uint8 {
	return uint8(math.Round(clamp(v, 0, float64(alpha))))
}
