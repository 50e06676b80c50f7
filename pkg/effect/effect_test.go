package effect

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/fotoredo/pkg/photo"
)

// testImage returns an opaque gradient with distinct channel values.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(40 + x*10), G: uint8(80 + y*10), B: uint8(160 - x*5), A: 255})
		}
	}
	return img
}

func render(t *testing.T, src image.Image, sel Selection, p photo.Params) *image.RGBA {
	t.Helper()
	c, err := BuildGraph(src, sel, p)
	require.NoError(t, err)
	out, err := c.Brush().Render(context.Background())
	require.NoError(t, err)
	return out
}

func TestBuildGraphEmptySelectionIsIdentity(t *testing.T) {
	src := testImage(8, 6)
	c, err := BuildGraph(src, NewSelection(), photo.Defaults)
	require.NoError(t, err)

	assert.Len(t, c.Nodes(), 1)
	assert.Equal(t, Identity, c.Root().Kind())
	assert.Equal(t, "identity", c.String())

	out, err := c.Brush().Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, src.Pix, out.Pix)
}

func TestBuildGraphWiring(t *testing.T) {
	src := testImage(4, 4)
	p := photo.Defaults
	p.BlurAmount = 2
	c, err := BuildGraph(src, NewSelection(GaussianBlur, Sepia, Invert), p)
	require.NoError(t, err)

	nodes := c.Nodes()
	require.Len(t, nodes, 4)
	assert.Nil(t, nodes[0].Input)
	for i := 1; i < len(nodes); i++ {
		assert.Same(t, nodes[i-1], nodes[i].Input)
	}
	assert.Same(t, nodes[3], c.Root())
	assert.Equal(t, []Kind{GaussianBlur, Sepia, Invert}, c.Kinds())
	assert.Equal(t, GaussianBlurSettings{Amount: 2}, nodes[1].Settings)
	assert.Equal(t, "identity -> blur(2) -> sepia(0.5) -> invert", c.String())
}

func TestBuildGraphSourceUnavailable(t *testing.T) {
	_, err := BuildGraph(nil, NewSelection(Invert), photo.Defaults)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = BuildGraph(image.NewRGBA(image.Rectangle{}), NewSelection(), photo.Defaults)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestBuildGraphOrderMatters(t *testing.T) {
	src := testImage(8, 8)
	a := render(t, src, NewSelection(Sepia, Grayscale), photo.Defaults)
	b := render(t, src, NewSelection(Grayscale, Sepia), photo.Defaults)

	assert.NotEqual(t, a.Pix, b.Pix)

	// Grayscale last leaves no color.
	c := a.RGBAAt(3, 3)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)

	// Sepia last leaves a warm tint.
	d := b.RGBAAt(3, 3)
	assert.Greater(t, d.R, d.B)
}

func TestBuildGraphIdempotent(t *testing.T) {
	src := testImage(6, 6)
	p := photo.Defaults
	p.Contrast = 0.3
	p.Exposure = 0.5
	sel := NewSelection(Contrast, Exposure, Saturation)

	c1, err := BuildGraph(src, sel, p)
	require.NoError(t, err)
	c2, err := BuildGraph(src, sel, p)
	require.NoError(t, err)

	assert.True(t, c1.Equal(c2))
	o1, err := c1.Brush().Render(context.Background())
	require.NoError(t, err)
	o2, err := c2.Brush().Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, o1.Pix, o2.Pix)

	p.Contrast = 0.4
	c3, err := BuildGraph(src, sel, p)
	require.NoError(t, err)
	assert.False(t, c1.Equal(c3))
}

// sliceImage has a non-comparable dynamic type.
type sliceImage []color.RGBA

func (s sliceImage) ColorModel() color.Model { return color.RGBAModel }
func (s sliceImage) Bounds() image.Rectangle { return image.Rect(0, 0, len(s), 1) }
func (s sliceImage) At(x, _ int) color.Color { return s[x] }

func TestCompositeEqualNonComparableSource(t *testing.T) {
	src := sliceImage{{R: 1, A: 255}, {G: 2, A: 255}}
	sel := NewSelection(Invert)

	c1, err := BuildGraph(src, sel, photo.Defaults)
	require.NoError(t, err)
	c2, err := BuildGraph(src, sel, photo.Defaults)
	require.NoError(t, err)

	assert.NotPanics(t, func() { c1.Equal(c2) })
	assert.True(t, c1.Equal(c1))
	assert.False(t, c1.Equal(c2))

	other, err := BuildGraph(testImage(2, 1), sel, photo.Defaults)
	require.NoError(t, err)
	assert.False(t, c1.Equal(other))
}

func TestEffects(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 255})
		}
	}

	t.Run("exposure doubles per stop", func(t *testing.T) {
		out := Apply(ExposureSettings{Exposure: 1}, src)
		assert.Equal(t, color.RGBA{200, 200, 200, 255}, out.RGBAAt(0, 0))
	})

	t.Run("exposure saturates", func(t *testing.T) {
		out := Apply(ExposureSettings{Exposure: 2}, src)
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(0, 0))
	})

	t.Run("invert", func(t *testing.T) {
		out := Apply(InvertSettings{}, src)
		assert.Equal(t, color.RGBA{155, 155, 155, 255}, out.RGBAAt(1, 1))
	})

	t.Run("warm temperature", func(t *testing.T) {
		out := Apply(TemperatureAndTintSettings{Temperature: 1}, src)
		c := out.RGBAAt(0, 0)
		assert.Greater(t, c.R, uint8(100))
		assert.Less(t, c.B, uint8(100))
		assert.Equal(t, uint8(100), c.G)
	})

	t.Run("magenta tint", func(t *testing.T) {
		out := Apply(TemperatureAndTintSettings{Tint: 1}, src)
		c := out.RGBAAt(0, 0)
		assert.Less(t, c.G, uint8(100))
	})

	t.Run("neutral parameters pass through", func(t *testing.T) {
		assert.Equal(t, src.Pix, Apply(ExposureSettings{}, src).Pix)
		assert.Equal(t, src.Pix, Apply(TemperatureAndTintSettings{}, src).Pix)
		assert.Equal(t, src.Pix, Apply(GaussianBlurSettings{}, src).Pix)
	})
}

func TestNewSettingsClamps(t *testing.T) {
	p := photo.Params{Exposure: 9, Contrast: -3, Saturation: 5, BlurAmount: -1, Intensity: 2, Temperature: 4, Tint: -4}

	tests := []struct {
		kind Kind
		want Settings
	}{
		{Exposure, ExposureSettings{Exposure: 2}},
		{Contrast, ContrastSettings{Contrast: -1}},
		{Saturation, SaturationSettings{Saturation: 2}},
		{GaussianBlur, GaussianBlurSettings{Amount: 0}},
		{Sepia, SepiaSettings{Intensity: 1}},
		{TemperatureAndTint, TemperatureAndTintSettings{Temperature: 1, Tint: -1}},
		{Grayscale, GrayscaleSettings{}},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			s, err := NewSettings(tc.kind, p)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s)
			assert.Equal(t, tc.kind, s.Kind())
		})
	}

	_, err := NewSettings(Identity, p)
	assert.Error(t, err)
}

func TestRenderHonorsCancel(t *testing.T) {
	c, err := BuildGraph(testImage(4, 4), NewSelection(Invert), photo.Defaults)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Brush().Render(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreview(t *testing.T) {
	c, err := BuildGraph(testImage(40, 20), NewSelection(Grayscale), photo.Defaults)
	require.NoError(t, err)

	out, err := c.Brush().Preview(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 5, out.Bounds().Dy())

	full, err := c.Brush().Preview(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 40, full.Bounds().Dx())
}

func TestPreviews(t *testing.T) {
	ps, err := Previews(context.Background(), testImage(16, 16), photo.Defaults, 8)
	require.NoError(t, err)
	assert.Len(t, ps, len(Kinds))
	for _, k := range Kinds {
		require.Contains(t, ps, k)
		assert.Equal(t, 8, ps[k].Bounds().Dx())
	}
}
