package photo

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/fotoredo/pkg/notify"
)

type fakeStore struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (s *fakeStore) SaveTitle(_ string, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	return s.err
}

func TestSettersNotifyOnlyOnChange(t *testing.T) {
	setters := map[string]func(*Photo, float64){
		PropExposure:    (*Photo).SetExposure,
		PropTemperature: (*Photo).SetTemperature,
		PropTint:        (*Photo).SetTint,
		PropContrast:    (*Photo).SetContrast,
		PropSaturation:  (*Photo).SetSaturation,
		PropBlurAmount:  (*Photo).SetBlurAmount,
		PropIntensity:   (*Photo).SetIntensity,
	}

	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			p := New(Info{Path: "/pics/a.jpg"}, nil)
			r := &notify.Recorder{}
			p.Subscribe(r.Record)

			cur, err := p.Params().Get(name)
			require.NoError(t, err)

			set(p, cur)
			assert.Empty(t, r.Events, "equal value must not notify")

			set(p, cur+0.25)
			assert.Equal(t, []string{name}, r.Events)

			got, err := p.Params().Get(name)
			require.NoError(t, err)
			assert.Equal(t, cur+0.25, got)

			set(p, cur+0.25)
			assert.Len(t, r.Events, 1)
		})
	}
}

func TestSetNaNTwiceNotifiesOnce(t *testing.T) {
	p := New(Info{Path: "/pics/a.jpg"}, nil)
	r := &notify.Recorder{}
	p.Subscribe(r.Record)

	p.SetExposure(math.NaN())
	p.SetExposure(math.NaN())
	assert.Equal(t, []string{PropExposure}, r.Events)
	assert.True(t, math.IsNaN(p.Exposure()))

	p.SetExposure(1)
	assert.Equal(t, []string{PropExposure, PropExposure}, r.Events)
}

func TestDefaults(t *testing.T) {
	p := New(Info{Path: "/pics/a.jpg"}, nil)
	assert.Equal(t, 0.0, p.Exposure())
	assert.Equal(t, 0.0, p.Temperature())
	assert.Equal(t, 0.0, p.Tint())
	assert.Equal(t, 0.0, p.Contrast())
	assert.Equal(t, 1.0, p.Saturation())
	assert.Equal(t, 0.0, p.BlurAmount())
	assert.Equal(t, 0.5, p.Intensity())
}

func TestBlurAmountNeverNegative(t *testing.T) {
	p := New(Info{Path: "/pics/a.jpg"}, nil)
	r := &notify.Recorder{}
	p.Subscribe(r.Record)

	p.SetBlurAmount(-3)
	assert.Equal(t, 0.0, p.BlurAmount())
	assert.Empty(t, r.Events)
}

func TestResetGroups(t *testing.T) {
	dirty := Params{Exposure: 1, Temperature: 0.3, Tint: -0.2, Contrast: 0.4, Saturation: 1.7, BlurAmount: 5, Intensity: 0.9}

	tests := []struct {
		name  string
		group Group
		want  Params
	}{
		{"color", ColorGroup, Params{Exposure: 1, Temperature: 0, Tint: 0, Contrast: 0.4, Saturation: 1, BlurAmount: 5, Intensity: 0.9}},
		{"light", LightGroup, Params{Exposure: 0, Temperature: 0.3, Tint: -0.2, Contrast: 0, Saturation: 1.7, BlurAmount: 5, Intensity: 0.9}},
		{"blur", BlurGroup, Params{Exposure: 1, Temperature: 0.3, Tint: -0.2, Contrast: 0.4, Saturation: 1.7, BlurAmount: 0, Intensity: 0.9}},
		{"sepia", SepiaGroup, Params{Exposure: 1, Temperature: 0.3, Tint: -0.2, Contrast: 0.4, Saturation: 1.7, BlurAmount: 5, Intensity: 0.5}},
		{"all", AllGroup, Defaults},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := New(Info{Path: "/pics/a.jpg"}, nil)
			for _, n := range AllGroup {
				v, _ := dirty.Get(n)
				require.NoError(t, p.Set(n, v))
			}
			p.Reset(tc.group)
			assert.Equal(t, tc.want, p.Params())
		})
	}
}

func TestTitle(t *testing.T) {
	t.Run("falls back to name", func(t *testing.T) {
		p := New(Info{Path: "/pics/beach.jpg"}, nil)
		assert.Equal(t, "beach", p.Title())
		assert.Equal(t, "JPG File", p.FileType())
	})

	t.Run("persists in background", func(t *testing.T) {
		s := &fakeStore{}
		p := New(Info{Path: "/pics/beach.jpg", Title: "Old"}, s)
		r := &notify.Recorder{}
		p.Subscribe(r.Record)

		p.SetTitle("Old")
		p.SetTitle("Sunset")
		p.Flush()

		assert.Equal(t, "Sunset", p.Title())
		assert.Equal(t, []string{PropTitle}, r.Events)
		assert.Equal(t, []string{"Sunset"}, s.titles)
	})

	t.Run("persist failure is not surfaced", func(t *testing.T) {
		s := &fakeStore{err: errors.New("read-only")}
		p := New(Info{Path: "/pics/beach.jpg"}, s)
		p.SetTitle("Sunset")
		p.Flush()
		assert.Equal(t, "Sunset", p.Title())
	})
}

func TestParamName(t *testing.T) {
	n, err := ParamName("exposure")
	require.NoError(t, err)
	assert.Equal(t, PropExposure, n)

	n, err = ParamName("blur")
	require.NoError(t, err)
	assert.Equal(t, PropBlurAmount, n)

	_, err = ParamName("gamma")
	assert.Error(t, err)
}

func TestHeaderReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.NRGBA{255, 0, 0, 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	i, err := HeaderReader{}.ReadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, 40, i.Width)
	assert.Equal(t, 30, i.Height)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = HeaderReader{}.ReadInfo(bad)
	assert.ErrorIs(t, err, ErrDecodeFailure)
}

func TestThumbnail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 400, 200))))
	require.NoError(t, f.Close())

	p := New(Info{Path: path, Width: 400, Height: 200}, nil)
	th, err := p.Thumbnail(50)
	require.NoError(t, err)
	assert.Equal(t, 100, th.Bounds().Dx())
	assert.Equal(t, 50, th.Bounds().Dy())
	assert.Equal(t, "400 x 200", p.Dimensions())

	missing := New(Info{Path: filepath.Join(dir, "gone.png")}, nil)
	_, err = missing.Open()
	assert.ErrorIs(t, err, ErrDecodeFailure)
}
