package effect

import (
	"errors"
	"fmt"
	"image"
	"math"
	"reflect"
	"strings"

	"github.com/tstromberg/fotoredo/pkg/photo"
)

// ErrSourceUnavailable means a graph was requested before its source image was decoded.
var ErrSourceUnavailable = errors.New("source unavailable")

// Settings is the parameter payload of a node. The concrete type decides
// which effect the node applies.
type Settings interface {
	Kind() Kind
}

// Source is the payload of the identity stage.
type Source struct{}

// ContrastSettings parameterizes Contrast; Contrast is in [-1, 1].
type ContrastSettings struct{ Contrast float64 }

// ExposureSettings parameterizes Exposure; Exposure is in stops, [-2, 2].
type ExposureSettings struct{ Exposure float64 }

// TemperatureAndTintSettings parameterizes TemperatureAndTint; both in [-1, 1].
type TemperatureAndTintSettings struct {
	Temperature float64
	Tint        float64
}

// GaussianBlurSettings parameterizes GaussianBlur; Amount is the radius in pixels.
type GaussianBlurSettings struct{ Amount float64 }

// SaturationSettings parameterizes Saturation; 1 leaves colors alone, 0 is gray, 2 is doubled.
type SaturationSettings struct{ Saturation float64 }

// SepiaSettings parameterizes Sepia; Intensity is in [0, 1].
type SepiaSettings struct{ Intensity float64 }

// GrayscaleSettings and InvertSettings carry no parameters.
type (
	GrayscaleSettings struct{}
	InvertSettings    struct{}
)

func (Source) Kind() Kind                     { return Identity }
func (ContrastSettings) Kind() Kind           { return Contrast }
func (ExposureSettings) Kind() Kind           { return Exposure }
func (TemperatureAndTintSettings) Kind() Kind { return TemperatureAndTint }
func (GaussianBlurSettings) Kind() Kind       { return GaussianBlur }
func (SaturationSettings) Kind() Kind         { return Saturation }
func (SepiaSettings) Kind() Kind              { return Sepia }
func (GrayscaleSettings) Kind() Kind          { return Grayscale }
func (InvertSettings) Kind() Kind             { return Invert }

// MaxBlur bounds the blur radius.
var MaxBlur = 250.0

// Node is one stage of a graph. Input is the upstream stage; it is nil only
// for the identity stage.
type Node struct {
	Settings Settings
	Input    *Node
}

// Kind returns the node's effect.
func (n *Node) Kind() Kind {
	return n.Settings.Kind()
}

func (n *Node) String() string {
	switch s := n.Settings.(type) {
	case ContrastSettings:
		return fmt.Sprintf("contrast(%g)", s.Contrast)
	case ExposureSettings:
		return fmt.Sprintf("exposure(%g)", s.Exposure)
	case TemperatureAndTintSettings:
		return fmt.Sprintf("temperature-tint(%g,%g)", s.Temperature, s.Tint)
	case GaussianBlurSettings:
		return fmt.Sprintf("blur(%g)", s.Amount)
	case SaturationSettings:
		return fmt.Sprintf("saturation(%g)", s.Saturation)
	case SepiaSettings:
		return fmt.Sprintf("sepia(%g)", s.Intensity)
	}
	return n.Kind().String()
}

// NewSettings returns the payload for k, taking values from p and clamping
// them to the effect's range.
func NewSettings(k Kind, p photo.Params) (Settings, error) {
	switch k {
	case Contrast:
		return ContrastSettings{Contrast: clamp(p.Contrast, -1, 1)}, nil
	case Exposure:
		return ExposureSettings{Exposure: clamp(p.Exposure, -2, 2)}, nil
	case TemperatureAndTint:
		return TemperatureAndTintSettings{Temperature: clamp(p.Temperature, -1, 1), Tint: clamp(p.Tint, -1, 1)}, nil
	case GaussianBlur:
		return GaussianBlurSettings{Amount: clamp(p.BlurAmount, 0, MaxBlur)}, nil
	case Saturation:
		return SaturationSettings{Saturation: clamp(p.Saturation, 0, 2)}, nil
	case Sepia:
		return SepiaSettings{Intensity: clamp(p.Intensity, 0, 1)}, nil
	case Grayscale:
		return GrayscaleSettings{}, nil
	case Invert:
		return InvertSettings{}, nil
	}
	return nil, fmt.Errorf("no settings for %v", k)
}

// Composite is a built graph: the identity stage followed by one node per
// selected effect, each consuming the previous stage's output.
type Composite struct {
	source image.Image
	nodes  []*Node
}

// BuildGraph chains the selected effects onto src using the parameters in p.
// An empty selection yields a composite of just the identity stage.
func BuildGraph(src image.Image, sel Selection, p photo.Params) (*Composite, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrSourceUnavailable
	}

	prev := &Node{Settings: Source{}}
	nodes := []*Node{prev}
	for _, k := range sel.Kinds() {
		s, err := NewSettings(k, p)
		if err != nil {
			return nil, err
		}
		n := &Node{Settings: s, Input: prev}
		nodes = append(nodes, n)
		prev = n
	}

	return &Composite{source: src, nodes: nodes}, nil
}

// Source returns the image bound to the identity stage.
func (c *Composite) Source() image.Image { return c.source }

// Root returns the terminal node, whose output is the composite's output.
func (c *Composite) Root() *Node { return c.nodes[len(c.nodes)-1] }

// Nodes returns the stages in chain order, identity first.
func (c *Composite) Nodes() []*Node { return c.nodes }

// Kinds returns the effect kinds in chain order, without the identity stage.
func (c *Composite) Kinds() []Kind {
	ks := make([]Kind, 0, len(c.nodes)-1)
	for _, n := range c.nodes[1:] {
		ks = append(ks, n.Kind())
	}
	return ks
}

// String describes the chain, e.g. "identity -> sepia(0.5) -> grayscale".
func (c *Composite) String() string {
	parts := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, " -> ")
}

// Equal reports whether both composites apply the same chain to the same source.
func (c *Composite) Equal(o *Composite) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	if !sameImage(c.source, o.source) || len(c.nodes) != len(o.nodes) {
		return false
	}
	for i := range c.nodes {
		if c.nodes[i].Settings != o.nodes[i].Settings {
			return false
		}
	}
	return true
}

// Brush returns a renderable handle bound to the composite's root.
func (c *Composite) Brush() *Brush {
	return &Brush{root: c.Root(), source: c.source}
}

// sameImage reports whether a and b are the same image value. Non-comparable
// image types are never equal.
func sameImage(a, b image.Image) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil || ta.Comparable() {
		return a == b
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
