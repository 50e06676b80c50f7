// Package effect builds and renders chains of image effects.
package effect

import (
	"fmt"
	"strings"
)

// Kind is one of the supported image effects.
type Kind int

const (
	// Identity is the passthrough stage bound to the source image. It is
	// never part of a Selection.
	Identity Kind = iota
	Contrast
	Exposure
	TemperatureAndTint
	GaussianBlur
	Saturation
	Sepia
	Grayscale
	Invert
)

// Kinds lists the selectable effects in picker order.
var Kinds = []Kind{Contrast, Exposure, TemperatureAndTint, GaussianBlur, Saturation, Sepia, Grayscale, Invert}

var kindNames = map[Kind]string{
	Identity:           "identity",
	Contrast:           "contrast",
	Exposure:           "exposure",
	TemperatureAndTint: "temperature-tint",
	GaussianBlur:       "blur",
	Saturation:         "saturation",
	Sepia:              "sepia",
	Grayscale:          "grayscale",
	Invert:             "invert",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a selectable effect.
func (k Kind) Valid() bool {
	return k > Identity && k <= Invert
}

// ParseKind parses a selectable effect name.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "temperature", "tint", "temperatureandtint":
		return TemperatureAndTint, nil
	case "gaussianblur":
		return GaussianBlur, nil
	case "greyscale":
		return Grayscale, nil
	}
	for _, k := range Kinds {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return Identity, fmt.Errorf("unknown effect %q", s)
}

// ParseKinds parses a comma-separated list of effect names.
func ParseKinds(s string) ([]Kind, error) {
	ks := []Kind{}
	for _, f := range strings.Split(s, ",") {
		if strings.TrimSpace(f) == "" {
			continue
		}
		k, err := ParseKind(f)
		if err != nil {
			return nil, err
		}
		ks = append(ks, k)
	}
	return ks, nil
}
