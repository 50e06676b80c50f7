package photo

import (
	"fmt"
	"strings"
)

// Property names carried by change notifications.
const (
	PropExposure    = "Exposure"
	PropTemperature = "Temperature"
	PropTint        = "Tint"
	PropContrast    = "Contrast"
	PropSaturation  = "Saturation"
	PropBlurAmount  = "BlurAmount"
	PropIntensity   = "Intensity"
	PropTitle       = "Title"
)

// Params are the numeric effect parameters of a photo.
type Params struct {
	Exposure    float64
	Temperature float64
	Tint        float64
	Contrast    float64
	Saturation  float64
	BlurAmount  float64
	Intensity   float64
}

// Defaults is the single source of initial and reset parameter values.
var Defaults = Params{
	Exposure:    0,
	Temperature: 0,
	Tint:        0,
	Contrast:    0,
	Saturation:  1,
	BlurAmount:  0,
	Intensity:   0.5,
}

// Group is a set of parameters reset together.
type Group []string

// Reset groups, matching the edit panel sections.
var (
	ColorGroup = Group{PropTint, PropTemperature, PropSaturation}
	LightGroup = Group{PropContrast, PropExposure}
	BlurGroup  = Group{PropBlurAmount}
	SepiaGroup = Group{PropIntensity}
	AllGroup   = Group{PropExposure, PropTemperature, PropTint, PropContrast, PropSaturation, PropBlurAmount, PropIntensity}
)

// Get returns the value of a named parameter.
func (p Params) Get(name string) (float64, error) {
	switch name {
	case PropExposure:
		return p.Exposure, nil
	case PropTemperature:
		return p.Temperature, nil
	case PropTint:
		return p.Tint, nil
	case PropContrast:
		return p.Contrast, nil
	case PropSaturation:
		return p.Saturation, nil
	case PropBlurAmount:
		return p.BlurAmount, nil
	case PropIntensity:
		return p.Intensity, nil
	}
	return 0, fmt.Errorf("unknown parameter %q", name)
}

// ParamName resolves a case-insensitive parameter name, as typed on a command line.
func ParamName(s string) (string, error) {
	for _, n := range AllGroup {
		if strings.EqualFold(n, s) {
			return n, nil
		}
	}
	switch strings.ToLower(s) {
	case "blur":
		return PropBlurAmount, nil
	case "sepia":
		return PropIntensity, nil
	}
	return "", fmt.Errorf("unknown parameter %q", s)
}
