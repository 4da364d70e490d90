package render

import (
	"fmt"
	"strings"
)

// ColorMode selects how per-position base colors are assigned.
type ColorMode int

const (
	// ColorAuto resolves to ColorBucket when a PAE matrix is present,
	// ColorConfidence when confidence scores are present, else ColorChain.
	ColorAuto ColorMode = iota
	// ColorChain cycles a fixed palette by chain, in order of first
	// appearance.
	ColorChain
	// ColorConfidence maps confidence scores onto a continuous spectrum.
	ColorConfidence
	// ColorRainbow sweeps hue from the first position to the last.
	ColorRainbow
	// ColorBucket applies the four-band AlphaFold confidence palette.
	ColorBucket
	// ColorEntropy shades by per-position conservation, most-conserved
	// darkest.
	ColorEntropy
)

var colorModeNames = [...]string{
	ColorAuto:       "auto",
	ColorChain:      "chain",
	ColorConfidence: "plddt",
	ColorRainbow:    "rainbow",
	ColorBucket:     "deepmind",
	ColorEntropy:    "entropy",
}

// String returns the py2Dmol-compatible mode name.
func (m ColorMode) String() string {
	if m < 0 || int(m) >= len(colorModeNames) {
		return fmt.Sprintf("ColorMode(%d)", int(m))
	}
	return colorModeNames[m]
}

// ParseColorMode parses a mode name ("auto", "chain", "plddt", "rainbow",
// "deepmind", "entropy").
func ParseColorMode(s string) (ColorMode, error) {
	for m, name := range colorModeNames {
		if strings.EqualFold(s, name) {
			return ColorMode(m), nil
		}
	}
	return ColorAuto, fmt.Errorf("unknown color mode %q", s)
}

// Outline selects how segment strokes are layered.
type Outline int

const (
	// OutlineNone draws a single stroke with round caps.
	OutlineNone Outline = iota
	// OutlinePartial adds a wider background stroke with butt caps, so
	// joints fill in without doubling up the caps.
	OutlinePartial
	// OutlineFull is OutlinePartial plus filled circular caps drawn at
	// true termini on the background layer.
	OutlineFull
)

var outlineNames = [...]string{
	OutlineNone:    "none",
	OutlinePartial: "partial",
	OutlineFull:    "full",
}

func (o Outline) String() string {
	if o < 0 || int(o) >= len(outlineNames) {
		return fmt.Sprintf("Outline(%d)", int(o))
	}
	return outlineNames[o]
}

// ParseOutline parses an outline style name ("none", "partial", "full").
func ParseOutline(s string) (Outline, error) {
	for o, name := range outlineNames {
		if strings.EqualFold(s, name) {
			return Outline(o), nil
		}
	}
	return OutlineNone, fmt.Errorf("unknown outline style %q", s)
}

// Projection selects how rotated coordinates map to the screen plane.
type Projection int

const (
	// Orthographic applies uniform scale with no depth foreshortening.
	Orthographic Projection = iota
	// Perspective divides by camera distance; points at or behind the
	// camera are clipped.
	Perspective
)

var projectionNames = [...]string{
	Orthographic: "ortho",
	Perspective:  "perspective",
}

func (p Projection) String() string {
	if p < 0 || int(p) >= len(projectionNames) {
		return fmt.Sprintf("Projection(%d)", int(p))
	}
	return projectionNames[p]
}

// ParseProjection parses a projection name ("ortho", "perspective").
func ParseProjection(s string) (Projection, error) {
	for p, name := range projectionNames {
		if strings.EqualFold(s, name) {
			return Projection(p), nil
		}
	}
	return Orthographic, fmt.Errorf("unknown projection %q", s)
}

// Config is the user-settable render configuration. Zero value is not
// useful; start from DefaultConfig.
type Config struct {
	// Width and Height are the viewport size in pixels.
	Width  int
	Height int

	ColorMode  ColorMode
	Colorblind bool
	// Pastel blends base colors toward white by this fraction (0 = off).
	Pastel float64

	Shadow bool
	// ShadowStrength in [0, 1); the per-caster darkening factor is
	// 1 − ShadowStrength.
	ShadowStrength float64
	Outline        Outline
	DepthCue       bool

	// LineWidth is the base tube width in ångströms before scaling.
	LineWidth float64

	Projection Projection
	// Focal is the camera distance for Perspective, in the same units as
	// the rotated coordinates.
	Focal float64
	Zoom  float64

	// DetectCyclic closes first-to-last chain segments when the ends sit
	// within bonding distance.
	DetectCyclic bool

	// Overlay merges every frame of the current object into one view.
	Overlay bool
}

// DefaultConfig mirrors the py2Dmol defaults: 400×400 viewport, shadows
// at strength 0.5, full outline, 3.0 Å base width, orthographic camera,
// cyclic detection on.
func DefaultConfig() Config {
	return Config{
		Width:          400,
		Height:         400,
		ColorMode:      ColorAuto,
		Pastel:         0,
		Shadow:         true,
		ShadowStrength: 0.5,
		Outline:        OutlineFull,
		DepthCue:       true,
		LineWidth:      3.0,
		Projection:     Orthographic,
		Focal:          200,
		Zoom:           1.0,
		DetectCyclic:   true,
	}
}
