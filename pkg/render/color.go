package render

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/flatmol/flatmol/pkg/mol"
)

// defaultContactColor draws contacts that carry no explicit color.
var defaultContactColor = mol.RGB{R: 255, G: 0, B: 255}

// chainPalette cycles by chain appearance order.
var chainPalette = mustPalette(
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
)

// colorblindPalette is the Okabe-Ito set, substituted for the chain
// palette when the colorblind flag is on.
var colorblindPalette = mustPalette(
	"#0072b2", "#e69f00", "#009e73", "#cc79a7", "#56b4e9",
	"#d55e00", "#f0e442", "#999999",
)

// AlphaFold confidence band colors: very low, low, confident, very high.
var (
	bucketVeryLow  = mol.RGB{R: 255, G: 125, B: 69}
	bucketLow      = mol.RGB{R: 255, G: 219, B: 19}
	bucketHigh     = mol.RGB{R: 101, G: 203, B: 243}
	bucketVeryHigh = mol.RGB{R: 0, G: 83, B: 214}
)

// confidenceStops anchor the continuous confidence spectrum at the band
// colors, blended perceptually between anchors.
var confidenceStops = []struct {
	score float64
	color colorful.Color
}{
	{0, mustHex("#ff7d45")},
	{50, mustHex("#ffdb13")},
	{70, mustHex("#65cbf3")},
	{90, mustHex("#0053d6")},
	{100, mustHex("#0053d6")},
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func mustPalette(hexes ...string) []mol.RGB {
	p := make([]mol.RGB, len(hexes))
	for i, h := range hexes {
		p[i] = rgbOf(mustHex(h))
	}
	return p
}

func rgbOf(c colorful.Color) mol.RGB {
	r, g, b := c.Clamped().RGB255()
	return mol.RGB{R: r, G: g, B: b}
}

// resolveColorMode maps ColorAuto and any frame-level color override to
// the concrete mode for a frame. A frame carrying a literal color wins
// outright and is returned as the second value.
func resolveColorMode(mode ColorMode, f *mol.Frame) (ColorMode, *mol.RGB) {
	if f.Color != "" {
		if c, ok := mol.ParseColor(f.Color); ok {
			return mode, &c
		}
		if m, err := ParseColorMode(f.Color); err == nil {
			mode = m
		}
	}
	if mode == ColorAuto {
		switch {
		case f.HasPAE():
			mode = ColorBucket
		case f.HasConfidences():
			mode = ColorConfidence
		default:
			mode = ColorChain
		}
	}
	return mode, nil
}

// positionColors computes the base color of every position under the
// configured mode, pastel-blended when requested. Contact colors are
// handled separately at draw time.
func positionColors(f *mol.Frame, cfg Config) []mol.RGB {
	n := f.Len()
	if n == 0 {
		return nil
	}
	mode, literal := resolveColorMode(cfg.ColorMode, f)
	out := make([]mol.RGB, n)

	switch {
	case literal != nil:
		for i := range out {
			out[i] = *literal
		}
	case mode == ColorConfidence:
		for i := 0; i < n; i++ {
			out[i] = confidenceColor(f.ConfidenceAt(i))
		}
	case mode == ColorBucket:
		for i := 0; i < n; i++ {
			out[i] = bucketColor(f.ConfidenceAt(i))
		}
	case mode == ColorRainbow:
		for i := 0; i < n; i++ {
			fr := 0.0
			if n > 1 {
				fr = float64(i) / float64(n-1)
			}
			out[i] = rainbowColor(fr)
		}
	case mode == ColorEntropy:
		for i, e := range normalizedEntropies(f) {
			out[i] = entropyColor(e)
		}
	default: // ColorChain
		palette := chainPalette
		if cfg.Colorblind {
			palette = colorblindPalette
		}
		idx := map[string]int{}
		for i := 0; i < n; i++ {
			chain := f.ChainAt(i)
			k, ok := idx[chain]
			if !ok {
				k = len(idx)
				idx[chain] = k
			}
			out[i] = palette[k%len(palette)]
		}
	}

	if cfg.Pastel > 0 {
		for i := range out {
			out[i] = towardWhite(out[i], cfg.Pastel)
		}
	}
	return out
}

// confidenceColor maps a score onto the continuous spectrum.
func confidenceColor(score float64) mol.RGB {
	if score <= confidenceStops[0].score {
		return rgbOf(confidenceStops[0].color)
	}
	for k := 1; k < len(confidenceStops); k++ {
		stop := confidenceStops[k]
		if score <= stop.score {
			prev := confidenceStops[k-1]
			t := (score - prev.score) / (stop.score - prev.score)
			return rgbOf(prev.color.BlendLab(stop.color, t))
		}
	}
	return rgbOf(confidenceStops[len(confidenceStops)-1].color)
}

// bucketColor applies the four-band palette with the AlphaFold
// thresholds.
func bucketColor(score float64) mol.RGB {
	switch {
	case score > 90:
		return bucketVeryHigh
	case score > 70:
		return bucketHigh
	case score > 50:
		return bucketLow
	default:
		return bucketVeryLow
	}
}

// rainbowColor sweeps hue from blue at the first position to red at the
// last.
func rainbowColor(fraction float64) mol.RGB {
	return rgbOf(colorful.Hsv(240*(1-fraction), 0.85, 0.9))
}

// entropyColor shades by conservation: low entropy (conserved) lands on
// the deep end of the spectrum, high entropy on the warm end.
func entropyColor(norm float64) mol.RGB {
	return confidenceColor((1 - norm) * 100)
}

// normalizedEntropies rescales the frame's conservation values to
// [0, 1]; a missing or flat array normalizes to 0.5 everywhere.
func normalizedEntropies(f *mol.Frame) []float64 {
	n := f.Len()
	out := make([]float64, n)
	if len(f.Entropies) != n {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	lo, hi := f.Entropies[0], f.Entropies[0]
	for _, e := range f.Entropies {
		lo = math.Min(lo, e)
		hi = math.Max(hi, e)
	}
	if hi-lo < 1e-12 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, e := range f.Entropies {
		out[i] = (e - lo) / (hi - lo)
	}
	return out
}

// =============================================================================
// Color Arithmetic
// =============================================================================

// towardWhite blends c toward white by fraction t.
func towardWhite(c mol.RGB, t float64) mol.RGB {
	if t <= 0 {
		return c
	}
	if t > 1 {
		t = 1
	}
	blend := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) + (255-float64(v))*t))
	}
	return mol.RGB{R: blend(c.R), G: blend(c.G), B: blend(c.B)}
}

// scaleRGB darkens c by a factor in [0, 1].
func scaleRGB(c mol.RGB, f float64) mol.RGB {
	if f >= 1 {
		return c
	}
	if f < 0 {
		f = 0
	}
	return mol.RGB{
		R: uint8(math.Round(float64(c.R) * f)),
		G: uint8(math.Round(float64(c.G) * f)),
		B: uint8(math.Round(float64(c.B) * f)),
	}
}

// blendRGB is the integer midpoint of two colors, for segments whose
// endpoints straddle a color boundary.
func blendRGB(a, b mol.RGB) mol.RGB {
	if a == b {
		return a
	}
	return mol.RGB{
		R: uint8((int(a.R) + int(b.R)) / 2),
		G: uint8((int(a.G) + int(b.G)) / 2),
		B: uint8((int(a.B) + int(b.B)) / 2),
	}
}
