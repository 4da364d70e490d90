package render

import (
	"testing"

	"github.com/flatmol/flatmol/pkg/mol"
)

func TestBucketColorThresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  mol.RGB
	}{
		{95, bucketVeryHigh},
		{90.01, bucketVeryHigh},
		{90, bucketHigh},
		{75, bucketHigh},
		{70, bucketLow},
		{55, bucketLow},
		{50, bucketVeryLow},
		{10, bucketVeryLow},
	}
	for _, tt := range tests {
		if got := bucketColor(tt.score); got != tt.want {
			t.Errorf("bucketColor(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestResolveColorModeAuto(t *testing.T) {
	base := lineFrame(4, 3.8)

	withPAE := lineFrame(4, 3.8)
	withPAE.PAE = []uint8{1, 2, 3, 4}
	withPAE.PAESize = 2
	withPAE.Confidences = []float64{90, 90, 90, 90}

	withConf := lineFrame(4, 3.8)
	withConf.Confidences = []float64{90, 90, 90, 90}

	tests := []struct {
		name string
		f    *mol.Frame
		want ColorMode
	}{
		{"pae wins", withPAE, ColorBucket},
		{"confidences next", withConf, ColorConfidence},
		{"chain fallback", base, ColorChain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, literal := resolveColorMode(ColorAuto, tt.f)
			if literal != nil {
				t.Fatalf("got literal color %v, want none", *literal)
			}
			if mode != tt.want {
				t.Errorf("mode = %v, want %v", mode, tt.want)
			}
		})
	}
}

func TestResolveColorModeExplicitSticks(t *testing.T) {
	f := lineFrame(2, 3.8)
	f.Confidences = []float64{90, 90}
	mode, _ := resolveColorMode(ColorRainbow, f)
	if mode != ColorRainbow {
		t.Errorf("mode = %v, want rainbow (explicit modes ignore frame data)", mode)
	}
}

func TestResolveColorModeFrameOverrides(t *testing.T) {
	literal := lineFrame(2, 3.8)
	literal.Color = "red"
	mode, col := resolveColorMode(ColorAuto, literal)
	if col == nil {
		t.Fatal("literal frame color not resolved")
	}
	if *col != (mol.RGB{R: 255}) {
		t.Errorf("literal = %v, want red", *col)
	}
	_ = mode

	moded := lineFrame(2, 3.8)
	moded.Color = "rainbow"
	mode, col = resolveColorMode(ColorAuto, moded)
	if col != nil {
		t.Fatalf("mode name parsed as literal color %v", *col)
	}
	if mode != ColorRainbow {
		t.Errorf("mode = %v, want rainbow", mode)
	}

	junk := lineFrame(2, 3.8)
	junk.Color = "not-a-color"
	mode, col = resolveColorMode(ColorAuto, junk)
	if col != nil || mode != ColorChain {
		t.Errorf("junk override gave mode %v literal %v, want chain fallback", mode, col)
	}
}

func TestPositionColorsChainPalette(t *testing.T) {
	f := chainFrame("A", "B", "A")
	cfg := DefaultConfig()
	cfg.ColorMode = ColorChain

	got := positionColors(f, cfg)
	if got[0] != got[2] {
		t.Error("same chain mapped to different colors")
	}
	if got[0] == got[1] {
		t.Error("different chains mapped to the same color")
	}
	if got[0] != chainPalette[0] || got[1] != chainPalette[1] {
		t.Error("palette not applied in chain appearance order")
	}
}

func TestPositionColorsColorblind(t *testing.T) {
	f := chainFrame("A")
	cfg := DefaultConfig()
	cfg.ColorMode = ColorChain
	cfg.Colorblind = true

	got := positionColors(f, cfg)
	if got[0] != colorblindPalette[0] {
		t.Errorf("got %v, want the first Okabe-Ito color %v", got[0], colorblindPalette[0])
	}
}

func TestPositionColorsPastel(t *testing.T) {
	f := chainFrame("A")
	cfg := DefaultConfig()
	cfg.ColorMode = ColorChain
	cfg.Pastel = 1

	got := positionColors(f, cfg)
	if got[0] != (mol.RGB{R: 255, G: 255, B: 255}) {
		t.Errorf("full pastel = %v, want white", got[0])
	}
}

func TestPositionColorsLiteralFrameColor(t *testing.T) {
	f := lineFrame(3, 3.8)
	f.Color = "#102030"
	got := positionColors(f, DefaultConfig())

	want := mol.RGB{R: 0x10, G: 0x20, B: 0x30}
	for i, c := range got {
		if c != want {
			t.Errorf("color[%d] = %v, want %v", i, c, want)
		}
	}
}

func TestPositionColorsRainbowEnds(t *testing.T) {
	f := lineFrame(10, 3.8)
	cfg := DefaultConfig()
	cfg.ColorMode = ColorRainbow

	got := positionColors(f, cfg)
	first, last := got[0], got[9]
	if first.B <= first.R {
		t.Errorf("first position %v, want blue end", first)
	}
	if last.R <= last.B {
		t.Errorf("last position %v, want red end", last)
	}
}

func TestConfidenceColorAnchors(t *testing.T) {
	if got := confidenceColor(0); got != (mol.RGB{R: 255, G: 125, B: 69}) {
		t.Errorf("confidenceColor(0) = %v, want the very-low anchor", got)
	}
	if got := confidenceColor(100); got != (mol.RGB{R: 0, G: 83, B: 214}) {
		t.Errorf("confidenceColor(100) = %v, want the very-high anchor", got)
	}
	if got, want := confidenceColor(95), (mol.RGB{R: 0, G: 83, B: 214}); got != want {
		t.Errorf("confidenceColor(95) = %v, want the flat top band %v", got, want)
	}
	mid := confidenceColor(60)
	if mid == confidenceColor(50) || mid == confidenceColor(70) {
		t.Error("confidenceColor(60) collapsed onto an anchor")
	}
}

func TestEntropyColors(t *testing.T) {
	f := lineFrame(3, 3.8)
	f.Entropies = []float64{0, 1, 2}
	cfg := DefaultConfig()
	cfg.ColorMode = ColorEntropy

	got := positionColors(f, cfg)
	if got[0] != confidenceColor(100) {
		t.Errorf("most conserved position %v, want the deep end %v", got[0], confidenceColor(100))
	}
	if got[2] != confidenceColor(0) {
		t.Errorf("least conserved position %v, want the warm end %v", got[2], confidenceColor(0))
	}
}

func TestEntropyMissingDataFallsBack(t *testing.T) {
	f := lineFrame(3, 3.8) // no entropies at all
	cfg := DefaultConfig()
	cfg.ColorMode = ColorEntropy

	got := positionColors(f, cfg)
	want := confidenceColor(50)
	for i, c := range got {
		if c != want {
			t.Errorf("color[%d] = %v, want the neutral midpoint %v", i, c, want)
		}
	}
}

func TestColorArithmetic(t *testing.T) {
	if got := towardWhite(mol.RGB{}, 0.5); got != (mol.RGB{R: 128, G: 128, B: 128}) {
		t.Errorf("towardWhite(black, 0.5) = %v, want mid grey", got)
	}
	if got := scaleRGB(mol.RGB{R: 100, G: 200, B: 40}, 0.5); got != (mol.RGB{R: 50, G: 100, B: 20}) {
		t.Errorf("scaleRGB = %v, want half values", got)
	}
	a, b := mol.RGB{R: 100}, mol.RGB{B: 200}
	if got := blendRGB(a, b); got != (mol.RGB{R: 50, B: 100}) {
		t.Errorf("blendRGB = %v, want midpoint", got)
	}
	if got := blendRGB(a, a); got != a {
		t.Errorf("blendRGB identical = %v, want unchanged", got)
	}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ColorMode
		wantErr bool
	}{
		{"auto", ColorAuto, false},
		{"chain", ColorChain, false},
		{"plddt", ColorConfidence, false},
		{"rainbow", ColorRainbow, false},
		{"deepmind", ColorBucket, false},
		{"entropy", ColorEntropy, false},
		{"PLDDT", ColorConfidence, false},
		{"sepia", ColorAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseColorMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColorMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseColorMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
