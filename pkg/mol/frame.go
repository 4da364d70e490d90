package mol

import "fmt"

// DefaultConfidence is assumed for positions without a confidence score.
// Matches the midpoint convention used when B-factors carry no pLDDT.
const DefaultConfidence = 50.0

// DefaultChain is assumed for positions without a chain id.
const DefaultChain = "A"

// SyntheticResidue marks a position that does not correspond to a real
// residue (e.g. interpolated geometry). Synthetic positions are skipped
// during chain/residue contact resolution.
const SyntheticResidue = -1

// Frame holds one timestep of per-position data as parallel arrays.
// Coords is mandatory; every other array is either nil or exactly
// len(Coords) long. Use the At accessors to read with defaults applied.
type Frame struct {
	Coords         []Vec3         `json:"coords"`
	Confidences    []float64      `json:"plddts,omitempty"`
	Chains         []string       `json:"chains,omitempty"`
	Types          []MoleculeType `json:"position_types,omitempty"`
	Names          []string       `json:"position_names,omitempty"`
	ResidueNumbers []int          `json:"residue_numbers,omitempty"`

	// Entropies carries per-position conservation values (computed
	// upstream, e.g. from an MSA) consumed by the entropy color mode.
	Entropies []float64 `json:"entropies,omitempty"`

	// Bonds is explicit connectivity for this frame. When nil the frame
	// inherits the object-level bond list, and when that is nil too the
	// renderer infers connectivity from distance.
	Bonds []Bond `json:"bonds,omitempty"`

	// PAE is a flattened PAESize×PAESize predicted-aligned-error matrix,
	// scaled ×8 into uint8 range. Consumed only for color-mode defaults.
	PAE     []uint8 `json:"pae,omitempty"`
	PAESize int     `json:"-"`

	// Color optionally overrides the viewer color mode for this frame:
	// a mode name ("chain", "plddt", ...) or a literal color ("red",
	// "#ff0000").
	Color string `json:"color,omitempty"`
}

// Len returns the number of positions.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Coords)
}

// TypeAt returns the molecule type of position i, defaulting to Protein.
func (f *Frame) TypeAt(i int) MoleculeType {
	if f.Types == nil {
		return Protein
	}
	return f.Types[i]
}

// ChainAt returns the chain id of position i, defaulting to DefaultChain.
func (f *Frame) ChainAt(i int) string {
	if f.Chains == nil {
		return DefaultChain
	}
	return f.Chains[i]
}

// ConfidenceAt returns the confidence of position i, defaulting to
// DefaultConfidence.
func (f *Frame) ConfidenceAt(i int) float64 {
	if f.Confidences == nil {
		return DefaultConfidence
	}
	return f.Confidences[i]
}

// NameAt returns the display name of position i, or "".
func (f *Frame) NameAt(i int) string {
	if f.Names == nil {
		return ""
	}
	return f.Names[i]
}

// ResidueAt returns the residue number of position i, defaulting to the
// index itself when no residue array is present.
func (f *Frame) ResidueAt(i int) int {
	if f.ResidueNumbers == nil {
		return i
	}
	return f.ResidueNumbers[i]
}

// HasConfidences reports whether real confidence scores are present.
func (f *Frame) HasConfidences() bool {
	return len(f.Confidences) > 0
}

// HasPAE reports whether a PAE matrix is present.
func (f *Frame) HasPAE() bool {
	return len(f.PAE) > 0
}

// Sanitize drops optional arrays whose length does not match the
// coordinate count and returns a description of each dropped field.
// A frame with no coordinates is valid (renders as a no-op).
func (f *Frame) Sanitize() []string {
	n := len(f.Coords)
	var dropped []string

	check := func(name string, length int, drop func()) {
		if length != 0 && length != n {
			drop()
			dropped = append(dropped, fmt.Sprintf("%s length %d != %d positions", name, length, n))
		}
	}

	check("plddts", len(f.Confidences), func() { f.Confidences = nil })
	check("chains", len(f.Chains), func() { f.Chains = nil })
	check("position_types", len(f.Types), func() { f.Types = nil })
	check("position_names", len(f.Names), func() { f.Names = nil })
	check("residue_numbers", len(f.ResidueNumbers), func() { f.ResidueNumbers = nil })
	check("entropies", len(f.Entropies), func() { f.Entropies = nil })

	if len(f.PAE) > 0 {
		size := f.PAESize
		if size == 0 {
			// Infer a square dimension for payloads that did not set it.
			for d := 1; d*d <= len(f.PAE); d++ {
				if d*d == len(f.PAE) {
					size = d
				}
			}
		}
		if size*size != len(f.PAE) {
			paeLen := len(f.PAE)
			f.PAE = nil
			f.PAESize = 0
			dropped = append(dropped, fmt.Sprintf("pae length %d is not a square matrix", paeLen))
		} else {
			f.PAESize = size
		}
	}

	return dropped
}
