package mol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flatmol/flatmol/pkg/errors"
)

// =============================================================================
// MoleculeType
// =============================================================================

// MoleculeType classifies a position by the kind of polymer (or non-polymer)
// it belongs to. The type drives chain-break thresholds, line widths, and
// occlusion reference lengths.
type MoleculeType int

const (
	// Protein is an amino-acid residue, represented by its CA atom.
	Protein MoleculeType = iota
	// DNA is a deoxyribonucleic residue, represented by its C4' atom.
	DNA
	// RNA is a ribonucleic residue, represented by its C4' atom.
	RNA
	// Ligand is a non-polymer heavy atom.
	Ligand
)

// moleculeTypeLetters is the wire encoding used in state files and frame
// payloads.
var moleculeTypeLetters = [...]string{
	Protein: "P",
	DNA:     "D",
	RNA:     "R",
	Ligand:  "L",
}

// String returns the lowercase name of the type.
func (t MoleculeType) String() string {
	switch t {
	case Protein:
		return "protein"
	case DNA:
		return "dna"
	case RNA:
		return "rna"
	case Ligand:
		return "ligand"
	default:
		return fmt.Sprintf("MoleculeType(%d)", int(t))
	}
}

// Letter returns the single-letter wire encoding ("P", "D", "R", "L").
func (t MoleculeType) Letter() string {
	if t >= 0 && int(t) < len(moleculeTypeLetters) {
		return moleculeTypeLetters[t]
	}
	return "P"
}

// IsNucleic reports whether the type is DNA or RNA.
func (t MoleculeType) IsNucleic() bool {
	return t == DNA || t == RNA
}

// ParseMoleculeType parses a type from its letter or full name.
func ParseMoleculeType(s string) (MoleculeType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P", "PROTEIN":
		return Protein, nil
	case "D", "DNA":
		return DNA, nil
	case "R", "RNA":
		return RNA, nil
	case "L", "LIGAND":
		return Ligand, nil
	default:
		return Protein, errors.New(errors.ErrCodeInvalidInput, "unknown molecule type: %q", s)
	}
}

// MarshalJSON encodes the type as its wire letter.
func (t MoleculeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Letter())
}

// UnmarshalJSON decodes a wire letter or full name.
func (t *MoleculeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMoleculeType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// RGB
// =============================================================================

// RGB is an 8-bit color triple. The JSON form matches the viewer state
// format: {"r": 255, "g": 0, "b": 0}.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// =============================================================================
// Bond
// =============================================================================

// Bond names two position indices that are explicitly connected.
// Serializes as a two-element array.
type Bond [2]int

// =============================================================================
// Contact
// =============================================================================

// Contact is a long-range restraint between two positions, rendered as a
// distinct segment class. A contact addresses its endpoints either by
// direct position index (ByResidue false) or by (chain, residue) pair
// (ByResidue true); residue addressing is resolved against the frame at
// render time.
type Contact struct {
	I, J      int // direct position indices (ByResidue false)
	ChainI    string
	ResI      int
	ChainJ    string
	ResJ      int
	ByResidue bool

	Weight float64 // must be > 0
	Color  *RGB    // optional explicit color
}

// MarshalJSON encodes the contact in the state-file array form:
// [i, j, weight, color?] or [chain1, res1, chain2, res2, weight, color?].
func (c Contact) MarshalJSON() ([]byte, error) {
	var parts []any
	if c.ByResidue {
		parts = []any{c.ChainI, c.ResI, c.ChainJ, c.ResJ, c.Weight}
	} else {
		parts = []any{c.I, c.J, c.Weight}
	}
	if c.Color != nil {
		parts = append(parts, *c.Color)
	}
	return json.Marshal(parts)
}

// UnmarshalJSON decodes either contact array form, keyed on whether the
// first element is a number (index pair) or string (chain/residue pair).
func (c *Contact) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) < 3 {
		return errors.New(errors.ErrCodeInvalidFormat, "contact needs at least 3 elements, got %d", len(parts))
	}

	var chain string
	if err := json.Unmarshal(parts[0], &chain); err == nil {
		// Chain + residue form: [chain1, res1, chain2, res2, weight, color?]
		if len(parts) < 5 {
			return errors.New(errors.ErrCodeInvalidFormat, "chain/residue contact needs at least 5 elements, got %d", len(parts))
		}
		out := Contact{ByResidue: true, ChainI: chain, I: -1, J: -1}
		if err := json.Unmarshal(parts[1], &out.ResI); err != nil {
			return err
		}
		if err := json.Unmarshal(parts[2], &out.ChainJ); err != nil {
			return err
		}
		if err := json.Unmarshal(parts[3], &out.ResJ); err != nil {
			return err
		}
		if err := json.Unmarshal(parts[4], &out.Weight); err != nil {
			return err
		}
		if len(parts) >= 6 {
			var color RGB
			if err := json.Unmarshal(parts[5], &color); err == nil {
				out.Color = &color
			}
		}
		*c = out
		return nil
	}

	// Index form: [i, j, weight, color?]
	var out Contact
	if err := json.Unmarshal(parts[0], &out.I); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[1], &out.J); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[2], &out.Weight); err != nil {
		return err
	}
	if len(parts) >= 4 {
		var color RGB
		if err := json.Unmarshal(parts[3], &color); err == nil {
			out.Color = &color
		}
	}
	*c = out
	return nil
}
