package pdb

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/mol"
)

// =============================================================================
// Formats
// =============================================================================

// Format identifies a structure file format.
type Format int

const (
	// FormatUnknown means the format should be detected from the content.
	FormatUnknown Format = iota

	// FormatPDB is the fixed-column PDB text format.
	FormatPDB

	// FormatMMCIF is the mmCIF/PDBx format.
	FormatMMCIF
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case FormatPDB:
		return "pdb"
	case FormatMMCIF:
		return "mmcif"
	default:
		return "unknown"
	}
}

// pdbRecords are line prefixes that mark a file as fixed-column PDB.
var pdbRecords = []string{
	"ATOM", "HETATM", "HEADER", "TITLE", "REMARK", "MODEL",
	"CRYST1", "SEQRES", "COMPND", "EXPDTA", "HELIX", "SHEET",
}

// DetectFormat inspects file content and guesses the format. mmCIF is
// recognized by its data_ block header or leading tag lines, PDB by its
// record names. Returns FormatUnknown when neither matches.
func DetectFormat(data []byte) Format {
	for _, raw := range bytes.Split(data, []byte("\n")) {
		line := strings.TrimSpace(string(raw))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "data_") || strings.HasPrefix(line, "_") || line == "loop_" {
			return FormatMMCIF
		}
		for _, rec := range pdbRecords {
			if strings.HasPrefix(line, rec) {
				return FormatPDB
			}
		}
		return FormatUnknown
	}
	return FormatUnknown
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cif", ".mmcif":
		return FormatMMCIF
	case ".pdb", ".ent":
		return FormatPDB
	default:
		return FormatUnknown
	}
}

// =============================================================================
// Options
// =============================================================================

// Options controls which atoms of a structure become positions.
type Options struct {
	// Chains restricts parsing to the named chains. Empty means all.
	Chains []string

	// SkipLigands drops non-polymer residues instead of emitting one
	// position per heavy atom.
	SkipLigands bool
}

func (o Options) chainAllowed(chain string) bool {
	if len(o.Chains) == 0 {
		return true
	}
	for _, c := range o.Chains {
		if c == chain {
			return true
		}
	}
	return false
}

// =============================================================================
// Entry Points
// =============================================================================

// Parse reads structure data and returns one frame per model. Pass
// FormatUnknown to detect the format from the content.
func Parse(data []byte, format Format, opts Options) ([]*mol.Frame, error) {
	if format == FormatUnknown {
		format = DetectFormat(data)
	}

	var frames []*mol.Frame
	var err error
	switch format {
	case FormatPDB:
		frames, err = parsePDB(data, opts)
	case FormatMMCIF:
		frames, err = parseMMCIF(data, opts)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unrecognized structure format")
	}
	if err != nil {
		return nil, err
	}

	// Drop models that contributed nothing, e.g. chains filtered away.
	kept := frames[:0]
	for _, f := range frames {
		if f.Len() > 0 {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidStructure, "no positions found")
	}
	return kept, nil
}

// ParseFile reads and parses the structure file at path. The format is
// taken from the extension, falling back to content detection.
func ParseFile(path string, opts Options) ([]*mol.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "structure file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}

	frames, err := Parse(data, FormatFromPath(path), opts)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "parse %s", path)
	}
	return frames, nil
}
