package pdb

import (
	"strings"

	"github.com/flatmol/flatmol/pkg/mol"
)

// =============================================================================
// Residue Classification
// =============================================================================

// aminoAcids holds residue names parsed as protein. The twenty standard
// residues plus modified forms that still carry a CA atom.
var aminoAcids = map[string]bool{
	"ALA": true, "ARG": true, "ASN": true, "ASP": true, "CYS": true,
	"GLN": true, "GLU": true, "GLY": true, "HIS": true, "ILE": true,
	"LEU": true, "LYS": true, "MET": true, "PHE": true, "PRO": true,
	"SER": true, "THR": true, "TRP": true, "TYR": true, "VAL": true,

	"MSE": true, "SEC": true, "PYL": true, "ASX": true, "GLX": true,
	"UNK": true, "SEP": true, "TPO": true, "PTR": true, "CSO": true,
	"CSD": true, "CME": true, "OCS": true, "PCA": true, "HYP": true,
	"MLY": true, "KCX": true, "LLP": true, "AIB": true, "DAL": true,
	"DAR": true, "DSG": true, "DAS": true, "DCY": true, "DGN": true,
	"DGL": true, "DHI": true, "DIL": true, "DLE": true, "DLY": true,
	"MED": true, "DPN": true, "DPR": true, "DSN": true, "DTH": true,
	"DTR": true, "DTY": true, "DVA": true,
}

// rnaBases and dnaBases drive the R/D split below. Everything nucleic
// that matches neither set defaults to RNA.
var rnaBases = map[string]bool{
	"A": true, "C": true, "G": true, "U": true, "I": true, "N": true,
	"RA": true, "RC": true, "RG": true, "RU": true,
}

var dnaBases = map[string]bool{
	"DA": true, "DC": true, "DG": true, "DT": true, "DU": true,
	"DI": true, "DN": true, "T": true,
}

// modifiedNucleotides covers common modified bases so that tRNA and rRNA
// structures do not degrade into ligand point clouds.
var modifiedNucleotides = map[string]bool{
	"PSU": true, "5MC": true, "5MU": true, "7MG": true, "1MA": true,
	"2MG": true, "M2G": true, "OMC": true, "OMG": true, "OMU": true,
	"H2U": true, "4SU": true, "5BU": true, "BRU": true, "CBR": true,
	"6MZ": true, "A2M": true, "MA6": true, "UR3": true, "4OC": true,
}

func isAminoAcid(name string) bool {
	return aminoAcids[name]
}

func isNucleicAcid(name string) bool {
	return rnaBases[name] || dnaBases[name] || modifiedNucleotides[name]
}

// nucleicType resolves a nucleic residue name to RNA or DNA. Names
// outside the known base sets fall back to their leading letter, then to
// RNA.
func nucleicType(name string) mol.MoleculeType {
	switch {
	case rnaBases[name] || strings.HasPrefix(name, "R"):
		return mol.RNA
	case dnaBases[name] || strings.HasPrefix(name, "D"):
		return mol.DNA
	default:
		return mol.RNA
	}
}

// =============================================================================
// Shared Atom and Residue Records
// =============================================================================

// atom is a single atom record produced by either format parser.
type atom struct {
	name    string
	x, y, z float64
	bIso    float64
	element string
}

// isHydrogen reports whether the atom should be excluded from ligand
// positions. The element field wins when present; older PDB files omit
// it, so the atom name decides as a fallback.
func (a atom) isHydrogen() bool {
	el := strings.ToUpper(strings.TrimSpace(a.element))
	if el != "" {
		return el == "H" || el == "D"
	}
	name := strings.TrimLeft(strings.TrimSpace(a.name), "0123456789")
	return name != "" && (name[0] == 'H' || name[0] == 'D')
}

// residue groups consecutive atom records that share a chain, sequence
// number, and residue name.
type residue struct {
	name  string
	chain string
	seq   int
	atoms []atom
}

// atom returns the first atom with the given name, mirroring how the
// first alternate conformer wins in multi-conformer files.
func (r *residue) atom(name string) (atom, bool) {
	for _, a := range r.atoms {
		if strings.TrimSpace(a.name) == name {
			return a, true
		}
	}
	return atom{}, false
}

// buildFrame reduces parsed residues to one frame of positions.
func buildFrame(residues []residue, opts Options) *mol.Frame {
	f := &mol.Frame{}
	for i := range residues {
		res := &residues[i]
		if !opts.chainAllowed(res.chain) {
			continue
		}
		if res.name == "HOH" {
			continue
		}

		switch {
		case isAminoAcid(res.name):
			if a, ok := res.atom("CA"); ok {
				appendPosition(f, res, a, mol.Protein)
			}
		case isNucleicAcid(res.name):
			a, ok := res.atom("C4'")
			if !ok {
				a, ok = res.atom("C4*")
			}
			if ok {
				appendPosition(f, res, a, nucleicType(res.name))
			}
		default:
			if opts.SkipLigands {
				continue
			}
			for _, a := range res.atoms {
				if a.isHydrogen() {
					continue
				}
				appendPosition(f, res, a, mol.Ligand)
			}
		}
	}
	return f
}

func appendPosition(f *mol.Frame, res *residue, a atom, t mol.MoleculeType) {
	f.Coords = append(f.Coords, mol.Vec3{X: a.x, Y: a.y, Z: a.z})
	f.Confidences = append(f.Confidences, a.bIso)
	f.Chains = append(f.Chains, res.chain)
	f.Types = append(f.Types, t)
	f.Names = append(f.Names, res.name)
	f.ResidueNumbers = append(f.ResidueNumbers, res.seq)
}
