package render

import (
	"github.com/charmbracelet/log"

	"github.com/flatmol/flatmol/pkg/mol"
)

// Distance cutoffs for inferred connectivity, in ångströms. Consecutive
// polymer positions link when closer than the chain-break cutoff for
// their type pair; ligand atoms bond within their residue group under
// the tighter covalent cutoff.
const (
	polymerLinkCutoff = 5.0
	nucleicLinkCutoff = 7.5
	ligandBondCutoff  = 2.0
)

// Segment is one drawable unit: a tube between two positions, a lone
// point (Idx1 == Idx2), or a contact line.
type Segment struct {
	// Idx1 and Idx2 index the rendered position array. In an overlay
	// view these carry the merged-array offset.
	Idx1 int
	Idx2 int

	// Orig1 and Orig2 are the logical per-frame endpoint indices, which
	// selection masks are expressed in.
	Orig1 int
	Orig2 int

	Type  mol.MoleculeType
	Chain string

	// Length is the 3D endpoint distance in ångströms (0 for points).
	Length float64

	// Source is the frame ordinal the segment came from; occlusion never
	// crosses source boundaries in overlay views.
	Source int

	// Contact-class fields. Contact segments render flat and saturated
	// and do not exchange occlusion with molecule-class segments.
	Contact bool
	Weight  float64
	Color   *mol.RGB
}

// IsPoint reports whether the segment renders as a lone dot.
func (s Segment) IsPoint() bool {
	return s.Idx1 == s.Idx2 && !s.Contact
}

// SegmentOptions controls connectivity inference for one frame.
type SegmentOptions struct {
	// DetectCyclic links the first and last position of a chain when
	// they sit within bonding distance.
	DetectCyclic bool

	// Offset shifts render indices when the frame is part of a merged
	// overlay; Source stamps the segments with the frame ordinal.
	Offset int
	Source int

	// Log receives drop diagnostics for invalid bonds and unresolvable
	// contacts. May be nil.
	Log *log.Logger
}

func (o SegmentOptions) warnf(format string, args ...any) {
	if o.Log != nil {
		o.Log.Warnf(format, args...)
	}
}

// linkThresholdSq returns the squared chain-break cutoff for a
// consecutive position pair.
func linkThresholdSq(a, b mol.MoleculeType) float64 {
	if a.IsNucleic() && b.IsNucleic() {
		return nucleicLinkCutoff * nucleicLinkCutoff
	}
	return polymerLinkCutoff * polymerLinkCutoff
}

// BuildSegments derives the drawable connectivity for one frame.
//
// With an explicit bond list the bonds are used verbatim (invalid ones
// dropped with a diagnostic). Otherwise connectivity is inferred:
// consecutive same-type same-chain polymer positions within the
// chain-break cutoff, optional cyclic closure of each chain, and ligand
// atoms grouped by (chain, residue, name) bonded under the covalent
// cutoff. Positions no segment touches become points, so every position
// renders. Contacts resolve and append last.
func BuildSegments(f *mol.Frame, bonds []mol.Bond, contacts []mol.Contact, opts SegmentOptions) []Segment {
	n := f.Len()
	if n == 0 {
		return nil
	}

	segs := make([]Segment, 0, n)
	touched := make([]bool, n)

	link := func(i, j int) {
		segs = append(segs, Segment{
			Idx1:   i + opts.Offset,
			Idx2:   j + opts.Offset,
			Orig1:  i,
			Orig2:  j,
			Type:   f.TypeAt(i),
			Chain:  f.ChainAt(i),
			Length: f.Coords[i].Dist(f.Coords[j]),
			Source: opts.Source,
		})
		touched[i] = true
		touched[j] = true
	}

	if len(bonds) > 0 {
		for _, b := range bonds {
			i, j := b[0], b[1]
			if i < 0 || j < 0 || i >= n || j >= n {
				opts.warnf("dropping bond [%d %d]: index outside frame of %d positions", i, j, n)
				continue
			}
			link(i, j)
		}
	} else {
		buildPolymerSegments(f, opts, link)
		buildLigandSegments(f, link)
	}

	// Untouched positions still render, as points.
	for i := 0; i < n; i++ {
		if !touched[i] {
			segs = append(segs, Segment{
				Idx1:   i + opts.Offset,
				Idx2:   i + opts.Offset,
				Orig1:  i,
				Orig2:  i,
				Type:   f.TypeAt(i),
				Chain:  f.ChainAt(i),
				Source: opts.Source,
			})
		}
	}

	return appendContactSegments(segs, f, contacts, opts)
}

// buildPolymerSegments links consecutive same-type same-chain positions
// and optionally closes cyclic chains.
func buildPolymerSegments(f *mol.Frame, opts SegmentOptions, link func(i, j int)) {
	n := f.Len()
	for i := 0; i+1 < n; i++ {
		j := i + 1
		ti, tj := f.TypeAt(i), f.TypeAt(j)
		if ti == mol.Ligand || tj == mol.Ligand {
			continue
		}
		if ti != tj || f.ChainAt(i) != f.ChainAt(j) {
			continue
		}
		if f.Coords[i].DistSq(f.Coords[j]) < linkThresholdSq(ti, tj) {
			link(i, j)
		}
	}

	if !opts.DetectCyclic {
		return
	}

	// First and last polymer position per chain, in appearance order.
	first := map[string]int{}
	last := map[string]int{}
	var order []string
	for i := 0; i < n; i++ {
		if f.TypeAt(i) == mol.Ligand {
			continue
		}
		chain := f.ChainAt(i)
		if _, ok := first[chain]; !ok {
			first[chain] = i
			order = append(order, chain)
		}
		last[chain] = i
	}
	for _, chain := range order {
		i, j := first[chain], last[chain]
		if j <= i+1 {
			continue
		}
		if f.TypeAt(i) != f.TypeAt(j) {
			continue
		}
		if f.Coords[i].DistSq(f.Coords[j]) < linkThresholdSq(f.TypeAt(i), f.TypeAt(j)) {
			link(i, j)
		}
	}
}

// buildLigandSegments bonds ligand atoms within their residue group.
func buildLigandSegments(f *mol.Frame, link func(i, j int)) {
	type groupKey struct {
		chain   string
		residue int
		name    string
	}
	groups := map[groupKey][]int{}
	var order []groupKey
	for i := 0; i < f.Len(); i++ {
		if f.TypeAt(i) != mol.Ligand {
			continue
		}
		k := groupKey{f.ChainAt(i), f.ResidueAt(i), f.NameAt(i)}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	const cutoffSq = ligandBondCutoff * ligandBondCutoff
	for _, k := range order {
		members := groups[k]
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				i, j := members[a], members[b]
				if f.Coords[i].DistSq(f.Coords[j]) < cutoffSq {
					link(i, j)
				}
			}
		}
	}
}

// appendContactSegments resolves each contact to a position pair and
// appends a contact-class segment. Unresolvable contacts are dropped
// with a diagnostic, never an error.
func appendContactSegments(segs []Segment, f *mol.Frame, contacts []mol.Contact, opts SegmentOptions) []Segment {
	n := f.Len()
	for _, ct := range contacts {
		i, j := ct.I, ct.J
		if ct.ByResidue {
			var ok1, ok2 bool
			i, ok1 = findResidue(f, ct.ChainI, ct.ResI)
			j, ok2 = findResidue(f, ct.ChainJ, ct.ResJ)
			if !ok1 || !ok2 {
				opts.warnf("dropping contact %s/%d-%s/%d: residue not present", ct.ChainI, ct.ResI, ct.ChainJ, ct.ResJ)
				continue
			}
		} else if i < 0 || j < 0 || i >= n || j >= n {
			opts.warnf("dropping contact [%d %d]: index outside frame of %d positions", i, j, n)
			continue
		}
		segs = append(segs, Segment{
			Idx1:    i + opts.Offset,
			Idx2:    j + opts.Offset,
			Orig1:   i,
			Orig2:   j,
			Type:    f.TypeAt(i),
			Chain:   f.ChainAt(i),
			Length:  f.Coords[i].Dist(f.Coords[j]),
			Source:  opts.Source,
			Contact: true,
			Weight:  ct.Weight,
			Color:   ct.Color,
		})
	}
	return segs
}

// findResidue locates the first non-synthetic position with the given
// chain and residue number.
func findResidue(f *mol.Frame, chain string, residue int) (int, bool) {
	for i := 0; i < f.Len(); i++ {
		if f.ResidueAt(i) == mol.SyntheticResidue {
			continue
		}
		if f.ChainAt(i) == chain && f.ResidueAt(i) == residue {
			return i, true
		}
	}
	return 0, false
}
