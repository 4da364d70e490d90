package render

import (
	"testing"

	"github.com/flatmol/flatmol/pkg/mol"
)

// lineFrame builds n positions along the x axis at the given spacing,
// all protein on chain A.
func lineFrame(n int, spacing float64) *mol.Frame {
	f := &mol.Frame{Coords: make([]mol.Vec3, n)}
	for i := range f.Coords {
		f.Coords[i] = mol.Vec3{X: float64(i) * spacing}
	}
	return f
}

func countPoints(segs []Segment) int {
	n := 0
	for _, s := range segs {
		if s.IsPoint() {
			n++
		}
	}
	return n
}

func countContacts(segs []Segment) int {
	n := 0
	for _, s := range segs {
		if s.Contact {
			n++
		}
	}
	return n
}

func hasLink(segs []Segment, i, j int) bool {
	for _, s := range segs {
		if s.Contact {
			continue
		}
		if (s.Idx1 == i && s.Idx2 == j) || (s.Idx1 == j && s.Idx2 == i) {
			return true
		}
	}
	return false
}

func TestBuildSegmentsChainSpacing(t *testing.T) {
	f := lineFrame(4, 3.8)
	segs := BuildSegments(f, nil, nil, SegmentOptions{DetectCyclic: true})

	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	if n := countPoints(segs); n != 0 {
		t.Errorf("got %d points, want 0", n)
	}
	for i := 0; i < 3; i++ {
		if !hasLink(segs, i, i+1) {
			t.Errorf("missing link %d-%d", i, i+1)
		}
	}
	if got, want := segs[0].Length, 3.8; absF(got-want) > 1e-12 {
		t.Errorf("segment length = %v, want %v", got, want)
	}
}

func TestBuildSegmentsGapNotBridged(t *testing.T) {
	// Positions 2 and 3 sit 10 Å apart; everything else is 3.8 Å.
	f := &mol.Frame{Coords: []mol.Vec3{
		{X: 0}, {X: 3.8}, {X: 7.6}, {X: 17.6}, {X: 21.4},
	}}
	segs := BuildSegments(f, nil, nil, SegmentOptions{})

	if hasLink(segs, 2, 3) {
		t.Error("gap was bridged")
	}
	for _, pair := range [][2]int{{0, 1}, {1, 2}, {3, 4}} {
		if !hasLink(segs, pair[0], pair[1]) {
			t.Errorf("missing link %d-%d", pair[0], pair[1])
		}
	}
	if n := countPoints(segs); n != 0 {
		t.Errorf("got %d points, want 0", n)
	}
}

func TestBuildSegmentsTypeThresholds(t *testing.T) {
	// 6 Å spacing: beyond the protein cutoff, within the nucleic one.
	tests := []struct {
		name   string
		mtype  mol.MoleculeType
		linked bool
	}{
		{"protein pair breaks", mol.Protein, false},
		{"rna pair links", mol.RNA, true},
		{"dna pair links", mol.DNA, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := lineFrame(2, 6.0)
			f.Types = []mol.MoleculeType{tt.mtype, tt.mtype}
			segs := BuildSegments(f, nil, nil, SegmentOptions{})
			if got := hasLink(segs, 0, 1); got != tt.linked {
				t.Errorf("linked = %v, want %v", got, tt.linked)
			}
		})
	}
}

func TestBuildSegmentsChainBreak(t *testing.T) {
	f := lineFrame(4, 3.8)
	f.Chains = []string{"A", "A", "B", "B"}
	segs := BuildSegments(f, nil, nil, SegmentOptions{})

	if hasLink(segs, 1, 2) {
		t.Error("linked across chain boundary")
	}
	if !hasLink(segs, 0, 1) || !hasLink(segs, 2, 3) {
		t.Error("missing within-chain links")
	}
}

func TestBuildSegmentsMixedTypeAdjacency(t *testing.T) {
	f := lineFrame(2, 3.0)
	f.Types = []mol.MoleculeType{mol.Protein, mol.DNA}
	segs := BuildSegments(f, nil, nil, SegmentOptions{})

	if hasLink(segs, 0, 1) {
		t.Error("linked across a type boundary")
	}
	if n := countPoints(segs); n != 2 {
		t.Errorf("got %d points, want 2", n)
	}
}

func TestBuildSegmentsCyclic(t *testing.T) {
	// Hexagon with 3.8 Å sides: ends meet within bonding distance.
	f := &mol.Frame{Coords: make([]mol.Vec3, 6)}
	for i := range f.Coords {
		f.Coords[i] = hexVertex(i, 3.8)
	}

	closed := BuildSegments(f, nil, nil, SegmentOptions{DetectCyclic: true})
	if !hasLink(closed, 0, 5) {
		t.Error("cyclic chain not closed")
	}
	if len(closed) != 6 {
		t.Errorf("got %d segments, want 6", len(closed))
	}

	open := BuildSegments(f, nil, nil, SegmentOptions{DetectCyclic: false})
	if hasLink(open, 0, 5) {
		t.Error("closure segment present with detection off")
	}
	if len(open) != 5 {
		t.Errorf("got %d segments, want 5", len(open))
	}
}

func TestBuildSegmentsCyclicSkipsDistantEnds(t *testing.T) {
	f := lineFrame(10, 3.8) // ends 34.2 Å apart
	segs := BuildSegments(f, nil, nil, SegmentOptions{DetectCyclic: true})
	if hasLink(segs, 0, 9) {
		t.Error("closed a chain whose ends are far apart")
	}
}

func TestBuildSegmentsExplicitBonds(t *testing.T) {
	f := lineFrame(3, 50) // far apart; only bonds can connect
	bonds := []mol.Bond{{0, 2}, {1, 5}, {-1, 0}}
	segs := BuildSegments(f, bonds, nil, SegmentOptions{})

	if !hasLink(segs, 0, 2) {
		t.Error("missing explicit bond 0-2")
	}
	if got := countPoints(segs); got != 1 {
		t.Errorf("got %d points, want 1 (position 1 untouched)", got)
	}
	if len(segs) != 2 {
		t.Errorf("got %d segments, want 2", len(segs))
	}
}

func TestBuildSegmentsExplicitBondsSuppressInference(t *testing.T) {
	f := lineFrame(4, 3.8)
	segs := BuildSegments(f, []mol.Bond{{0, 3}}, nil, SegmentOptions{})

	if hasLink(segs, 0, 1) {
		t.Error("inferred a consecutive link despite explicit bonds")
	}
	if !hasLink(segs, 0, 3) {
		t.Error("missing explicit bond 0-3")
	}
	if got := countPoints(segs); got != 2 {
		t.Errorf("got %d points, want 2", got)
	}
}

func TestBuildSegmentsLigandTriangle(t *testing.T) {
	f := &mol.Frame{
		Coords: []mol.Vec3{
			{X: 0, Y: 0},
			{X: 1.5, Y: 0},
			{X: 0.75, Y: 1.3},
		},
		Types: []mol.MoleculeType{mol.Ligand, mol.Ligand, mol.Ligand},
		Names: []string{"HEM", "HEM", "HEM"},
	}
	segs := BuildSegments(f, nil, nil, SegmentOptions{})

	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	if n := countPoints(segs); n != 0 {
		t.Errorf("got %d points, want 0", n)
	}
}

func TestBuildSegmentsLigandGroupIsolation(t *testing.T) {
	// Two one-atom ligand residues 1 Å apart: distinct groups never
	// bond, so both render as points.
	f := &mol.Frame{
		Coords:         []mol.Vec3{{X: 0}, {X: 1}},
		Types:          []mol.MoleculeType{mol.Ligand, mol.Ligand},
		Names:          []string{"HEM", "HEM"},
		ResidueNumbers: []int{1, 2},
	}
	segs := BuildSegments(f, nil, nil, SegmentOptions{})

	if hasLink(segs, 0, 1) {
		t.Error("bonded across ligand groups")
	}
	if n := countPoints(segs); n != 2 {
		t.Errorf("got %d points, want 2", n)
	}
}

func TestBuildSegmentsContactResolution(t *testing.T) {
	f := lineFrame(4, 3.8)
	f.Chains = []string{"A", "A", "B", "B"}
	f.ResidueNumbers = []int{10, 11, 20, 21}
	contacts := []mol.Contact{
		{I: 0, J: 3, Weight: 1.0},
		{ByResidue: true, ChainI: "A", ResI: 11, ChainJ: "B", ResJ: 20, Weight: 0.5},
		{ByResidue: true, ChainI: "C", ResI: 1, ChainJ: "B", ResJ: 20, Weight: 1.0},
		{I: 0, J: 99, Weight: 1.0},
	}
	segs := BuildSegments(f, nil, contacts, SegmentOptions{})

	if got := countContacts(segs); got != 2 {
		t.Fatalf("got %d contact segments, want 2", got)
	}
	var resolved *Segment
	for i := range segs {
		if segs[i].Contact && segs[i].Orig1 == 1 {
			resolved = &segs[i]
		}
	}
	if resolved == nil {
		t.Fatal("chain/residue contact not resolved")
	}
	if resolved.Orig2 != 2 {
		t.Errorf("resolved to position %d, want 2", resolved.Orig2)
	}
	if resolved.Weight != 0.5 {
		t.Errorf("weight = %v, want 0.5", resolved.Weight)
	}
}

func TestBuildSegmentsContactSkipsSynthetic(t *testing.T) {
	f := lineFrame(2, 3.8)
	f.ResidueNumbers = []int{mol.SyntheticResidue, 10}
	contacts := []mol.Contact{
		{ByResidue: true, ChainI: "A", ResI: 10, ChainJ: "A", ResJ: 10, Weight: 1.0},
	}
	segs := BuildSegments(f, nil, contacts, SegmentOptions{})

	for _, s := range segs {
		if s.Contact && s.Orig1 != 1 {
			t.Errorf("contact resolved to synthetic position %d", s.Orig1)
		}
	}
	if countContacts(segs) != 1 {
		t.Fatal("contact not resolved")
	}
}

func TestBuildSegmentsOffsetAndSource(t *testing.T) {
	f := lineFrame(3, 3.8)
	segs := BuildSegments(f, nil, nil, SegmentOptions{Offset: 100, Source: 2})

	for _, s := range segs {
		if s.Idx1 != s.Orig1+100 || s.Idx2 != s.Orig2+100 {
			t.Errorf("render indices (%d,%d) not offset from (%d,%d)", s.Idx1, s.Idx2, s.Orig1, s.Orig2)
		}
		if s.Source != 2 {
			t.Errorf("source = %d, want 2", s.Source)
		}
	}
}

func TestBuildSegmentsEmptyFrame(t *testing.T) {
	if segs := BuildSegments(&mol.Frame{}, nil, nil, SegmentOptions{}); segs != nil {
		t.Errorf("got %d segments for empty frame, want none", len(segs))
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// hexVertex returns vertex i of a regular hexagon with the given side
// length, centered at the origin.
func hexVertex(i int, side float64) mol.Vec3 {
	angles := []mol.Vec3{
		{X: 1, Y: 0}, {X: 0.5, Y: 0.8660254037844386},
		{X: -0.5, Y: 0.8660254037844386}, {X: -1, Y: 0},
		{X: -0.5, Y: -0.8660254037844386}, {X: 0.5, Y: -0.8660254037844386},
	}
	return angles[i].Scale(side)
}
