package render

import (
	"fmt"
	"strings"

	"github.com/flatmol/flatmol/pkg/mol"
)

// SelectionMode decides what an empty selection resolves to.
type SelectionMode int

const (
	// SelectDefault shows everything when no facet selects anything.
	SelectDefault SelectionMode = iota
	// SelectExplicit shows nothing when no facet selects anything.
	SelectExplicit
)

var selectionModeNames = [...]string{
	SelectDefault:  "default",
	SelectExplicit: "explicit",
}

func (m SelectionMode) String() string {
	if m < 0 || int(m) >= len(selectionModeNames) {
		return fmt.Sprintf("SelectionMode(%d)", int(m))
	}
	return selectionModeNames[m]
}

// ParseSelectionMode parses "default" or "explicit".
func ParseSelectionMode(s string) (SelectionMode, error) {
	for m, name := range selectionModeNames {
		if strings.EqualFold(s, name) {
			return SelectionMode(m), nil
		}
	}
	return SelectDefault, fmt.Errorf("unknown selection mode %q", s)
}

// Box selects two inclusive index ranges; every position inside either
// range is included. Boxes arrive from rectangular drags on matrix
// panels, where both screen axes map to position index.
type Box struct {
	X1 int
	X2 int
	Y1 int
	Y2 int
}

// Selection is the three-facet visibility input: an explicit position
// set, an allowed-chain set, and box ranges. Facets compose by union;
// the chain facet additionally filters the position facet.
type Selection struct {
	Positions map[int]bool
	Chains    map[string]bool
	Boxes     []Box
	Mode      SelectionMode
}

// NewSelection builds a Selection from plain slices.
func NewSelection(positions []int, chains []string, boxes []Box, mode SelectionMode) Selection {
	s := Selection{Boxes: boxes, Mode: mode}
	if len(positions) > 0 {
		s.Positions = make(map[int]bool, len(positions))
		for _, p := range positions {
			s.Positions[p] = true
		}
	}
	if len(chains) > 0 {
		s.Chains = make(map[string]bool, len(chains))
		for _, c := range chains {
			s.Chains[c] = true
		}
	}
	return s
}

// VisibilityMask is the resolved set of renderable position indices.
// The nil mask means everything is visible; a non-nil empty mask means
// nothing is.
type VisibilityMask map[int]bool

// Visible reports whether logical position i may render.
func (m VisibilityMask) Visible(i int) bool {
	return m == nil || m[i]
}

// CountOf returns the visible-position count given the frame's total.
func (m VisibilityMask) CountOf(total int) int {
	if m == nil {
		return total
	}
	return len(m)
}

// Resolve composes the selection facets into a mask over the frame's
// positions.
//
// The position facet contributes its indices, filtered by the chain
// facet when one is set. A chain facet alone contributes every position
// of its chains. Box ranges always union in on top. When nothing is
// selected the mode decides: default shows everything (nil mask),
// explicit shows nothing.
func (s Selection) Resolve(f *mol.Frame) VisibilityMask {
	n := f.Len()
	union := make(VisibilityMask)

	switch {
	case len(s.Positions) > 0:
		for i := range s.Positions {
			if i < 0 || i >= n {
				continue
			}
			if len(s.Chains) > 0 && !s.Chains[f.ChainAt(i)] {
				continue
			}
			union[i] = true
		}
	case len(s.Chains) > 0:
		for i := 0; i < n; i++ {
			if s.Chains[f.ChainAt(i)] {
				union[i] = true
			}
		}
	}

	for _, b := range s.Boxes {
		addRange(union, b.X1, b.X2, n)
		addRange(union, b.Y1, b.Y2, n)
	}

	if len(union) == 0 {
		if s.Mode == SelectExplicit {
			return VisibilityMask{}
		}
		return nil
	}
	return union
}

func addRange(m VisibilityMask, lo, hi, n int) {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	for i := lo; i <= hi; i++ {
		m[i] = true
	}
}

// segmentVisible tests a segment against the mask in logical index
// space; contacts thereby test their original endpoint pair, not any
// geometry they are drawn through.
func segmentVisible(s Segment, m VisibilityMask) bool {
	return m.Visible(s.Orig1) && m.Visible(s.Orig2)
}
