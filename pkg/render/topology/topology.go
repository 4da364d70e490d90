// Package topology renders an object's chain and contact structure as a
// Graphviz diagram.
//
// # Overview
//
// Where the viewer projects coordinates, this package abstracts them
// away: chains become nodes, ligands attach to the chain they sit
// against, and contact restraints become weighted edges. The result is
// a quick interaction map of an assembly.
//
// # Usage
//
// Convert an object to DOT format, then render to SVG:
//
//	dot, err := topology.ToDOT(obj, viewer.FrameIndex(), topology.Options{})
//	svg, err := topology.RenderSVG(dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools. SVG rendering happens in-process via goccy/go-graphviz.
package topology

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/flatmol/flatmol/pkg/mol"
)

// Options configures diagram generation.
type Options struct {
	// Detailed includes residue ranges and mean confidence in chain
	// labels, and atom counts in ligand labels.
	Detailed bool
}

type chainInfo struct {
	id      string
	count   int
	nucleic int
	protein int
	minRes  int
	maxRes  int
	confSum float64
}

type ligandInfo struct {
	chain    string
	residue  int
	name     string
	count    int
	centroid mol.Vec3
	attached string
}

type contactEdge struct {
	a, b   string
	count  int
	weight float64
}

// ToDOT converts one frame of an object to Graphviz DOT. Chains render
// as rounded boxes, ligand groups as dashed grey boxes attached to the
// nearest chain, and contacts as edges whose width follows the summed
// restraint weight.
func ToDOT(obj *mol.Object, frame int, opts Options) (string, error) {
	f, err := obj.Frame(frame)
	if err != nil {
		return "", err
	}

	chains, order := collectChains(f)
	ligands := collectLigands(f)
	attachLigands(f, ligands)
	edges := collectContacts(f, obj.Contacts)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=\"neato\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, id := range order {
		ci := chains[id]
		fmt.Fprintf(&buf, "  %q [label=%q];\n", chainNodeID(id), chainLabel(ci, f, opts))
	}
	for _, li := range ligands {
		fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey];\n",
			ligandNodeID(li), ligandLabel(li, opts))
	}

	buf.WriteString("\n")
	for _, li := range ligands {
		if li.attached != "" {
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed];\n", ligandNodeID(li), chainNodeID(li.attached))
		}
	}
	for _, e := range edges {
		attrs := []string{fmt.Sprintf("label=%q", edgeLabel(e)), fmt.Sprintf("penwidth=%.1f", edgeWidth(e))}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", chainNodeID(e.a), chainNodeID(e.b), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func collectChains(f *mol.Frame) (map[string]*chainInfo, []string) {
	chains := map[string]*chainInfo{}
	var order []string
	for i := 0; i < f.Len(); i++ {
		if f.TypeAt(i) == mol.Ligand {
			continue
		}
		id := f.ChainAt(i)
		ci, ok := chains[id]
		if !ok {
			ci = &chainInfo{id: id, minRes: math.MaxInt, maxRes: math.MinInt}
			chains[id] = ci
			order = append(order, id)
		}
		ci.count++
		if f.TypeAt(i).IsNucleic() {
			ci.nucleic++
		} else {
			ci.protein++
		}
		if r := f.ResidueAt(i); r != mol.SyntheticResidue {
			if r < ci.minRes {
				ci.minRes = r
			}
			if r > ci.maxRes {
				ci.maxRes = r
			}
		}
		ci.confSum += f.ConfidenceAt(i)
	}
	return chains, order
}

func collectLigands(f *mol.Frame) []*ligandInfo {
	type key struct {
		chain   string
		residue int
		name    string
	}
	groups := map[key]*ligandInfo{}
	var order []*ligandInfo
	for i := 0; i < f.Len(); i++ {
		if f.TypeAt(i) != mol.Ligand {
			continue
		}
		k := key{f.ChainAt(i), f.ResidueAt(i), f.NameAt(i)}
		li, ok := groups[k]
		if !ok {
			li = &ligandInfo{chain: k.chain, residue: k.residue, name: k.name}
			groups[k] = li
			order = append(order, li)
		}
		li.count++
		li.centroid = li.centroid.Add(f.Coords[i])
	}
	for _, li := range order {
		li.centroid = li.centroid.Scale(1 / float64(li.count))
	}
	return order
}

// attachLigands links each ligand group to the chain of the nearest
// polymer position, falling back to the ligand's own chain record.
func attachLigands(f *mol.Frame, ligands []*ligandInfo) {
	for _, li := range ligands {
		best := math.Inf(1)
		li.attached = li.chain
		for i := 0; i < f.Len(); i++ {
			if f.TypeAt(i) == mol.Ligand {
				continue
			}
			if d := li.centroid.DistSq(f.Coords[i]); d < best {
				best = d
				li.attached = f.ChainAt(i)
			}
		}
	}
}

func collectContacts(f *mol.Frame, contacts []mol.Contact) []contactEdge {
	type pair struct{ a, b string }
	agg := map[pair]*contactEdge{}
	for _, ct := range contacts {
		var ca, cb string
		if ct.ByResidue {
			ca, cb = ct.ChainI, ct.ChainJ
		} else {
			if ct.I < 0 || ct.I >= f.Len() || ct.J < 0 || ct.J >= f.Len() {
				continue
			}
			ca, cb = f.ChainAt(ct.I), f.ChainAt(ct.J)
		}
		if ca > cb {
			ca, cb = cb, ca
		}
		p := pair{ca, cb}
		e, ok := agg[p]
		if !ok {
			e = &contactEdge{a: ca, b: cb}
			agg[p] = e
		}
		e.count++
		e.weight += ct.Weight
	}

	edges := make([]contactEdge, 0, len(agg))
	for _, e := range agg {
		edges = append(edges, *e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].a != edges[j].a {
			return edges[i].a < edges[j].a
		}
		return edges[i].b < edges[j].b
	})
	return edges
}

func chainNodeID(id string) string {
	return "chain:" + id
}

func ligandNodeID(li *ligandInfo) string {
	return fmt.Sprintf("ligand:%s:%s:%d", li.chain, li.name, li.residue)
}

func chainLabel(ci *chainInfo, f *mol.Frame, opts Options) string {
	unit := "aa"
	if ci.nucleic > 0 && ci.protein == 0 {
		unit = "nt"
	} else if ci.nucleic > 0 {
		unit = "positions"
	}
	label := fmt.Sprintf("chain %s\n%d %s", ci.id, ci.count, unit)
	if !opts.Detailed {
		return label
	}
	if ci.minRes <= ci.maxRes {
		label += fmt.Sprintf("\nres %d-%d", ci.minRes, ci.maxRes)
	}
	if f.HasConfidences() && ci.count > 0 {
		label += fmt.Sprintf("\nplddt %.1f", ci.confSum/float64(ci.count))
	}
	return label
}

func ligandLabel(li *ligandInfo, opts Options) string {
	label := li.name
	if label == "" {
		label = "ligand"
	}
	label = fmt.Sprintf("%s %s%d", label, li.chain, li.residue)
	if opts.Detailed {
		label += fmt.Sprintf("\n%d atoms", li.count)
	}
	return label
}

func edgeLabel(e contactEdge) string {
	if e.count == 1 {
		return "1 contact"
	}
	return fmt.Sprintf("%d contacts", e.count)
}

func edgeWidth(e contactEdge) float64 {
	w := 1 + e.weight
	if w > 6 {
		w = 6
	}
	return w
}

// RenderSVG renders a DOT graph to SVG using Graphviz in-process.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg element to a zero-origin
// viewBox with explicit pixel dimensions, so the output embeds cleanly.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
