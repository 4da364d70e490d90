// Package pkg provides the core libraries for flatmol molecular rendering.
//
// # Overview
//
// flatmol renders time-varying 3D molecular structures (proteins, nucleic
// acids, ligands) as pseudo-3D 2D tube projections, with approximate soft
// shadows, outlines, and depth tinting computed without a 3D graphics
// pipeline. The pkg directory is organized into five main areas:
//
//  1. [mol] - Domain model (frames, objects, geometry, alignment, parsing)
//  2. [render] - The projection core (viewer, segments, occlusion, color)
//  3. [fetch] - Remote structure clients (RCSB, AlphaFold DB)
//  4. [pipeline] - Orchestration (load → render → encode), with caching
//  5. [state], [session], [anim] - Snapshots, live sessions, animation
//
// # Architecture
//
// The typical data flow through flatmol:
//
//	PDB/mmCIF file or remote database
//	         ↓
//	    [mol/pdb] package (parse into frames)
//	         ↓
//	    [mol] package (objects, alignment, best-view orientation)
//	         ↓
//	    [render] package (rotate → project → occlude → draw)
//	         ↓
//	    PNG/SVG/GIF/DOT output
//
// # Quick Start
//
// Parse a structure and render it to PNG:
//
//	import (
//	    "os"
//	    "github.com/flatmol/flatmol/pkg/mol/pdb"
//	    "github.com/flatmol/flatmol/pkg/render"
//	    "github.com/flatmol/flatmol/pkg/render/rastersink"
//	)
//
//	// 1. Parse the structure
//	data, _ := os.ReadFile("1ubq.pdb")
//	frames, _ := pdb.Parse(data, pdb.FormatPDB, pdb.Options{})
//
//	// 2. Build a viewer
//	v := render.NewViewer(render.DefaultConfig(), nil)
//	for _, f := range frames {
//	    v.AppendFrame("1ubq", f, false)
//	}
//	v.SetFrame(0)
//	v.Orient()
//
//	// 3. Render to PNG
//	png, _ := rastersink.RenderPNG(v)
//
// # Main Packages
//
//   - [mol]: frames, objects, contacts, Kabsch alignment, best-view search
//   - [mol/pdb]: PDB and mmCIF parsing with ligand and chain filtering
//   - [render]: the viewer and its rotate/project/occlude/draw passes
//   - [render/rastersink], [render/svgsink]: raster and vector canvases
//   - [render/topology]: Graphviz chain/contact diagrams
//   - [fetch]: RCSB and AlphaFold DB clients with PAE support
//   - [pipeline]: cached load/render/encode orchestration for the CLI
//   - [state]: serializable viewer snapshots
//   - [session]: live viewer session stores (memory, MongoDB)
//   - [anim]: trajectory and turntable GIF assembly
//   - [cache]: file, redis, and null cache backends with SHA-256 keyers
//   - [errors]: structured error codes shared across the module
package pkg
