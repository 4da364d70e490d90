// Package state saves and restores complete viewer sessions as JSON.
//
// A [ViewerState] captures everything needed to reproduce a view: every
// object with its frames and connectivity, the camera rotation and zoom,
// the render configuration, and the active selection. The JSON layout
// keeps per-frame arrays under their short wire names (coords, plddts,
// chains, ...) so saved files stay readable and diffable.
//
// # Usage
//
//	snap := state.Capture(viewer)
//	if err := state.Save("session.json", snap); err != nil { ... }
//
//	snap, err := state.LoadFile("session.json")
//	viewer, err := state.Restore(snap, logger)
package state

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/mol"
	"github.com/flatmol/flatmol/pkg/render"
)

// FormatVersion is written into every saved state and checked on load.
// Version 1 is the only format so far.
const FormatVersion = 1

// ViewerState is the serializable snapshot of one viewer.
type ViewerState struct {
	Version int `json:"version"`

	Config    ConfigState    `json:"config"`
	Rotation  [9]float64     `json:"rotation"`
	Selection SelectionState `json:"selection"`

	CurrentObject string `json:"current_object,omitempty"`
	FrameIndex    int    `json:"frame_index"`

	Objects []ObjectState `json:"objects"`
}

// ObjectState is one named object with its frames and connectivity.
type ObjectState struct {
	Name     string        `json:"name"`
	Frames   []*mol.Frame  `json:"frames"`
	Bonds    []mol.Bond    `json:"bonds,omitempty"`
	Contacts []mol.Contact `json:"contacts,omitempty"`
}

// ConfigState is the render configuration with enums in their string
// forms, matching the mode names the CLI accepts.
type ConfigState struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	ColorMode  string  `json:"color_mode"`
	Colorblind bool    `json:"colorblind,omitempty"`
	Pastel     float64 `json:"pastel,omitempty"`

	Shadow         bool    `json:"shadow"`
	ShadowStrength float64 `json:"shadow_strength"`
	Outline        string  `json:"outline"`
	DepthCue       bool    `json:"depth_cue"`

	LineWidth float64 `json:"line_width"`

	Projection string  `json:"projection"`
	Focal      float64 `json:"focal,omitempty"`
	Zoom       float64 `json:"zoom"`

	DetectCyclic bool `json:"detect_cyclic"`
	Overlay      bool `json:"overlay,omitempty"`
}

// SelectionState is the three-facet selection in serializable form.
type SelectionState struct {
	Positions []int    `json:"positions,omitempty"`
	Chains    []string `json:"chains,omitempty"`
	Boxes     [][4]int `json:"boxes,omitempty"`
	Mode      string   `json:"mode,omitempty"`
}

// Capture snapshots the viewer into a serializable state.
func Capture(v *render.Viewer) *ViewerState {
	cfg := v.Config()
	rot := v.Rotation()

	s := &ViewerState{
		Version:    FormatVersion,
		Config:     configState(cfg),
		Selection:  selectionState(v.Selection()),
		FrameIndex: v.FrameIndex(),
	}
	copy(s.Rotation[:], rot[:])
	if obj := v.CurrentObject(); obj != nil {
		s.CurrentObject = obj.Name
	}

	for _, name := range v.Objects() {
		obj, err := v.Object(name)
		if err != nil {
			continue
		}
		s.Objects = append(s.Objects, ObjectState{
			Name:     obj.Name,
			Frames:   obj.Frames,
			Bonds:    obj.Bonds,
			Contacts: obj.Contacts,
		})
	}
	return s
}

// Apply loads the snapshot into an existing viewer. Objects are
// appended in saved order with alignment off, so coordinates restore
// bit-for-bit; camera, config, and selection follow afterwards.
func Apply(s *ViewerState, v *render.Viewer) error {
	if s.Version != FormatVersion {
		return errors.New(errors.ErrCodeInvalidState, "unsupported state version %d", s.Version)
	}

	cfg, err := s.Config.toConfig()
	if err != nil {
		return err
	}

	for _, os := range s.Objects {
		for _, f := range os.Frames {
			// The PAE matrix is square; its side length is implied.
			if len(f.PAE) > 0 && f.PAESize == 0 {
				f.PAESize = int(math.Round(math.Sqrt(float64(len(f.PAE)))))
			}
			v.AppendFrame(os.Name, f, false)
		}
		if len(os.Bonds) > 0 {
			if err := v.SetBonds(os.Name, os.Bonds); err != nil {
				return err
			}
		}
		if len(os.Contacts) > 0 {
			if err := v.AddContacts(os.Name, os.Contacts); err != nil {
				return err
			}
		}
	}

	v.SetRenderConfig(cfg)

	var rot mol.Mat3
	copy(rot[:], s.Rotation[:])
	if rot != (mol.Mat3{}) {
		v.SetRotation(rot)
	}

	mode, err := render.ParseSelectionMode(nonEmpty(s.Selection.Mode, "default"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidState, err, "selection mode")
	}
	boxes := make([]render.Box, len(s.Selection.Boxes))
	for i, b := range s.Selection.Boxes {
		boxes[i] = render.Box{X1: b[0], X2: b[1], Y1: b[2], Y2: b[3]}
	}
	v.SetSelection(s.Selection.Positions, s.Selection.Chains, boxes, mode)

	if s.CurrentObject != "" {
		if err := v.SwitchObject(s.CurrentObject); err != nil {
			return err
		}
	}
	// AppendFrame and SwitchObject both land on the latest frame, so the
	// saved index must be reapplied even when it is zero.
	if v.FrameCount() > 0 {
		if err := v.SetFrame(s.FrameIndex); err != nil {
			return err
		}
	}
	return nil
}

// Restore builds a fresh viewer from the snapshot.
func Restore(s *ViewerState, logger *log.Logger) (*render.Viewer, error) {
	cfg, err := s.Config.toConfig()
	if err != nil {
		return nil, err
	}
	v := render.NewViewer(cfg, logger)
	if err := Apply(s, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode writes the snapshot as indented JSON.
func Encode(w io.Writer, s *ViewerState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode state")
	}
	return nil
}

// Decode reads a snapshot from JSON.
func Decode(r io.Reader) (*ViewerState, error) {
	var s ViewerState
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidState, err, "decode state")
	}
	if s.Version == 0 {
		s.Version = FormatVersion
	}
	return &s, nil
}

// Save writes the snapshot to a file.
func Save(path string, s *ViewerState) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return Encode(f, s)
}

// LoadFile reads a snapshot from a file.
func LoadFile(path string) (*ViewerState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return Decode(f)
}

// ConfigFromState converts the string-enum form into a render.Config,
// starting from defaults for absent numeric fields. The server uses
// this to replace a session's configuration wholesale.
func ConfigFromState(cs ConfigState) (render.Config, error) {
	return cs.toConfig()
}

func configState(cfg render.Config) ConfigState {
	return ConfigState{
		Width:          cfg.Width,
		Height:         cfg.Height,
		ColorMode:      cfg.ColorMode.String(),
		Colorblind:     cfg.Colorblind,
		Pastel:         cfg.Pastel,
		Shadow:         cfg.Shadow,
		ShadowStrength: cfg.ShadowStrength,
		Outline:        cfg.Outline.String(),
		DepthCue:       cfg.DepthCue,
		LineWidth:      cfg.LineWidth,
		Projection:     cfg.Projection.String(),
		Focal:          cfg.Focal,
		Zoom:           cfg.Zoom,
		DetectCyclic:   cfg.DetectCyclic,
		Overlay:        cfg.Overlay,
	}
}

func (cs ConfigState) toConfig() (render.Config, error) {
	cfg := render.DefaultConfig()

	mode, err := render.ParseColorMode(nonEmpty(cs.ColorMode, cfg.ColorMode.String()))
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidState, err, "color mode")
	}
	outline, err := render.ParseOutline(nonEmpty(cs.Outline, cfg.Outline.String()))
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidState, err, "outline")
	}
	proj, err := render.ParseProjection(nonEmpty(cs.Projection, cfg.Projection.String()))
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidState, err, "projection")
	}

	cfg.ColorMode = mode
	cfg.Colorblind = cs.Colorblind
	cfg.Pastel = cs.Pastel
	cfg.Shadow = cs.Shadow
	cfg.ShadowStrength = cs.ShadowStrength
	cfg.Outline = outline
	cfg.DepthCue = cs.DepthCue
	cfg.DetectCyclic = cs.DetectCyclic
	cfg.Overlay = cs.Overlay
	cfg.Projection = proj

	if cs.Width > 0 {
		cfg.Width = cs.Width
	}
	if cs.Height > 0 {
		cfg.Height = cs.Height
	}
	if cs.LineWidth > 0 {
		cfg.LineWidth = cs.LineWidth
	}
	if cs.Focal > 0 {
		cfg.Focal = cs.Focal
	}
	if cs.Zoom > 0 {
		cfg.Zoom = cs.Zoom
	}
	return cfg, nil
}

func selectionState(sel render.Selection) SelectionState {
	ss := SelectionState{Mode: sel.Mode.String()}

	for p := range sel.Positions {
		ss.Positions = append(ss.Positions, p)
	}
	sort.Ints(ss.Positions)

	for c := range sel.Chains {
		ss.Chains = append(ss.Chains, c)
	}
	sort.Strings(ss.Chains)

	for _, b := range sel.Boxes {
		ss.Boxes = append(ss.Boxes, [4]int{b.X1, b.X2, b.Y1, b.Y2})
	}
	return ss
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
