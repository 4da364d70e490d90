package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/mol"
)

// Reason classifies why a redraw is needed.
type Reason int

const (
	// ReasonFrame fires on frame appends and playback advances.
	ReasonFrame Reason = iota
	// ReasonObject fires when the current object switches.
	ReasonObject
	// ReasonSelection fires on selection facet changes.
	ReasonSelection
	// ReasonConfig fires on render configuration changes.
	ReasonConfig
	// ReasonCamera fires on rotation, zoom, and orient changes.
	ReasonCamera
	// ReasonHighlight fires when the flagged position set changes.
	ReasonHighlight
	// ReasonExternal marks redraw requests from outside the viewer.
	ReasonExternal
)

var reasonNames = [...]string{
	ReasonFrame:     "frame",
	ReasonObject:    "object",
	ReasonSelection: "selection",
	ReasonConfig:    "config",
	ReasonCamera:    "camera",
	ReasonHighlight: "highlight",
	ReasonExternal:  "external",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("Reason(%d)", int(r))
	}
	return reasonNames[r]
}

// Event notifies observers that the view changed and needs redrawing.
type Event struct {
	Reason Reason
	Object string
	Frame  int
}

// Highlight is the screen-space footprint of one flagged position in
// the last completed render.
type Highlight struct {
	Index int
	X     float64
	Y     float64
	R     float64
}

// Viewer owns named objects and one render state, and exposes every
// operation UI and export collaborators drive. All methods must run on
// a single goroutine; mutations between renders never race because
// nothing here runs in the background.
type Viewer struct {
	log *log.Logger

	objects []*mol.Object
	index   map[string]int
	current int
	frame   int

	state State
	sel   Selection

	// orientCenter temporarily replaces the object centroid after an
	// orient-to-visible, until the object changes.
	orientCenter *mol.Vec3

	highlights []int
	observers  []func(Event)
}

// NewViewer creates an empty viewer. A nil logger discards diagnostics.
func NewViewer(cfg Config, logger *log.Logger) *Viewer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	v := &Viewer{
		log:     logger,
		index:   map[string]int{},
		current: -1,
	}
	v.state.Config = cfg
	v.state.Rotation = mol.Identity()
	return v
}

// OnChange registers an observer called synchronously after every
// mutation that affects the rendered image.
func (v *Viewer) OnChange(fn func(Event)) {
	v.observers = append(v.observers, fn)
}

// TriggerRender asks observers to redraw without changing any state.
func (v *Viewer) TriggerRender(reason Reason) {
	v.notify(reason)
}

func (v *Viewer) notify(reason Reason) {
	ev := Event{Reason: reason, Frame: v.frame}
	if o := v.CurrentObject(); o != nil {
		ev.Object = o.Name
	}
	for _, fn := range v.observers {
		fn(ev)
	}
}

// =============================================================================
// Objects and Frames
// =============================================================================

// AppendFrame adds a frame to the named object, creating the object on
// first use. Malformed optional arrays are dropped with diagnostics,
// never rejected. When align is true the frame is superposed onto the
// object's previous frame.
//
// Appending to the current object advances the view to the new frame,
// so live feeds follow the latest data.
func (v *Viewer) AppendFrame(object string, f *mol.Frame, align bool) {
	for _, msg := range f.Sanitize() {
		v.log.Warnf("frame for %q: %s", object, msg)
	}

	i, ok := v.index[object]
	if !ok {
		i = len(v.objects)
		v.objects = append(v.objects, mol.NewObject(object))
		v.index[object] = i
	}
	obj := v.objects[i]
	obj.Append(f, align)

	if v.current == -1 {
		v.current = i
	}
	if v.current == i {
		v.frame = obj.FrameCount() - 1
	}
	// The very first frame establishes the preferred orientation.
	if len(v.objects) == 1 && obj.FrameCount() == 1 && obj.Rotation != nil {
		v.state.Rotation = *obj.Rotation
	}
	v.notify(ReasonFrame)
}

// SwitchObject makes the named object current, showing its latest
// frame. The camera carries over.
func (v *Viewer) SwitchObject(name string) error {
	i, ok := v.index[name]
	if !ok {
		return errors.New(errors.ErrCodeObjectNotFound, "no object %q", name)
	}
	v.current = i
	v.frame = v.objects[i].FrameCount() - 1
	if v.frame < 0 {
		v.frame = 0
	}
	v.orientCenter = nil
	v.notify(ReasonObject)
	return nil
}

// Objects returns the object names in creation order.
func (v *Viewer) Objects() []string {
	names := make([]string, len(v.objects))
	for i, o := range v.objects {
		names[i] = o.Name
	}
	return names
}

// Object returns the named object.
func (v *Viewer) Object(name string) (*mol.Object, error) {
	return v.object(name)
}

// CurrentObject returns the current object, or nil before any frame
// arrives.
func (v *Viewer) CurrentObject() *mol.Object {
	if v.current < 0 || v.current >= len(v.objects) {
		return nil
	}
	return v.objects[v.current]
}

// FrameIndex returns the current frame ordinal.
func (v *Viewer) FrameIndex() int {
	return v.frame
}

// FrameCount returns the current object's frame count.
func (v *Viewer) FrameCount() int {
	if o := v.CurrentObject(); o != nil {
		return o.FrameCount()
	}
	return 0
}

// SetFrame jumps the current object to frame i.
func (v *Viewer) SetFrame(i int) error {
	obj := v.CurrentObject()
	n := 0
	if obj != nil {
		n = obj.FrameCount()
	}
	if i < 0 || i >= n {
		return errors.New(errors.ErrCodeFrameNotFound, "frame %d out of range (have %d)", i, n)
	}
	v.frame = i
	v.notify(ReasonFrame)
	return nil
}

// NextFrame advances playback by one frame, wrapping at the end.
func (v *Viewer) NextFrame() {
	obj := v.CurrentObject()
	if obj == nil || obj.FrameCount() == 0 {
		return
	}
	v.frame = (v.frame + 1) % obj.FrameCount()
	v.notify(ReasonFrame)
}

// SetBonds replaces the object-level bond list. Frames carrying their
// own bonds keep them.
func (v *Viewer) SetBonds(object string, bonds []mol.Bond) error {
	obj, err := v.object(object)
	if err != nil {
		return err
	}
	obj.Bonds = bonds
	v.state.invalidateStructure()
	v.notify(ReasonFrame)
	return nil
}

// AddContacts appends contact restraints to the object. Contacts with
// non-positive weight are dropped with a diagnostic.
func (v *Viewer) AddContacts(object string, contacts []mol.Contact) error {
	obj, err := v.object(object)
	if err != nil {
		return err
	}
	for _, ct := range contacts {
		if ct.Weight <= 0 {
			v.log.Warnf("dropping contact on %q: weight %v is not positive", object, ct.Weight)
			continue
		}
		obj.Contacts = append(obj.Contacts, ct)
	}
	v.state.invalidateStructure()
	v.notify(ReasonFrame)
	return nil
}

func (v *Viewer) object(name string) (*mol.Object, error) {
	i, ok := v.index[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeObjectNotFound, "no object %q", name)
	}
	return v.objects[i], nil
}

func (v *Viewer) currentFrame() *mol.Frame {
	obj := v.CurrentObject()
	if obj == nil {
		return nil
	}
	f, err := obj.Frame(v.frame)
	if err != nil {
		return nil
	}
	return f
}

// =============================================================================
// Selection, Camera, Config
// =============================================================================

// SetSelection replaces the selection facets.
func (v *Viewer) SetSelection(positions []int, chains []string, boxes []Box, mode SelectionMode) {
	v.sel = NewSelection(positions, chains, boxes, mode)
	v.state.invalidateSelection()
	v.notify(ReasonSelection)
}

// Selection returns the active selection facets.
func (v *Viewer) Selection() Selection {
	return v.sel
}

// SetRenderConfig replaces the render configuration.
func (v *Viewer) SetRenderConfig(cfg Config) {
	v.state.Config = cfg
	v.notify(ReasonConfig)
}

// Config returns the active render configuration.
func (v *Viewer) Config() Config {
	return v.state.Config
}

// Rotate composes an incremental rotation onto the camera; dx and dy
// are radians about the screen y and x axes.
func (v *Viewer) Rotate(dx, dy float64) {
	v.state.Rotation = RotateBy(v.state.Rotation, dx, dy)
	v.notify(ReasonCamera)
}

// SetRotation replaces the camera rotation outright.
func (v *Viewer) SetRotation(m mol.Mat3) {
	v.state.Rotation = m
	v.notify(ReasonCamera)
}

// Rotation returns the camera rotation.
func (v *Viewer) Rotation() mol.Mat3 {
	return v.state.Rotation
}

// SetZoom sets the zoom factor, clamped to a usable range.
func (v *Viewer) SetZoom(z float64) {
	if z < 0.05 {
		z = 0.05
	} else if z > 50 {
		z = 50
	}
	v.state.Config.Zoom = z
	v.notify(ReasonCamera)
}

// Orient recomputes the preferred orientation from the currently
// visible positions of the current frame and re-centers on them.
func (v *Viewer) Orient() {
	obj := v.CurrentObject()
	f := v.currentFrame()
	if obj == nil || f.Len() == 0 {
		return
	}
	mask := v.sel.Resolve(f)
	coords := make([]mol.Vec3, 0, f.Len())
	for i, c := range f.Coords {
		if mask.Visible(i) {
			coords = append(coords, c)
		}
	}
	if len(coords) == 0 {
		return
	}
	rot, center := mol.BestView(coords)
	v.state.Rotation = rot
	v.orientCenter = &center
	v.notify(ReasonCamera)
}

// SetHighlights flags logical positions for the highlight overlay.
func (v *Viewer) SetHighlights(positions []int) {
	v.highlights = append([]int(nil), positions...)
	sort.Ints(v.highlights)
	v.notify(ReasonHighlight)
}

// HighlightQuery returns the screen-space coordinates and radii of the
// flagged positions in the last completed render. Hidden and clipped
// positions are omitted; before the first render there is nothing to
// report.
func (v *Viewer) HighlightQuery() []Highlight {
	st := &v.state
	if !st.hasLastView || len(v.highlights) == 0 {
		return nil
	}
	var out []Highlight
	for k, off := range st.lastOffs {
		length := st.lastLens[k]
		for _, idx := range v.highlights {
			if idx < 0 || idx >= length {
				continue
			}
			if !st.lastMask.Visible(idx) {
				continue
			}
			pt := st.lastPts[off+idx]
			if !pt.OK {
				continue
			}
			out = append(out, Highlight{
				Index: idx,
				X:     pt.X,
				Y:     pt.Y,
				R:     st.Config.LineWidth * st.lastView.Scale * widthPoint * pt.Factor / 2,
			})
		}
	}
	return out
}

// =============================================================================
// Render
// =============================================================================

// Render draws the current object's current frame onto the canvas. An
// empty viewer just clears the canvas. Render never panics; internal
// failures come back as errors.
func (v *Viewer) Render(c Canvas) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeInternal, "render: %v", r)
		}
	}()

	c.Clear(backgroundColor)

	obj := v.CurrentObject()
	if obj == nil || obj.FrameCount() == 0 {
		return nil
	}
	data := v.renderData(obj)
	if len(data.coords) == 0 {
		return nil
	}

	mask := v.resolveMask(obj)
	visible := make([]Segment, 0, len(data.segs))
	for _, s := range data.segs {
		if segmentVisible(s, mask) {
			visible = append(visible, s)
		}
	}

	center := obj.Centroid()
	if v.orientCenter != nil {
		center = *v.orientCenter
	}
	view := NewView(v.state.Config, v.state.Rotation, center, obj.MaxRadius())
	rotated, pts := projectAll(data.coords, &view)

	var shadows, tints []float64
	if v.state.Config.Shadow {
		shadows, tints = v.occlusion(obj, visible, rotated, mask)
	}

	drawPass(c, v.state.Config, view.Scale, visible, pts, data.colors, shadows, tints)

	v.state.lastView = view
	v.state.lastPts = pts
	v.state.lastOffs = data.offs
	v.state.lastLens = data.lens
	v.state.lastMask = mask
	v.state.hasLastView = true
	return nil
}

// renderData is the assembled per-render input: rendered coordinates,
// derived segments, and per-position base colors, plus the offset table
// mapping logical indices into the rendered arrays.
type renderData struct {
	coords []mol.Vec3
	segs   []Segment
	colors []mol.RGB
	offs   []int
	lens   []int
}

func (v *Viewer) renderData(obj *mol.Object) renderData {
	if v.state.Config.Overlay {
		return v.overlayData(obj)
	}
	f := v.currentFrame()
	if f == nil || f.Len() == 0 {
		return renderData{}
	}
	return renderData{
		coords: f.Coords,
		segs:   v.segments(obj, f),
		colors: v.frameColors(obj, f),
		offs:   []int{0},
		lens:   []int{f.Len()},
	}
}

// segments returns the derived connectivity for the current frame,
// cached until the frame, the object, or the bond/contact lists change.
func (v *Viewer) segments(obj *mol.Object, f *mol.Frame) []Segment {
	st := &v.state
	key := segCacheKey{obj.Name, v.frame, st.structureGen, st.Config.DetectCyclic, false}
	if st.segKey == key && st.segs != nil {
		return st.segs
	}
	segs := BuildSegments(f, obj.EffectiveBonds(v.frame), obj.Contacts, SegmentOptions{
		DetectCyclic: st.Config.DetectCyclic,
		Log:          v.log,
	})
	st.segKey = key
	st.segs = segs
	return segs
}

func (v *Viewer) frameColors(obj *mol.Object, f *mol.Frame) []mol.RGB {
	st := &v.state
	key := colorCacheKey{obj.Name, v.frame, false, st.Config.ColorMode, st.Config.Colorblind, st.Config.Pastel}
	if st.colorKey == key && st.colors != nil {
		return st.colors
	}
	colors := positionColors(f, st.Config)
	st.colorKey = key
	st.colors = colors
	return colors
}

// overlayData merges every frame of the object into one rendered array.
// Segments and colors build per source frame, indices shifted by the
// frame's offset, so no connectivity or occlusion crosses frames.
func (v *Viewer) overlayData(obj *mol.Object) renderData {
	st := &v.state
	frames := obj.FrameCount()

	mkey := mergeCacheKey{obj.Name, frames}
	if st.mergeKey != mkey || st.mergedCoords == nil {
		var coords []mol.Vec3
		offs := make([]int, 0, frames)
		lens := make([]int, 0, frames)
		for _, f := range obj.Frames {
			offs = append(offs, len(coords))
			lens = append(lens, f.Len())
			coords = append(coords, f.Coords...)
		}
		st.mergeKey = mkey
		st.mergedCoords = coords
		st.mergedOffs = offs
		st.mergedLens = lens
	}

	skey := segCacheKey{obj.Name, frames, st.structureGen, st.Config.DetectCyclic, true}
	if st.segKey != skey || st.segs == nil {
		var segs []Segment
		for k, f := range obj.Frames {
			segs = append(segs, BuildSegments(f, obj.EffectiveBonds(k), obj.Contacts, SegmentOptions{
				DetectCyclic: st.Config.DetectCyclic,
				Offset:       st.mergedOffs[k],
				Source:       k,
				Log:          v.log,
			})...)
		}
		st.segKey = skey
		st.segs = segs
	}

	ckey := colorCacheKey{obj.Name, frames, true, st.Config.ColorMode, st.Config.Colorblind, st.Config.Pastel}
	if st.colorKey != ckey || st.colors == nil {
		var colors []mol.RGB
		for _, f := range obj.Frames {
			colors = append(colors, positionColors(f, st.Config)...)
		}
		st.colorKey = ckey
		st.colors = colors
	}

	return renderData{
		coords: st.mergedCoords,
		segs:   st.segs,
		colors: st.colors,
		offs:   st.mergedOffs,
		lens:   st.mergedLens,
	}
}

// resolveMask returns the active visibility mask, cached per selection
// generation. Overlay views resolve facets against the first frame;
// trajectory frames share chain topology.
func (v *Viewer) resolveMask(obj *mol.Object) VisibilityMask {
	st := &v.state
	key := maskCacheKey{obj.Name, v.frameKey(obj), st.Config.Overlay, st.selGen}
	if st.maskKey == key {
		return st.mask
	}
	f := v.currentFrame()
	if st.Config.Overlay && obj.FrameCount() > 0 {
		f = obj.Frames[0]
	}
	mask := v.sel.Resolve(f)
	st.maskKey = key
	st.mask = mask
	return mask
}

// frameKey distinguishes cache entries per frame; overlay entries key
// on the merged frame count instead.
func (v *Viewer) frameKey(obj *mol.Object) int {
	if v.state.Config.Overlay {
		return obj.FrameCount()
	}
	return v.frame
}

// occlusion returns the shadow/tint arrays for the visible segments,
// reusing the cache when the rotation is bit-for-bit unchanged and the
// visible-position count matches. A cached array of the wrong length
// means the caches drifted out of sync; recompute rather than trust it.
func (v *Viewer) occlusion(obj *mol.Object, visible []Segment, rotated []mol.Vec3, mask VisibilityMask) (shadows, tints []float64) {
	st := &v.state
	key := occCacheKey{
		object:       obj.Name,
		frame:        v.frameKey(obj),
		gen:          st.structureGen,
		overlay:      st.Config.Overlay,
		rotation:     st.Rotation,
		visibleCount: mask.CountOf(len(rotated)),
	}
	if st.occKey == key && len(st.shadows) == len(visible) {
		return st.shadows, st.tints
	}

	occs := make([]occSegment, len(visible))
	for i, s := range visible {
		occs[i] = newOccSegment(s, rotated)
	}
	shadows, tints = computeOcclusion(occs)
	st.occKey = key
	st.shadows = shadows
	st.tints = tints
	return shadows, tints
}
