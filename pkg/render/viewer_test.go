package render

import (
	"testing"

	"github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/mol"
)

func newTestViewer() *Viewer {
	return NewViewer(DefaultConfig(), nil)
}

func TestViewerAppendCreatesObject(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)

	if got := v.Objects(); len(got) != 1 || got[0] != "1abc" {
		t.Fatalf("Objects() = %v, want [1abc]", got)
	}
	if v.CurrentObject() == nil {
		t.Fatal("no current object after first append")
	}
	if v.FrameIndex() != 0 || v.FrameCount() != 1 {
		t.Errorf("frame %d of %d, want 0 of 1", v.FrameIndex(), v.FrameCount())
	}
}

func TestViewerAppendFollowsLatestFrame(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("traj", lineFrame(4, 3.8), false)
	v.AppendFrame("traj", lineFrame(4, 3.8), false)
	if v.FrameIndex() != 1 {
		t.Errorf("frame = %d, want 1 (view follows appends to the current object)", v.FrameIndex())
	}

	v.AppendFrame("other", lineFrame(2, 3.8), false)
	if got := v.CurrentObject().Name; got != "traj" {
		t.Errorf("current = %q, want traj (appends elsewhere do not steal focus)", got)
	}
	if v.FrameIndex() != 1 {
		t.Errorf("frame = %d, want 1", v.FrameIndex())
	}
}

func TestViewerSwitchObject(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("a", lineFrame(2, 3.8), false)
	v.AppendFrame("b", lineFrame(3, 3.8), false)
	v.AppendFrame("b", lineFrame(3, 3.8), false)

	if err := v.SwitchObject("b"); err != nil {
		t.Fatalf("SwitchObject: %v", err)
	}
	if v.CurrentObject().Name != "b" || v.FrameIndex() != 1 {
		t.Errorf("switched to %q frame %d, want b frame 1", v.CurrentObject().Name, v.FrameIndex())
	}

	err := v.SwitchObject("missing")
	if errors.GetCode(err) != errors.ErrCodeObjectNotFound {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeObjectNotFound)
	}
}

func TestViewerSetFrame(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("traj", lineFrame(2, 3.8), false)
	v.AppendFrame("traj", lineFrame(2, 3.8), false)

	if err := v.SetFrame(0); err != nil {
		t.Fatalf("SetFrame: %v", err)
	}
	if err := v.SetFrame(5); errors.GetCode(err) != errors.ErrCodeFrameNotFound {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeFrameNotFound)
	}

	v.NextFrame()
	if v.FrameIndex() != 1 {
		t.Errorf("frame = %d, want 1", v.FrameIndex())
	}
	v.NextFrame()
	if v.FrameIndex() != 0 {
		t.Errorf("frame = %d, want 0 (playback wraps)", v.FrameIndex())
	}
}

func TestViewerZoomClamped(t *testing.T) {
	v := newTestViewer()
	v.SetZoom(1000)
	if got := v.Config().Zoom; got != 50 {
		t.Errorf("zoom = %v, want 50", got)
	}
	v.SetZoom(0.0001)
	if got := v.Config().Zoom; got != 0.05 {
		t.Errorf("zoom = %v, want 0.05", got)
	}
}

func TestViewerEvents(t *testing.T) {
	v := newTestViewer()
	var got []Reason
	v.OnChange(func(ev Event) { got = append(got, ev.Reason) })

	v.AppendFrame("1abc", lineFrame(2, 3.8), false)
	v.SetSelection([]int{0}, nil, nil, SelectDefault)
	v.Rotate(0.1, 0)
	v.SetRenderConfig(DefaultConfig())
	v.SetHighlights([]int{1})
	v.TriggerRender(ReasonExternal)

	want := []Reason{ReasonFrame, ReasonSelection, ReasonCamera, ReasonConfig, ReasonHighlight, ReasonExternal}
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestViewerEventCarriesObject(t *testing.T) {
	v := newTestViewer()
	var last Event
	v.OnChange(func(ev Event) { last = ev })
	v.AppendFrame("1abc", lineFrame(2, 3.8), false)

	if last.Object != "1abc" || last.Frame != 0 {
		t.Errorf("event = %+v, want object 1abc frame 0", last)
	}
}

func TestViewerRenderEmpty(t *testing.T) {
	v := newTestViewer()
	rc := &recordingCanvas{}
	if err := v.Render(rc); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(rc.ops) != 1 || rc.ops[0].kind != "clear" {
		t.Fatalf("ops = %+v, want a single clear", rc.ops)
	}
	if rc.ops[0].color != backgroundColor {
		t.Errorf("cleared to %v, want white", rc.ops[0].color)
	}
}

func TestViewerRenderDrawsSegments(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)

	rc := &recordingCanvas{}
	if err := v.Render(rc); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := len(rc.byKind("stroke")); got < 3 {
		t.Errorf("got %d strokes, want at least one per segment", got)
	}
}

type panickyCanvas struct {
	recordingCanvas
}

func (pc *panickyCanvas) Stroke(x1, y1, x2, y2, width float64, c mol.RGB, style CapStyle) {
	panic("stroke backend failure")
}

func TestViewerRenderRecoversPanics(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)

	err := v.Render(&panickyCanvas{})
	if err == nil {
		t.Fatal("Render swallowed the panic without an error")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeInternal {
		t.Errorf("error code = %v, want %v", got, errors.ErrCodeInternal)
	}
}

func TestViewerSegmentCacheReuse(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)
	obj := v.CurrentObject()
	f := v.currentFrame()

	s1 := v.segments(obj, f)
	s2 := v.segments(obj, f)
	if len(s1) == 0 || &s1[0] != &s2[0] {
		t.Fatal("repeated derivation did not reuse the cached segments")
	}

	if err := v.AddContacts("1abc", []mol.Contact{{I: 0, J: 3, Weight: 1}}); err != nil {
		t.Fatalf("AddContacts: %v", err)
	}
	s3 := v.segments(obj, f)
	if &s3[0] == &s1[0] {
		t.Fatal("structure change did not invalidate the segment cache")
	}
	if countContacts(s3) != 1 {
		t.Errorf("got %d contact segments after AddContacts, want 1", countContacts(s3))
	}
}

func TestViewerSetBondsInvalidates(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)
	obj := v.CurrentObject()
	f := v.currentFrame()

	before := v.segments(obj, f)
	if len(before) != 3 {
		t.Fatalf("got %d segments, want 3", len(before))
	}
	if err := v.SetBonds("1abc", []mol.Bond{{0, 1}}); err != nil {
		t.Fatalf("SetBonds: %v", err)
	}
	after := v.segments(obj, f)
	if len(after) != 3 { // one bond plus two untouched points
		t.Fatalf("got %d segments, want 3", len(after))
	}
	if countPoints(after) != 2 {
		t.Errorf("got %d points, want 2", countPoints(after))
	}
}

func TestViewerAddContactsDropsNonPositiveWeight(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)
	if err := v.AddContacts("1abc", []mol.Contact{
		{I: 0, J: 1, Weight: 0},
		{I: 0, J: 2, Weight: -3},
		{I: 0, J: 3, Weight: 2},
	}); err != nil {
		t.Fatalf("AddContacts: %v", err)
	}
	if got := len(v.CurrentObject().Contacts); got != 1 {
		t.Errorf("kept %d contacts, want 1", got)
	}
}

func TestViewerOcclusionCacheLifecycle(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)

	render := func() {
		if err := v.Render(&recordingCanvas{}); err != nil {
			t.Fatalf("Render: %v", err)
		}
	}

	render()
	if len(v.state.shadows) == 0 {
		t.Fatal("no occlusion computed on first render")
	}
	p1 := &v.state.shadows[0]

	render()
	if &v.state.shadows[0] != p1 {
		t.Fatal("identical rotation recomputed occlusion")
	}

	v.Rotate(0.25, 0)
	render()
	if &v.state.shadows[0] == p1 {
		t.Fatal("rotation change did not invalidate occlusion")
	}
}

func TestViewerOcclusionSelectionCount(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(4, 3.8), false)

	render := func() {
		if err := v.Render(&recordingCanvas{}); err != nil {
			t.Fatalf("Render: %v", err)
		}
	}

	v.SetSelection([]int{0, 1}, nil, nil, SelectDefault)
	render()
	p1 := &v.state.shadows[0]

	// Same visible count under the same rotation: the cache is reused
	// even though the selection content changed.
	v.SetSelection([]int{1, 2}, nil, nil, SelectDefault)
	render()
	if &v.state.shadows[0] != p1 {
		t.Fatal("equal-count selection swap recomputed occlusion")
	}

	v.SetSelection([]int{0, 1, 2}, nil, nil, SelectDefault)
	render()
	if len(v.state.shadows) != 2 {
		t.Fatalf("got %d occlusion entries, want 2 (segments 0-1 and 1-2)", len(v.state.shadows))
	}
	if &v.state.shadows[0] == p1 {
		t.Fatal("visible-count change did not invalidate occlusion")
	}
}

func TestViewerHighlightQuery(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(3, 3.8), false)
	v.SetRotation(mol.Identity())
	v.SetHighlights([]int{1})

	if got := v.HighlightQuery(); got != nil {
		t.Fatalf("got %v before the first render, want nil", got)
	}
	if err := v.Render(&recordingCanvas{}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := v.HighlightQuery()
	if len(got) != 1 {
		t.Fatalf("got %d highlights, want 1", len(got))
	}
	h := got[0]
	if h.Index != 1 {
		t.Errorf("index = %d, want 1", h.Index)
	}
	// The middle position sits at the centroid: dead center on screen.
	if absF(h.X-200) > 1e-9 || absF(h.Y-200) > 1e-9 {
		t.Errorf("position = (%v, %v), want (200, 200)", h.X, h.Y)
	}
	if h.R <= 0 {
		t.Errorf("radius = %v, want > 0", h.R)
	}
}

func TestViewerHighlightQueryHonorsMask(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("1abc", lineFrame(3, 3.8), false)
	v.SetHighlights([]int{2})
	v.SetSelection([]int{0, 1}, nil, nil, SelectExplicit)

	if err := v.Render(&recordingCanvas{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := v.HighlightQuery(); len(got) != 0 {
		t.Errorf("got %d highlights for a hidden position, want 0", len(got))
	}
}

func TestViewerOverlayRender(t *testing.T) {
	v := newTestViewer()
	v.AppendFrame("traj", lineFrame(3, 3.8), false)
	v.AppendFrame("traj", lineFrame(3, 3.8), false)

	cfg := DefaultConfig()
	cfg.Overlay = true
	v.SetRenderConfig(cfg)
	v.SetHighlights([]int{0})

	rc := &recordingCanvas{}
	if err := v.Render(rc); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := len(rc.byKind("stroke")); got < 4 {
		t.Errorf("got %d strokes, want both frame copies drawn", got)
	}

	got := v.HighlightQuery()
	if len(got) != 2 {
		t.Fatalf("got %d highlights, want one per frame copy", len(got))
	}
	if got[0].Index != 0 || got[1].Index != 0 {
		t.Errorf("highlight indices = %d, %d, want logical index 0 twice", got[0].Index, got[1].Index)
	}
}

func TestViewerOrient(t *testing.T) {
	v := newTestViewer()
	f := lineFrame(4, 3.8)
	f.Coords[3] = mol.Vec3{X: 3.8, Y: 8, Z: 2} // break collinearity
	v.AppendFrame("1abc", f, false)
	v.SetRotation(mol.RotationZ(1.2))

	v.Orient()
	if v.orientCenter == nil {
		t.Fatal("orient did not record a center")
	}
	if v.Rotation() == mol.RotationZ(1.2) {
		t.Error("orient kept the previous rotation")
	}

	v.AppendFrame("other", lineFrame(2, 3.8), false)
	if err := v.SwitchObject("other"); err != nil {
		t.Fatalf("SwitchObject: %v", err)
	}
	if v.orientCenter != nil {
		t.Error("orient center survived an object switch")
	}
}
