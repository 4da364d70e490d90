package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flatmol/flatmol/pkg/cache"
	flaterrors "github.com/flatmol/flatmol/pkg/errors"
	"github.com/flatmol/flatmol/pkg/mol"
	"github.com/flatmol/flatmol/pkg/render"
	"github.com/flatmol/flatmol/pkg/render/rastersink"
	"github.com/flatmol/flatmol/pkg/render/svgsink"
	"github.com/flatmol/flatmol/pkg/session"
	"github.com/flatmol/flatmol/pkg/state"
)

// createSessionRequest is the POST /api/sessions body.
type createSessionRequest struct {
	Name string `json:"name"`
}

// selectionRequest is the PUT selection body.
type selectionRequest struct {
	Positions []int    `json:"positions"`
	Chains    []string `json:"chains"`
	Boxes     [][4]int `json:"boxes"`
	Mode      string   `json:"mode"`
}

// viewRequest is the POST view body; every field is optional.
type viewRequest struct {
	Object *string     `json:"object,omitempty"`
	Frame  *int        `json:"frame,omitempty"`
	Rotate *[2]float64 `json:"rotate,omitempty"`
	Zoom   *float64    `json:"zoom,omitempty"`
	Orient bool        `json:"orient,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidInput, "invalid request body")
		return
	}

	sess := session.New(req.Name, s.ttl)
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.List(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	// Session state payloads can be large; the listing returns metadata
	// only.
	for _, sess := range sessions {
		sess.State = nil
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	sess.State = nil
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.drop(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAppendFrame(w http.ResponseWriter, r *http.Request) {
	lv, sess, err := s.viewer(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	object := chi.URLParam(r, "object")
	if err := flaterrors.ValidateObjectName(object); err != nil {
		s.writeFailure(w, err)
		return
	}

	var frame mol.Frame
	if err := json.NewDecoder(r.Body).Decode(&frame); err != nil {
		s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidInput, "invalid frame body")
		return
	}
	align := r.URL.Query().Get("align") == "true"

	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.v.AppendFrame(object, &frame, align)
	if err := s.persist(r, sess, lv); err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"frames": lv.v.FrameCount()})
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	lv, sess, err := s.viewer(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidSelection, "invalid selection body")
		return
	}
	mode := render.SelectDefault
	if req.Mode != "" {
		mode, err = render.ParseSelectionMode(req.Mode)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidSelection, err.Error())
			return
		}
	}
	boxes := make([]render.Box, len(req.Boxes))
	for i, b := range req.Boxes {
		boxes[i] = render.Box{X1: b[0], X2: b[1], Y1: b[2], Y2: b[3]}
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.v.SetSelection(req.Positions, req.Chains, boxes, mode)
	if err := s.persist(r, sess, lv); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	lv, sess, err := s.viewer(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	var cs state.ConfigState
	if err := json.NewDecoder(r.Body).Decode(&cs); err != nil {
		s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidInput, "invalid config body")
		return
	}
	cfg, err := state.ConfigFromState(cs)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidInput, err.Error())
		return
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.v.SetRenderConfig(cfg)
	if err := s.persist(r, sess, lv); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	lv, sess, err := s.viewer(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	var req viewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidInput, "invalid view body")
		return
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	if req.Object != nil {
		if err := lv.v.SwitchObject(*req.Object); err != nil {
			s.writeFailure(w, err)
			return
		}
	}
	if req.Frame != nil {
		if err := lv.v.SetFrame(*req.Frame); err != nil {
			s.writeFailure(w, err)
			return
		}
	}
	if req.Rotate != nil {
		lv.v.Rotate(req.Rotate[0], req.Rotate[1])
	}
	if req.Zoom != nil {
		lv.v.SetZoom(*req.Zoom)
	}
	if req.Orient {
		lv.v.Orient()
	}
	if err := s.persist(r, sess, lv); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	lv, _, err := s.viewer(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	lv.mu.Lock()
	snap := state.Capture(lv.v)
	lv.mu.Unlock()
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	lv, sess, err := s.viewer(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	snap, err := state.Decode(r.Body)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	restored, err := state.Restore(snap, s.log)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()
	lv.v = restored
	if err := s.persist(r, sess, lv); err != nil {
		s.writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	lv, sess, err := s.viewer(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "png"
	}
	var contentType string
	switch format {
	case "png":
		contentType = "image/png"
	case "svg":
		contentType = "image/svg+xml"
	default:
		s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidFormat, "format must be png or svg")
		return
	}

	lv.mu.Lock()
	defer lv.mu.Unlock()

	original := lv.v.Config()
	cfg := original
	if wq := r.URL.Query().Get("width"); wq != "" {
		if hq := r.URL.Query().Get("height"); hq != "" {
			width, werr := strconv.Atoi(wq)
			height, herr := strconv.Atoi(hq)
			if werr != nil || herr != nil || width <= 0 || height <= 0 {
				s.writeError(w, http.StatusBadRequest, flaterrors.ErrCodeInvalidInput, "invalid width/height")
				return
			}
			cfg.Width = width
			cfg.Height = height
		}
	}

	key := s.renderKey(sess, format, cfg)
	if key != "" {
		if data, hit, err := s.artifacts.Get(r.Context(), key); err == nil && hit {
			w.Header().Set("Content-Type", contentType)
			_, _ = w.Write(data)
			return
		}
	}

	if cfg != original {
		lv.v.SetRenderConfig(cfg)
		defer lv.v.SetRenderConfig(original)
	}

	var data []byte
	switch format {
	case "png":
		data, err = rastersink.RenderPNG(lv.v)
	case "svg":
		data, err = svgsink.RenderSVG(lv.v)
	}
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	if key != "" {
		if err := s.artifacts.Set(r.Context(), key, data, renderCacheTTL); err != nil {
			s.log.Debugf("artifact cache write failed: %v", err)
		}
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(data)
}

// renderKey derives the artifact cache key from the persisted session
// state, which already covers frames, camera, selection, and config.
// Keys are scoped per session so deleting one session can never serve
// another's artifacts. An empty key disables caching for this request.
func (s *Server) renderKey(sess *session.Session, format string, cfg render.Config) string {
	if s.artifacts == nil || len(sess.State) == 0 {
		return ""
	}
	keyer := cache.NewScopedKeyer(s.keyer, "session:"+sess.ID+":")
	return keyer.ArtifactKey(cache.Hash(sess.State), cache.ArtifactKeyOpts{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	})
}

// =============================================================================
// Response helpers
// =============================================================================

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code flaterrors.Code, msg string) {
	s.writeJSON(w, status, errorResponse{Code: string(code), Message: msg})
}

// writeFailure maps an error to a status code and writes it.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.writeError(w, http.StatusNotFound, flaterrors.ErrCodeSessionNotFound, "session not found")
	case errors.Is(err, session.ErrExpired):
		s.writeError(w, http.StatusGone, flaterrors.ErrCodeSessionNotFound, "session expired")
	case flaterrors.Is(err, flaterrors.ErrCodeObjectNotFound),
		flaterrors.Is(err, flaterrors.ErrCodeFrameNotFound):
		s.writeError(w, http.StatusNotFound, flaterrors.GetCode(err), err.Error())
	case flaterrors.Is(err, flaterrors.ErrCodeInvalidState),
		flaterrors.Is(err, flaterrors.ErrCodeInvalidInput):
		s.writeError(w, http.StatusBadRequest, flaterrors.GetCode(err), err.Error())
	default:
		s.log.Errorf("request failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, flaterrors.ErrCodeInternal, "internal error")
	}
}

// =============================================================================
// Small adapters
// =============================================================================

// bytesReader adapts stored raw state to the decoder.
func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// encodeState serializes a snapshot compactly for session storage.
func encodeState(snap *state.ViewerState) ([]byte, error) {
	return json.Marshal(snap)
}
