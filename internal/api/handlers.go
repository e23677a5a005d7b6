package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/loci-dev/loci/pkg/buildinfo"
	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
	"github.com/loci-dev/loci/pkg/export"
	"github.com/loci-dev/loci/pkg/implicit"
)

// =============================================================================
// Wire Types
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type addElementRequest struct {
	Kind    string  `json:"kind"`
	Parents []int   `json:"parents,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
}

type addElementResponse struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type moveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type moveResponse struct {
	Updated  int           `json:"updated"`
	Elements []elementBody `json:"elements"`
}

type elementBody struct {
	ID   int     `json:"id"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type removeResponse struct {
	Removed []int `json:"removed"`
}

type locusResponse struct {
	Signature string                  `json:"signature"`
	Stale     bool                    `json:"stale"`
	CacheHit  bool                    `json:"cache_hit,omitempty"`
	Coalesced bool                    `json:"coalesced,omitempty"`
	Error     string                  `json:"error,omitempty"`
	Branches  int                     `json:"branches"`
	Points    int                     `json:"points"`
	Curve     *implicit.SampledCurve  `json:"curve"`
}

// =============================================================================
// Meta
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

// =============================================================================
// Documents
// =============================================================================

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"constructions": names})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var doc construction.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document"))
		return
	}
	c, err := construction.FromDocument(doc)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), name, doc); err != nil {
		writeError(w, err)
		return
	}
	s.replaceSession(name, c)
	writeJSON(w, http.StatusCreated, map[string]any{"name": name, "elements": c.Len()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	doc := construction.ToDocument(sess.c)
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.Delete(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	s.dropSession(name)
	w.WriteHeader(http.StatusNoContent)
}

// handleSave persists the live session back to the store.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sess, err := s.session(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	doc := construction.ToDocument(sess.c)
	sess.mu.Unlock()
	if err := s.store.Save(r.Context(), name, doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "elements": len(doc.Elements)})
}

// =============================================================================
// Elements
// =============================================================================

func (s *Server) handleAddElement(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req addElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode element"))
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var id construction.ID
	if req.Kind == construction.KindFreePoint.String() {
		id = sess.c.AddFreePoint(req.X, req.Y)
	} else {
		kind, ok := construction.KindFromString(req.Kind)
		if !ok {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown kind %q", req.Kind))
			return
		}
		parents := make([]construction.ID, len(req.Parents))
		for i, p := range req.Parents {
			parents[i] = construction.ID(p)
		}
		id, err = sess.c.AddElement(kind, parents...)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	e, _ := sess.c.Element(id)
	writeJSON(w, http.StatusCreated, addElementResponse{ID: int(id), X: e.Pos().X, Y: e.Pos().Y})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := elementID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode move"))
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	updated, err := sess.c.Move(id, req.X, req.Y)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := moveResponse{Updated: updated}
	sess.c.Elements(func(e *construction.Element) {
		if e.Kind().IsPoint() {
			resp.Elements = append(resp.Elements, elementBody{
				ID: int(e.ID()), Kind: e.Kind().String(),
				X: e.Pos().X, Y: e.Pos().Y,
			})
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveElement(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := elementID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	removed, err := sess.c.Remove(id)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.runner.Discard(removed...)

	resp := removeResponse{Removed: make([]int, len(removed))}
	for i, rid := range removed {
		resp.Removed[i] = int(rid)
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Locus
// =============================================================================

func (s *Server) handleLocusRefresh(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := elementID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	viewport := s.queryViewport(r)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	target, err := resolveLocusTarget(sess.c, id)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := sess.runner.Refresh(r.Context(), sess.c, target, viewport)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Curve == nil {
		res.Curve = &implicit.SampledCurve{}
	}

	resp := locusResponse{
		Signature: res.Signature,
		Stale:     res.Stale,
		CacheHit:  res.CacheHit,
		Coalesced: res.Coalesced,
		Branches:  len(res.Curve.Branches),
		Points:    res.Curve.Points(),
		Curve:     res.Curve,
	}
	if res.Err != nil {
		resp.Error = errors.UserMessage(res.Err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLocusGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := elementID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sess.mu.Lock()
	target, terr := resolveLocusTarget(sess.c, id)
	if terr != nil {
		sess.mu.Unlock()
		writeError(w, terr)
		return
	}
	curve := sess.runner.Curve(target)
	stale := sess.runner.IsStale(target)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, locusResponse{
		Stale:    stale,
		Branches: len(curve.Branches),
		Points:   curve.Points(),
		Curve:    curve,
	})
}

// =============================================================================
// Rendering
// =============================================================================

func (s *Server) handleRenderSVG(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	viewport := s.queryViewport(r)

	opts := []export.SVGOption{export.WithViewport(viewport)}
	if r.URL.Query().Get("labels") == "true" {
		opts = append(opts, export.WithLabels())
	}

	sess.mu.Lock()
	// Overlay every curve the runner currently holds for this session.
	// Runner state is keyed by the traced point, not the locus element.
	sess.c.Elements(func(e *construction.Element) {
		if e.Kind() == construction.KindLocus {
			target := e.Parents()[0]
			if curve := sess.runner.Curve(target); !curve.IsEmpty() {
				opts = append(opts, export.WithCurve(e.ID(), curve))
			}
		}
	})
	svg := export.RenderSVG(sess.c, opts...)
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	detailed := r.URL.Query().Get("detailed") == "true"

	sess.mu.Lock()
	dot := export.ToDOT(sess.c, export.DOTOptions{Detailed: detailed})
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.Write([]byte(dot))
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	sess.mu.Lock()
	dot := export.ToDOT(sess.c, export.DOTOptions{})
	sess.mu.Unlock()

	svg, err := export.RenderDOTSVG(dot)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render graph"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// =============================================================================
// Helpers
// =============================================================================

// resolveLocusTarget maps a locus element to the dependent point it
// traces; dependent points pass through unchanged.
func resolveLocusTarget(c *construction.Construction, id construction.ID) (construction.ID, error) {
	e, err := c.Element(id)
	if err != nil {
		return 0, err
	}
	if e.Kind() == construction.KindLocus {
		return e.Parents()[0], nil
	}
	return id, nil
}

func elementID(r *http.Request) (construction.ID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "element id %q is not a number", raw)
	}
	return construction.ID(n), nil
}

// queryViewport reads min_x/min_y/max_x/max_y query parameters, falling
// back to the server default viewport.
func (s *Server) queryViewport(r *http.Request) implicit.BoundingBox {
	box := s.viewport
	q := r.URL.Query()
	read := func(key string, dst *float64) {
		if raw := q.Get(key); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				*dst = v
			}
		}
	}
	read("min_x", &box.MinX)
	read("min_y", &box.MinY)
	read("max_x", &box.MaxX)
	read("max_y", &box.MaxY)
	return box
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorBody{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}
