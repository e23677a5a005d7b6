package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/eliminate"
	"github.com/loci-dev/loci/pkg/store"
)

// engineFunc adapts a function to the locus.Engine interface.
type engineFunc func(ctx context.Context, polys, elim, keep []string) (*eliminate.Result, error)

func (f engineFunc) Eliminate(ctx context.Context, polys, elim, keep []string) (*eliminate.Result, error) {
	return f(ctx, polys, elim, keep)
}

// circleEngine answers every elimination with a fixed circle.
func circleEngine() engineFunc {
	return func(ctx context.Context, polys, elim, keep []string) (*eliminate.Result, error) {
		return &eliminate.Result{Polynomials: []string{"x^2 + y^2 - 4"}}, nil
	}
}

func testServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	srv := NewServer(Options{Store: st, Engine: circleEngine()})
	return srv, st
}

// seedDocument saves a construction with two free points, a midpoint,
// and a locus over it, returning the element ids in creation order.
func seedDocument(t *testing.T, st store.Store, name string) []construction.ID {
	t.Helper()
	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(4, 0)
	m, err := c.AddElement(construction.KindMidpoint, a, b)
	if err != nil {
		t.Fatal(err)
	}
	l, err := c.AddElement(construction.KindLocus, m)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(context.Background(), name, construction.ToDocument(c)); err != nil {
		t.Fatal(err)
	}
	return []construction.ID{a, b, m, l}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndVersion(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("version status = %d", rec.Code)
	}
}

func TestUploadListGet(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(2, 2)
	if _, err := c.AddElement(construction.KindMidpoint, a, b); err != nil {
		t.Fatal(err)
	}
	doc := construction.ToDocument(c)

	rec := doJSON(t, h, http.MethodPut, "/constructions/demo", doc)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/constructions/", nil)
	list := decode[map[string][]string](t, rec)
	if len(list["constructions"]) != 1 || list["constructions"][0] != "demo" {
		t.Errorf("list = %v", list)
	}

	rec = doJSON(t, h, http.MethodGet, "/constructions/demo", nil)
	got := decode[construction.Document](t, rec)
	if len(got.Elements) != 3 {
		t.Errorf("got %d elements, want 3", len(got.Elements))
	}
}

func TestUploadRejectsBadDocument(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPut, "/constructions/bad", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad upload status = %d", rec.Code)
	}
}

func TestUnknownConstructionIs404(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/constructions/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["code"] != "NOT_FOUND" {
		t.Errorf("code = %q", body["code"])
	}
}

func TestMovePropagates(t *testing.T) {
	srv, st := testServer(t)
	ids := seedDocument(t, st, "demo")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/constructions/demo/elements/%d/move", ids[0]),
		moveRequest{X: 2, Y: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[moveResponse](t, rec)
	if resp.Updated != 1 {
		t.Errorf("updated = %d, want 1", resp.Updated)
	}
	for _, e := range resp.Elements {
		if e.ID == int(ids[2]) {
			if e.X != 3 || e.Y != 1 {
				t.Errorf("midpoint = (%g, %g), want (3, 1)", e.X, e.Y)
			}
		}
	}
}

func TestMoveDependentPointRejected(t *testing.T) {
	srv, st := testServer(t)
	ids := seedDocument(t, st, "demo")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/constructions/demo/elements/%d/move", ids[2]),
		moveRequest{X: 1, Y: 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("move dependent status = %d, want 400", rec.Code)
	}
}

func TestAddElement(t *testing.T) {
	srv, st := testServer(t)
	seedDocument(t, st, "demo")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/constructions/demo/elements",
		addElementRequest{Kind: "free", X: 1, Y: 5})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add free status = %d: %s", rec.Code, rec.Body.String())
	}
	free := decode[addElementResponse](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/constructions/demo/elements",
		addElementRequest{Kind: "midpoint", Parents: []int{0, free.ID}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add midpoint status = %d: %s", rec.Code, rec.Body.String())
	}
	mid := decode[addElementResponse](t, rec)
	if mid.X != 0.5 || mid.Y != 2.5 {
		t.Errorf("midpoint = (%g, %g), want (0.5, 2.5)", mid.X, mid.Y)
	}

	rec = doJSON(t, h, http.MethodPost, "/constructions/demo/elements",
		addElementRequest{Kind: "warp", Parents: []int{0}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/constructions/demo/elements",
		addElementRequest{Kind: "intersection", Parents: []int{0, 1}})
	if rec.Code != http.StatusConflict {
		t.Errorf("wrong parent class status = %d, want 409", rec.Code)
	}
}

func TestRemoveElementCascades(t *testing.T) {
	srv, st := testServer(t)
	ids := seedDocument(t, st, "demo")
	h := srv.Handler()

	// Removing a free point takes the midpoint and its locus with it.
	rec := doJSON(t, h, http.MethodDelete,
		fmt.Sprintf("/constructions/demo/elements/%d", ids[0]), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[removeResponse](t, rec)
	if len(resp.Removed) != 3 {
		t.Errorf("removed %v, want 3 ids", resp.Removed)
	}
}

func TestLocusRefreshAndGet(t *testing.T) {
	srv, st := testServer(t)
	ids := seedDocument(t, st, "demo")
	h := srv.Handler()

	// Refresh through the locus element id; it resolves to the midpoint.
	rec := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/constructions/demo/locus/%d", ids[3]), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[locusResponse](t, rec)
	if resp.Stale {
		t.Error("fresh refresh marked stale")
	}
	if resp.Points == 0 {
		t.Error("refresh produced no curve points")
	}
	if resp.Signature == "" {
		t.Error("refresh has no signature")
	}

	rec = doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/constructions/demo/locus/%d", ids[2]), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	got := decode[locusResponse](t, rec)
	if got.Points != resp.Points {
		t.Errorf("stored curve has %d points, refresh had %d", got.Points, resp.Points)
	}
}

func TestRenderSVG(t *testing.T) {
	srv, st := testServer(t)
	ids := seedDocument(t, st, "demo")
	h := srv.Handler()

	// Build the curve first so the render can overlay it.
	rec := doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/constructions/demo/locus/%d", ids[2]), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/constructions/demo/render.svg?labels=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("render status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	svg := rec.Body.String()
	if !strings.Contains(svg, "data-locus") {
		t.Error("rendered SVG is missing the locus curve overlay")
	}
	if !strings.Contains(svg, `data-element="0"`) {
		t.Error("rendered SVG is missing point markers")
	}
}

func TestGraphDOT(t *testing.T) {
	srv, st := testServer(t)
	seedDocument(t, st, "demo")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/constructions/demo/graph.dot?detailed=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dot status = %d", rec.Code)
	}
	dot := rec.Body.String()
	if !strings.Contains(dot, `"e0" -> "e2"`) {
		t.Errorf("dot is missing dependency edge:\n%s", dot)
	}
	if !strings.Contains(dot, "midpoint") {
		t.Error("dot is missing kind labels")
	}
}

func TestSavePersistsLiveSession(t *testing.T) {
	srv, st := testServer(t)
	seedDocument(t, st, "demo")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/constructions/demo/elements",
		addElementRequest{Kind: "free", X: 9, Y: 9})
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Body.String())
	}

	// The store still has the original four elements until save.
	doc, err := st.Load(context.Background(), "demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Elements) != 4 {
		t.Fatalf("store has %d elements before save", len(doc.Elements))
	}

	rec = doJSON(t, h, http.MethodPost, "/constructions/demo/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}
	doc, err = st.Load(context.Background(), "demo")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Elements) != 5 {
		t.Errorf("store has %d elements after save, want 5", len(doc.Elements))
	}
}

func TestDeleteDropsSession(t *testing.T) {
	srv, st := testServer(t)
	seedDocument(t, st, "demo")
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodDelete, "/constructions/demo", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/constructions/demo", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}
