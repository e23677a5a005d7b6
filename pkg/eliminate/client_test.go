package eliminate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loci-dev/loci/pkg/errors"
)

func testClient(url string) *Client {
	c := NewClient(url, time.Second, nil)
	c.delay = time.Millisecond
	return c
}

func TestEliminateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.ID == "" {
			t.Error("request should carry an id")
		}
		if len(req.Keep) != 2 || req.Keep[0] != "x" || req.Keep[1] != "y" {
			t.Errorf("keep = %v", req.Keep)
		}
		json.NewEncoder(w).Encode(Response{
			ID:          req.ID,
			Polynomials: []string{"x^2 + y^2 - 4"},
			ElapsedMS:   12.5,
		})
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Eliminate(t.Context(),
		[]string{"u1^2 - x", "y - u1"}, []string{"u1"}, []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Polynomials) != 1 || res.Polynomials[0] != "x^2 + y^2 - 4" {
		t.Errorf("polynomials = %v", res.Polynomials)
	}
	if res.Elapsed != 12500*time.Microsecond {
		t.Errorf("elapsed = %v", res.Elapsed)
	}
}

func TestEliminateDegenerateSystem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "degenerate_system",
			"message": "no nontrivial elimination ideal",
		})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Eliminate(t.Context(), []string{"1"}, nil, []string{"x", "y"})
	if !errors.Is(err, errors.ErrCodeDegenerateSystem) {
		t.Errorf("got %v, want DEGENERATE_SYSTEM", err)
	}
}

func TestEliminateEmptyIdealIsDegenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{Polynomials: nil})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Eliminate(t.Context(), []string{"x - 1"}, nil, []string{"x", "y"})
	if !errors.Is(err, errors.ErrCodeDegenerateSystem) {
		t.Errorf("got %v, want DEGENERATE_SYSTEM", err)
	}
}

func TestEliminateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := testClient(srv.URL).Eliminate(t.Context(), []string{"x"}, nil, []string{"x", "y"})
	if !errors.Is(err, errors.ErrCodeUnreachable) {
		t.Errorf("got %v, want UNREACHABLE", err)
	}
}

func TestEliminateTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, 20*time.Millisecond, nil)
	c.delay = time.Millisecond
	_, err := c.Eliminate(t.Context(), []string{"x"}, nil, []string{"x", "y"})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("got %v, want TIMEOUT", err)
	}
}

func TestEliminateRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Response{Polynomials: []string{"y - x"}})
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).Eliminate(t.Context(), []string{"y - x"}, nil, []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want a retry after the 502", calls)
	}
	if len(res.Polynomials) != 1 {
		t.Errorf("polynomials = %v", res.Polynomials)
	}
}
