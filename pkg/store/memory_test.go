package store

import (
	"context"
	"testing"

	"github.com/loci-dev/loci/pkg/construction"
	"github.com/loci-dev/loci/pkg/errors"
)

func sampleDoc() construction.Document {
	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(4, 0)
	c.AddElement(construction.KindMidpoint, a, b)
	return construction.ToDocument(c)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	doc := sampleDoc()
	if err := s.Save(ctx, "midpoint", doc); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx, "midpoint")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Elements) != len(doc.Elements) {
		t.Errorf("loaded %d elements, want %d", len(got.Elements), len(doc.Elements))
	}

	// The loaded document must rebuild into a working construction.
	c, err := construction.FromDocument(got)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 {
		t.Errorf("rebuilt construction has %d elements, want 3", c.Len())
	}
}

func TestMemoryStoreListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Save(ctx, name, sampleDoc()); err != nil {
			t.Fatal(err)
		}
	}
	names, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("List = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Load(ctx, "ghost"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Load missing = %v, want NOT_FOUND", err)
	}
	if err := s.Delete(ctx, "ghost"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Delete missing = %v, want NOT_FOUND", err)
	}
	if err := s.Save(ctx, "", sampleDoc()); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save empty name = %v, want INVALID_INPUT", err)
	}
}
