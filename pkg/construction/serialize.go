package construction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/loci-dev/loci/pkg/errors"
)

// =============================================================================
// Construction Serialization API
// =============================================================================

// Document is the canonical serialization format for constructions.
// Used for files, API payloads, and document storage. Elements appear in
// creation order so a round trip reproduces the same ids.
type Document struct {
	Elements []DocElement `json:"elements" bson:"elements"`
}

// DocElement is the serialized form of one element.
type DocElement struct {
	ID      int     `json:"id" bson:"id"`
	Kind    string  `json:"kind" bson:"kind"`
	Parents []int   `json:"parents,omitempty" bson:"parents,omitempty"`
	X       float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y       float64 `json:"y,omitempty" bson:"y,omitempty"`
}

// ToDocument converts a construction to its serialization format.
func ToDocument(c *Construction) Document {
	var doc Document
	c.Elements(func(e *Element) {
		de := DocElement{ID: int(e.id), Kind: e.kind.String()}
		for _, p := range e.parents {
			de.Parents = append(de.Parents, int(p))
		}
		if e.IsFree() {
			de.X, de.Y = e.pos.X, e.pos.Y
		}
		doc.Elements = append(doc.Elements, de)
	})
	return doc
}

// FromDocument rebuilds a construction from its serialization format.
// Elements must appear in creation order; dependent positions are
// re-evaluated rather than trusted from the document.
func FromDocument(doc Document) (*Construction, error) {
	c := New()
	for _, de := range doc.Elements {
		kind, ok := KindFromString(de.Kind)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "element %d: unknown kind %q", de.ID, de.Kind)
		}
		var id ID
		var err error
		if kind == KindFreePoint {
			id = c.AddFreePoint(de.X, de.Y)
		} else {
			parents := make([]ID, len(de.Parents))
			for i, p := range de.Parents {
				parents[i] = ID(p)
			}
			id, err = c.AddElement(kind, parents...)
			if err != nil {
				return nil, err
			}
		}
		if int(id) != de.ID {
			return nil, errors.New(errors.ErrCodeInvalidFormat,
				"element ids not in creation order: got %d, want %d", de.ID, id)
		}
	}
	return c, nil
}

// Marshal converts a construction to JSON bytes.
func Marshal(c *Construction) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a construction.
func Unmarshal(data []byte) (*Construction, error) {
	return readFrom(bytes.NewReader(data))
}

// WriteFile writes a construction to a JSON file.
func WriteFile(c *Construction, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(c, f)
}

// ReadFile reads a JSON file and rebuilds the construction.
func ReadFile(path string) (*Construction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

// Write writes a construction as JSON to an io.Writer.
func Write(c *Construction, w io.Writer) error {
	return writeTo(c, w)
}

// Read decodes a JSON construction from an io.Reader.
func Read(r io.Reader) (*Construction, error) {
	return readFrom(r)
}

func writeTo(c *Construction, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToDocument(c)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (*Construction, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode construction")
	}
	return FromDocument(doc)
}
