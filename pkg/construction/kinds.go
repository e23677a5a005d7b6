package construction

// Kind identifies the behavior of an element: how it is evaluated
// numerically and which constraint polynomials it contributes to a locus
// system. The set is closed; per-kind behavior lives in evaluate and
// localConstraints rather than in subtypes.
type Kind int

const (
	// KindFreePoint is a point positioned directly by interaction.
	KindFreePoint Kind = iota
	// KindMidpoint is the midpoint of two points.
	KindMidpoint
	// KindPerpFoot is the orthogonal projection of a point onto a line.
	KindPerpFoot
	// KindReflection is the mirror image of a point across a line.
	KindReflection
	// KindParallelPoint is C translated by the line's direction B-A.
	KindParallelPoint
	// KindCircumcenter is the center of the circle through three points.
	KindCircumcenter
	// KindIntersection is the intersection of two lines.
	KindIntersection
	// KindLine is the infinite line through two points.
	KindLine
	// KindSegment is the segment between two points.
	KindSegment
	// KindCircle is the circle with a center point through a second point.
	KindCircle
	// KindLocus is the curve traced by a dependent point; its geometry is
	// produced by the locus pipeline, not by the numeric pass.
	KindLocus
)

var kindNames = map[Kind]string{
	KindFreePoint:     "free",
	KindMidpoint:      "midpoint",
	KindPerpFoot:      "foot",
	KindReflection:    "reflection",
	KindParallelPoint: "parallel",
	KindCircumcenter:  "circumcenter",
	KindIntersection:  "intersection",
	KindLine:          "line",
	KindSegment:       "segment",
	KindCircle:        "circle",
	KindLocus:         "locus",
}

// String returns the stable lowercase name of the kind, which is also the
// serialization form.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// KindFromString returns the kind for a serialized name.
func KindFromString(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s {
			return k, true
		}
	}
	return 0, false
}

// Class groups kinds by the capability they offer to dependents.
type Class int

const (
	// ClassPoint covers every kind that yields a coordinate pair.
	ClassPoint Class = iota
	// ClassLine covers lines and segments.
	ClassLine
	// ClassCircle covers circles.
	ClassCircle
	// ClassCurve covers locus curves.
	ClassCurve
)

// ClassOf returns the capability class of a kind.
func ClassOf(k Kind) Class {
	switch k {
	case KindLine, KindSegment:
		return ClassLine
	case KindCircle:
		return ClassCircle
	case KindLocus:
		return ClassCurve
	default:
		return ClassPoint
	}
}

// IsPoint reports whether the kind yields a coordinate pair.
func (k Kind) IsPoint() bool { return ClassOf(k) == ClassPoint }

// parentClasses is the capability set each kind requires of its parents,
// in order. Construction calls with mismatched parents fail with
// INVALID_PARENT_TYPES naming the offending kinds.
var parentClasses = map[Kind][]Class{
	KindFreePoint:     {},
	KindMidpoint:      {ClassPoint, ClassPoint},
	KindPerpFoot:      {ClassPoint, ClassLine},
	KindReflection:    {ClassPoint, ClassLine},
	KindParallelPoint: {ClassPoint, ClassLine},
	KindCircumcenter:  {ClassPoint, ClassPoint, ClassPoint},
	KindIntersection:  {ClassLine, ClassLine},
	KindLine:          {ClassPoint, ClassPoint},
	KindSegment:       {ClassPoint, ClassPoint},
	KindCircle:        {ClassPoint, ClassPoint},
	KindLocus:         {ClassPoint},
}
