// Package shape turns a frame's shape and size into the outlines that get
// drawn (mat and frame) and the clip path that masks its picture.
package shape

import (
	"math"

	"github.com/drummonds/artwall/internal/geom"
)

// Kind names a frame shape.
type Kind string

const (
	Rect   Kind = "rect"
	Square Kind = "square"
	Circle Kind = "circle"
	Wedge  Kind = "wedge"
)

// Kinds lists the supported shapes in display order.
var Kinds = []Kind{Rect, Square, Circle, Wedge}

func (k Kind) Valid() bool {
	switch k {
	case Rect, Square, Circle, Wedge:
		return true
	}
	return false
}

// Locked reports whether the shape keeps width equal to height.
func (k Kind) Locked() bool {
	return k == Square || k == Circle
}

const (
	// WedgeAngle is the sweep of a wedge frame in degrees.
	WedgeAngle = 90.0
	// WedgeStep is the angular sampling step of the wedge polygon in degrees.
	WedgeStep = 2.0

	matCornerRadius   = 4.0
	frameCornerRadius = 2.0
)

// PathKind says which of the Path fields describe the outline.
type PathKind int

const (
	PathRect PathKind = iota
	PathCircle
	PathPolygon
)

// Path is a closed outline: a rounded rectangle, a circle or a polygon.
type Path struct {
	Kind PathKind

	Rect         geom.Rect // PathRect
	CornerRadius float64   // PathRect

	Center geom.Point // PathCircle
	Radius float64    // PathCircle

	Points geom.Polygon // PathPolygon
}

// Bounds returns the bounding box of the outline.
func (p Path) Bounds() geom.Rect {
	switch p.Kind {
	case PathCircle:
		return geom.R(p.Center.X-p.Radius, p.Center.Y-p.Radius, 2*p.Radius, 2*p.Radius)
	case PathPolygon:
		return p.Points.Bounds()
	}
	return p.Rect
}

// Contains reports whether pt is inside the outline. Rounded corners are
// treated as square.
func (p Path) Contains(pt geom.Point) bool {
	switch p.Kind {
	case PathCircle:
		return pt.Distance(p.Center) <= p.Radius
	case PathPolygon:
		return p.Points.Contains(pt)
	}
	return p.Rect.Contains(pt)
}

// Geometry is everything needed to draw one frame shape. Mat and Clip are
// nil when not needed; Frame is nil for an unknown shape.
type Geometry struct {
	Mat   *Path
	Frame *Path
	Clip  *Path
}

// Empty reports whether nothing should be drawn.
func (g Geometry) Empty() bool {
	return g.Frame == nil
}

// Size returns the drawn size of a width x height frame of kind k. Square
// and circle frames use the smaller side on both axes.
func Size(k Kind, width, height float64) (float64, float64) {
	if k.Locked() {
		s := math.Min(width, height)
		return s, s
	}
	return width, height
}

// Compute builds the outlines of a frame whose box starts at (x, y).
// content is the picture area left after the border and mat insets; it only
// matters for circles and wedges, whose pictures need a clip path.
func Compute(k Kind, x, y, width, height, matWidth float64, content geom.Rect) Geometry {
	switch k {
	case Rect, Square:
		w, h := Size(k, width, height)
		g := Geometry{
			Frame: &Path{Kind: PathRect, Rect: geom.R(x, y, w, h), CornerRadius: frameCornerRadius},
		}
		if matWidth > 0 {
			g.Mat = &Path{Kind: PathRect, Rect: geom.R(x, y, w, h).Inset(-matWidth), CornerRadius: matCornerRadius}
		}
		return g

	case Circle:
		r := math.Min(width, height) / 2
		c := geom.Pt(x+r, y+r)
		g := Geometry{
			Frame: &Path{Kind: PathCircle, Center: c, Radius: r},
			Clip: &Path{
				Kind:   PathCircle,
				Center: content.Center(),
				Radius: math.Max(0, math.Min(content.W, content.H)/2),
			},
		}
		if matWidth > 0 {
			g.Mat = &Path{Kind: PathCircle, Center: c, Radius: r + matWidth}
		}
		return g

	case Wedge:
		r := math.Min(width, height) / 2
		c := geom.Pt(x+r, y+r)
		g := Geometry{
			Frame: wedge(c, r),
			Clip:  wedge(c, math.Max(0, math.Min(content.W, content.H)/2)),
		}
		if matWidth > 0 {
			g.Mat = wedge(c, r+matWidth)
		}
		return g
	}
	return Geometry{}
}

func wedge(c geom.Point, r float64) *Path {
	return &Path{
		Kind:   PathPolygon,
		Center: c,
		Radius: r,
		Points: geom.Sector(c, r, 0, WedgeAngle, WedgeStep),
	}
}
