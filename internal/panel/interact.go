package panel

import (
	"math"

	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/wall"
)

// Handle is one of the eight resize anchors around a selected frame.
type Handle int

const (
	HandleTopLeft Handle = iota
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

var Handles = []Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

// Point is the anchor position on box.
func (h Handle) Point(box geom.Rect) geom.Point {
	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.W, box.Y+box.H
	xm, ym := box.X+box.W/2, box.Y+box.H/2
	switch h {
	case HandleTopLeft:
		return geom.Pt(x0, y0)
	case HandleTop:
		return geom.Pt(xm, y0)
	case HandleTopRight:
		return geom.Pt(x1, y0)
	case HandleRight:
		return geom.Pt(x1, ym)
	case HandleBottomRight:
		return geom.Pt(x1, y1)
	case HandleBottom:
		return geom.Pt(xm, y1)
	case HandleBottomLeft:
		return geom.Pt(x0, y1)
	default:
		return geom.Pt(x0, ym)
	}
}

func (h Handle) movesLeft() bool {
	return h == HandleTopLeft || h == HandleLeft || h == HandleBottomLeft
}

func (h Handle) movesTop() bool {
	return h == HandleTopLeft || h == HandleTop || h == HandleTopRight
}

func (h Handle) movesRight() bool {
	return h == HandleTopRight || h == HandleRight || h == HandleBottomRight
}

func (h Handle) movesBottom() bool {
	return h == HandleBottomLeft || h == HandleBottom || h == HandleBottomRight
}

// Drag moves the handle's edges of box by d. When locked the box stays
// square, sized by whichever side changed most, with the opposite corner
// held in place.
func (h Handle) Drag(box geom.Rect, d geom.Point, locked bool) geom.Rect {
	left, top := box.X, box.Y
	right, bottom := box.X+box.W, box.Y+box.H
	if h.movesLeft() {
		left += d.X
	}
	if h.movesRight() {
		right += d.X
	}
	if h.movesTop() {
		top += d.Y
	}
	if h.movesBottom() {
		bottom += d.Y
	}
	r := geom.R(left, top, right-left, bottom-top)
	if !locked {
		return r
	}
	s := r.W
	if math.Abs(r.H-box.H) > math.Abs(r.W-box.W) {
		s = r.H
	}
	r.W, r.H = s, s
	if h.movesLeft() {
		r.X = right - s
	}
	if h.movesTop() {
		r.Y = bottom - s
	}
	return r
}

// HandleAt finds the anchor of box within radius of p.
func HandleAt(box geom.Rect, p geom.Point, radius float64) (Handle, bool) {
	for _, h := range Handles {
		if h.Point(box).Distance(p) <= radius {
			return h, true
		}
	}
	return 0, false
}

// BoundBox clamps a box proposed by dragging handle h of start so neither
// side is below the minimum frame size. Edges the handle does not move stay
// where they were in start; a square box stays square.
func BoundBox(h Handle, start, proposed geom.Rect) geom.Rect {
	r := proposed
	if r.W < wall.MinFrameSize {
		r.W = wall.MinFrameSize
		if h.movesLeft() {
			r.X = start.X + start.W - r.W
		} else {
			r.X = start.X
		}
	}
	if r.H < wall.MinFrameSize {
		r.H = wall.MinFrameSize
		if h.movesTop() {
			r.Y = start.Y + start.H - r.H
		} else {
			r.Y = start.Y
		}
	}
	return r
}

// Resize turns a finished resize gesture into a patch. Width and height
// are scaled, floored at the minimum size and rounded; square and circle
// frames take the size from the axis that was scaled most.
func Resize(f wall.Frame, scaleX, scaleY, x, y float64) wall.FramePatch {
	w0, h0 := f.Size()
	w, h := w0*scaleX, h0*scaleY
	if f.Shape.Locked() {
		s := w
		if math.Abs(scaleY-1) > math.Abs(scaleX-1) {
			s = h
		}
		w, h = s, s
	}
	w = math.Round(math.Max(wall.MinFrameSize, w))
	h = math.Round(math.Max(wall.MinFrameSize, h))
	x, y = math.Round(x), math.Round(y)
	return wall.FramePatch{X: &x, Y: &y, Width: &w, Height: &h}
}

type gesture int

const (
	idle gesture = iota
	dragging
	resizing
)

type state struct {
	gesture gesture
	// pointer minus frame origin when a drag starts
	grab geom.Point
	pos  geom.Point

	handle   Handle
	locked   bool
	anchor   geom.Point
	startBox geom.Rect
	box      geom.Rect
}

// Interactions holds the per-frame gesture state and the selection. Frames
// are referred to by id; the state of a deleted frame is dropped by Forget.
// It is not safe for concurrent use.
type Interactions struct {
	states   map[string]*state
	selected string
}

func NewInteractions() *Interactions {
	return &Interactions{states: map[string]*state{}}
}

func (in *Interactions) get(id string) *state {
	st, ok := in.states[id]
	if !ok {
		st = &state{}
		in.states[id] = st
	}
	return st
}

// Select makes id the only selected frame.
func (in *Interactions) Select(id string) { in.selected = id }

func (in *Interactions) ClearSelection() { in.selected = "" }

func (in *Interactions) Selected() (string, bool) {
	return in.selected, in.selected != ""
}

func (in *Interactions) IsSelected(id string) bool {
	return id != "" && in.selected == id
}

// Forget drops everything known about a removed frame.
func (in *Interactions) Forget(id string) {
	delete(in.states, id)
	if in.selected == id {
		in.selected = ""
	}
}

// Busy reports whether a drag or resize is in progress on id.
func (in *Interactions) Busy(id string) bool {
	st, ok := in.states[id]
	return ok && st.gesture != idle
}

// Active returns the id of the frame being dragged or resized.
func (in *Interactions) Active() (string, bool) {
	for id, st := range in.states {
		if st.gesture != idle {
			return id, true
		}
	}
	return "", false
}

// BeginDrag starts moving f with the pointer at p.
func (in *Interactions) BeginDrag(f wall.Frame, p geom.Point) {
	st := in.get(f.ID)
	st.gesture = dragging
	st.pos = geom.Pt(f.X, f.Y)
	st.grab = p.Sub(st.pos)
}

// DragTo moves the dragged frame so the grab point follows p.
func (in *Interactions) DragTo(id string, p geom.Point) {
	st, ok := in.states[id]
	if !ok || st.gesture != dragging {
		return
	}
	st.pos = p.Sub(st.grab)
}

// EndDrag finishes the drag and returns the position patch. Ending a drag
// that is not in progress returns false, so a repeated end is harmless.
func (in *Interactions) EndDrag(id string) (wall.FramePatch, bool) {
	st, ok := in.states[id]
	if !ok || st.gesture != dragging {
		return wall.FramePatch{}, false
	}
	st.gesture = idle
	return wall.Position(math.Round(st.pos.X), math.Round(st.pos.Y)), true
}

// BeginResize starts dragging handle h of f with the pointer at p.
func (in *Interactions) BeginResize(f wall.Frame, h Handle, p geom.Point) {
	st := in.get(f.ID)
	st.gesture = resizing
	st.handle = h
	st.locked = f.Shape.Locked()
	st.anchor = p
	st.startBox = f.Rect()
	st.box = st.startBox
}

// ResizeTo follows the pointer, holding the box at the minimum size when
// the pointer goes further.
func (in *Interactions) ResizeTo(id string, p geom.Point) {
	st, ok := in.states[id]
	if !ok || st.gesture != resizing {
		return
	}
	proposed := st.handle.Drag(st.startBox, p.Sub(st.anchor), st.locked)
	st.box = BoundBox(st.handle, st.startBox, proposed)
}

// EndResize finishes the resize of f and returns its patch.
func (in *Interactions) EndResize(f wall.Frame) (wall.FramePatch, bool) {
	st, ok := in.states[f.ID]
	if !ok || st.gesture != resizing {
		return wall.FramePatch{}, false
	}
	st.gesture = idle
	w, h := f.Size()
	if w <= 0 || h <= 0 {
		return wall.FramePatch{}, false
	}
	return Resize(f, st.box.W/w, st.box.H/h, st.box.X, st.box.Y), true
}

// Transient returns f as it looks mid-gesture, without committing.
func (in *Interactions) Transient(f wall.Frame) wall.Frame {
	st, ok := in.states[f.ID]
	if !ok {
		return f
	}
	switch st.gesture {
	case dragging:
		f.X, f.Y = st.pos.X, st.pos.Y
	case resizing:
		f.X, f.Y = st.box.X, st.box.Y
		f.Width, f.Height = st.box.W, st.box.H
	}
	return f
}
