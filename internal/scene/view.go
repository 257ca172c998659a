package scene

import (
	"math"

	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/panel"
)

const (
	// ZoomFactor is the scale change of one wheel notch.
	ZoomFactor = 1.05
	MinScale   = 0.1
	MaxScale   = 3.0
)

// Viewport maps wall coordinates to screen pixels:
// screen = wall*Scale + Offset.
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

func (v Viewport) ScreenToWorld(p geom.Point) geom.Point {
	return geom.Pt((p.X-v.OffsetX)/v.Scale, (p.Y-v.OffsetY)/v.Scale)
}

func (v Viewport) WorldToScreen(p geom.Point) geom.Point {
	return geom.Pt(p.X*v.Scale+v.OffsetX, p.Y*v.Scale+v.OffsetY)
}

func clampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}

func (s *Scene) ScreenToWorld(p geom.Point) geom.Point { return s.view.ScreenToWorld(p) }

func (s *Scene) WorldToScreen(p geom.Point) geom.Point { return s.view.WorldToScreen(p) }

// Zoom applies one wheel event at the screen point pointer. A positive
// deltaY zooms out. The wall point under the pointer stays put.
func (s *Scene) Zoom(pointer geom.Point, deltaY float64) Viewport {
	if deltaY == 0 {
		return s.view
	}
	anchor := s.view.ScreenToWorld(pointer)
	scale := s.view.Scale * ZoomFactor
	if deltaY > 0 {
		scale = s.view.Scale / ZoomFactor
	}
	s.view.Scale = clampScale(scale)
	s.view.OffsetX = pointer.X - anchor.X*s.view.Scale
	s.view.OffsetY = pointer.Y - anchor.Y*s.view.Scale
	return s.view
}

// Pan moves the view by a screen space delta.
func (s *Scene) Pan(dx, dy float64) Viewport {
	s.view.OffsetX += dx
	s.view.OffsetY += dy
	return s.view
}

func (s *Scene) ResetView() Viewport {
	s.view = DefaultViewport()
	return s.view
}

// FitView picks the largest scale, up to 1, at which the whole wall fits a
// w x h container, with no offset.
func (s *Scene) FitView(w, h float64) Viewport {
	scale := 1.0
	if w > 0 && h > 0 {
		scale = math.Min(1, math.Min(w/s.wall.Width, h/s.wall.Height))
	}
	s.view = Viewport{Scale: clampScale(scale)}
	return s.view
}

// SetView replaces the viewport, clamping the scale.
func (s *Scene) SetView(v Viewport) Viewport {
	if !(v.Scale > 0) {
		v.Scale = 1
	}
	v.Scale = clampScale(v.Scale)
	s.view = v
	return s.view
}

// PointerDown starts a gesture at screen point p: resizing the selected
// frame when p is on one of its anchors, dragging the frame under p,
// or panning the view when p hits no frame.
func (s *Scene) PointerDown(p geom.Point) {
	w := s.view.ScreenToWorld(p)
	if sel, ok := s.Selected(); ok {
		radius := panel.AnchorSize / s.view.Scale
		if h, ok := panel.HandleAt(sel.Rect(), w, radius); ok {
			s.inter.BeginResize(sel, h, w)
			return
		}
	}
	if f, ok := s.HitTest(w); ok {
		s.inter.Select(f.ID)
		s.inter.BeginDrag(f, w)
		return
	}
	s.inter.ClearSelection()
	s.panning = true
	s.panStart = p
	s.panOrigin = geom.Pt(s.view.OffsetX, s.view.OffsetY)
}

// PointerMove continues the current gesture. Positions are recomputed from
// the gesture start, so repeated events at the same point change nothing.
func (s *Scene) PointerMove(p geom.Point) bool {
	if id, ok := s.inter.Active(); ok {
		w := s.view.ScreenToWorld(p)
		s.inter.DragTo(id, w)
		s.inter.ResizeTo(id, w)
		return true
	}
	if s.panning {
		d := p.Sub(s.panStart)
		s.view.OffsetX = s.panOrigin.X + d.X
		s.view.OffsetY = s.panOrigin.Y + d.Y
		return true
	}
	return false
}

// PointerUp ends the gesture, committing a moved or resized frame.
func (s *Scene) PointerUp(p geom.Point) bool {
	s.PointerMove(p)
	if s.panning {
		s.panning = false
		return true
	}
	id, ok := s.inter.Active()
	if !ok {
		return false
	}
	f, ok := s.Frame(id)
	if !ok {
		s.inter.Forget(id)
		return false
	}
	patch, ok := s.inter.EndDrag(id)
	if !ok {
		patch, ok = s.inter.EndResize(f)
	}
	if !ok {
		return false
	}
	if _, err := s.UpdateFrame(id, patch); err != nil {
		return false
	}
	return true
}
