/*
Package scene holds the wall being decorated and everything needed to show
it: the frames in drawing order, the pan and zoom of the view, the selection
and the in-progress pointer gestures.

A scene is rendered by building one panel per layer, background first, and
letting each panel paint itself onto a shared gg context. Two surfaces are
produced:

  - Preview, the current view with pan, zoom and selection applied
  - Canonical, the bare wall at a pixel ratio, used for export

A Scene is not safe for concurrent use.
*/
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"slices"

	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/imageload"
	"github.com/drummonds/artwall/internal/panel"
	"github.com/drummonds/artwall/internal/wall"
	"github.com/fogleman/gg"
	"github.com/jinzhu/copier"
)

var ErrFrameNotFound = errors.New("frame not found")

// ImageSource supplies decoded pictures by slot and reference.
// *imageload.Loader is the usual implementation.
type ImageSource interface {
	Image(slot, key string) (image.Image, bool)
	Forget(slot string)
}

// Backdrop is painted behind the wall in previews.
var Backdrop = color.NRGBA{R: 0xE8, G: 0xE8, B: 0xE8, A: 0xFF}

type Scene struct {
	wall   wall.Wall
	frames []wall.Frame
	view   Viewport
	inter  *panel.Interactions
	images ImageSource

	// panning the surface with the pointer
	panning   bool
	panStart  geom.Point
	panOrigin geom.Point
}

// New returns a scene with the default wall and one default frame. images
// may be nil, in which case no pictures are drawn.
func New(images ImageSource) *Scene {
	s := &Scene{
		view:   DefaultViewport(),
		inter:  panel.NewInteractions(),
		images: images,
	}
	s.Reset()
	return s
}

func (s *Scene) Wall() wall.Wall { return s.wall }

// Frames returns a copy of the frames in drawing order.
func (s *Scene) Frames() []wall.Frame { return slices.Clone(s.frames) }

func (s *Scene) Frame(id string) (wall.Frame, bool) {
	i := s.index(id)
	if i < 0 {
		return wall.Frame{}, false
	}
	return s.frames[i], true
}

func (s *Scene) index(id string) int {
	return slices.IndexFunc(s.frames, func(f wall.Frame) bool { return f.ID == id })
}

func (s *Scene) View() Viewport { return s.view }

// Interactions exposes the gesture state, mainly for front ends that want to
// drive drags and resizes themselves.
func (s *Scene) Interactions() *panel.Interactions { return s.inter }

// Selected returns the selected frame, if any.
func (s *Scene) Selected() (wall.Frame, bool) {
	id, ok := s.inter.Selected()
	if !ok {
		return wall.Frame{}, false
	}
	return s.Frame(id)
}

// Select makes id the selected frame; an empty id clears the selection.
func (s *Scene) Select(id string) error {
	if id == "" {
		s.inter.ClearSelection()
		return nil
	}
	if s.index(id) < 0 {
		return fmt.Errorf("%w: %s", ErrFrameNotFound, id)
	}
	s.inter.Select(id)
	return nil
}

// AddFrame appends f on top of the other frames and returns it as stored.
func (s *Scene) AddFrame(f wall.Frame) (wall.Frame, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return wall.Frame{}, err
	}
	if s.index(f.ID) >= 0 {
		f.ID = wall.NewFrame().ID
	}
	s.frames = append(s.frames, f)
	return f, nil
}

// UpdateFrame merges patch into the frame. An invalid result is rejected
// and the frame is left as it was.
func (s *Scene) UpdateFrame(id string, patch wall.FramePatch) (wall.Frame, error) {
	i := s.index(id)
	if i < 0 {
		return wall.Frame{}, fmt.Errorf("%w: %s", ErrFrameNotFound, id)
	}
	f := patch.Apply(s.frames[i])
	f.ID = id
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return wall.Frame{}, err
	}
	s.frames[i] = f
	return f, nil
}

// ReplaceFrame swaps in a whole frame with the same id.
func (s *Scene) ReplaceFrame(f wall.Frame) (wall.Frame, error) {
	i := s.index(f.ID)
	if i < 0 {
		return wall.Frame{}, fmt.Errorf("%w: %s", ErrFrameNotFound, f.ID)
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return wall.Frame{}, err
	}
	s.frames[i] = f
	return f, nil
}

func (s *Scene) DeleteFrame(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFrameNotFound, id)
	}
	s.frames = slices.Delete(s.frames, i, i+1)
	s.inter.Forget(id)
	if s.images != nil {
		s.images.Forget(id)
	}
	return nil
}

// PatchWall merges patch into the wall, rejecting invalid sizes.
func (s *Scene) PatchWall(patch wall.WallPatch) (wall.Wall, error) {
	w := patch.Apply(s.wall)
	if err := w.Validate(); err != nil {
		return s.wall, err
	}
	s.wall = w
	return w, nil
}

func (s *Scene) ReplaceWall(w wall.Wall) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.wall = w
	return nil
}

// Load replaces the wall and all frames. Everything is checked first; on
// error the scene is unchanged. Frames with a shape or fit mode this
// version does not know are kept and drawn as nothing, or as cover.
func (s *Scene) Load(w wall.Wall, frames []wall.Frame) error {
	if err := w.Validate(); err != nil {
		return err
	}
	frames = wall.NormalizeFrames(frames)
	for i, f := range frames {
		if err := f.CheckNumbers(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	for _, f := range s.frames {
		s.inter.Forget(f.ID)
		if s.images != nil {
			s.images.Forget(f.ID)
		}
	}
	s.wall = w
	s.frames = frames
	log.Printf("scene: loaded %vx%v wall with %d frames", w.Width, w.Height, len(frames))
	return nil
}

// Reset restores the default wall with a single default frame.
func (s *Scene) Reset() {
	if err := s.Load(wall.DefaultWall(), []wall.Frame{wall.NewFrame()}); err != nil {
		panic(err)
	}
}

// Snapshot is a deep copy of the scene state.
type Snapshot struct {
	Wall     wall.Wall
	Frames   []wall.Frame
	View     Viewport
	Selected string
}

func (s *Scene) Snapshot() Snapshot {
	sel, _ := s.inter.Selected()
	src := Snapshot{Wall: s.wall, Frames: s.frames, View: s.view, Selected: sel}
	var out Snapshot
	if err := copier.CopyWithOption(&out, &src, copier.Option{DeepCopy: true}); err != nil {
		log.Printf("scene: snapshot: %v", err)
		src.Frames = slices.Clone(s.frames)
		return src
	}
	return out
}

// HitTest returns the top-most frame containing the wall point p.
func (s *Scene) HitTest(p geom.Point) (wall.Frame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.inter.Transient(s.frames[i])
		if panel.Contains(f, p) {
			return s.frames[i], true
		}
	}
	return wall.Frame{}, false
}

// Preload asks for every picture the scene shows, so that a following
// wait on the image source covers them all.
func (s *Scene) Preload() {
	if s.images == nil {
		return
	}
	s.images.Image(imageload.BackgroundSlot, s.wall.ImageKey())
	for _, f := range s.frames {
		s.images.Image(f.ID, f.ImageKey())
	}
}

func (s *Scene) image(slot, key string) image.Image {
	if s.images == nil {
		return nil
	}
	img, ok := s.images.Image(slot, key)
	if !ok {
		return nil
	}
	return img
}

// panels builds the layers to paint, bottom first.
func (s *Scene) panels(adorn bool) []panel.Panelled {
	panels := make([]panel.Panelled, 0, len(s.frames)+1)
	panels = append(panels, panel.NewBackgroundPanel(s.wall, s.image(imageload.BackgroundSlot, s.wall.ImageKey())))
	for _, f := range s.frames {
		f = s.inter.Transient(f)
		selected := adorn && s.inter.IsSelected(f.ID)
		panels = append(panels, panel.NewFramePanel(f, s.image(f.ID, f.ImageKey()), selected))
	}
	return panels
}

func (s *Scene) render(dc *gg.Context, scale float64, adorn bool) {
	for _, p := range s.panels(adorn) {
		p.Render(dc, scale)
	}
}

// Preview renders the current view into a w x h image, with pan, zoom and
// the selection adornment applied.
func (s *Scene) Preview(w, h int) *image.RGBA {
	dc := gg.NewContext(max(w, 1), max(h, 1))
	dc.SetColor(Backdrop)
	dc.Clear()
	dc.Translate(s.view.OffsetX, s.view.OffsetY)
	dc.Scale(s.view.Scale, s.view.Scale)
	s.render(dc, s.view.Scale, true)
	return dc.Image().(*image.RGBA)
}

// CanonicalSize is the pixel size of the wall rendered at ratio.
func (s *Scene) CanonicalSize(ratio float64) image.Point {
	return image.Pt(
		int(math.Ceil(s.wall.Width*ratio)),
		int(math.Ceil(s.wall.Height*ratio)),
	)
}

// Canonical renders the wall alone, ignoring the view, at ratio device
// pixels per wall unit. The selection is only drawn when adorn is set.
func (s *Scene) Canonical(ratio float64, adorn bool) *gg.Context {
	size := s.CanonicalSize(ratio)
	dc := gg.NewContext(size.X, size.Y)
	dc.Scale(ratio, ratio)
	s.render(dc, ratio, adorn)
	return dc
}
