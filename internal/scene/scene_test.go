package scene

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/shape"
	"github.com/drummonds/artwall/internal/wall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedImages serves one picture for every non-empty key.
type fixedImages struct {
	img       image.Image
	forgotten []string
}

func (f *fixedImages) Image(slot, key string) (image.Image, bool) {
	if key == "" {
		return nil, false
	}
	return f.img, true
}

func (f *fixedImages) Forget(slot string) { f.forgotten = append(f.forgotten, slot) }

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func only(t *testing.T, s *Scene) wall.Frame {
	t.Helper()
	frames := s.Frames()
	require.Len(t, frames, 1)
	return frames[0]
}

func TestNewSceneDefaults(t *testing.T) {
	s := New(nil)
	assert.Equal(t, wall.DefaultWall(), s.Wall())
	f := only(t, s)
	assert.Equal(t, geom.R(100, 100, 120, 160), f.Rect())
	assert.Equal(t, DefaultViewport(), s.View())
}

// Scenario: one zoom-in notch at the pointer keeps the wall point under it.
func TestZoomAnchorsAtPointer(t *testing.T) {
	s := New(nil)
	p := geom.Pt(50, 50)
	before := s.ScreenToWorld(p)
	v := s.Zoom(p, -100)
	assert.InDelta(t, 1.05, v.Scale, 1e-9)
	assert.InDelta(t, -2.5, v.OffsetX, 1e-9)
	assert.InDelta(t, -2.5, v.OffsetY, 1e-9)
	after := s.WorldToScreen(before)
	assert.InDelta(t, p.X, after.X, 1e-9)
	assert.InDelta(t, p.Y, after.Y, 1e-9)

	s.Zoom(p, 100)
	assert.InDelta(t, 1.0, s.View().Scale, 1e-9)
}

func TestZoomClamps(t *testing.T) {
	s := New(nil)
	for i := 0; i < 200; i++ {
		s.Zoom(geom.Pt(10, 10), -1)
	}
	assert.Equal(t, MaxScale, s.View().Scale)
	for i := 0; i < 400; i++ {
		s.Zoom(geom.Pt(10, 10), 1)
	}
	assert.Equal(t, MinScale, s.View().Scale)
	assert.Equal(t, DefaultViewport(), s.ResetView())
}

func TestFitView(t *testing.T) {
	s := New(nil)
	assert.Equal(t, Viewport{Scale: 0.5}, s.FitView(400, 600))
	assert.Equal(t, Viewport{Scale: 1}, s.FitView(4000, 4000))
}

func TestDragFrameWithPointer(t *testing.T) {
	s := New(nil)
	id := only(t, s).ID
	s.PointerDown(geom.Pt(150, 150))
	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, id, sel.ID)

	s.PointerMove(geom.Pt(170, 160))
	s.PointerMove(geom.Pt(170, 160))
	// not committed until the pointer is released
	assert.Equal(t, 100.0, only(t, s).X)
	require.True(t, s.PointerUp(geom.Pt(170, 160)))
	f := only(t, s)
	assert.Equal(t, 120.0, f.X)
	assert.Equal(t, 110.0, f.Y)
}

func TestDragUnderZoom(t *testing.T) {
	s := New(nil)
	s.SetView(Viewport{Scale: 2, OffsetX: -100, OffsetY: -100})
	s.PointerDown(geom.Pt(200, 200)) // wall (150,150)
	s.PointerUp(geom.Pt(220, 200))
	assert.Equal(t, 110.0, only(t, s).X)
}

func TestPanOnEmptyWall(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Select(only(t, s).ID))
	s.PointerDown(geom.Pt(10, 10))
	_, ok := s.Selected()
	assert.False(t, ok)
	s.PointerMove(geom.Pt(30, 40))
	s.PointerUp(geom.Pt(30, 40))
	assert.Equal(t, Viewport{Scale: 1, OffsetX: 20, OffsetY: 30}, s.View())
	assert.Equal(t, 100.0, only(t, s).X)
}

func TestResizeWithPointer(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Select(only(t, s).ID))
	s.PointerDown(geom.Pt(220, 260)) // bottom-right anchor
	s.PointerUp(geom.Pt(240, 300))
	f := only(t, s)
	assert.Equal(t, 140.0, f.Width)
	assert.Equal(t, 200.0, f.Height)
	assert.Equal(t, 100.0, f.X)
}

// A circle dragged from 100 wide towards 30 stops at the minimum size.
func TestResizeCircleWithPointerFloors(t *testing.T) {
	s := New(nil)
	circle, size := shape.Circle, 100.0
	f, err := s.UpdateFrame(only(t, s).ID, wall.FramePatch{Shape: &circle, Width: &size, Height: &size})
	require.NoError(t, err)
	require.NoError(t, s.Select(f.ID))

	s.PointerDown(geom.Pt(200, 200)) // bottom-right anchor
	assert.True(t, s.PointerMove(geom.Pt(130, 130)))
	assert.True(t, s.PointerUp(geom.Pt(130, 130)))

	f = only(t, s)
	assert.Equal(t, wall.MinFrameSize, f.Width)
	assert.Equal(t, wall.MinFrameSize, f.Height)
	assert.Equal(t, 100.0, f.X)
	assert.Equal(t, 100.0, f.Y)
}

func TestHitTestTopMost(t *testing.T) {
	s := New(nil)
	below := only(t, s)
	above, err := s.AddFrame(wall.NewFrame())
	require.NoError(t, err)
	assert.NotEqual(t, below.ID, above.ID)
	hit, ok := s.HitTest(geom.Pt(150, 150))
	require.True(t, ok)
	assert.Equal(t, above.ID, hit.ID)
	_, ok = s.HitTest(geom.Pt(5, 5))
	assert.False(t, ok)
}

func TestAddFrameKeepsIDsUnique(t *testing.T) {
	s := New(nil)
	f, err := s.AddFrame(only(t, s))
	require.NoError(t, err)
	assert.NotEqual(t, s.Frames()[0].ID, f.ID)
}

func TestUpdateFrame(t *testing.T) {
	s := New(nil)
	id := only(t, s).ID
	w := 10.0
	f, err := s.UpdateFrame(id, wall.FramePatch{Width: &w})
	require.NoError(t, err)
	assert.Equal(t, wall.MinFrameSize, f.Width)

	bad := shape.Kind("blob")
	_, err = s.UpdateFrame(id, wall.FramePatch{Shape: &bad})
	assert.True(t, errors.Is(err, wall.ErrInvalidFrame))
	assert.Equal(t, shape.Rect, only(t, s).Shape)

	_, err = s.UpdateFrame("nope", wall.FramePatch{})
	assert.True(t, errors.Is(err, ErrFrameNotFound))
}

func TestDeleteFrameForgetsState(t *testing.T) {
	imgs := &fixedImages{}
	s := New(imgs)
	id := only(t, s).ID
	require.NoError(t, s.Select(id))
	require.NoError(t, s.DeleteFrame(id))
	assert.Empty(t, s.Frames())
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Contains(t, imgs.forgotten, id)
	assert.True(t, errors.Is(s.DeleteFrame(id), ErrFrameNotFound))
}

func TestLoadIsAllOrNothing(t *testing.T) {
	s := New(nil)
	before := s.Snapshot()
	err := s.Load(wall.Wall{Width: -1, Height: 10}, []wall.Frame{wall.NewFrame(), wall.NewFrame()})
	assert.True(t, errors.Is(err, wall.ErrInvalidWall))
	assert.Equal(t, before, s.Snapshot())

	require.NoError(t, s.Load(wall.Wall{Width: 300, Height: 200, BackgroundColor: "#fff"}, nil))
	assert.Empty(t, s.Frames())
	assert.Equal(t, 300.0, s.Wall().Width)

	s.Reset()
	assert.Equal(t, wall.DefaultWall(), s.Wall())
	assert.Len(t, s.Frames(), 1)
}

func TestSnapshotIsDeep(t *testing.T) {
	s := New(nil)
	snap := s.Snapshot()
	snap.Frames[0].X = 999
	assert.Equal(t, 100.0, only(t, s).X)
}

func TestPatchWall(t *testing.T) {
	s := New(nil)
	h := 0.0
	_, err := s.PatchWall(wall.WallPatch{Height: &h})
	assert.True(t, errors.Is(err, wall.ErrInvalidWall))
	assert.Equal(t, 500.0, s.Wall().Height)
}

func TestCanonicalRender(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	s := New(&fixedImages{img: solid(30, 40, red)})
	id := only(t, s).ID
	_, err := s.UpdateFrame(id, wall.EmbeddedImage("data:image/png;base64,AAAA"))
	require.NoError(t, err)
	zero := 0.0
	_, err = s.UpdateFrame(id, wall.FramePatch{BorderWidth: &zero})
	require.NoError(t, err)
	require.NoError(t, s.Select(id))

	dc := s.Canonical(2, false)
	out := dc.Image().(*image.RGBA)
	assert.Equal(t, image.Pt(1600, 1000), out.Bounds().Size())
	assert.Equal(t, color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}, out.RGBAAt(20, 20))
	assert.Equal(t, red, out.RGBAAt(320, 360))
	// no resize anchor in the export
	assert.Equal(t, color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}, out.RGBAAt(197, 360))

	adorned := s.Canonical(2, true).Image().(*image.RGBA)
	assert.NotEqual(t, color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}, adorned.RGBAAt(197, 360))
}

func TestPreviewAppliesView(t *testing.T) {
	s := New(nil)
	s.SetView(Viewport{Scale: 0.5, OffsetX: 10})
	out := s.Preview(200, 100)
	assert.Equal(t, image.Pt(200, 100), out.Bounds().Size())
	// left of the wall is backdrop
	assert.Equal(t, color.RGBA(Backdrop), out.RGBAAt(5, 50))
	assert.Equal(t, color.RGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}, out.RGBAAt(15, 5))
}
