package wall

import (
	"errors"
	"math"
	"testing"

	"github.com/drummonds/artwall/internal/drawing"
	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewFrameDefaults(t *testing.T) {
	a, b := NewFrame(), NewFrame()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, shape.Rect, a.Shape)
	assert.Equal(t, drawing.FitCover, a.FitMode)
	assert.Equal(t, geom.R(100, 100, 120, 160), a.Rect())
	require.NoError(t, a.Validate())
}

func TestContentRect(t *testing.T) {
	f := NewFrame()
	f.BorderWidth = 4
	f.MatWidth = 6
	assert.Equal(t, geom.R(110, 110, 100, 140), f.ContentRect())

	f.MatWidth = 60
	assert.True(t, f.ContentRect().Empty())
}

func TestContentRectLockedShape(t *testing.T) {
	f := NewFrame()
	f.Shape = shape.Circle
	f.BorderWidth = 10
	assert.Equal(t, geom.R(110, 110, 100, 100), f.ContentRect())
}

func TestPatchSingleField(t *testing.T) {
	f := NewFrame()
	got := FramePatch{MatWidth: ptr(12.0)}.Apply(f)
	want := f
	want.MatWidth = 12
	assert.Equal(t, want, got)
	assert.True(t, FramePatch{}.Empty())
	assert.Equal(t, f, FramePatch{}.Apply(f))
}

func TestPatchZeroValueIsApplied(t *testing.T) {
	f := NewFrame()
	got := FramePatch{BorderWidth: ptr(0.0), X: ptr(0.0)}.Apply(f)
	assert.Equal(t, 0.0, got.BorderWidth)
	assert.Equal(t, 0.0, got.X)
}

func TestImageReferencesAreExclusive(t *testing.T) {
	f := ImageURL(" https://example.com/a.jpg ").Apply(NewFrame())
	assert.Equal(t, "https://example.com/a.jpg", f.Painting)
	assert.Equal(t, "https://example.com/a.jpg", f.PaintingURL)

	f = EmbeddedImage("data:image/png;base64,AAAA").Apply(f)
	assert.Equal(t, "data:image/png;base64,AAAA", f.Painting)
	assert.Empty(t, f.PaintingURL)

	f = FramePatch{PaintingURL: ptr("http://x/y.png")}.Apply(f)
	assert.Equal(t, "http://x/y.png", f.Painting)

	f = FramePatch{PaintingURL: ptr("")}.Apply(f)
	assert.Empty(t, f.Painting)
	assert.Empty(t, f.PaintingURL)
}

func TestClearingURLKeepsEmbeddedData(t *testing.T) {
	f := EmbeddedImage("data:image/png;base64,AAAA").Apply(NewFrame())
	f = FramePatch{PaintingURL: ptr("")}.Apply(f)
	assert.Equal(t, "data:image/png;base64,AAAA", f.Painting)
}

func TestNormalize(t *testing.T) {
	f := Frame{Shape: shape.Circle, Width: 10, Height: 300, BorderWidth: -2, MatWidth: -1}
	n := f.Normalize()
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, MinFrameSize, n.Width)
	assert.Equal(t, 300.0, n.Height)
	assert.Zero(t, n.BorderWidth)
	assert.Zero(t, n.MatWidth)
	assert.Equal(t, drawing.FitCover, n.FitMode)
}

func TestNormalizeFramesDeduplicatesIDs(t *testing.T) {
	in := []Frame{{ID: "a", Shape: shape.Rect}, {ID: "a", Shape: shape.Wedge}, {Shape: shape.Square}}
	out := NormalizeFrames(in)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.NotEqual(t, "a", out[1].ID)
	assert.NotEmpty(t, out[2].ID)
	assert.Equal(t, shape.Wedge, out[1].Shape)
}

func TestValidate(t *testing.T) {
	f := NewFrame()
	f.Shape = "blob"
	assert.True(t, errors.Is(f.Validate(), ErrInvalidFrame))

	f = NewFrame()
	f.FitMode = "stretch"
	assert.True(t, errors.Is(f.Validate(), ErrInvalidFrame))

	f = NewFrame()
	f.X = math.NaN()
	assert.True(t, errors.Is(f.Validate(), ErrInvalidFrame))
}

func TestWallValidate(t *testing.T) {
	require.NoError(t, DefaultWall().Validate())
	assert.True(t, errors.Is(Wall{Width: 0, Height: 10}.Validate(), ErrInvalidWall))
	assert.True(t, errors.Is(Wall{Width: 10, Height: math.NaN()}.Validate(), ErrInvalidWall))

	w := WallPatch{BackgroundColor: ptr("#000")}.Apply(DefaultWall())
	assert.Equal(t, "#000", w.BackgroundColor)
	assert.Equal(t, 800.0, w.Width)
}

func TestImageKey(t *testing.T) {
	f := NewFrame()
	assert.Empty(t, f.ImageKey())
	f.Painting = EmbeddedPlaceholder
	assert.Empty(t, f.ImageKey())
	f.Painting = " a.png "
	assert.Equal(t, "a.png", f.ImageKey())
}
