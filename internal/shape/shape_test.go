package shape

import (
	"testing"

	"github.com/drummonds/artwall/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectangle(t *testing.T) {
	g := Compute(Rect, 10, 20, 120, 160, 0, geom.R(14, 24, 112, 152))
	require.False(t, g.Empty())
	assert.Nil(t, g.Mat)
	assert.Nil(t, g.Clip)
	assert.Equal(t, PathRect, g.Frame.Kind)
	assert.Equal(t, geom.R(10, 20, 120, 160), g.Frame.Rect)
}

func TestRectangleMat(t *testing.T) {
	g := Compute(Rect, 10, 20, 120, 160, 8, geom.Rect{})
	require.NotNil(t, g.Mat)
	assert.Equal(t, geom.R(2, 12, 136, 176), g.Mat.Rect)
}

func TestSquareUsesShortSide(t *testing.T) {
	g := Compute(Square, 0, 0, 120, 90, 5, geom.Rect{})
	assert.Equal(t, geom.R(0, 0, 90, 90), g.Frame.Rect)
	assert.Equal(t, geom.R(-5, -5, 100, 100), g.Mat.Rect)
}

func TestCircle(t *testing.T) {
	content := geom.R(10, 10, 80, 80)
	g := Compute(Circle, 0, 0, 100, 140, 6, content)
	assert.Equal(t, PathCircle, g.Frame.Kind)
	assert.Equal(t, geom.Pt(50, 50), g.Frame.Center)
	assert.Equal(t, 50.0, g.Frame.Radius)
	assert.Equal(t, 56.0, g.Mat.Radius)
	require.NotNil(t, g.Clip)
	assert.Equal(t, geom.Pt(50, 50), g.Clip.Center)
	assert.Equal(t, 40.0, g.Clip.Radius)
	assert.Equal(t, geom.R(0, 0, 100, 100), g.Frame.Bounds())
}

func TestCircleDegenerateContent(t *testing.T) {
	g := Compute(Circle, 0, 0, 40, 40, 0, geom.R(25, 25, -10, -10))
	assert.Equal(t, 0.0, g.Clip.Radius)
	assert.Nil(t, g.Mat)
}

func TestWedge(t *testing.T) {
	g := Compute(Wedge, 0, 0, 100, 100, 4, geom.R(4, 4, 92, 92))
	require.NotNil(t, g.Frame)
	assert.Equal(t, PathPolygon, g.Frame.Kind)
	// centre plus a sample every 2 degrees over 90 degrees
	assert.Len(t, g.Frame.Points, 47)
	assert.Equal(t, geom.Pt(50, 50), g.Frame.Points[0])
	assert.InDelta(t, 100, g.Frame.Points[1].X, 1e-9)
	assert.InDelta(t, 54, g.Mat.Points[1].X-50, 1e-9)
	assert.InDelta(t, 46, g.Clip.Points[1].X-50, 1e-9)
	assert.Len(t, g.Clip.Points, 47)

	assert.True(t, g.Frame.Contains(geom.Pt(60, 60)))
	assert.False(t, g.Frame.Contains(geom.Pt(40, 40)))
}

func TestUnknownShape(t *testing.T) {
	g := Compute(Kind("hexagon"), 0, 0, 100, 100, 10, geom.R(0, 0, 100, 100))
	assert.True(t, g.Empty())
	assert.Nil(t, g.Mat)
	assert.Nil(t, g.Clip)
	assert.False(t, Kind("hexagon").Valid())
}

func TestSize(t *testing.T) {
	w, h := Size(Circle, 100, 60)
	assert.Equal(t, [2]float64{60, 60}, [2]float64{w, h})
	w, h = Size(Wedge, 100, 60)
	assert.Equal(t, [2]float64{100, 60}, [2]float64{w, h})
}
