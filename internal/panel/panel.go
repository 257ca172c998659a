package panel

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/gift"
	"github.com/drummonds/artwall/internal/drawing"
	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/shape"
	"github.com/drummonds/artwall/internal/wall"
	"github.com/fogleman/gg"
)

// Panelled is anything that can paint itself onto the wall surface. scale
// is the number of device pixels per wall unit under the current transform.
type Panelled interface {
	Render(dc *gg.Context, scale float64)
}

// NodeKind orders the parts of a frame; nodes are drawn in this order.
type NodeKind int

const (
	NodeMat NodeKind = iota
	NodeFrame
	NodeImage
	NodeSelection
	NodeHandle
)

// Node is one drawing step. A zero alpha Fill or Stroke is not drawn.
// StrokeWidth is in wall units.
type Node struct {
	Kind        NodeKind
	Path        shape.Path
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64

	// NodeImage only
	Clip *shape.Path
	Fit  drawing.FitResult
}

var (
	white         = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	black         = color.NRGBA{A: 0xFF}
	selectionBlue = color.NRGBA{R: 0x18, G: 0x90, B: 0xFF, A: 0xFF}
)

const (
	selectionStroke = 2.0 // device pixels
	AnchorSize      = 8.0 // device pixels
)

// Options carries the per render pass inputs of Build.
type Options struct {
	ImageSize image.Point // zero when no picture is loaded
	Selected  bool
	Scale     float64
}

// Build lays out the drawing steps of one frame: mat, frame, clipped
// picture, selection box and resize anchors. An unknown shape gives nil.
func Build(f wall.Frame, o Options) []Node {
	g := f.Geometry()
	if g.Empty() {
		return nil
	}
	scale := o.Scale
	if scale <= 0 {
		scale = 1
	}

	nodes := make([]Node, 0, 12)
	if g.Mat != nil {
		nodes = append(nodes, Node{Kind: NodeMat, Path: *g.Mat, Fill: drawing.ColourOr(f.MatColor, white)})
	}
	nodes = append(nodes, Node{
		Kind:        NodeFrame,
		Path:        *g.Frame,
		Fill:        white,
		Stroke:      drawing.ColourOr(f.BorderColor, black),
		StrokeWidth: f.BorderWidth,
	})

	if o.ImageSize.X > 0 && o.ImageSize.Y > 0 {
		fit, err := drawing.ComputeFit(float64(o.ImageSize.X), float64(o.ImageSize.Y), f.ContentRect(), f.FitMode)
		if err == nil {
			n := Node{Kind: NodeImage, Fit: fit}
			if f.Shape == shape.Circle || f.Shape == shape.Wedge {
				n.Clip = g.Clip
			}
			nodes = append(nodes, n)
		}
	}

	if o.Selected {
		box := f.Rect()
		nodes = append(nodes, Node{
			Kind:        NodeSelection,
			Path:        shape.Path{Kind: shape.PathRect, Rect: box},
			Stroke:      selectionBlue,
			StrokeWidth: selectionStroke / scale,
		})
		half := AnchorSize / scale / 2
		for _, h := range Handles {
			c := h.Point(box)
			nodes = append(nodes, Node{
				Kind:        NodeHandle,
				Path:        shape.Path{Kind: shape.PathRect, Rect: geom.R(c.X-half, c.Y-half, 2*half, 2*half), CornerRadius: half},
				Fill:        white,
				Stroke:      selectionBlue,
				StrokeWidth: 1 / scale,
			})
		}
	}
	return nodes
}

// Contains reports whether p hits the frame or its mat.
func Contains(f wall.Frame, p geom.Point) bool {
	g := f.Geometry()
	if g.Empty() {
		return false
	}
	if g.Mat != nil && g.Mat.Contains(p) {
		return true
	}
	return g.Frame.Contains(p)
}

// Draw paints nodes onto dc. img is the frame's picture, used by the
// NodeImage step; it may be nil.
func Draw(dc *gg.Context, nodes []Node, img image.Image, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	for _, n := range nodes {
		if n.Kind == NodeImage {
			drawImage(dc, n, img, scale)
			continue
		}
		tracePath(dc, n.Path)
		stroke := n.Stroke.A > 0 && n.StrokeWidth > 0
		if n.Fill.A > 0 {
			dc.SetColor(n.Fill)
			if stroke {
				dc.FillPreserve()
			} else {
				dc.Fill()
			}
		}
		if stroke {
			dc.SetColor(n.Stroke)
			// gg strokes in device pixels
			dc.SetLineWidth(n.StrokeWidth * scale)
			dc.Stroke()
		}
		dc.ClearPath()
	}
}

func tracePath(dc *gg.Context, p shape.Path) {
	switch p.Kind {
	case shape.PathCircle:
		dc.DrawCircle(p.Center.X, p.Center.Y, p.Radius)
	case shape.PathPolygon:
		if len(p.Points) == 0 {
			return
		}
		dc.MoveTo(p.Points[0].X, p.Points[0].Y)
		for _, pt := range p.Points[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
		dc.ClosePath()
	default:
		r := p.Rect
		if p.CornerRadius > 0 {
			dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, p.CornerRadius)
		} else {
			dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		}
	}
}

// drawImage crops and resamples the picture to its device size first so
// that the final blit is 1:1 whatever the zoom.
func drawImage(dc *gg.Context, n Node, img image.Image, scale float64) {
	if img == nil {
		return
	}
	b := img.Bounds()
	crop := n.Fit.Crop.Image().Add(b.Min).Intersect(b)
	w := int(math.Round(n.Fit.Place.W * scale))
	h := int(math.Round(n.Fit.Place.H * scale))
	if crop.Empty() || w < 1 || h < 1 {
		return
	}
	g := gift.New(
		gift.Crop(crop),
		gift.Resize(w, h, gift.LinearResampling),
	)
	pic := image.NewNRGBA(g.Bounds(b))
	g.Draw(pic, img)

	dc.Push()
	if n.Clip != nil {
		tracePath(dc, *n.Clip)
		dc.Clip()
	}
	dc.Translate(n.Fit.Place.X, n.Fit.Place.Y)
	dc.Scale(1/scale, 1/scale)
	dc.DrawImage(pic, 0, 0)
	dc.Pop()
}

// FramePanel draws one frame. Panels are rebuilt on every render pass from
// the current frame state, so they never go stale.
type FramePanel struct {
	Frame    wall.Frame
	Image    image.Image
	Selected bool
}

func NewFramePanel(f wall.Frame, img image.Image, selected bool) *FramePanel {
	return &FramePanel{Frame: f, Image: img, Selected: selected}
}

// Nodes returns the drawing steps at the given scale.
func (p *FramePanel) Nodes(scale float64) []Node {
	o := Options{Selected: p.Selected, Scale: scale}
	if p.Image != nil {
		o.ImageSize = p.Image.Bounds().Size()
	}
	return Build(p.Frame, o)
}

func (p *FramePanel) Render(dc *gg.Context, scale float64) {
	Draw(dc, p.Nodes(scale), p.Image, scale)
}

// BackgroundPanel paints the wall colour and, over it, the background
// picture stretched to the wall size at Opacity.
type BackgroundPanel struct {
	Wall    wall.Wall
	Image   image.Image
	Opacity float64
}

// BackgroundOpacity lets the frames stand out from the background picture.
const BackgroundOpacity = 0.8

func NewBackgroundPanel(w wall.Wall, img image.Image) *BackgroundPanel {
	return &BackgroundPanel{Wall: w, Image: img, Opacity: BackgroundOpacity}
}

func (p *BackgroundPanel) Render(dc *gg.Context, scale float64) {
	dc.DrawRectangle(0, 0, p.Wall.Width, p.Wall.Height)
	dc.SetColor(drawing.ColourOr(p.Wall.BackgroundColor, white))
	dc.Fill()
	if p.Image == nil {
		return
	}
	dst, ok := dc.Image().(draw.Image)
	if !ok {
		return
	}
	x0, y0 := dc.TransformPoint(0, 0)
	x1, y1 := dc.TransformPoint(p.Wall.Width, p.Wall.Height)
	dr := geom.R(x0, y0, x1-x0, y1-y0).Image()
	drawing.ScaleOver(dst, dr, p.Image, p.Opacity)
}
