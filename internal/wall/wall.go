// Package wall is the data model: the wall being decorated and the ordered
// list of frames hung on it.
package wall

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/drummonds/artwall/internal/drawing"
	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/shape"
	"github.com/google/uuid"
)

// MinFrameSize is the smallest width or height a frame may have.
const MinFrameSize = 40.0

// EmbeddedPlaceholder stands in for embedded image data in exported
// configurations. It never resolves to an image.
const EmbeddedPlaceholder = "embedded-image"

var (
	ErrInvalidWall  = errors.New("invalid wall")
	ErrInvalidFrame = errors.New("invalid frame")
)

// Wall is the background everything is drawn on.
type Wall struct {
	Width           float64 `json:"width" yaml:"width"`
	Height          float64 `json:"height" yaml:"height"`
	BackgroundColor string  `json:"bgColor" yaml:"bgColor"`
	BackgroundImage string  `json:"bgImage,omitempty" yaml:"bgImage"`
}

// DefaultWall is an 800x500 light grey wall.
func DefaultWall() Wall {
	return Wall{Width: 800, Height: 500, BackgroundColor: "#f5f5f5"}
}

func (w Wall) Validate() error {
	if !(w.Width > 0) || !(w.Height > 0) || math.IsInf(w.Width, 0) || math.IsInf(w.Height, 0) {
		return fmt.Errorf("%w: size %vx%v must be positive", ErrInvalidWall, w.Width, w.Height)
	}
	return nil
}

// Frame is one picture frame on the wall. Painting holds the image
// reference used for drawing: embedded "data:" URL, http(s) URL, file path or
// "photoprism:<uid>". PaintingURL repeats it when it came from a URL.
type Frame struct {
	ID          string          `json:"id" yaml:"id"`
	Shape       shape.Kind      `json:"shape" yaml:"shape"`
	X           float64         `json:"x" yaml:"x"`
	Y           float64         `json:"y" yaml:"y"`
	Width       float64         `json:"width" yaml:"width"`
	Height      float64         `json:"height" yaml:"height"`
	BorderWidth float64         `json:"borderWidth" yaml:"borderWidth"`
	BorderColor string          `json:"borderColor" yaml:"borderColor"`
	MatWidth    float64         `json:"matWidth" yaml:"matWidth"`
	MatColor    string          `json:"matColor" yaml:"matColor"`
	Painting    string          `json:"painting,omitempty" yaml:"painting"`
	PaintingURL string          `json:"paintingUrl,omitempty" yaml:"paintingUrl"`
	FitMode     drawing.FitMode `json:"fitMode" yaml:"fitMode"`
}

// NewFrame returns a frame with the editor defaults and a fresh id.
func NewFrame() Frame {
	return Frame{
		ID:          uuid.NewString(),
		Shape:       shape.Rect,
		X:           100,
		Y:           100,
		Width:       120,
		Height:      160,
		BorderWidth: 4,
		BorderColor: "#333",
		MatWidth:    0,
		MatColor:    "#fff",
		FitMode:     drawing.FitCover,
	}
}

// Size is the drawn size, square and circle frames using the short side.
func (f Frame) Size() (float64, float64) {
	return shape.Size(f.Shape, f.Width, f.Height)
}

// Rect is the frame's box in wall coordinates.
func (f Frame) Rect() geom.Rect {
	w, h := f.Size()
	return geom.R(f.X, f.Y, w, h)
}

// ContentRect is the picture area left inside the border and mat.
// It may be empty when the insets are larger than the frame.
func (f Frame) ContentRect() geom.Rect {
	return f.Rect().Inset(f.BorderWidth + f.MatWidth)
}

// Geometry returns the outlines for drawing the frame.
func (f Frame) Geometry() shape.Geometry {
	return shape.Compute(f.Shape, f.X, f.Y, f.Width, f.Height, f.MatWidth, f.ContentRect())
}

// ImageKey is the reference the picture is loaded from, empty when the
// frame has nothing to show.
func (f Frame) ImageKey() string {
	return imageKey(f.Painting)
}

func (w Wall) ImageKey() string {
	return imageKey(w.BackgroundImage)
}

func imageKey(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == EmbeddedPlaceholder {
		return ""
	}
	return ref
}

// Normalize enforces the frame invariants: an id, the minimum size,
// non-negative insets and a fit mode.
func (f Frame) Normalize() Frame {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.Width = math.Max(MinFrameSize, f.Width)
	f.Height = math.Max(MinFrameSize, f.Height)
	f.BorderWidth = math.Max(0, f.BorderWidth)
	f.MatWidth = math.Max(0, f.MatWidth)
	if f.FitMode == "" {
		f.FitMode = drawing.FitCover
	}
	return f
}

// CheckNumbers rejects NaN and infinite geometry.
func (f Frame) CheckNumbers() error {
	for name, v := range map[string]float64{
		"x": f.X, "y": f.Y, "width": f.Width, "height": f.Height,
		"borderWidth": f.BorderWidth, "matWidth": f.MatWidth,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a number", ErrInvalidFrame, name)
		}
	}
	return nil
}

// Validate rejects values an edit form could never produce. Sizes below
// MinFrameSize are clamped by Normalize rather than rejected.
func (f Frame) Validate() error {
	if err := f.CheckNumbers(); err != nil {
		return err
	}
	if !f.Shape.Valid() {
		return fmt.Errorf("%w: unknown shape %q", ErrInvalidFrame, f.Shape)
	}
	if !f.FitMode.Valid() {
		return fmt.Errorf("%w: unknown fit mode %q", ErrInvalidFrame, f.FitMode)
	}
	return nil
}

// NormalizeFrames prepares a loaded frame list: every frame normalised and
// duplicate ids replaced so the ids stay unique.
func NormalizeFrames(frames []Frame) []Frame {
	out := make([]Frame, 0, len(frames))
	seen := make(map[string]bool, len(frames))
	for _, f := range frames {
		f = f.Normalize()
		if seen[f.ID] {
			f.ID = uuid.NewString()
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}
