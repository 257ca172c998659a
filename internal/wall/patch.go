package wall

import (
	"strings"

	"github.com/drummonds/artwall/internal/drawing"
	"github.com/drummonds/artwall/internal/shape"
)

// FramePatch is a partial update. Nil fields are left alone, so any single
// field can be sent on its own.
type FramePatch struct {
	Shape       *shape.Kind      `json:"shape,omitempty"`
	X           *float64         `json:"x,omitempty"`
	Y           *float64         `json:"y,omitempty"`
	Width       *float64         `json:"width,omitempty"`
	Height      *float64         `json:"height,omitempty"`
	BorderWidth *float64         `json:"borderWidth,omitempty"`
	BorderColor *string          `json:"borderColor,omitempty"`
	MatWidth    *float64         `json:"matWidth,omitempty"`
	MatColor    *string          `json:"matColor,omitempty"`
	Painting    *string          `json:"painting,omitempty"`
	PaintingURL *string          `json:"paintingUrl,omitempty"`
	FitMode     *drawing.FitMode `json:"fitMode,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p FramePatch) Empty() bool {
	return p == FramePatch{}
}

// EmbeddedImage sets uploaded image data, clearing any URL.
func EmbeddedImage(dataURL string) FramePatch {
	empty := ""
	return FramePatch{Painting: &dataURL, PaintingURL: &empty}
}

// ImageURL points the frame at a remote image.
func ImageURL(url string) FramePatch {
	url = strings.TrimSpace(url)
	return FramePatch{Painting: &url, PaintingURL: &url}
}

// Position moves the frame.
func Position(x, y float64) FramePatch {
	return FramePatch{X: &x, Y: &y}
}

// Apply merges the patch onto f and returns the result. Setting Painting
// alone clears PaintingURL; setting PaintingURL alone also sets Painting.
func (p FramePatch) Apply(f Frame) Frame {
	if p.Shape != nil {
		f.Shape = *p.Shape
	}
	setf(&f.X, p.X)
	setf(&f.Y, p.Y)
	setf(&f.Width, p.Width)
	setf(&f.Height, p.Height)
	setf(&f.BorderWidth, p.BorderWidth)
	setf(&f.MatWidth, p.MatWidth)
	sets(&f.BorderColor, p.BorderColor)
	sets(&f.MatColor, p.MatColor)
	if p.FitMode != nil {
		f.FitMode = *p.FitMode
	}

	switch {
	case p.Painting != nil:
		f.Painting = *p.Painting
		f.PaintingURL = ""
		sets(&f.PaintingURL, p.PaintingURL)
	case p.PaintingURL != nil:
		url := strings.TrimSpace(*p.PaintingURL)
		if url == "" {
			if f.Painting == f.PaintingURL {
				f.Painting = ""
			}
		} else {
			f.Painting = url
		}
		f.PaintingURL = url
	}
	return f
}

// WallPatch is a partial update of the wall.
type WallPatch struct {
	Width           *float64 `json:"width,omitempty"`
	Height          *float64 `json:"height,omitempty"`
	BackgroundColor *string  `json:"bgColor,omitempty"`
	BackgroundImage *string  `json:"bgImage,omitempty"`
}

func (p WallPatch) Apply(w Wall) Wall {
	setf(&w.Width, p.Width)
	setf(&w.Height, p.Height)
	sets(&w.BackgroundColor, p.BackgroundColor)
	sets(&w.BackgroundImage, p.BackgroundImage)
	return w
}

func setf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func sets(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
