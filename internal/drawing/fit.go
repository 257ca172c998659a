package drawing

import (
	"errors"
	"math"

	"github.com/drummonds/artwall/internal/geom"
)

// FitMode is the policy used to put a picture of any aspect ratio into a
// frame's content rectangle.
type FitMode string

const (
	// FitCover keeps the aspect ratio and fills the content, cropping the source.
	FitCover FitMode = "cover"
	// FitContain keeps the aspect ratio and shows the whole source, letterboxed.
	FitContain FitMode = "contain"
	// FitFill stretches the whole source over the whole content.
	FitFill FitMode = "fill"
	// FitNone draws the source at its natural size, centred and cropped.
	FitNone FitMode = "none"
)

// FitModes lists the supported modes in display order.
var FitModes = []FitMode{FitCover, FitContain, FitFill, FitNone}

// Valid reports whether m is one of the known fit modes.
func (m FitMode) Valid() bool {
	switch m {
	case FitCover, FitContain, FitFill, FitNone:
		return true
	}
	return false
}

// ErrInvalidFitInput is returned for a degenerate content rectangle or
// image size. Callers draw nothing rather than report it.
var ErrInvalidFitInput = errors.New("invalid fit input")

// FitResult says which part of the source to sample (Crop, in source pixels)
// and where to draw it (Place, in the same space as the content rectangle).
type FitResult struct {
	Crop  geom.Rect
	Place geom.Rect
}

// ComputeFit maps a naturalW x naturalH image into content using mode.
// Unknown modes are treated as cover.
func ComputeFit(naturalW, naturalH float64, content geom.Rect, mode FitMode) (FitResult, error) {
	if content.Empty() || naturalW <= 0 || naturalH <= 0 {
		return FitResult{}, ErrInvalidFitInput
	}
	full := geom.R(0, 0, naturalW, naturalH)
	imgRatio := naturalW / naturalH
	contentRatio := content.W / content.H

	switch mode {
	case FitContain:
		place := content
		if imgRatio > contentRatio {
			// wider than the frame: full width, letterbox top and bottom
			place.H = content.W / imgRatio
			place.Y = content.Y + (content.H-place.H)/2
		} else {
			place.W = content.H * imgRatio
			place.X = content.X + (content.W-place.W)/2
		}
		return FitResult{Crop: full, Place: place}, nil

	case FitFill:
		return FitResult{Crop: full, Place: content}, nil

	case FitNone:
		return fitNone(naturalW, naturalH, content), nil

	default:
		crop := full
		if imgRatio > contentRatio {
			// wider than the frame: trim left and right
			crop.W = naturalH * contentRatio
			crop.X = (naturalW - crop.W) / 2
		} else {
			crop.H = naturalW / contentRatio
			crop.Y = (naturalH - crop.H) / 2
		}
		return FitResult{Crop: crop, Place: content}, nil
	}
}

// fitNone centres the image at 1:1. Offsets are floored so the picture sits
// on whole pixels whichever way the odd pixel falls.
func fitNone(naturalW, naturalH float64, content geom.Rect) FitResult {
	crop := geom.R(0, 0, naturalW, naturalH)
	place := geom.Rect{
		W: math.Min(naturalW, content.W),
		H: math.Min(naturalH, content.H),
	}
	place.X = content.X + math.Floor((content.W-place.W)/2)
	place.Y = content.Y + math.Floor((content.H-place.H)/2)

	if naturalW > content.W {
		crop.X = math.Floor((naturalW - content.W) / 2)
		crop.W = content.W
	}
	if naturalH > content.H {
		crop.Y = math.Floor((naturalH - content.H) / 2)
		crop.H = content.H
	}
	return FitResult{Crop: crop, Place: place}
}
