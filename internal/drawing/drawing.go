package drawing

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	xdraw "golang.org/x/image/draw"
)

// CopyRGBAtoBGRA packs the r region of src into dst as 4 byte BGRX pixels,
// the layout an X server wants for a 24 bit ZPixmap. dst must hold at
// least r.Dx()*r.Dy()*4 bytes.
func CopyRGBAtoBGRA(dst []byte, src *image.RGBA, r image.Rectangle) {
	r = r.Intersect(src.Bounds())
	w := r.Dx() * 4
	o := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := src.PixOffset(r.Min.X, y)
		// Small cap improves performance, see https://golang.org/issue/27857
		s := src.Pix[i : i+w : i+w]
		d := dst[o : o+w : o+w]
		for x := 0; x < w; x += 4 {
			d[x], d[x+1], d[x+2], d[x+3] = s[x+2], s[x+1], s[x], s[x+3]
		}
		o += w
	}
}

// ScaleOver stretches src over the dr rectangle of dst and composites it
// with the given opacity (0 transparent, 1 opaque).
func ScaleOver(dst draw.Image, dr image.Rectangle, src image.Image, opacity float64) {
	clip := dr.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	if opacity >= 1 {
		xdraw.BiLinear.Scale(dst, dr, src, src.Bounds(), draw.Over, nil)
		return
	}
	tmp := image.NewRGBA(clip)
	xdraw.BiLinear.Scale(tmp, dr, src, src.Bounds(), draw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: uint8(clamp01(opacity)*255 + 0.5)})
	draw.DrawMask(dst, clip, tmp, clip.Min, mask, image.Point{}, draw.Over)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

var ColourNameToRGBA = map[string]color.NRGBA{
	"black":       {R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
	"white":       {R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	"darkgray":    {R: 0x55, G: 0x57, B: 0x53, A: 0xFF},
	"gray":        {R: 0x88, G: 0x8A, B: 0x85, A: 0xFF},
	"red":         {R: 0xEF, G: 0x29, B: 0x29, A: 0xFF},
	"green":       {R: 0x8A, G: 0xE2, B: 0x34, A: 0xFF},
	"yellow":      {R: 0xFC, G: 0xE9, B: 0x4F, A: 0xFF},
	"blue":        {R: 0x72, G: 0x9F, B: 0xCF, A: 0xFF},
	"magenta":     {R: 0xEE, G: 0x38, B: 0xDA, A: 0xFF},
	"cyan":        {R: 0x34, G: 0xE2, B: 0xE2, A: 0xFF},
	"gold":        {R: 0xC9, G: 0xA2, B: 0x27, A: 0xFF},
	"walnut":      {R: 0x5C, G: 0x40, B: 0x33, A: 0xFF},
	"ivory":       {R: 0xFF, G: 0xFF, B: 0xF0, A: 0xFF},
	"transparent": {},
}

// ParseColour understands the names in ColourNameToRGBA and CSS style hex
// colours: #rgb, #rrggbb and #rrggbbaa.
func ParseColour(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := ColourNameToRGBA[s]; ok {
		return c, nil
	}
	alpha := uint8(0xFF)
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, err
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// ColourOr is ParseColour with a fallback for unparsable input.
func ColourOr(s string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseColour(s)
	if err != nil {
		return fallback
	}
	return c
}
