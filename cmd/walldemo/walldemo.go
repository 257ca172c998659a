// Program walldemo lays out one frame of each shape, each with a different
// fit mode, and writes the wall as a PNG. It needs no network or display.
package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/drummonds/artwall/internal/drawing"
	"github.com/drummonds/artwall/internal/export"
	"github.com/drummonds/artwall/internal/imageload"
	"github.com/drummonds/artwall/internal/scene"
	"github.com/drummonds/artwall/internal/shape"
	"github.com/drummonds/artwall/internal/wall"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/pflag"
)

// testCard is a wide hue sweep, so cropping and letterboxing are easy to see.
func testCard(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		c := colorful.Hsv(360*float64(x)/float64(w), 0.7, 0.9)
		r, g, b := c.RGB255()
		for y := 0; y < h; y++ {
			shade := uint8(255 * y / h / 4)
			img.SetRGBA(x, y, color.RGBA{R: r - r/4 + shade/2, G: g - g/4 + shade/2, B: b - b/4 + shade/2, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Fatal(err)
	}
	return buf.Bytes()
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	out := pflag.StringP("out", "o", ".", "directory to write the PNG to")
	pflag.Parse()

	card := imageload.EncodeDataURL(testCard(320, 180))
	loader := imageload.New()
	s := scene.New(loader)

	layout := []struct {
		shape shape.Kind
		fit   drawing.FitMode
		x, y  float64
		mat   float64
	}{
		{shape.Rect, drawing.FitCover, 40, 60, 0},
		{shape.Square, drawing.FitContain, 220, 60, 10},
		{shape.Circle, drawing.FitFill, 420, 60, 6},
		{shape.Wedge, drawing.FitNone, 600, 60, 0},
	}
	frames := make([]wall.Frame, 0, len(layout))
	for _, l := range layout {
		f := wall.EmbeddedImage(card).Apply(wall.NewFrame())
		f.Shape, f.FitMode, f.X, f.Y, f.MatWidth = l.shape, l.fit, l.x, l.y, l.mat
		f.Width, f.Height = 160, 220
		frames = append(frames, f)
	}
	if err := s.Load(wall.DefaultWall(), frames); err != nil {
		log.Fatal(err)
	}

	s.Preload()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := loader.Wait(ctx); err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal(err)
	}
	path, err := export.File(s, *out, time.Now())
	if err != nil {
		log.Fatal(err)
	}
	abs, _ := filepath.Abs(path)
	log.Printf("wrote %s", abs)
}
