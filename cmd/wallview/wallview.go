// wallview shows a wall configuration in an X11 window.
//
//	wheel          zoom at the pointer
//	left button    select, drag or resize frames, pan on empty wall
//	middle button  export a PNG to the current directory
//	right button   reset the view
//	any key        quit
package main

import (
	"errors"
	"image"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/drummonds/artwall/internal/config"
	"github.com/drummonds/artwall/internal/drawing"
	"github.com/drummonds/artwall/internal/export"
	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/imageload"
	"github.com/drummonds/artwall/internal/scene"
	"github.com/drummonds/artwall/internal/settings"
	"github.com/spf13/pflag"
)

const (
	windowWidth  = 960
	windowHeight = 600
)

var errAtoms = errors.New("cannot intern WM atoms")

type window struct {
	X      *xgb.Conn
	wid    xproto.Window
	gc     xproto.Gcontext
	depth  byte
	maxReq int // bytes in one request
	width  int
	height int
	buf    []byte

	atomWmDeleteWindow xproto.Atom
	atomWmProtocols    xproto.Atom
}

func newWindow(width, height int) (*window, error) {
	X, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}

	setup := xproto.Setup(X)
	screen := setup.DefaultScreen(X)
	wid, _ := xproto.NewWindowId(X)
	xproto.CreateWindow(X, screen.RootDepth, wid, screen.Root,
		0, 0, uint16(width), uint16(height), 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			0xffe8e8e8,
			xproto.EventMaskExposure | xproto.EventMaskKeyPress | xproto.EventMaskStructureNotify |
				xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease | xproto.EventMaskPointerMotion,
		})

	// Set WM_PROTOCOLS to handle window close
	atomWmDeleteWindow, _ := xproto.InternAtom(X, false, uint16(len("WM_DELETE_WINDOW")), "WM_DELETE_WINDOW").Reply()
	atomWmProtocols, _ := xproto.InternAtom(X, false, uint16(len("WM_PROTOCOLS")), "WM_PROTOCOLS").Reply()
	if atomWmDeleteWindow == nil || atomWmProtocols == nil {
		X.Close()
		return nil, errAtoms
	}
	del := uint32(atomWmDeleteWindow.Atom)
	xproto.ChangeProperty(X, xproto.PropModeReplace, wid, atomWmProtocols.Atom, xproto.AtomAtom, 32, 1,
		[]byte{byte(del), byte(del >> 8), byte(del >> 16), byte(del >> 24)})
	title := "ArtWall"
	xproto.ChangeProperty(X, xproto.PropModeReplace, wid, xproto.AtomWmName, xproto.AtomString, 8, uint32(len(title)), []byte(title))

	gc, _ := xproto.NewGcontextId(X)
	xproto.CreateGC(X, gc, xproto.Drawable(wid), 0, nil)
	xproto.MapWindow(X, wid)

	return &window{
		X:                  X,
		wid:                wid,
		gc:                 gc,
		depth:              screen.RootDepth,
		maxReq:             int(setup.MaximumRequestLength)*4 - 32,
		width:              width,
		height:             height,
		atomWmDeleteWindow: atomWmDeleteWindow.Atom,
		atomWmProtocols:    atomWmProtocols.Atom,
	}, nil
}

// put sends img to the window in strips of rows that fit one request.
func (w *window) put(img *image.RGBA) {
	b := img.Bounds()
	stride := b.Dx() * 4
	if stride == 0 {
		return
	}
	rows := max(1, w.maxReq/stride)
	if need := rows * stride; len(w.buf) < need {
		w.buf = make([]byte, need)
	}
	for y := b.Min.Y; y < b.Max.Y; y += rows {
		r := image.Rect(b.Min.X, y, b.Max.X, min(y+rows, b.Max.Y))
		n := r.Dx() * r.Dy() * 4
		drawing.CopyRGBAtoBGRA(w.buf[:n], img, r)
		xproto.PutImage(w.X, xproto.ImageFormatZPixmap, xproto.Drawable(w.wid), w.gc,
			uint16(r.Dx()), uint16(r.Dy()), int16(r.Min.X), int16(r.Min.Y), 0, w.depth, w.buf[:n])
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := pflag.StringP("config", "c", "", "wall configuration (YAML)")
	pflag.Parse()

	st, err := settings.Load("")
	if err != nil {
		log.Fatal(err)
	}

	// loads finish on their own goroutines; the event loop redraws
	redraw := make(chan struct{}, 1)
	onLoad := func(string) {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}
	baseDir := st.ImageDir
	if *cfg != "" {
		baseDir = filepath.Dir(*cfg)
	}
	loader := imageload.New(imageload.WithBaseDir(baseDir), imageload.WithTimeout(st.Timeout()), imageload.WithOnLoad(onLoad))
	s := scene.New(loader)
	if *cfg != "" {
		data, err := os.ReadFile(*cfg)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := config.Apply(s, data); err != nil {
			log.Fatal(err)
		}
	}

	w, err := newWindow(windowWidth, windowHeight)
	if err != nil {
		log.Fatal(err)
	}
	defer w.X.Close()
	s.FitView(windowWidth, windowHeight)

	events := make(chan xgb.Event)
	go func() {
		defer close(events)
		for {
			ev, err := w.X.WaitForEvent()
			if ev == nil && err == nil {
				return
			}
			if err != nil {
				log.Println(err)
				continue
			}
			events <- ev
		}
	}()

	paint := func() { w.put(s.Preview(w.width, w.height)) }
	for {
		select {
		case <-redraw:
			paint()
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch e := ev.(type) {
			case xproto.ExposeEvent:
				if e.Count == 0 {
					paint()
				}
			case xproto.ConfigureNotifyEvent:
				if int(e.Width) != w.width || int(e.Height) != w.height {
					w.width, w.height = int(e.Width), int(e.Height)
					paint()
				}
			case xproto.ButtonPressEvent:
				p := geom.Pt(float64(e.EventX), float64(e.EventY))
				switch e.Detail {
				case 1:
					s.PointerDown(p)
				case 2:
					if path, err := export.File(s, ".", time.Now()); err != nil {
						log.Printf("export: %v", err)
					} else {
						log.Printf("exported %s", path)
					}
					continue
				case 3:
					s.ResetView()
				case 4:
					s.Zoom(p, -1)
				case 5:
					s.Zoom(p, 1)
				}
				paint()
			case xproto.MotionNotifyEvent:
				if s.PointerMove(geom.Pt(float64(e.EventX), float64(e.EventY))) {
					paint()
				}
			case xproto.ButtonReleaseEvent:
				if e.Detail == 1 && s.PointerUp(geom.Pt(float64(e.EventX), float64(e.EventY))) {
					paint()
				}
			case xproto.ClientMessageEvent:
				if e.Type == w.atomWmProtocols && e.Data.Data32[0] == uint32(w.atomWmDeleteWindow) {
					return
				}
			case xproto.KeyPressEvent:
				return
			}
		}
	}
}
