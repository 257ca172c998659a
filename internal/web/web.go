package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/drummonds/artwall/internal/config"
	"github.com/drummonds/artwall/internal/export"
	"github.com/drummonds/artwall/internal/geom"
	"github.com/drummonds/artwall/internal/imageload"
	"github.com/drummonds/artwall/internal/scene"
	"github.com/drummonds/artwall/internal/store"
	"github.com/drummonds/artwall/internal/wall"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// content is the page templates.
//
//go:embed template
var content embed.FS

var pages = template.Must(template.ParseFS(content, "template/base.html"))

// Page is the data of the index page.
type Page struct {
	Title  string
	Wall   wall.Wall
	Frames []wall.Frame
	View   scene.Viewport
}

type Options struct {
	Scene  *scene.Scene
	Loader *imageload.Loader // optional, exports wait for its pending loads
	Store  *store.Store      // optional, enables the configs routes

	PixelRatio   float64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LoadWait bounds how long an export waits for pictures
	LoadWait time.Duration
	Quiet    bool
}

// Server serves a single scene over HTTP. Handlers take the lock, so the
// scene is only touched by one request at a time.
type Server struct {
	mu     sync.Mutex
	scene  *scene.Scene
	loader *imageload.Loader
	store  *store.Store
	ratio  float64
	wait   time.Duration
	now    func() time.Time
	app    *fiber.App
}

func New(o Options) *Server {
	s := &Server{
		scene:  o.Scene,
		loader: o.Loader,
		store:  o.Store,
		ratio:  o.PixelRatio,
		wait:   o.LoadWait,
		now:    time.Now,
	}
	if s.scene == nil {
		var images scene.ImageSource
		if o.Loader != nil {
			images = o.Loader
		}
		s.scene = scene.New(images)
	}
	if !(s.ratio > 0) {
		s.ratio = export.PixelRatio
	}
	if s.wait <= 0 {
		s.wait = 10 * time.Second
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		AppName:      "ArtWall",
	})
	app.Use(recover.New())
	if !o.Quiet {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	s.app = app
	s.routes()
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	log.Printf("Starting ArtWall on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	app := s.app
	app.Get("/", s.index)
	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	api := app.Group("/api")
	api.Get("/scene", s.getScene)
	api.Put("/scene", s.putScene)
	api.Get("/state", s.getState)
	api.Post("/reset", s.reset)
	api.Patch("/wall", s.patchWall)

	api.Post("/frames", s.addFrame)
	api.Patch("/frames/:id", s.patchFrame)
	api.Delete("/frames/:id", s.deleteFrame)
	api.Post("/frames/:id/select", s.selectFrame)
	api.Put("/frames/:id/image", s.uploadImage)
	api.Delete("/selection", s.clearSelection)

	api.Post("/view/zoom", s.zoom)
	api.Post("/view/pan", s.pan)
	api.Post("/view/reset", s.resetView)
	api.Post("/view/fit", s.fitView)

	api.Get("/configs", s.listConfigs)
	api.Post("/configs/:name", s.saveConfig)
	api.Post("/configs/:name/load", s.loadConfig)
	api.Delete("/configs/:name", s.deleteConfig)

	app.Get("/preview.png", s.preview)
	app.Get("/export.png", s.export)
}

var (
	errBadRequest = errors.New("bad request")
	errNoStore    = errors.New("no config store")
)

func status(err error) int {
	switch {
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest), errors.Is(err, imageload.ErrImageLoad):
		return http.StatusBadRequest
	case errors.Is(err, scene.ErrFrameNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wall.ErrInvalidFrame), errors.Is(err, wall.ErrInvalidWall),
		errors.Is(err, config.ErrInvalidConfigFormat):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(c fiber.Ctx, err error) error {
	code := status(err)
	if code == http.StatusInternalServerError {
		log.Printf("[WEB] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// bind decodes a JSON body into v. An empty body leaves v alone.
func bind(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) index(c fiber.Ctx) error {
	s.mu.Lock()
	page := Page{Title: "ArtWall", Wall: s.scene.Wall(), Frames: s.scene.Frames(), View: s.scene.View()}
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "base.html", page); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (s *Server) document(name string) config.Document {
	return config.New(name, s.scene.Wall(), s.scene.Frames(), s.now())
}

func (s *Server) getScene(c fiber.Ctx) error {
	s.mu.Lock()
	data, err := config.Marshal(s.document(c.Query("name")))
	s.mu.Unlock()
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/yaml")
	return c.Send(data)
}

func (s *Server) putScene(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := config.Apply(s.scene, c.Body())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"name": d.Meta.Name, "frames": len(d.Frames)})
}

type state struct {
	Wall     wall.Wall      `json:"wall"`
	Frames   []wall.Frame   `json:"frames"`
	View     scene.Viewport `json:"view"`
	Selected string         `json:"selected,omitempty"`
}

func (s *Server) snapshot() state {
	snap := s.scene.Snapshot()
	return state{Wall: snap.Wall, Frames: snap.Frames, View: snap.View, Selected: snap.Selected}
}

func (s *Server) getState(c fiber.Ctx) error {
	s.mu.Lock()
	st := s.snapshot()
	s.mu.Unlock()
	return c.JSON(st)
}

func (s *Server) reset(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Reset()
	return c.JSON(s.snapshot())
}

func (s *Server) patchWall(c fiber.Ctx) error {
	var patch wall.WallPatch
	if err := bind(c, &patch); err != nil {
		return fail(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, err := s.scene.PatchWall(patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(w)
}

func (s *Server) addFrame(c fiber.Ctx) error {
	var patch wall.FramePatch
	if err := bind(c, &patch); err != nil {
		return fail(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.scene.AddFrame(patch.Apply(wall.NewFrame()))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(f)
}

func (s *Server) patchFrame(c fiber.Ctx) error {
	var patch wall.FramePatch
	if err := bind(c, &patch); err != nil {
		return fail(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.scene.UpdateFrame(c.Params("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(f)
}

func (s *Server) deleteFrame(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scene.DeleteFrame(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) selectFrame(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scene.Select(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"selected": c.Params("id")})
}

func (s *Server) clearSelection(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Select("")
	return c.SendStatus(http.StatusNoContent)
}

// uploadImage embeds the request body as the frame's picture.
func (s *Server) uploadImage(c fiber.Ctx) error {
	body := c.Body()
	if _, err := imageload.Decode(body); err != nil {
		return fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.scene.UpdateFrame(c.Params("id"), wall.EmbeddedImage(imageload.EncodeDataURL(body)))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"id": f.ID, "bytes": len(body)})
}

type zoomRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
}

func (s *Server) zoom(c fiber.Ctx) error {
	var req zoomRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.scene.Zoom(geom.Pt(req.X, req.Y), req.DeltaY))
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

func (s *Server) pan(c fiber.Ctx) error {
	var req panRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.scene.Pan(req.DX, req.DY))
}

func (s *Server) resetView(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.scene.ResetView())
}

type fitRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) fitView(c fiber.Ctx) error {
	var req fitRequest
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.scene.FitView(req.Width, req.Height))
}

func (s *Server) listConfigs(c fiber.Ctx) error {
	if s.store == nil {
		return fail(c, errNoStore)
	}
	list, err := s.store.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

func (s *Server) saveConfig(c fiber.Ctx) error {
	if s.store == nil {
		return fail(c, errNoStore)
	}
	s.mu.Lock()
	d := s.document(c.Params("name"))
	s.mu.Unlock()
	updated, err := s.store.Save(c.Context(), d)
	if err != nil {
		return fail(c, err)
	}
	code := http.StatusCreated
	if updated {
		code = http.StatusOK
	}
	return c.Status(code).JSON(fiber.Map{"name": d.Meta.Name, "updated": updated})
}

func (s *Server) loadConfig(c fiber.Ctx) error {
	if s.store == nil {
		return fail(c, errNoStore)
	}
	d, err := s.store.Load(c.Context(), c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scene.Load(d.Wall, d.Frames); err != nil {
		return fail(c, fmt.Errorf("%w: %v", config.ErrInvalidConfigFormat, err))
	}
	return c.JSON(s.snapshot())
}

func (s *Server) deleteConfig(c fiber.Ctx) error {
	if s.store == nil {
		return fail(c, errNoStore)
	}
	if err := s.store.Delete(c.Context(), c.Params("name")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func queryInt(c fiber.Ctx, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 && v <= 8192 {
		return v
	}
	return def
}

// preview renders the current view. Pictures still loading are left out;
// the client simply asks again.
func (s *Server) preview(c fiber.Ctx) error {
	w := queryInt(c, "w", 800)
	h := queryInt(c, "h", 500)
	s.mu.Lock()
	img := s.scene.Preview(w, h)
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(buf.Bytes())
}

func (s *Server) settle() {
	if s.loader == nil {
		return
	}
	s.mu.Lock()
	s.scene.Preload()
	s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), s.wait)
	defer cancel()
	if err := s.loader.Wait(ctx); err != nil {
		log.Printf("[WEB] export without every picture: %v", err)
	}
}

func (s *Server) export(c fiber.Ctx) error {
	s.settle()
	var buf bytes.Buffer
	s.mu.Lock()
	err := export.Encode(s.scene, &buf, s.ratio)
	s.mu.Unlock()
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.FileName(s.now())))
	return c.Send(buf.Bytes())
}
