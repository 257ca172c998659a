package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/drummonds/artwall/internal/scene"
	"github.com/drummonds/artwall/internal/store"
	"github.com/drummonds/artwall/internal/wall"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rendering a 2x export is slow under the race detector
var testConfig = fiber.TestConfig{Timeout: 30 * time.Second, FailOnTimeout: true}

func newServer(t *testing.T, st *store.Store) *Server {
	t.Helper()
	return New(Options{Store: st, Quiet: true})
}

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, testConfig)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestHealthAndIndex(t *testing.T) {
	s := newServer(t, nil)
	resp, body := do(t, s, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "alive")

	resp, body = do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>ArtWall</title>")
	assert.Contains(t, string(body), "rect at 100,100")
}

func TestFrameLifecycle(t *testing.T) {
	s := newServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/api/frames", `{"shape":"circle","x":10}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var f wall.Frame
	require.NoError(t, json.Unmarshal(body, &f))
	assert.Equal(t, 10.0, f.X)
	assert.NotEmpty(t, f.ID)

	resp, body = do(t, s, http.MethodPatch, "/api/frames/"+f.ID, `{"matWidth":12}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &f))
	assert.Equal(t, 12.0, f.MatWidth)
	assert.Equal(t, 10.0, f.X)

	resp, _ = do(t, s, http.MethodPatch, "/api/frames/"+f.ID, `{"shape":"hexagon"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, s, http.MethodPost, "/api/frames/"+f.ID+"/select", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = do(t, s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st state
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, f.ID, st.Selected)
	require.Len(t, st.Frames, 2)

	resp, _ = do(t, s, http.MethodDelete, "/api/frames/"+f.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = do(t, s, http.MethodDelete, "/api/frames/"+f.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, s, http.MethodPatch, "/api/frames/missing", `{"x":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadJSON(t *testing.T) {
	s := newServer(t, nil)
	resp, body := do(t, s, http.MethodPatch, "/api/wall", `{"width":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "error")

	resp, _ = do(t, s, http.MethodPatch, "/api/wall", `{"width":-5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, wall.DefaultWall(), s.scene.Wall())
}

func TestSceneYAML(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodPost, "/api/frames", "")

	resp, body := do(t, s, http.MethodGet, "/api/scene?name=hall", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "name: hall")
	assert.Contains(t, string(body), "frames:")

	// rejected configs leave the scene alone
	before := s.scene.Snapshot()
	resp, _ = do(t, s, http.MethodPut, "/api/scene", "wall:\n  width: 300\n  height: 200\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, before, s.scene.Snapshot())

	resp, _ = do(t, s, http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, s.scene.Frames(), 1)

	resp, _ = do(t, s, http.MethodPut, "/api/scene", string(body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, s.scene.Frames(), 2)
}

func TestView(t *testing.T) {
	s := newServer(t, nil)
	resp, body := do(t, s, http.MethodPost, "/api/view/zoom", `{"x":50,"y":50,"deltaY":-100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v scene.Viewport
	require.NoError(t, json.Unmarshal(body, &v))
	assert.InDelta(t, 1.05, v.Scale, 1e-9)
	assert.InDelta(t, -2.5, v.OffsetX, 1e-9)

	_, body = do(t, s, http.MethodPost, "/api/view/pan", `{"dx":10,"dy":-4}`)
	require.NoError(t, json.Unmarshal(body, &v))
	assert.InDelta(t, 7.5, v.OffsetX, 1e-9)
	assert.InDelta(t, -6.5, v.OffsetY, 1e-9)

	_, body = do(t, s, http.MethodPost, "/api/view/reset", "")
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, scene.DefaultViewport(), v)

	_, body = do(t, s, http.MethodPost, "/api/view/fit", `{"width":400,"height":500}`)
	require.NoError(t, json.Unmarshal(body, &v))
	assert.InDelta(t, 0.5, v.Scale, 1e-9)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	s := newServer(t, nil)
	f, err := s.scene.AddFrame(wall.NewFrame())
	require.NoError(t, err)

	resp, _ := do(t, s, http.MethodPut, "/api/frames/"+f.ID+"/image", "plain text")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPut, "/api/frames/"+f.ID+"/image", bytes.NewReader(pngBytes(t)))
	req.Header.Set("Content-Type", "image/png")
	res, err := s.App().Test(req, testConfig)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	got, ok := s.scene.Frame(f.ID)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(got.Painting, "data:image/png;base64,"))
	assert.Empty(t, got.PaintingURL)
}

func TestExportPNG(t *testing.T) {
	s := newServer(t, nil)
	resp, body := do(t, s, http.MethodGet, "/export.png", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "artwall-")

	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1600, 1000), img.Bounds().Size())
	r, g, b, _ := img.At(10, 10).RGBA()
	want := color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF5, A: 0xFF}
	wr, wg, wb, _ := want.RGBA()
	assert.Equal(t, []uint32{wr, wg, wb}, []uint32{r, g, b})
}

func TestPreview(t *testing.T) {
	s := newServer(t, nil)
	resp, body := do(t, s, http.MethodGet, "/preview.png?w=320&h=200", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(320, 200), img.Bounds().Size())
}

func TestConfigsNeedStore(t *testing.T) {
	s := newServer(t, nil)
	resp, _ := do(t, s, http.MethodGet, "/api/configs", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestConfigs(t *testing.T) {
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "artwall.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	s := newServer(t, st)

	do(t, s, http.MethodPost, "/api/frames", `{"x":42}`)
	resp, _ := do(t, s, http.MethodPost, "/api/configs/lounge", "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = do(t, s, http.MethodPost, "/api/configs/lounge", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := do(t, s, http.MethodGet, "/api/configs", "")
	var list []store.Entry
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "lounge", list[0].Name)

	do(t, s, http.MethodPost, "/api/reset", "")
	require.Len(t, s.scene.Frames(), 1)
	resp, _ = do(t, s, http.MethodPost, "/api/configs/lounge/load", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, s.scene.Frames(), 2)
	assert.Equal(t, 42.0, s.scene.Frames()[1].X)

	resp, _ = do(t, s, http.MethodPost, "/api/configs/nope/load", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, s, http.MethodDelete, "/api/configs/lounge", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
