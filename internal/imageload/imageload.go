// Package imageload fetches and decodes the pictures referenced by frames
// and the wall background. Loads run in the background, one per distinct
// reference, and are cached by reference.
package imageload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/drummonds/photoprism-go-api/api"
	"github.com/h2non/filetype"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrImageLoad = errors.New("image load failed")

// BackgroundSlot is the slot name used for the wall background picture.
const BackgroundSlot = "wall:background"

const (
	DefaultTimeout = 30 * time.Second
	maxImageBytes  = 64 << 20
)

type entry struct {
	img  image.Image
	err  error
	done bool
}

// Loader resolves image references for named slots, typically one per
// frame id. A slot only ever sees the picture for the reference it asked
// for last, so a slow load for an old reference is never shown. Pictures
// are kept only while some slot refers to them.
type Loader struct {
	client  *http.Client
	prism   *api.ClientWithResponses
	baseDir string
	timeout time.Duration
	onLoad  func(slot string)

	mu      sync.Mutex
	cache   map[string]*entry
	slots   map[string]string
	pending int
	settled chan struct{}
}

type Option func(*Loader)

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithPhotoPrism enables "photoprism:<uid>" references.
func WithPhotoPrism(c *api.ClientWithResponses) Option {
	return func(l *Loader) { l.prism = c }
}

// WithOnLoad registers a callback run, from the loading goroutine, for
// every slot whose picture has just become available.
func WithOnLoad(fn func(slot string)) Option {
	return func(l *Loader) { l.onLoad = fn }
}

// WithBaseDir resolves relative file references against dir.
func WithBaseDir(dir string) Option {
	return func(l *Loader) { l.baseDir = dir }
}

func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

func New(opts ...Option) *Loader {
	l := &Loader{
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		cache:   map[string]*entry{},
		slots:   map[string]string{},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Image returns the picture for key as seen by slot. The first request for
// a key starts loading it; until it completes, or when it failed, ok is
// false and the slot is drawn without a picture. An empty key clears the slot.
func (l *Loader) Image(slot, key string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.assign(slot, key)
	if key == "" {
		return nil, false
	}
	e, ok := l.cache[key]
	if !ok {
		l.start(key)
		return nil, false
	}
	if !e.done || e.err != nil {
		return nil, false
	}
	return e.img, true
}

// Err reports why key failed to load, nil if it loaded or is pending.
func (l *Loader) Err(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.cache[key]; ok {
		return e.err
	}
	return nil
}

// Forget drops a slot, for example when its frame is deleted.
func (l *Loader) Forget(slot string) {
	l.mu.Lock()
	l.assign(slot, "")
	l.mu.Unlock()
}

// assign points slot at key, an empty key clearing it, and drops the
// picture the slot held if nothing else refers to it. l.mu must be held.
func (l *Loader) assign(slot, key string) {
	old, had := l.slots[slot]
	if key == "" {
		delete(l.slots, slot)
	} else {
		l.slots[slot] = key
	}
	if had && old != key {
		l.release(old)
	}
}

// release drops key from the cache unless a slot still refers to it.
// A load still running for it finishes but is not kept.
func (l *Loader) release(key string) {
	for _, k := range l.slots {
		if k == key {
			return
		}
	}
	delete(l.cache, key)
}

// Wait blocks until every load started so far has finished.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	ch := l.settled
	l.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start must be called with l.mu held.
func (l *Loader) start(key string) {
	e := &entry{}
	l.cache[key] = e
	if l.pending == 0 {
		l.settled = make(chan struct{})
	}
	l.pending++
	go l.load(key, e)
}

func (l *Loader) load(key string, e *entry) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	img, err := l.fetch(ctx, key)
	if err != nil {
		log.Printf("imageload: %s: %v", describe(key), err)
		err = fmt.Errorf("%w: %s: %v", ErrImageLoad, describe(key), err)
	}

	l.mu.Lock()
	e.img, e.err, e.done = img, err, true
	var ready []string
	// an entry released while loading is no longer in the cache
	if err == nil && l.cache[key] == e {
		for slot, k := range l.slots {
			if k == key {
				ready = append(ready, slot)
			}
		}
	}
	l.pending--
	if l.pending == 0 {
		close(l.settled)
		l.settled = nil
	}
	l.mu.Unlock()

	if l.onLoad != nil {
		for _, slot := range ready {
			l.onLoad(slot)
		}
	}
}

func (l *Loader) fetch(ctx context.Context, key string) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(key, "data:"):
		data, err = DecodeDataURL(key)
	case strings.HasPrefix(key, "http://"), strings.HasPrefix(key, "https://"):
		data, err = l.get(ctx, key)
	case strings.HasPrefix(key, PhotoPrismScheme):
		return l.photoPrism(ctx, strings.TrimPrefix(key, PhotoPrismScheme))
	default:
		path := key
		if !filepath.IsAbs(path) && l.baseDir != "" {
			path = filepath.Join(l.baseDir, path)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

func (l *Loader) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// Decode sniffs data and decodes it as a raster image.
func Decode(data []byte) (image.Image, error) {
	kind, _ := filetype.Match(data)
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("not a supported image (%s)", kind.MIME.Value)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind.MIME.Value, err)
	}
	return img, nil
}

// DecodeDataURL returns the payload of a "data:" URL.
func DecodeDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, errors.New("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("data URL has no payload")
	}
	if strings.HasSuffix(meta, ";base64") {
		payload = strings.TrimSpace(payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		return data, err
	}
	text, err := url.PathUnescape(payload)
	return []byte(text), err
}

// EncodeDataURL wraps data as a base64 "data:" URL, sniffing its type.
func EncodeDataURL(data []byte) string {
	mime := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// describe keeps log lines short for embedded images.
func describe(key string) string {
	if strings.HasPrefix(key, "data:") && len(key) > 40 {
		return key[:40] + "..."
	}
	return key
}
