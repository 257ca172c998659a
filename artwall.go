// Program artwall lays out picture frames on a virtual wall. It renders
// wall configurations to PNG, re-renders them while they are edited, and
// serves an editor over HTTP.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/drummonds/artwall/internal/config"
	"github.com/drummonds/artwall/internal/export"
	"github.com/drummonds/artwall/internal/imageload"
	"github.com/drummonds/artwall/internal/scene"
	"github.com/drummonds/artwall/internal/settings"
	"github.com/drummonds/artwall/internal/store"
	"github.com/drummonds/artwall/internal/web"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
)

const version = "ArtWall V1.0.0"

const usage = `usage: artwall <command> [flags]

commands:
  render  -c wall.yaml [-o out.png]   render a configuration to PNG
  watch   -c wall.yaml [-o out.png]   render again whenever the file changes
  serve   [--settings artwall.toml]   run the editor over HTTP
  version
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Cancel the context instead of exiting the program:
	ctx, canc := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer canc()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "render":
		err = runRender(ctx, args)
	case "watch":
		err = runWatch(ctx, args)
	case "serve":
		err = runServe(ctx, args)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

// ===== render =====

type renderFlags struct {
	config   string
	out      string
	settings string
	wait     time.Duration
}

func parseRender(name string, args []string) (renderFlags, settings.Settings, error) {
	var rf renderFlags
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&rf.config, "config", "c", "", "wall configuration (YAML)")
	fs.StringVarP(&rf.out, "out", "o", "", "PNG to write, default a timestamped file in the export dir")
	fs.StringVar(&rf.settings, "settings", "", "settings file (TOML)")
	fs.DurationVar(&rf.wait, "wait", 30*time.Second, "how long to wait for pictures to load")
	if err := fs.Parse(args); err != nil {
		return rf, settings.Settings{}, err
	}
	if rf.config == "" {
		return rf, settings.Settings{}, errors.New("render: -c is required")
	}
	st, err := settings.Load(rf.settings)
	return rf, st, err
}

func newLoader(st settings.Settings, baseDir string, onLoad func(string)) *imageload.Loader {
	opts := []imageload.Option{
		imageload.WithBaseDir(baseDir),
		imageload.WithTimeout(st.Timeout()),
	}
	if onLoad != nil {
		opts = append(opts, imageload.WithOnLoad(onLoad))
	}
	if st.PhotoPrism.Domain != "" {
		client, err := imageload.NewPhotoPrismClient(st.PhotoPrism.Domain, st.PhotoPrism.Token)
		if err != nil {
			log.Printf("photoprism disabled: %v", err)
		} else {
			opts = append(opts, imageload.WithPhotoPrism(client))
		}
	}
	return imageload.New(opts...)
}

// renderOnce loads the configuration, waits for its pictures and writes
// the PNG, returning the path written.
func renderOnce(ctx context.Context, rf renderFlags, st settings.Settings) (string, error) {
	f, err := os.Open(rf.config)
	if err != nil {
		return "", err
	}
	d, err := config.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("%s: %w", rf.config, err)
	}

	loader := newLoader(st, filepath.Dir(rf.config), nil)
	s := scene.New(loader)
	if err := s.Load(d.Wall, d.Frames); err != nil {
		return "", fmt.Errorf("%s: %w", rf.config, err)
	}
	s.Preload()
	wctx, cancel := context.WithTimeout(ctx, rf.wait)
	err = loader.Wait(wctx)
	cancel()
	if err != nil {
		log.Printf("rendering without every picture: %v", err)
	}

	if rf.out == "" {
		return export.File(s, st.ExportDir, time.Now())
	}
	var buf bytes.Buffer
	if err := export.Encode(s, &buf, st.PixelRatio); err != nil {
		return "", err
	}
	if err := os.WriteFile(rf.out, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return rf.out, nil
}

func runRender(ctx context.Context, args []string) error {
	rf, st, err := parseRender("render", args)
	if err != nil {
		return err
	}
	path, err := renderOnce(ctx, rf, st)
	if err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}

// ===== watch =====

func runWatch(ctx context.Context, args []string) error {
	rf, st, err := parseRender("watch", args)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(rf.config)); err != nil {
		return err
	}
	target := filepath.Clean(rf.config)

	render := func() {
		path, err := renderOnce(ctx, rf, st)
		if err != nil {
			log.Printf("watch: %v", err)
			return
		}
		log.Printf("watch: wrote %s", path)
	}
	render()

	// saves arrive as bursts of events; render once they settle
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			debounce = time.After(200 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-debounce:
			debounce = nil
			render()
		}
	}
}

// ===== serve =====

func runServe(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	path := fs.String("settings", "", "settings file (TOML)")
	open := fs.StringP("config", "c", "", "wall configuration to start with (YAML)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := settings.Load(*path)
	if err != nil {
		return err
	}

	db, err := store.Open(ctx, filepath.Join(st.DataDir, "artwall.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	loader := newLoader(st, st.ImageDir, nil)
	s := scene.New(loader)
	if *open != "" {
		data, err := os.ReadFile(*open)
		if err != nil {
			return err
		}
		if _, err := config.Apply(s, data); err != nil {
			return fmt.Errorf("%s: %w", *open, err)
		}
	}

	srv := web.New(web.Options{
		Scene:        s,
		Loader:       loader,
		Store:        db,
		PixelRatio:   st.PixelRatio,
		ReadTimeout:  time.Duration(st.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(st.WriteTimeout) * time.Second,
		LoadWait:     st.Timeout(),
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(":" + st.Port) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Printf("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}
