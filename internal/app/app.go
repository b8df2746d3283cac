// Package app wires the window, renderer, loader and viewer host into the
// desktop viewer and runs its main loop.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/terraview/internal/assets"
	"github.com/Faultbox/terraview/internal/config"
	"github.com/Faultbox/terraview/internal/engine/input"
	"github.com/Faultbox/terraview/internal/engine/lighting"
	"github.com/Faultbox/terraview/internal/engine/renderer"
	"github.com/Faultbox/terraview/internal/engine/window"
	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/internal/logger"
	"github.com/Faultbox/terraview/internal/statusfeed"
	"github.com/Faultbox/terraview/internal/viewer"
	"github.com/Faultbox/terraview/internal/watch"
)

// App is the desktop viewer instance.
type App struct {
	config  *config.Config
	running bool

	ctx    context.Context
	cancel context.CancelFunc

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input

	fetcher *assets.Fetcher
	loader  *loader.Loader
	host    *viewer.Host

	watcher *watch.Watcher
	watched loader.Request

	feedDone chan error
}

// New creates the window and every viewer component.
func New(cfg *config.Config) (*App, error) {
	logger.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	a := &App{config: cfg}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	// Create window (this also creates OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		a.cancel()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	a.renderer, err = renderer.New(a.window, renderer.Config{
		ShowBounds:    cfg.Debug.ShowBounds,
		ScreenshotDir: cfg.Debug.ScreenshotDir,
		Shadows:       cfg.Viewer.Shadows,
		Lights:        lighting.Default(),
	})
	if err != nil {
		a.window.Close()
		a.cancel()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()

	a.fetcher = assets.NewFetcher(cfg.FetchOptions())
	a.loader = loader.New(a.fetcher)
	a.host = viewer.New(a.ctx, a.loader, a.renderer, viewer.Options{
		FOV:        cfg.Viewer.FOV,
		Orbit:      cfg.OrbitSettings(),
		AutoRotate: cfg.Viewer.AutoRotate,
	})

	if cfg.Viewer.Watch {
		if a.watcher, err = watch.New(watch.DefaultDebounce); err != nil {
			logger.Warn("file watching disabled", zap.Error(err))
		}
	}

	if cfg.Status.Listen != "" {
		a.startStatusFeed(cfg.Status.Listen)
	}

	logger.Info("viewer initialized successfully")
	return a, nil
}

func (a *App) startStatusFeed(addr string) {
	srv := statusfeed.New(a.host)
	a.feedDone = make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(a.ctx, addr)
		if err != nil {
			logger.Error("status feed stopped", zap.String("addr", addr), zap.Error(err))
		}
		a.feedDone <- err
	}()
}

// Run loads the configured model and runs the main loop until quit.
func (a *App) Run() error {
	a.running = true

	if req := a.config.Request(); req.ModelURL != "" {
		a.host.Load(req)
	} else {
		logger.Info("no model configured; drop a file onto the window or POST /load")
	}

	// Timing
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting render loop")

	for a.running {
		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			a.handleEvent(event)
		}

		// 2. Reload on file changes
		a.pollWatcher()

		// 3. Apply load results and draw
		a.host.Tick()
		a.syncWatcher()

		// 4. Present (swap buffers)
		a.window.SwapBuffers()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handleEvent(event input.Event) {
	scale := a.window.PixelScale()
	x, y := float32(event.MouseX)*scale, float32(event.MouseY)*scale

	switch event.Type {
	case input.EventKeyDown:
		a.handleKey(event.Key)
	case input.EventMouseDown:
		if event.Button == sdl.BUTTON_LEFT {
			a.host.PointerDown(x, y)
		}
	case input.EventMouseMove:
		a.host.PointerMove(x, y)
	case input.EventMouseUp:
		if event.Button == sdl.BUTTON_LEFT {
			a.host.PointerUp(x, y)
		}
	case input.EventMouseWheel:
		a.host.Wheel(event.WheelY)
	case input.EventFileDrop:
		req := RequestForFile(event.Path)
		logger.Info("file dropped", zap.String("request", req.String()))
		a.host.Load(req)
	}
}

// Key bindings.
const (
	keyQuit       = sdl.SCANCODE_ESCAPE
	keyRetry      = sdl.SCANCODE_R
	keyScreenshot = sdl.SCANCODE_F12
	keyBounds     = sdl.SCANCODE_B
)

func (a *App) handleKey(key sdl.Scancode) {
	switch key {
	case keyQuit:
		a.running = false
	case keyRetry:
		a.host.Retry()
	case keyScreenshot:
		a.renderer.RequestScreenshot()
	case keyBounds:
		a.renderer.SetShowBounds(!a.renderer.ShowBounds())
	}
}

// pollWatcher retries the current load when one of its local files changed.
func (a *App) pollWatcher() {
	if a.watcher == nil {
		return
	}
	select {
	case path := <-a.watcher.Changes():
		logger.Info("model file changed", zap.String("path", path))
		a.host.Retry()
	default:
	}
}

// syncWatcher points the watcher at the files of the current request.
func (a *App) syncWatcher() {
	if a.watcher == nil {
		return
	}
	req := a.host.Status().Request
	if req == a.watched {
		return
	}
	a.watched = req

	if err := a.watcher.RemoveAll(); err != nil {
		logger.Warn("clearing watches failed", zap.Error(err))
	}
	files := watch.LocalFiles(req.ModelURL, req.MaterialURL)
	if len(files) == 0 {
		return
	}
	if err := a.watcher.Watch(files...); err != nil {
		logger.Warn("watching model files failed", zap.Strings("files", files), zap.Error(err))
	}
}

// Close cleans up viewer resources.
func (a *App) Close() {
	logger.Info("closing viewer")

	a.cancel()
	if a.host != nil {
		a.host.Close()
	}
	if a.feedDone != nil {
		<-a.feedDone
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

// RequestForFile builds a load request for a local model file. For OBJ
// files a sibling material library is picked up when present.
func RequestForFile(path string) loader.Request {
	kind, ok := loader.KindFromPath(path)
	if !ok {
		// Unknown extensions still load so the failure names the type.
		kind = loader.Kind(strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")))
	}
	req := loader.Request{ModelURL: path, Kind: kind}
	if kind == loader.KindOBJ {
		if mtl, found := loader.FindMaterialFile(path); found {
			req.MaterialURL = mtl
		}
	}
	return req
}
