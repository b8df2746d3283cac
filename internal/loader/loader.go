package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"sync"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/terraview/internal/assets"
	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/internal/engine/texture"
	"github.com/Faultbox/terraview/internal/logger"
	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/formats"
)

// Fetcher supplies asset bytes. *assets.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchFresh(ctx context.Context, url string) ([]byte, error)
	FS(ctx context.Context, base string) fs.FS
}

// textureWorkers bounds concurrent texture fetches per model.
const textureWorkers = 4

// Loader runs model loads in the background. Each Load supersedes the
// previous one: its context is cancelled and its result is dropped.
type Loader struct {
	fetcher Fetcher
	results chan Status
	done    chan struct{}

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a loader.
func New(f Fetcher) *Loader {
	return &Loader{
		fetcher: f,
		results: make(chan Status, 4),
		done:    make(chan struct{}),
	}
}

// Results delivers finished loads (Ready or Failed) of the latest generation.
// A consumer must still compare Generation with Latest, since a newer Load may
// have started after the result was sent.
func (l *Loader) Results() <-chan Status {
	return l.results
}

// Latest returns the generation of the most recent Load.
func (l *Loader) Latest() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// Load starts loading req and returns its generation.
func (l *Loader) Load(ctx context.Context, req Request) uint64 {
	return l.start(ctx, req, false)
}

// Reload is Load with every asset fetched again instead of from cache.
func (l *Loader) Reload(ctx context.Context, req Request) uint64 {
	return l.start(ctx, req, true)
}

func (l *Loader) start(parent context.Context, req Request, fresh bool) uint64 {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	l.mu.Unlock()

	logger.Info("loading model",
		zap.Uint64("generation", gen),
		zap.String("request", req.String()),
		zap.Bool("fresh", fresh))

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()

		status := l.run(ctx, gen, req, fresh)
		if gen != l.Latest() {
			logger.Debug("dropping superseded load", zap.Uint64("generation", gen))
			return
		}
		select {
		case l.results <- status:
		case <-l.done:
		}
	}()
	return gen
}

// Cancel aborts the in-flight load, if any.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Close cancels any in-flight load and waits for it to finish.
func (l *Loader) Close() {
	l.Cancel()
	close(l.done)
	l.wg.Wait()
}

// LoadSync loads req on the calling goroutine.
func (l *Loader) LoadSync(ctx context.Context, req Request) Status {
	return l.run(ctx, 0, req, false)
}

// run never panics: a decoder panic on malformed input becomes a parse
// failure.
func (l *Loader) run(ctx context.Context, gen uint64, req Request, fresh bool) (st Status) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %s: %v", ErrParse, req.ModelURL, r)
			logger.Error("model load panicked",
				zap.Uint64("generation", gen),
				zap.String("url", req.ModelURL),
				zap.Any("panic", r))
			st = Failed(gen, req, FailureMessage(req.Kind), err)
		}
	}()

	fetch := l.fetcher.Fetch
	if fresh {
		fetch = l.fetcher.FetchFresh
	}

	var root *model.Node
	var err error
	switch req.Kind {
	case KindOBJ:
		root, err = l.loadOBJ(ctx, req, fetch)
	case KindGLB, KindGLTF:
		root, err = l.loadGLTF(ctx, req, fetch)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedKind, req.Kind)
		logger.Warn("model load failed", zap.Uint64("generation", gen), zap.Error(err))
		return Failed(gen, req, fmt.Sprintf("Unsupported model type: %s", req.Kind), err)
	}

	if err != nil {
		logger.Warn("model load failed",
			zap.Uint64("generation", gen),
			zap.String("url", req.ModelURL),
			zap.Error(err))
		return Failed(gen, req, FailureMessage(req.Kind), err)
	}

	stats := root.Stats()
	logger.Info("model loaded",
		zap.Uint64("generation", gen),
		zap.String("url", req.ModelURL),
		zap.Int("vertices", stats.Vertices),
		zap.Int("triangles", stats.Triangles),
		zap.Int("materials", stats.Materials))
	return Ready(gen, req, root)
}

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

// loadOBJ fetches and parses the material library first, then the geometry.
func (l *Loader) loadOBJ(ctx context.Context, req Request, fetch fetchFunc) (*model.Node, error) {
	var mtl *formats.MTL
	var textures map[string]image.Image

	if req.MaterialURL != "" {
		data, err := fetch(ctx, req.MaterialURL)
		if err != nil {
			return nil, fmt.Errorf("%w: material: %w", ErrNetwork, err)
		}
		if mtl, err = formats.ParseMTL(data); err != nil {
			return nil, fmt.Errorf("%w: material %s: %w", ErrParse, req.MaterialURL, err)
		}
		textures = l.loadTextures(ctx, req.MaterialURL, mtl, fetch)
	}

	data, err := fetch(ctx, req.ModelURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	obj, err := formats.ParseOBJ(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, req.ModelURL, err)
	}

	root := model.BuildFromOBJ(obj, mtl, textures)
	if root.Stats().Triangles == 0 {
		return nil, fmt.Errorf("%w: %s has no faces", ErrParse, req.ModelURL)
	}

	root.ForceDoubleSided()

	// Offsetting by half the center puts the center at the origin once the
	// display scale is applied.
	center := bounds.Compute(root).Center()
	root.Position = center.Scale(-0.5)
	root.SetUniformScale(ModelScale)
	return root, nil
}

// loadTextures fetches and decodes every diffuse map of mtl. Failures are
// logged and leave the material untextured.
func (l *Loader) loadTextures(ctx context.Context, mtlURL string, mtl *formats.MTL, fetch fetchFunc) map[string]image.Image {
	var paths []string
	seen := make(map[string]bool)
	for _, m := range mtl.Materials {
		if m.DiffuseMap != "" && !seen[m.DiffuseMap] {
			seen[m.DiffuseMap] = true
			paths = append(paths, m.DiffuseMap)
		}
	}
	if len(paths) == 0 {
		return nil
	}

	var mu sync.Mutex
	out := make(map[string]image.Image, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(textureWorkers)
	for _, p := range paths {
		g.Go(func() error {
			url := assets.Resolve(mtlURL, p)
			img, err := fetchTexture(gctx, url, p, fetch)
			if err != nil {
				logger.Warn("texture unavailable", zap.String("url", url), zap.Error(err))
				return nil
			}
			mu.Lock()
			out[p] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func fetchTexture(ctx context.Context, url, name string, fetch fetchFunc) (image.Image, error) {
	data, err := fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return texture.Decode(data, name)
}

func (l *Loader) loadGLTF(ctx context.Context, req Request, fetch fetchFunc) (*model.Node, error) {
	data, err := fetch(ctx, req.ModelURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	doc, err := formats.ParseGLTF(data, l.fetcher.FS(ctx, req.ModelURL))
	if err != nil {
		if errors.Is(err, assets.ErrFetch) {
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, req.ModelURL, err)
	}

	textures := make(map[int]image.Image)
	for i := range doc.Images {
		img, err := l.gltfTexture(ctx, req.ModelURL, doc, i, fetch)
		if err != nil {
			logger.Warn("texture unavailable", zap.Int("image", i), zap.Error(err))
			continue
		}
		textures[i] = img
	}

	root, err := model.BuildFromGLTF(doc, textures)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, req.ModelURL, err)
	}
	if root.Stats().Triangles == 0 {
		return nil, fmt.Errorf("%w: %s has no triangles", ErrParse, req.ModelURL)
	}

	root.SetUniformScale(ModelScale)
	return root, nil
}

func (l *Loader) gltfTexture(ctx context.Context, base string, doc *gltf.Document, idx int, fetch fetchFunc) (image.Image, error) {
	data, uri, err := formats.GLTFImage(doc, idx)
	if err != nil {
		return nil, err
	}
	name := doc.Images[idx].Name
	if uri != "" {
		name = uri
		if data, err = fetch(ctx, assets.Resolve(base, uri)); err != nil {
			return nil, err
		}
	}
	return texture.Decode(data, name)
}
