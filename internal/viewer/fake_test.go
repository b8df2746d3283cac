package viewer

import (
	"context"
	"fmt"
	"io/fs"
	"testing/fstest"

	"github.com/Faultbox/terraview/internal/assets"
	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/internal/loader"
)

// fakeSurface records what the host asks it to draw.
type fakeSurface struct {
	width, height int
	models        []*model.Node
	frames        []Frame
	failures      []loader.Status
	uploadErr     error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{width: 800, height: 600}
}

func (s *fakeSurface) Size() (int, int) { return s.width, s.height }

func (s *fakeSurface) SetModel(root *model.Node) error {
	if s.uploadErr != nil && root != nil {
		return s.uploadErr
	}
	s.models = append(s.models, root)
	return nil
}

func (s *fakeSurface) Render(f Frame)                 { s.frames = append(s.frames, f) }
func (s *fakeSurface) RenderFailure(st loader.Status) { s.failures = append(s.failures, st) }

func (s *fakeSurface) current() *model.Node {
	if len(s.models) == 0 {
		return nil
	}
	return s.models[len(s.models)-1]
}

// scriptedLoader hands out generations and lets the test deliver results.
type scriptedLoader struct {
	gen     uint64
	results chan loader.Status
	loads   []loader.Request
	reloads []loader.Request
	cancels int
}

func newScriptedLoader() *scriptedLoader {
	return &scriptedLoader{results: make(chan loader.Status, 8)}
}

func (l *scriptedLoader) Load(_ context.Context, req loader.Request) uint64 {
	l.gen++
	l.loads = append(l.loads, req)
	return l.gen
}

func (l *scriptedLoader) Reload(_ context.Context, req loader.Request) uint64 {
	l.gen++
	l.reloads = append(l.reloads, req)
	return l.gen
}

func (l *scriptedLoader) Cancel()                       { l.cancels++ }
func (l *scriptedLoader) Latest() uint64                { return l.gen }
func (l *scriptedLoader) Results() <-chan loader.Status { return l.results }

// boxNode returns a node holding a closed box mesh.
func boxNode(lo, hi [3]float32) *model.Node {
	var verts []model.Vertex
	for i := 0; i < 8; i++ {
		p := lo
		if i&1 != 0 {
			p[0] = hi[0]
		}
		if i&2 != 0 {
			p[1] = hi[1]
		}
		if i&4 != 0 {
			p[2] = hi[2]
		}
		verts = append(verts, model.Vertex{Position: p})
	}
	mesh := &model.Mesh{
		Name:     "box",
		Vertices: verts,
		Indices: []uint32{
			0, 1, 3, 0, 3, 2, // -Z
			4, 6, 7, 4, 7, 5, // +Z
			0, 4, 5, 0, 5, 1, // -Y
			2, 3, 7, 2, 7, 6, // +Y
			0, 2, 6, 0, 6, 4, // -X
			1, 5, 7, 1, 7, 3, // +X
		},
		Materials: []*model.Material{model.DefaultMaterial()},
		Groups:    []model.MaterialGroup{{MaterialIdx: 0, StartIndex: 0, IndexCount: 36}},
		Bounds:    model.Bounds{Min: lo, Max: hi},
	}
	n := model.NewNode("box")
	n.Meshes = []*model.Mesh{mesh}
	return n
}

// mapFetcher serves in-memory assets.
type mapFetcher map[string][]byte

func (f mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s: 404 Not Found", assets.ErrFetch, url)
	}
	return data, nil
}

func (f mapFetcher) FetchFresh(ctx context.Context, url string) ([]byte, error) {
	return f.Fetch(ctx, url)
}

func (f mapFetcher) FS(context.Context, string) fs.FS {
	return fstest.MapFS{}
}
