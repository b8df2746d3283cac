package loader

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"testing/fstest"

	"github.com/Faultbox/terraview/internal/assets"
)

// fakeFetcher serves in-memory files. Gated URLs block until their gate is
// closed, regardless of context, to simulate a slow fetch that finishes
// after being superseded.
type fakeFetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	gates map[string]chan struct{}
	calls map[string]int
	fresh int
}

func newFakeFetcher(files map[string][]byte) *fakeFetcher {
	return &fakeFetcher{
		files: files,
		gates: make(map[string]chan struct{}),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) gate(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[url] = ch
	return ch
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	gate := f.gates[url]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s: 404 Not Found", assets.ErrFetch, url)
	}
	return data, nil
}

func (f *fakeFetcher) FetchFresh(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.fresh++
	f.mu.Unlock()
	return f.Fetch(ctx, url)
}

func (f *fakeFetcher) FS(context.Context, string) fs.FS {
	return fstest.MapFS{}
}
