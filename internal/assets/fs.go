package assets

import (
	"bytes"
	"context"
	"io/fs"
	"net/url"
	"path"
	"time"
)

// FS exposes the files next to base as an fs.FS backed by the fetcher. It
// lets format decoders open relative references (glTF buffers and images)
// without knowing where the model came from.
func (f *Fetcher) FS(ctx context.Context, base string) fs.FS {
	return &fetchFS{ctx: ctx, f: f, base: base}
}

type fetchFS struct {
	ctx  context.Context
	f    *Fetcher
	base string
}

// ReadFile implements fs.ReadFileFS.
func (s *fetchFS) ReadFile(name string) ([]byte, error) {
	ref := name
	if unescaped, err := url.PathUnescape(name); err == nil {
		ref = unescaped
	}
	data, err := s.f.Fetch(s.ctx, Resolve(s.base, ref))
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: name, Err: err}
	}
	return data, nil
}

// Open implements fs.FS.
func (s *fetchFS) Open(name string) (fs.File, error) {
	data, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return &memFile{Reader: bytes.NewReader(data), name: path.Base(name), size: int64(len(data))}, nil
}

type memFile struct {
	*bytes.Reader
	name string
	size int64
}

func (m *memFile) Stat() (fs.FileInfo, error) { return m, nil }
func (m *memFile) Close() error               { return nil }

func (m *memFile) Name() string       { return m.name }
func (m *memFile) Size() int64        { return m.size }
func (m *memFile) Mode() fs.FileMode  { return 0o444 }
func (m *memFile) ModTime() time.Time { return time.Time{} }
func (m *memFile) IsDir() bool        { return false }
func (m *memFile) Sys() any           { return nil }
