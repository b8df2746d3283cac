// Package loader turns a model request into a displayable scene graph and
// reports the outcome as a Status.
package loader

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Kind is the model format tag supplied with a request.
type Kind string

// Supported kinds.
const (
	KindOBJ  Kind = "obj"
	KindGLB  Kind = "glb"
	KindGLTF Kind = "gltf"
)

// ErrUnsupportedKind is returned for unknown model type tags.
var ErrUnsupportedKind = errors.New("unsupported model type")

// ParseKind parses a model type tag case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOBJ, KindGLB, KindGLTF:
		return k, nil
	default:
		return Kind(s), fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

// KindFromPath infers the kind from a file name or URL extension.
func KindFromPath(p string) (Kind, bool) {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	k, err := ParseKind(strings.TrimPrefix(path.Ext(p), "."))
	return k, err == nil
}

// Request identifies one model to display. Two requests are the same load
// when they compare equal.
type Request struct {
	ModelURL    string `json:"modelUrl"`
	Kind        Kind   `json:"modelType"`
	MaterialURL string `json:"materialUrl,omitempty"`
}

// String returns a short description for logs.
func (r Request) String() string {
	if r.MaterialURL != "" {
		return fmt.Sprintf("%s %s (mtl %s)", r.Kind, r.ModelURL, r.MaterialURL)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.ModelURL)
}
