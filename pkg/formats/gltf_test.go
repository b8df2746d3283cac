package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func writeTriangleGLB(t *testing.T) []byte {
	t.Helper()

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "Triangle",
		Primitives: []*gltf.Primitive{{
			Attributes: map[string]int{gltf.POSITION: pos},
			Indices:    gltf.Index(idx),
		}},
	}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []int{0}

	path := filepath.Join(t.TempDir(), "triangle.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading glb: %v", err)
	}
	return data
}

func TestParseGLTF_Binary(t *testing.T) {
	data := writeTriangleGLB(t)
	if !IsGLB(data) {
		t.Fatal("SaveBinary output should carry the GLB magic")
	}

	doc, err := ParseGLTF(data, nil)
	if err != nil {
		t.Fatalf("ParseGLTF: %v", err)
	}
	if len(doc.Meshes) != 1 || doc.Meshes[0].Name != "Triangle" {
		t.Fatalf("unexpected meshes: %+v", doc.Meshes)
	}
	prim := doc.Meshes[0].Primitives[0]
	positions, err := modeler.ReadPosition(doc, doc.Accessors[prim.Attributes[gltf.POSITION]], nil)
	if err != nil {
		t.Fatalf("ReadPosition: %v", err)
	}
	if len(positions) != 3 || positions[1] != [3]float32{1, 0, 0} {
		t.Errorf("positions = %v", positions)
	}
}

func TestParseGLTF_Errors(t *testing.T) {
	if _, err := ParseGLTF(nil, nil); !errors.Is(err, ErrEmptyGLTF) {
		t.Errorf("empty input: expected ErrEmptyGLTF, got %v", err)
	}
	if _, err := ParseGLTF([]byte("{not json"), nil); !errors.Is(err, ErrInvalidGLTF) {
		t.Errorf("malformed input: expected ErrInvalidGLTF, got %v", err)
	}
}

func TestIsGLB(t *testing.T) {
	if IsGLB([]byte(`{"asset":{"version":"2.0"}}`)) {
		t.Error("JSON glTF reported as GLB")
	}
	if IsGLB([]byte("glTF")) {
		t.Error("truncated header reported as GLB")
	}
}

func TestGLTFImage(t *testing.T) {
	tests := []struct {
		name    string
		view    gltf.BufferView
		want    []byte
		wantErr bool
	}{
		{"inside buffer", gltf.BufferView{ByteOffset: 2, ByteLength: 4}, []byte{3, 4, 5, 6}, false},
		{"whole buffer", gltf.BufferView{ByteLength: 8}, []byte{1, 2, 3, 4, 5, 6, 7, 8}, false},
		{"negative offset", gltf.BufferView{ByteOffset: -4, ByteLength: 4}, nil, true},
		{"negative length", gltf.BufferView{ByteOffset: 4, ByteLength: -2}, nil, true},
		{"past end", gltf.BufferView{ByteOffset: 6, ByteLength: 4}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := tt.view
			doc := &gltf.Document{
				Buffers:     []*gltf.Buffer{{ByteLength: 8, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}},
				BufferViews: []*gltf.BufferView{&view},
				Images:      []*gltf.Image{{BufferView: gltf.Index(0)}},
			}
			data, uri, err := GLTFImage(doc, 0)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGLTF) {
					t.Fatalf("expected ErrInvalidGLTF, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GLTFImage: %v", err)
			}
			if uri != "" || string(data) != string(tt.want) {
				t.Errorf("got data %v uri %q, want %v", data, uri, tt.want)
			}
		})
	}

	doc := &gltf.Document{Images: []*gltf.Image{{URI: "textures/albedo.png"}}}
	if data, uri, err := GLTFImage(doc, 0); err != nil || data != nil || uri != "textures/albedo.png" {
		t.Errorf("external image: data %v uri %q err %v", data, uri, err)
	}
	if _, _, err := GLTFImage(doc, 3); !errors.Is(err, ErrInvalidGLTF) {
		t.Errorf("missing image: expected ErrInvalidGLTF, got %v", err)
	}
}
