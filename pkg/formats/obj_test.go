package formats

import (
	"errors"
	"testing"
)

const cubeOBJ = `# unit cube
mtllib cube.mtl
o Cube
v -0.5 -0.5 -0.5
v  0.5 -0.5 -0.5
v  0.5  0.5 -0.5
v -0.5  0.5 -0.5
v -0.5 -0.5  0.5
v  0.5 -0.5  0.5
v  0.5  0.5  0.5
v -0.5  0.5  0.5
vt 0 0
vt 1 0
vt 1 1
vn 0 0 -1
usemtl Red
s 1
f 1/1/1 2/2/1 3/3/1 4//1
f 5 6 7 8
usemtl Blue
s off
f 1 5 8 4
g Lid
f -4 -3 -2
`

func TestParseOBJ_Cube(t *testing.T) {
	obj, err := ParseOBJ([]byte(cubeOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}

	if len(obj.Positions) != 8 {
		t.Errorf("expected 8 positions, got %d", len(obj.Positions))
	}
	if len(obj.TexCoords) != 3 {
		t.Errorf("expected 3 texcoords, got %d", len(obj.TexCoords))
	}
	if len(obj.Normals) != 1 {
		t.Errorf("expected 1 normal, got %d", len(obj.Normals))
	}
	if len(obj.MaterialLibs) != 1 || obj.MaterialLibs[0] != "cube.mtl" {
		t.Errorf("expected mtllib cube.mtl, got %v", obj.MaterialLibs)
	}
	if len(obj.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(obj.Objects))
	}
	if obj.Objects[0].Name != "Cube" || obj.Objects[1].Name != "Lid" {
		t.Errorf("unexpected object names %q, %q", obj.Objects[0].Name, obj.Objects[1].Name)
	}
	if obj.FaceCount() != 4 {
		t.Errorf("expected 4 faces, got %d", obj.FaceCount())
	}

	first := obj.Objects[0].Faces[0]
	if first.Material != "Red" || !first.Smooth {
		t.Errorf("first face: material %q smooth %v", first.Material, first.Smooth)
	}
	if first.Corners[0] != (OBJIndex{V: 0, VT: 0, VN: 0}) {
		t.Errorf("first corner = %+v", first.Corners[0])
	}
	if first.Corners[3] != (OBJIndex{V: 3, VT: -1, VN: 0}) {
		t.Errorf("v//vn corner = %+v", first.Corners[3])
	}

	third := obj.Objects[0].Faces[2]
	if third.Material != "Blue" || third.Smooth {
		t.Errorf("third face: material %q smooth %v", third.Material, third.Smooth)
	}

	// Negative indices are relative to the vertices read so far.
	lid := obj.Objects[1].Faces[0]
	if lid.Corners[0].V != 4 || lid.Corners[2].V != 6 {
		t.Errorf("relative indices resolved to %+v", lid.Corners)
	}
	if lid.Material != "Blue" {
		t.Errorf("material should carry across groups, got %q", lid.Material)
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"bad vertex", "v 1 two 3\n", ErrInvalidOBJ},
		{"short vertex", "v 1 2\n", ErrInvalidOBJ},
		{"face too small", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrInvalidOBJ},
		{"index out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", ErrOBJIndexRange},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrOBJIndexRange},
		{"bad texcoord index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1\n", ErrOBJIndexRange},
		{"garbage corner", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/a 2 3\n", ErrInvalidOBJ},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseOBJ_LineContinuationAndComments(t *testing.T) {
	data := "v 0 0 0 # origin\nv 1 0 0\nv 0 1 \\\n 0\nf 1 2 3\n"
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if len(obj.Positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(obj.Positions))
	}
	if obj.Positions[2] != [3]float32{0, 1, 0} {
		t.Errorf("continued vertex = %v", obj.Positions[2])
	}
	if obj.FaceCount() != 1 {
		t.Errorf("expected 1 face, got %d", obj.FaceCount())
	}
}

func TestParseOBJ_NoFaces(t *testing.T) {
	obj, err := ParseOBJ([]byte("v 0 0 0\nl 1 1\n"))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if len(obj.Objects) != 0 {
		t.Errorf("objects without faces should be dropped, got %d", len(obj.Objects))
	}
}
