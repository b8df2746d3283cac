package loader

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"obj", KindOBJ, false},
		{"GLB", KindGLB, false},
		{" gltf ", KindGLTF, false},
		{"fbx", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedKind) {
				t.Errorf("ParseKind(%q): expected ErrUnsupportedKind, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestKindFromPath(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"scene.OBJ", KindOBJ, true},
		{"https://x.test/a/b.glb?sig=abc", KindGLB, true},
		{"/srv/m/model.gltf#node", KindGLTF, true},
		{"model.stl", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := KindFromPath(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("KindFromPath(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestRequestJSON(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"modelUrl":"a.obj","modelType":"obj","materialUrl":"a.mtl"}`), &req); err != nil {
		t.Fatal(err)
	}
	want := Request{ModelURL: "a.obj", Kind: KindOBJ, MaterialURL: "a.mtl"}
	if req != want {
		t.Errorf("got %+v", req)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateLoading: "loading",
		StateReady:   "ready",
		StateFailed:  "failed",
		State(42):    "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d: %q", state, got)
		}
	}
	b, _ := json.Marshal(struct{ S State }{StateFailed})
	if string(b) != `{"S":"failed"}` {
		t.Errorf("json = %s", b)
	}

	var back struct{ S State }
	if err := json.Unmarshal(b, &back); err != nil || back.S != StateFailed {
		t.Errorf("round trip = %v, %v", back.S, err)
	}
	if err := json.Unmarshal([]byte(`{"S":"done"}`), &back); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestMatchMaterialFile(t *testing.T) {
	names := []string{"readme.txt", "Terrain.MTL", "terrain.obj", "other.mtl"}
	got, ok := MatchMaterialFile("terrain.obj", names)
	if !ok || got != "Terrain.MTL" {
		t.Errorf("got %q, %v", got, ok)
	}
	if _, ok := MatchMaterialFile("cube.OBJ", names); ok {
		t.Error("unexpected match for cube")
	}
}

func TestFindMaterialFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"house.obj", "HOUSE.mtl"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := FindMaterialFile(filepath.Join(dir, "house.obj"))
	if !ok || got != filepath.Join(dir, "HOUSE.mtl") {
		t.Errorf("got %q, %v", got, ok)
	}
	if _, ok := FindMaterialFile(filepath.Join(dir, "missing", "x.obj")); ok {
		t.Error("expected no match in missing directory")
	}
}
