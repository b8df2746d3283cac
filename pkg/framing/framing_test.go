package framing

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/math"
)

func TestIsTerrain(t *testing.T) {
	tests := []struct {
		name string
		size math.Vec3
		want bool
	}{
		{"unit cube", math.Vec3{X: 1, Y: 1, Z: 1}, false},
		{"flat plane", math.Vec3{X: 100, Y: 2, Z: 100}, true},
		{"exactly at threshold", math.Vec3{X: 100, Y: 10, Z: 200}, false},
		{"just below threshold", math.Vec3{X: 100, Y: 9.99, Z: 200}, true},
		{"narrow strip uses min extent", math.Vec3{X: 1000, Y: 5, Z: 10}, false},
		{"zero depth", math.Vec3{X: 10, Y: 0, Z: 0}, false},
		{"zero box", math.Vec3{}, false},
		{"tall tower", math.Vec3{X: 1, Y: 50, Z: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTerrain(tt.size); got != tt.want {
				t.Errorf("IsTerrain(%+v) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestFrameUnitCube(t *testing.T) {
	s := bounds.FromPoints(math.Vec3{X: -0.5, Y: -0.5, Z: -0.5}, math.Vec3{X: 0.5, Y: 0.5, Z: 0.5}).Summary()
	f := FrameBounds(s, 50)

	if f.Terrain {
		t.Fatal("unit cube classified as terrain")
	}
	want := gomath.Sqrt(3) / 2 / gomath.Tan(25*gomath.Pi/180) * 1.8
	if gomath.Abs(float64(f.Position.Z)-want) > 1e-4 {
		t.Errorf("distance = %v, want %v", f.Position.Z, want)
	}
	if f.Position.X != 0 || f.Position.Y != 0 {
		t.Errorf("camera should sit on +Z, got %+v", f.Position)
	}
	if f.LookAt != (math.Vec3{}) || f.OrbitTarget != (math.Vec3{}) {
		t.Errorf("lookAt = %+v, target = %+v", f.LookAt, f.OrbitTarget)
	}
}

func TestFrameTerrain(t *testing.T) {
	s := bounds.Summary{Size: math.Vec3{X: 100, Y: 2, Z: 100}}
	s.Diagonal = s.Size.Length()

	if !IsTerrain(s.Size) {
		t.Fatal("expected terrain")
	}
	f := FrameBounds(s, 50)
	if !f.Terrain {
		t.Fatal("frame not marked terrain")
	}
	if abs(f.LookAt.Y-0.6) > 1e-6 {
		t.Errorf("lookAt.y = %v, want 0.6", f.LookAt.Y)
	}
	if f.OrbitTarget != f.LookAt {
		t.Errorf("orbit target %+v differs from lookAt %+v", f.OrbitTarget, f.LookAt)
	}

	planar := gomath.Sqrt(100*100 + 100*100)
	wantElev := planar * 0.7
	wantDist := planar / 2 / gomath.Tan(25*gomath.Pi/180) * 1.8
	if gomath.Abs(float64(f.Position.Y)-wantElev) > 1e-3 {
		t.Errorf("elevation = %v, want %v", f.Position.Y, wantElev)
	}
	if gomath.Abs(float64(f.Position.Z)-wantDist) > 1e-3 {
		t.Errorf("distance = %v, want %v", f.Position.Z, wantDist)
	}
}

func TestFrameOffCenter(t *testing.T) {
	s := bounds.Summary{Center: math.Vec3{X: 5, Y: -3, Z: 7}, Size: math.Vec3{X: 2, Y: 2, Z: 2}}
	s.Diagonal = s.Size.Length()

	f := Frame(s, 50, false)
	if f.Position.X != 5 || f.Position.Y != -3 || f.Position.Z <= 7 {
		t.Errorf("position = %+v", f.Position)
	}
	if f.LookAt != s.Center {
		t.Errorf("lookAt = %+v", f.LookAt)
	}
}

func TestFrameIdempotent(t *testing.T) {
	s := bounds.Summary{Center: math.Vec3{X: 1, Y: 2, Z: 3}, Size: math.Vec3{X: 40, Y: 1, Z: 30}}
	s.Diagonal = s.Size.Length()

	a := FrameBounds(s, 50)
	b := FrameBounds(s, 50)
	if a != b {
		t.Errorf("frames differ: %+v vs %+v", a, b)
	}
}

func TestFrameDegenerate(t *testing.T) {
	f := Frame(bounds.Summary{Center: math.Vec3{Y: 1}}, 50, false)
	want := float32(MinFrameDistance * FramePadding)
	if f.Position.Z != want {
		t.Errorf("zero diagonal distance = %v, want %v", f.Position.Z, want)
	}
	for _, v := range []float32{f.Position.X, f.Position.Y, f.Position.Z} {
		if gomath.IsNaN(float64(v)) || gomath.IsInf(float64(v), 0) {
			t.Fatalf("non-finite position %+v", f.Position)
		}
	}

	f = Frame(bounds.Summary{}, 50, true)
	if gomath.IsNaN(float64(f.Position.Z)) || f.Position.Z <= 0 {
		t.Errorf("terrain guard failed: %+v", f.Position)
	}
}

func TestFrameClampsFOV(t *testing.T) {
	s := bounds.Summary{Size: math.Vec3{X: 1, Y: 1, Z: 1}}
	s.Diagonal = s.Size.Length()

	want := Frame(s, DefaultFOV, false)
	for _, fov := range []float32{0, -10, 180, 270} {
		if got := Frame(s, fov, false); got != want {
			t.Errorf("fov %v: got %+v, want %+v", fov, got, want)
		}
	}
}

type recorder struct {
	pos, look, target math.Vec3
	updates           int
}

func (r *recorder) SetPosition(p math.Vec3) { r.pos = p }
func (r *recorder) LookAt(p math.Vec3)      { r.look = p }
func (r *recorder) SetTarget(p math.Vec3)   { r.target = p }
func (r *recorder) Update()                 { r.updates++ }

func TestApply(t *testing.T) {
	f := CameraFrame{
		Position:    math.Vec3{Z: 10},
		LookAt:      math.Vec3{Y: 1},
		OrbitTarget: math.Vec3{Y: 1},
	}
	cam := &recorder{}
	controls := &recorder{}
	Apply(f, cam, controls)

	if cam.pos != f.Position || cam.look != f.LookAt {
		t.Errorf("camera got %+v / %+v", cam.pos, cam.look)
	}
	if controls.target != f.OrbitTarget || controls.updates != 1 {
		t.Errorf("controls got target %+v after %d updates", controls.target, controls.updates)
	}

	Apply(f, cam, nil)
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
