package camera

import (
	gomath "math"

	"github.com/Faultbox/terraview/pkg/math"
)

// polarEpsilon keeps the camera off the poles, where the look-at basis
// degenerates.
const polarEpsilon = 1e-6

// OrbitSettings holds orbit control constraints and sensitivities.
type OrbitSettings struct {
	MinDistance   float32
	MaxDistance   float32
	MinPolar      float32 // Radians from +Y
	MaxPolar      float32
	DampingFactor float32 // 0 disables damping
	RotateSpeed   float32
	ZoomSpeed     float32
}

// DefaultOrbitSettings returns the viewer's standard control feel.
func DefaultOrbitSettings() OrbitSettings {
	return OrbitSettings{
		MinDistance:   50,
		MaxDistance:   1000,
		MinPolar:      0,
		MaxPolar:      gomath.Pi * 0.45,
		DampingFactor: 0.1,
		RotateSpeed:   0.5,
		ZoomSpeed:     1,
	}
}

// OrbitControls rotates and zooms a camera around a target point.
//
// Input handlers only accumulate deltas; Update applies them, so it must be
// called once per frame. With damping on, motion eases out over several
// frames after input stops.
type OrbitControls struct {
	OrbitSettings

	camera *Perspective
	target math.Vec3

	deltaTheta float32 // Pending azimuth change
	deltaPhi   float32 // Pending polar change
	scale      float32 // Pending distance factor
}

// NewOrbitControls attaches controls to cam, orbiting the origin.
func NewOrbitControls(cam *Perspective, s OrbitSettings) *OrbitControls {
	return &OrbitControls{
		OrbitSettings: s,
		camera:        cam,
		scale:         1,
	}
}

// Target returns the point the camera orbits.
func (o *OrbitControls) Target() math.Vec3 {
	return o.target
}

// SetTarget changes the orbit point and drops any pending motion.
func (o *OrbitControls) SetTarget(t math.Vec3) {
	o.target = t
	o.deltaTheta = 0
	o.deltaPhi = 0
	o.scale = 1
}

// HandleDrag rotates by a pointer drag in pixels. A drag across the full
// viewport height turns the camera by RotateSpeed full circles.
func (o *OrbitControls) HandleDrag(deltaX, deltaY float32, viewportHeight int) {
	if viewportHeight <= 0 {
		return
	}
	h := float32(viewportHeight)
	o.deltaTheta -= 2 * gomath.Pi * deltaX / h * o.RotateSpeed
	o.deltaPhi -= 2 * gomath.Pi * deltaY / h * o.RotateSpeed
}

// HandleZoom dollies by wheel steps; positive steps move closer.
func (o *OrbitControls) HandleZoom(steps float32) {
	o.scale *= float32(gomath.Pow(0.95, float64(o.ZoomSpeed*steps)))
}

// Update applies pending motion and constraints and re-aims the camera.
func (o *OrbitControls) Update() {
	offset := o.camera.Position.Sub(o.target)
	radius := offset.Length()
	theta := float32(gomath.Atan2(float64(offset.X), float64(offset.Z)))
	phi := float32(0)
	if radius > 0 {
		phi = float32(gomath.Acos(float64(clamp(offset.Y/radius, -1, 1))))
	}

	if o.DampingFactor > 0 {
		theta += o.deltaTheta * o.DampingFactor
		phi += o.deltaPhi * o.DampingFactor
	} else {
		theta += o.deltaTheta
		phi += o.deltaPhi
	}

	phi = clamp(phi, o.MinPolar, o.MaxPolar)
	phi = clamp(phi, polarEpsilon, gomath.Pi-polarEpsilon)

	radius = clamp(radius*o.scale, o.MinDistance, o.MaxDistance)

	sinPhi := float32(gomath.Sin(float64(phi)))
	o.camera.Position = o.target.Add(math.Vec3{
		X: radius * sinPhi * float32(gomath.Sin(float64(theta))),
		Y: radius * float32(gomath.Cos(float64(phi))),
		Z: radius * sinPhi * float32(gomath.Cos(float64(theta))),
	})
	o.camera.LookAt(o.target)

	if o.DampingFactor > 0 {
		o.deltaTheta *= 1 - o.DampingFactor
		o.deltaPhi *= 1 - o.DampingFactor
	} else {
		o.deltaTheta = 0
		o.deltaPhi = 0
	}
	o.scale = 1
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
