// Package camera provides the viewer's perspective camera and the orbit
// controls that move it.
package camera

import (
	gomath "math"

	"github.com/Faultbox/terraview/pkg/math"
)

// Initial camera placement before any model is framed.
var (
	DefaultPosition = math.Vec3{X: 0, Y: 150, Z: 300}
	DefaultUp       = math.Vec3{X: 0, Y: 1, Z: 0}
)

// Default projection settings.
const (
	DefaultFOV  = 50.0 // degrees
	DefaultNear = 0.1
	DefaultFar  = 5000.0
)

// Perspective is a look-at camera with a perspective projection.
type Perspective struct {
	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3

	FOV    float32 // Vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32
}

// NewPerspective creates a camera at DefaultPosition looking at the origin.
func NewPerspective(fov, aspect float32) *Perspective {
	if aspect <= 0 {
		aspect = 1
	}
	return &Perspective{
		Position: DefaultPosition,
		Up:       DefaultUp,
		FOV:      fov,
		Aspect:   aspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

// SetPosition moves the camera.
func (c *Perspective) SetPosition(p math.Vec3) {
	c.Position = p
}

// LookAt points the camera at target.
func (c *Perspective) LookAt(target math.Vec3) {
	c.Target = target
}

// SetViewport updates the aspect ratio from a viewport size in pixels.
func (c *Perspective) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *Perspective) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.Target, c.Up)
}

// ProjectionMatrix returns the perspective projection matrix.
func (c *Perspective) ProjectionMatrix() math.Mat4 {
	return math.Perspective(c.FOV*gomath.Pi/180, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *Perspective) ViewProjection() math.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}
