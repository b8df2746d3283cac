// Package framing classifies model extents and derives the camera placement
// that frames them.
//
// Everything here is a pure function of its arguments. Frame is evaluated
// once when a model becomes ready, never per frame.
package framing

import (
	gomath "math"

	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/math"
)

// Framing constants.
const (
	// FramePadding multiplies the fitted distance so the model does not touch
	// the viewport edges.
	FramePadding = 1.8

	// TerrainElevation is the camera height above the center as a fraction
	// of the planar diagonal.
	TerrainElevation = 0.7

	// TerrainAimHeight raises the look-at point by this fraction of the
	// model height.
	TerrainAimHeight = 0.3

	// TerrainFlatness is the height to horizontal-extent ratio below which
	// a model counts as terrain.
	TerrainFlatness = 0.1

	// MinFrameDistance is used when the model has no extent to fit.
	MinFrameDistance = 1.0

	// DefaultFOV replaces field-of-view values outside (0, 180) degrees.
	DefaultFOV = 50.0
)

// CameraFrame is the computed camera placement for one loaded model.
type CameraFrame struct {
	Position    math.Vec3
	LookAt      math.Vec3
	OrbitTarget math.Vec3
	Terrain     bool
}

// IsTerrain reports whether a box of the given size is flat relative to its
// smaller horizontal extent. Boxes with no horizontal extent are never
// terrain.
func IsTerrain(size math.Vec3) bool {
	minHorizontal := size.X
	if size.Z < minHorizontal {
		minHorizontal = size.Z
	}
	if minHorizontal <= 0 {
		return false
	}
	return size.Y < TerrainFlatness*minHorizontal
}

// Frame computes the camera placement for a model summary.
//
// Objects are viewed head-on along +Z from the distance at which their
// bounding sphere fills the vertical field of view. Terrain is viewed from
// above and behind, aimed slightly above its center.
func Frame(s bounds.Summary, fovDegrees float32, terrain bool) CameraFrame {
	halfFOV := float64(clampFOV(fovDegrees)) * gomath.Pi / 360
	tanHalf := float32(gomath.Tan(halfFOV))

	if terrain {
		planar := float32(gomath.Sqrt(float64(s.Size.X*s.Size.X + s.Size.Z*s.Size.Z)))
		distance := fitDistance(planar/2, tanHalf) * FramePadding
		elevation := planar * TerrainElevation
		if planar <= 0 {
			elevation = MinFrameDistance * TerrainElevation
		}
		target := s.Center.Add(math.Vec3{Y: s.Size.Y * TerrainAimHeight})
		return CameraFrame{
			Position:    s.Center.Add(math.Vec3{Y: elevation, Z: distance}),
			LookAt:      target,
			OrbitTarget: target,
			Terrain:     true,
		}
	}

	distance := fitDistance(s.Diagonal/2, tanHalf) * FramePadding
	return CameraFrame{
		Position:    s.Center.Add(math.Vec3{Z: distance}),
		LookAt:      s.Center,
		OrbitTarget: s.Center,
	}
}

// FrameBounds classifies the summary and frames it.
func FrameBounds(s bounds.Summary, fovDegrees float32) CameraFrame {
	return Frame(s, fovDegrees, IsTerrain(s.Size))
}

// fitDistance returns the distance at which radius fills the half field of
// view. Radius zero falls back to MinFrameDistance.
func fitDistance(radius, tanHalf float32) float32 {
	if radius <= 0 || tanHalf <= 0 {
		return MinFrameDistance
	}
	return radius / tanHalf
}

func clampFOV(fov float32) float32 {
	if fov <= 0 || fov >= 180 || gomath.IsNaN(float64(fov)) {
		return DefaultFOV
	}
	return fov
}

// CameraSetter receives a computed frame.
type CameraSetter interface {
	SetPosition(p math.Vec3)
	LookAt(target math.Vec3)
}

// OrbitTarget is implemented by controls that orbit around a point.
type OrbitTarget interface {
	SetTarget(target math.Vec3)
	Update()
}

// Apply moves cam to the frame and re-centers controls on the orbit target.
// controls may be nil.
func Apply(f CameraFrame, cam CameraSetter, controls OrbitTarget) {
	cam.SetPosition(f.Position)
	cam.LookAt(f.LookAt)
	if controls != nil {
		controls.SetTarget(f.OrbitTarget)
		controls.Update()
	}
}
