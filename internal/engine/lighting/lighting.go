// Package lighting describes the fixed scene lights the viewer renders with.
package lighting

import (
	"github.com/Faultbox/terraview/pkg/math"
)

// Scene holds the ambient, directional and hemisphere lights.
type Scene struct {
	AmbientColor     [3]float32
	AmbientIntensity float32

	// DirectionalPosition is where the directional light sits; it shines
	// towards the origin.
	DirectionalPosition  math.Vec3
	DirectionalColor     [3]float32
	DirectionalIntensity float32

	SkyColor            [3]float32
	GroundColor         [3]float32
	HemisphereIntensity float32
}

// Default returns the viewer's standard lighting.
func Default() Scene {
	return Scene{
		AmbientColor:         [3]float32{1, 1, 1},
		AmbientIntensity:     0.5,
		DirectionalPosition:  math.Vec3{X: 500, Y: 500, Z: 200},
		DirectionalColor:     [3]float32{1, 1, 1},
		DirectionalIntensity: 1,
		SkyColor:             [3]float32{1, 1, 1},
		GroundColor:          [3]float32{0.678, 0.847, 0.902}, // lightblue
		HemisphereIntensity:  0.3,
	}
}

// LightDirection returns the normalized direction from a surface towards
// the directional light.
func (s Scene) LightDirection() math.Vec3 {
	d := s.DirectionalPosition.Normalize()
	if d == (math.Vec3{}) {
		return math.Vec3{X: 0, Y: 1, Z: 0}
	}
	return d
}

// Irradiance returns the light reaching a surface with the given unit
// normal, before the material colour is applied.
func (s Scene) Irradiance(normal math.Vec3) [3]float32 {
	nDotL := normal.Dot(s.LightDirection())
	if nDotL < 0 {
		nDotL = 0
	}
	// Hemisphere blend: 1 facing straight up, 0 straight down.
	up := 0.5*normal.Y + 0.5

	var out [3]float32
	for i := range out {
		hemi := s.GroundColor[i] + (s.SkyColor[i]-s.GroundColor[i])*up
		out[i] = s.AmbientColor[i]*s.AmbientIntensity +
			s.DirectionalColor[i]*s.DirectionalIntensity*nDotL +
			hemi*s.HemisphereIntensity
	}
	return out
}
