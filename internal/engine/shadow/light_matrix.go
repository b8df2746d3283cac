package shadow

import (
	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/math"
)

// DirectionalLightMatrix computes the view-projection of a directional
// light whose orthographic frustum encloses box.
// lightDir is the normalized direction TO the light.
func DirectionalLightMatrix(lightDir math.Vec3, box bounds.Box) math.Mat4 {
	if box.IsEmpty() {
		return math.Identity()
	}
	sum := box.Summary()
	center := sum.Center
	radius := sum.Diagonal / 2
	if radius <= 0 {
		radius = 1
	}

	// Position light far enough to encompass entire scene
	lightDistance := radius * 2.0
	lightPos := center.Add(lightDir.Scale(lightDistance))

	// Choose an up vector not parallel with the light direction
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	if lightDir.Y > 0.99 || lightDir.Y < -0.99 {
		up = math.Vec3{X: 0, Y: 0, Z: 1}
	}
	view := math.LookAt(lightPos, center, up)

	// Padding avoids clipping at the frustum edges
	padding := radius * 0.1
	halfSize := radius + padding
	near := float32(0.1)
	far := lightDistance + radius + padding

	proj := math.Ortho(-halfSize, halfSize, -halfSize, halfSize, near, far)
	return proj.Mul(view)
}
