package viewer

import (
	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/internal/loader"
	"github.com/Faultbox/terraview/pkg/math"
)

// Surface draws what the host decides to show. All methods are called on the
// render thread.
type Surface interface {
	// Size returns the drawable size in pixels.
	Size() (width, height int)

	// SetModel replaces the displayed model. nil clears it.
	SetModel(root *model.Node) error

	// Render draws one frame of the scene.
	Render(frame Frame)

	// RenderFailure draws the error state instead of the scene.
	RenderFailure(status loader.Status)
}

// Frame is the per-frame input to Surface.Render.
type Frame struct {
	Model      *model.Node // nil while loading
	View       math.Mat4
	Projection math.Mat4
	Eye        math.Vec3
	Status     loader.Status
}
