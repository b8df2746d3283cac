package renderer

import (
	"image"
	"image/color"

	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/internal/engine/texture"
	"github.com/Faultbox/terraview/internal/loader"
)

// materialState is the fixed-function state a material needs.
type materialState struct {
	cull    bool
	blend   bool
	opacity float32
}

func stateFor(mat *model.Material) materialState {
	opacity := mat.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return materialState{
		cull:    !mat.DoubleSided,
		blend:   opacity < 1,
		opacity: opacity,
	}
}

// hexColor converts 0xRRGGBB to normalized RGB.
func hexColor(c uint32) [3]float32 {
	return [3]float32{
		float32(c>>16&0xff) / 255,
		float32(c>>8&0xff) / 255,
		float32(c&0xff) / 255,
	}
}

// statusTitle is the window title for a viewer status.
func statusTitle(base string, status loader.Status) string {
	switch status.State {
	case loader.StateLoading:
		return base + " - Loading..."
	case loader.StateFailed:
		return base + " - " + status.Message
	default:
		return base
	}
}

func whitePixel() image.Image {
	return texture.Solid(color.RGBA{255, 255, 255, 255})
}
