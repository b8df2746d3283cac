package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terraview/internal/engine/debug"
	"github.com/Faultbox/terraview/internal/viewer"
	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/math"
)

// boundsColor is the overlay line colour.
var boundsColor = [3]float32{1, 0.85, 0.2}

func (r *Renderer) createLineBuffers() {
	gl.GenVertexArrays(1, &r.lineVAO)
	gl.BindVertexArray(r.lineVAO)

	gl.GenBuffers(1, &r.lineVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferData(gl.ARRAY_BUFFER, debug.BBoxWireframeVertexCount*3*4, nil, gl.DYNAMIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// drawBounds draws the world-space bounding box of the model as lines.
func (r *Renderer) drawBounds(frame viewer.Frame, box bounds.Box) {
	verts := debug.BoxWireframe(box, debug.DefaultBBoxPadding)
	if len(verts) == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, gl.Ptr(&verts[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	viewProj := frame.Projection.Mul(frame.View)
	identity := math.Identity()

	p := r.lineProgram
	p.Use()
	p.SetMat4("uViewProj", &viewProj)
	p.SetMat4("uModel", &identity)
	p.SetVec3("uColor", boundsColor)

	gl.BindVertexArray(r.lineVAO)
	gl.DrawArrays(gl.LINES, 0, debug.BBoxWireframeVertexCount)
	gl.BindVertexArray(0)
}
