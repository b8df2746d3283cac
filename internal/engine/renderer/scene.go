package renderer

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/internal/engine/texture"
	"github.com/Faultbox/terraview/internal/viewer"
	"github.com/Faultbox/terraview/pkg/math"
)

// gpuMesh is one uploaded model.Mesh.
type gpuMesh struct {
	vao, vbo, ebo uint32
}

// gpuScene holds the GPU resources of one model tree.
type gpuScene struct {
	root     *model.Node
	meshes   map[*model.Mesh]*gpuMesh
	textures map[*model.Material]uint32
}

func uploadScene(root *model.Node) (*gpuScene, error) {
	s := &gpuScene{
		root:     root,
		meshes:   make(map[*model.Mesh]*gpuMesh),
		textures: make(map[*model.Material]uint32),
	}

	root.Walk(func(node *model.Node, _ math.Mat4) bool {
		for _, mesh := range node.Meshes {
			if mesh == nil || len(mesh.Indices) == 0 || len(mesh.Vertices) == 0 || s.meshes[mesh] != nil {
				continue
			}
			s.meshes[mesh] = uploadMesh(mesh)
		}
		return true
	})
	for _, mat := range root.Materials() {
		if mat.Texture != nil {
			s.textures[mat] = uploadTexture(mat.Texture)
		}
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		s.release()
		return nil, fmt.Errorf("uploading model: GL error 0x%x", code)
	}
	return s, nil
}

func uploadMesh(mesh *model.Mesh) *gpuMesh {
	g := &gpuMesh{}
	stride := int32(unsafe.Sizeof(model.Vertex{}))

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*int(stride), gl.Ptr(&mesh.Vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(&mesh.Indices[0]), gl.STATIC_DRAW)

	// Position, normal, texcoord
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	return g
}

// uploadTexture creates a mipmapped, repeating texture. Rows are flipped so
// that v=0 samples the bottom of the image.
func uploadTexture(img image.Image) uint32 {
	rgba := texture.FlipVertical(texture.ImageToRGBA(img))
	b := rgba.Bounds()

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return id
}

func (s *gpuScene) release() {
	for _, m := range s.meshes {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	for _, id := range s.textures {
		gl.DeleteTextures(1, &id)
	}
	s.meshes = nil
	s.textures = nil
}

// drawShadows renders model depth from the directional light.
func (r *Renderer) drawShadows(frame viewer.Frame, lightSpace math.Mat4) {
	r.shadowMap.Bind()
	p := r.depthProgram
	p.Use()
	p.SetMat4("uLightSpace", &lightSpace)

	frame.Model.Walk(func(node *model.Node, world math.Mat4) bool {
		for _, mesh := range node.Meshes {
			g := r.scene.meshes[mesh]
			if g == nil {
				continue
			}
			p.SetMat4("uModel", &world)
			gl.BindVertexArray(g.vao)
			gl.DrawElementsWithOffset(gl.TRIANGLES, int32(len(mesh.Indices)), gl.UNSIGNED_INT, 0)
		}
		return true
	})
	gl.BindVertexArray(0)
	r.shadowMap.Unbind()
}

func (r *Renderer) drawScene(frame viewer.Frame, lightSpace math.Mat4) {
	p := r.meshProgram
	p.Use()
	p.SetMat4("uView", &frame.View)
	p.SetMat4("uProjection", &frame.Projection)
	p.SetMat4("uLightSpace", &lightSpace)
	p.SetInt("uShadowMap", 1)
	p.SetBool("uShadows", r.shadowMap.IsValid())
	if r.shadowMap.IsValid() {
		r.shadowMap.BindTexture(gl.TEXTURE1)
	}

	lights := r.config.Lights
	p.SetVec3("uAmbient", scaled(lights.AmbientColor, lights.AmbientIntensity))
	p.SetVec3("uLightDir", lights.LightDirection().Array())
	p.SetVec3("uLightColor", scaled(lights.DirectionalColor, lights.DirectionalIntensity))
	p.SetVec3("uSkyColor", scaled(lights.SkyColor, lights.HemisphereIntensity))
	p.SetVec3("uGroundColor", scaled(lights.GroundColor, lights.HemisphereIntensity))
	p.SetInt("uTexture", 0)
	gl.ActiveTexture(gl.TEXTURE0)

	// Opaque groups first, then blended ones with depth writes off.
	var translucent []drawCall
	frame.Model.Walk(func(node *model.Node, world math.Mat4) bool {
		for _, mesh := range node.Meshes {
			g := r.scene.meshes[mesh]
			if g == nil {
				continue
			}
			for _, call := range drawCalls(mesh, g, world) {
				if call.state.blend {
					translucent = append(translucent, call)
					continue
				}
				r.draw(call)
			}
		}
		return true
	})

	if len(translucent) > 0 {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		for _, call := range translucent {
			r.draw(call)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}
	gl.BindVertexArray(0)
}

// drawCall is one material group of one mesh instance.
type drawCall struct {
	mesh  *gpuMesh
	world math.Mat4
	mat   *model.Material
	start int32
	count int32
	state materialState
}

func drawCalls(mesh *model.Mesh, g *gpuMesh, world math.Mat4) []drawCall {
	groups := mesh.Groups
	if len(groups) == 0 {
		groups = []model.MaterialGroup{{MaterialIdx: -1, IndexCount: int32(len(mesh.Indices))}}
	}
	calls := make([]drawCall, 0, len(groups))
	for _, grp := range groups {
		mat := model.DefaultMaterial()
		if grp.MaterialIdx >= 0 && grp.MaterialIdx < len(mesh.Materials) && mesh.Materials[grp.MaterialIdx] != nil {
			mat = mesh.Materials[grp.MaterialIdx]
		}
		calls = append(calls, drawCall{
			mesh:  g,
			world: world,
			mat:   mat,
			start: grp.StartIndex,
			count: grp.IndexCount,
			state: stateFor(mat),
		})
	}
	return calls
}

func (r *Renderer) draw(call drawCall) {
	p := r.meshProgram
	p.SetMat4("uModel", &call.world)
	p.SetVec3("uDiffuse", call.mat.Diffuse)
	p.SetFloat("uOpacity", call.state.opacity)

	tex := r.whiteTex
	if id, ok := r.scene.textures[call.mat]; ok {
		tex = id
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)

	if call.state.cull {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	} else {
		gl.Disable(gl.CULL_FACE)
	}

	gl.BindVertexArray(call.mesh.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, call.count, gl.UNSIGNED_INT, uintptr(call.start)*4)
}

func scaled(c [3]float32, k float32) [3]float32 {
	return [3]float32{c[0] * k, c[1] * k, c[2] * k}
}
