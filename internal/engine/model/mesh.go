package model

import (
	"image"

	"github.com/Faultbox/terraview/pkg/formats"
)

// BuildFromOBJ creates a node tree from parsed OBJ data. Each OBJ object
// becomes one child node holding a single mesh. mtl may be nil; faces whose
// material is unknown use DefaultMaterial. textures maps MTL texture paths to
// decoded images and may be nil.
func BuildFromOBJ(obj *formats.OBJ, mtl *formats.MTL, textures map[string]image.Image) *Node {
	root := NewNode("obj")
	if obj == nil {
		return root
	}

	materials := make(map[string]*Material)
	fallback := DefaultMaterial()
	resolve := func(name string) *Material {
		if mat, ok := materials[name]; ok {
			return mat
		}
		src, ok := mtl.Lookup(name)
		if !ok {
			materials[name] = fallback
			return fallback
		}
		mat := materialFromMTL(src)
		if img, ok := textures[mat.DiffuseMap]; ok && mat.DiffuseMap != "" {
			mat.Texture = img
		}
		materials[name] = mat
		return mat
	}

	for i := range obj.Objects {
		mesh := buildOBJMesh(obj, &obj.Objects[i], resolve)
		if mesh == nil {
			continue
		}
		child := NewNode(mesh.Name)
		child.Meshes = []*Mesh{mesh}
		root.Children = append(root.Children, child)
	}
	return root
}

func buildOBJMesh(obj *formats.OBJ, object *formats.OBJObject, resolve func(string) *Material) *Mesh {
	var vertices []Vertex
	var smooth []int

	// Indices per material, kept in first-use order.
	var order []*Material
	groups := make(map[*Material][]uint32)

	for _, face := range object.Faces {
		mat := resolve(face.Material)
		if _, ok := groups[mat]; !ok {
			order = append(order, mat)
			groups[mat] = nil
		}

		// Fan triangulation around the first corner.
		for k := 1; k+1 < len(face.Corners); k++ {
			corners := [3]formats.OBJIndex{face.Corners[0], face.Corners[k], face.Corners[k+1]}
			normal := FaceNormal(
				obj.Positions[corners[0].V],
				obj.Positions[corners[1].V],
				obj.Positions[corners[2].V],
			)

			base := uint32(len(vertices))
			for _, c := range corners {
				v := Vertex{Position: obj.Positions[c.V], Normal: normal}
				if c.VT >= 0 {
					v.TexCoord = obj.TexCoords[c.VT]
				}
				if c.VN >= 0 {
					v.Normal = Normalize(obj.Normals[c.VN])
				} else if face.Smooth {
					smooth = append(smooth, len(vertices))
				}
				vertices = append(vertices, v)
			}
			groups[mat] = append(groups[mat], base, base+1, base+2)
		}
	}

	if len(vertices) == 0 {
		return nil
	}

	mesh := &Mesh{
		Name:     object.Name,
		Vertices: vertices,
		Bounds:   computeBounds(vertices),
	}
	for i, mat := range order {
		idxs := groups[mat]
		if len(idxs) == 0 {
			continue
		}
		mesh.Groups = append(mesh.Groups, MaterialGroup{
			MaterialIdx: i,
			StartIndex:  int32(len(mesh.Indices)),
			IndexCount:  int32(len(idxs)),
		})
		mesh.Indices = append(mesh.Indices, idxs...)
	}
	mesh.Materials = order

	if len(smooth) > 0 {
		smoothNormalsAt(vertices, smooth)
	}
	return mesh
}

func materialFromMTL(src *formats.MTLMaterial) *Material {
	return &Material{
		Name:       src.Name,
		Diffuse:    src.Diffuse,
		Ambient:    src.Ambient,
		Specular:   src.Specular,
		Shininess:  src.Shininess,
		Opacity:    src.Opacity,
		DiffuseMap: src.DiffuseMap,
	}
}

// SmoothNormals averages normals at shared vertex positions.
// This reduces faceted appearance on models.
func SmoothNormals(vertices []Vertex) {
	all := make([]int, len(vertices))
	for i := range all {
		all[i] = i
	}
	smoothNormalsAt(vertices, all)
}

func smoothNormalsAt(vertices []Vertex, idxs []int) {
	const epsilon float32 = 0.001

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for _, i := range idxs {
		key := [3]int32{
			int32(vertices[i].Position[0] / epsilon),
			int32(vertices[i].Position[1] / epsilon),
			int32(vertices[i].Position[2] / epsilon),
		}
		posMap[key] = append(posMap[key], i)
	}

	// Average normals for vertices at same position
	for _, shared := range posMap {
		if len(shared) < 2 {
			continue
		}

		var sum [3]float32
		for _, idx := range shared {
			sum[0] += vertices[idx].Normal[0]
			sum[1] += vertices[idx].Normal[1]
			sum[2] += vertices[idx].Normal[2]
		}

		avg := Normalize(sum)

		for _, idx := range shared {
			vertices[idx].Normal = avg
		}
	}
}

func computeBounds(vertices []Vertex) Bounds {
	b := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for i := range vertices {
		updateBounds(&b, vertices[i].Position)
	}
	return b
}

func updateBounds(b *Bounds, p [3]float32) {
	if p[0] < b.Min[0] {
		b.Min[0] = p[0]
	}
	if p[1] < b.Min[1] {
		b.Min[1] = p[1]
	}
	if p[2] < b.Min[2] {
		b.Min[2] = p[2]
	}
	if p[0] > b.Max[0] {
		b.Max[0] = p[0]
	}
	if p[1] > b.Max[1] {
		b.Max[1] = p[1]
	}
	if p[2] > b.Max[2] {
		b.Max[2] = p[2]
	}
}
