package model

import (
	"errors"
	"fmt"
	"image"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/terraview/pkg/math"
)

// ErrGLTFMesh is returned when a glTF primitive cannot be converted.
var ErrGLTFMesh = errors.New("invalid glTF mesh")

// BuildFromGLTF creates a node tree from a decoded glTF document, following
// the default scene (or every root node when no scene is declared).
// textures maps glTF image indices to decoded images and may be nil.
// Materials keep their declared doubleSided flag.
func BuildFromGLTF(doc *gltf.Document, textures map[int]image.Image) (*Node, error) {
	b := &gltfBuilder{
		doc:       doc,
		textures:  textures,
		materials: make(map[int]*Material),
		meshes:    make(map[int]*Mesh),
		visiting:  make(map[int]bool),
	}

	root := NewNode("gltf")
	for _, idx := range sceneRoots(doc) {
		child, err := b.node(idx)
		if err != nil {
			return nil, err
		}
		if child != nil {
			root.Children = append(root.Children, child)
		}
	}
	return root, nil
}

// sceneRoots returns the node indices to display.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			scene = *doc.Scene
		}
		if s := doc.Scenes[scene]; s != nil {
			return s.Nodes
		}
		return nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

type gltfBuilder struct {
	doc       *gltf.Document
	textures  map[int]image.Image
	materials map[int]*Material
	meshes    map[int]*Mesh
	visiting  map[int]bool
	fallback  *Material
}

func (b *gltfBuilder) node(idx int) (*Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) || b.visiting[idx] {
		return nil, nil
	}
	b.visiting[idx] = true
	defer delete(b.visiting, idx)

	src := b.doc.Nodes[idx]
	n := NewNode(src.Name)
	n.Position = math.Vec3{X: float32(src.Translation[0]), Y: float32(src.Translation[1]), Z: float32(src.Translation[2])}
	n.Rotation = math.QuatFromArray64(src.Rotation)
	if src.Scale != [3]float64{} {
		n.Scale = math.Vec3{X: float32(src.Scale[0]), Y: float32(src.Scale[1]), Z: float32(src.Scale[2])}
	}
	if src.Matrix != [16]float64{} {
		n.Base = math.FromFloat64(src.Matrix)
	}

	if src.Mesh != nil {
		mesh, err := b.mesh(*src.Mesh)
		if err != nil {
			return nil, err
		}
		if mesh != nil {
			n.Meshes = []*Mesh{mesh}
		}
	}

	for _, c := range src.Children {
		child, err := b.node(c)
		if err != nil {
			return nil, err
		}
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}
	return n, nil
}

// mesh converts a glTF mesh; instances shared by several nodes share one Mesh.
func (b *gltfBuilder) mesh(idx int) (*Mesh, error) {
	if m, ok := b.meshes[idx]; ok {
		return m, nil
	}
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("%w: mesh index %d out of range", ErrGLTFMesh, idx)
	}

	src := b.doc.Meshes[idx]
	mesh := &Mesh{Name: src.Name}
	matIdx := make(map[*Material]int)

	for pi, prim := range src.Primitives {
		vertices, indices, err := b.primitive(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", src.Name, pi, err)
		}
		if len(indices) == 0 {
			continue
		}

		mat := b.material(prim.Material)
		mi, ok := matIdx[mat]
		if !ok {
			mi = len(mesh.Materials)
			matIdx[mat] = mi
			mesh.Materials = append(mesh.Materials, mat)
		}

		base := uint32(len(mesh.Vertices))
		mesh.Groups = append(mesh.Groups, MaterialGroup{
			MaterialIdx: mi,
			StartIndex:  int32(len(mesh.Indices)),
			IndexCount:  int32(len(indices)),
		})
		for _, i := range indices {
			mesh.Indices = append(mesh.Indices, base+i)
		}
		mesh.Vertices = append(mesh.Vertices, vertices...)
	}

	if len(mesh.Vertices) == 0 {
		b.meshes[idx] = nil
		return nil, nil
	}
	mesh.Bounds = computeBounds(mesh.Vertices)
	b.meshes[idx] = mesh
	return mesh, nil
}

// primitive reads one triangle primitive. Point and line primitives yield no
// triangles.
func (b *gltfBuilder) primitive(prim *gltf.Primitive) ([]Vertex, []uint32, error) {
	switch prim.Mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
	default:
		return nil, nil, nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing POSITION attribute", ErrGLTFMesh)
	}
	acc, err := b.accessor(posIdx)
	if err != nil {
		return nil, nil, err
	}
	positions, err := modeler.ReadPosition(b.doc, acc, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: positions: %v", ErrGLTFMesh, err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acc, err = b.accessor(idx); err != nil {
			return nil, nil, err
		}
		if normals, err = modeler.ReadNormal(b.doc, acc, nil); err != nil {
			return nil, nil, fmt.Errorf("%w: normals: %v", ErrGLTFMesh, err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acc, err = b.accessor(idx); err != nil {
			return nil, nil, err
		}
		if uvs, err = modeler.ReadTextureCoord(b.doc, acc, nil); err != nil {
			return nil, nil, fmt.Errorf("%w: texcoords: %v", ErrGLTFMesh, err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if acc, err = b.accessor(*prim.Indices); err != nil {
			return nil, nil, err
		}
		if indices, err = modeler.ReadIndices(b.doc, acc, nil); err != nil {
			return nil, nil, fmt.Errorf("%w: indices: %v", ErrGLTFMesh, err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for _, i := range indices {
		if int(i) >= len(positions) {
			return nil, nil, fmt.Errorf("%w: index %d beyond %d vertices", ErrGLTFMesh, i, len(positions))
		}
	}
	indices = toTriangleList(prim.Mode, indices)

	vertices := make([]Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = p
		if i < len(normals) {
			vertices[i].Normal = normals[i]
		}
		if i < len(uvs) {
			// glTF puts v=0 at the top of the image; Vertex follows OBJ.
			vertices[i].TexCoord = [2]float32{uvs[i][0], 1 - uvs[i][1]}
		}
	}
	if len(normals) < len(positions) {
		accumulateNormals(vertices, indices)
	}
	return vertices, indices, nil
}

func (b *gltfBuilder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) || b.doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrGLTFMesh, idx)
	}
	return b.doc.Accessors[idx], nil
}

func (b *gltfBuilder) material(idx *int) *Material {
	if idx == nil || *idx < 0 || *idx >= len(b.doc.Materials) {
		if b.fallback == nil {
			b.fallback = DefaultMaterial()
		}
		return b.fallback
	}
	if mat, ok := b.materials[*idx]; ok {
		return mat
	}

	src := b.doc.Materials[*idx]
	mat := DefaultMaterial()
	mat.Name = src.Name
	mat.DoubleSided = src.DoubleSided
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		f := pbr.BaseColorFactorOrDefault()
		mat.Diffuse = [3]float32{float32(f[0]), float32(f[1]), float32(f[2])}
		mat.Opacity = float32(f[3])
		if pbr.BaseColorTexture != nil {
			if img, ok := b.textureImage(pbr.BaseColorTexture.Index); ok {
				mat.Texture = img
			}
		}
	}
	b.materials[*idx] = mat
	return mat
}

func (b *gltfBuilder) textureImage(texIdx int) (image.Image, bool) {
	if texIdx < 0 || texIdx >= len(b.doc.Textures) {
		return nil, false
	}
	src := b.doc.Textures[texIdx].Source
	if src == nil {
		return nil, false
	}
	img, ok := b.textures[*src]
	return img, ok
}

// toTriangleList expands strips and fans into a plain triangle list.
func toTriangleList(mode gltf.PrimitiveMode, idx []uint32) []uint32 {
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		var out []uint32
		for i := 0; i+2 < len(idx); i++ {
			if i%2 == 0 {
				out = append(out, idx[i], idx[i+1], idx[i+2])
			} else {
				out = append(out, idx[i+1], idx[i], idx[i+2])
			}
		}
		return out
	case gltf.PrimitiveTriangleFan:
		var out []uint32
		for i := 1; i+1 < len(idx); i++ {
			out = append(out, idx[0], idx[i], idx[i+1])
		}
		return out
	default:
		return idx[:len(idx)-len(idx)%3]
	}
}

// accumulateNormals fills vertex normals by summing adjacent face normals.
func accumulateNormals(vertices []Vertex, indices []uint32) {
	sums := make([][3]float32, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		n := FaceNormal(vertices[a].Position, vertices[b].Position, vertices[c].Position)
		for _, v := range [3]uint32{a, b, c} {
			sums[v][0] += n[0]
			sums[v][1] += n[1]
			sums[v][2] += n[2]
		}
	}
	for i := range vertices {
		vertices[i].Normal = Normalize(sums[i])
	}
}
