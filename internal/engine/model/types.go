// Package model provides the scene graph the viewer displays and the builders
// that turn parsed OBJ/MTL and glTF documents into it.
package model

import "image"

// Vertex represents a model mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32 // OBJ convention: v=0 is the bottom of the image
}

// MaterialGroup is a contiguous run of indices drawn with one material.
type MaterialGroup struct {
	MaterialIdx int // Index into Mesh.Materials
	StartIndex  int32
	IndexCount  int32
}

// Mesh holds triangle data ready for GPU upload. Positions are in the owning
// node's local space.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Indices   []uint32
	Groups    []MaterialGroup
	Materials []*Material
	Bounds    Bounds
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the local axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Material is the display subset of an MTL or glTF material.
type Material struct {
	Name        string
	Diffuse     [3]float32
	Ambient     [3]float32
	Specular    [3]float32
	Shininess   float32
	Opacity     float32
	DoubleSided bool

	DiffuseMap string      // Texture path as referenced by the source file
	Texture    image.Image // Decoded DiffuseMap, nil if absent or undecodable
}

// DefaultMaterial returns the white material used for faces that reference
// no known material.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "default",
		Diffuse:   [3]float32{1, 1, 1},
		Shininess: 30,
		Opacity:   1,
	}
}

// Stats summarises a node tree.
type Stats struct {
	Nodes     int
	Meshes    int
	Vertices  int
	Triangles int
	Materials int
}
