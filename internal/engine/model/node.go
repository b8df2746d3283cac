package model

import (
	"github.com/Faultbox/terraview/pkg/math"
)

// Node is one element of the displayed scene graph.
//
// The local transform is Translate(Position) * RotateY(RotationY) *
// Rotation * Scale * Base. RotationY is the viewer's turntable angle; Base
// carries an explicit source matrix (glTF "matrix") and is identity otherwise.
type Node struct {
	Name      string
	Position  math.Vec3
	RotationY float32
	Rotation  math.Quat
	Scale     math.Vec3
	Base      math.Mat4

	Meshes   []*Mesh
	Children []*Node
}

// NewNode creates a node with identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3{X: 1, Y: 1, Z: 1},
		Base:     math.Identity(),
	}
}

// LocalMatrix returns the node transform relative to its parent.
// A zero Scale or Base is treated as unset.
func (n *Node) LocalMatrix() math.Mat4 {
	scale := n.Scale
	if scale == (math.Vec3{}) {
		scale = math.Vec3{X: 1, Y: 1, Z: 1}
	}

	m := math.Translate(n.Position.X, n.Position.Y, n.Position.Z)
	if n.RotationY != 0 {
		m = m.Mul(math.RotateY(n.RotationY))
	}
	m = m.Mul(n.Rotation.ToMat4())
	m = m.Mul(math.Scale(scale.X, scale.Y, scale.Z))
	if n.Base != (math.Mat4{}) && !n.Base.IsIdentity() {
		m = m.Mul(n.Base)
	}
	return m
}

// SetUniformScale sets the same scale factor on all three axes.
func (n *Node) SetUniformScale(s float32) {
	n.Scale = math.Vec3{X: s, Y: s, Z: s}
}

// Walk visits n and every descendant depth-first, passing each node's world
// matrix (parent applied). Returning false from fn skips that node's children.
func (n *Node) Walk(fn func(node *Node, world math.Mat4) bool) {
	n.walk(math.Identity(), fn)
}

func (n *Node) walk(parent math.Mat4, fn func(*Node, math.Mat4) bool) {
	world := parent.Mul(n.LocalMatrix())
	if !fn(n, world) {
		return
	}
	for _, child := range n.Children {
		if child != nil {
			child.walk(world, fn)
		}
	}
}

// Materials returns every distinct material referenced by the tree, in the
// order they are first encountered.
func (n *Node) Materials() []*Material {
	var out []*Material
	seen := make(map[*Material]bool)
	n.Walk(func(node *Node, _ math.Mat4) bool {
		for _, mesh := range node.Meshes {
			for _, mat := range mesh.Materials {
				if mat != nil && !seen[mat] {
					seen[mat] = true
					out = append(out, mat)
				}
			}
		}
		return true
	})
	return out
}

// ForceDoubleSided marks every material in the tree as double-sided.
func (n *Node) ForceDoubleSided() {
	for _, mat := range n.Materials() {
		mat.DoubleSided = true
	}
}

// Stats counts nodes, meshes, vertices, triangles and distinct materials.
func (n *Node) Stats() Stats {
	var s Stats
	n.Walk(func(node *Node, _ math.Mat4) bool {
		s.Nodes++
		for _, mesh := range node.Meshes {
			s.Meshes++
			s.Vertices += len(mesh.Vertices)
			s.Triangles += mesh.TriangleCount()
		}
		return true
	})
	s.Materials = len(n.Materials())
	return s
}
