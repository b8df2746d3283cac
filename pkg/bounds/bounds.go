// Package bounds computes axis-aligned bounding boxes over model geometry.
package bounds

import (
	gomath "math"

	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/pkg/math"
)

// Box is an axis-aligned bounding box. The zero Box is the degenerate box at
// the origin; use Empty for a box that contains nothing yet.
type Box struct {
	Min math.Vec3
	Max math.Vec3
}

// Summary is the derived view of a Box used for camera framing.
type Summary struct {
	Center   math.Vec3
	Size     math.Vec3
	Diagonal float32
}

// Empty returns an inverted box that any Extend call will replace.
func Empty() Box {
	inf := float32(gomath.Inf(1))
	return Box{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether b contains no points.
func (b Box) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns b grown to contain p.
func (b Box) Extend(p math.Vec3) Box {
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both b and other.
func (b Box) Union(other Box) Box {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	return Box{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// FromPoints returns the box around pts, or Empty when pts is empty.
func FromPoints(pts ...math.Vec3) Box {
	b := Empty()
	for _, p := range pts {
		b = b.Extend(p)
	}
	return b
}

// Transform returns the box around the eight corners of b transformed by m.
func (b Box) Transform(m math.Mat4) Box {
	if b.IsEmpty() {
		return b
	}
	out := Empty()
	for i := 0; i < 8; i++ {
		corner := math.Vec3{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z}
		if i&1 != 0 {
			corner.X = b.Max.X
		}
		if i&2 != 0 {
			corner.Y = b.Max.Y
		}
		if i&4 != 0 {
			corner.Z = b.Max.Z
		}
		out = out.Extend(m.TransformVec3(corner))
	}
	return out
}

// Center returns the midpoint of b.
func (b Box) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the extent of b on each axis.
func (b Box) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Summary returns center, size and diagonal length. An empty box summarises
// as all zeros.
func (b Box) Summary() Summary {
	if b.IsEmpty() {
		return Summary{}
	}
	size := b.Size()
	return Summary{
		Center:   b.Center(),
		Size:     size,
		Diagonal: size.Length(),
	}
}

// Compute returns the tightest box around every vertex of the tree rooted at
// node, with each node's world transform applied. A tree without vertices
// yields the zero Box.
func Compute(node *model.Node) Box {
	if node == nil {
		return Box{}
	}

	b := Empty()
	node.Walk(func(n *model.Node, world math.Mat4) bool {
		for _, mesh := range n.Meshes {
			for i := range mesh.Vertices {
				b = b.Extend(math.FromArray(world.TransformPoint(mesh.Vertices[i].Position)))
			}
		}
		return true
	})

	if b.IsEmpty() {
		return Box{}
	}
	return b
}
