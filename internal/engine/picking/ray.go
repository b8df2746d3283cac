// Package picking provides ray casting against the displayed model.
package picking

import (
	gomath "math"

	"github.com/Faultbox/terraview/internal/engine/model"
	"github.com/Faultbox/terraview/pkg/bounds"
	"github.com/Faultbox/terraview/pkg/math"
)

// triangleEpsilon rejects rays parallel to a triangle's plane.
const triangleEpsilon = 1e-7

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	// Normalized device coords (-1 to 1), Y flipped
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH

	near := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1, 1})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func unproject(inv math.Mat4, ndc math.Vec4) math.Vec3 {
	p := inv.MulVec4(ndc)
	if p[3] != 0 {
		p[0] /= p[3]
		p[1] /= p[3]
		p[2] /= p[3]
	}
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// IntersectBox tests ray intersection with an axis-aligned box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectBox(box bounds.Box) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}

	origin := r.Origin.Array()
	dir := r.Direction.Array()
	lo := box.Min.Array()
	hi := box.Max.Array()

	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)
	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle tests the ray against triangle (a, b, c) from either side
// (Möller-Trumbore). Hits behind the origin do not count.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if det > -triangleEpsilon && det < triangleEpsilon {
		return 0, false
	}
	invDet := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = edge2.Dot(q) * invDet
	if t < 0 {
		return 0, false
	}
	return t, true
}

// Hit describes the nearest intersection of a ray with a model.
type Hit struct {
	Distance float32
	Point    math.Vec3
	Node     *model.Node
	Mesh     *model.Mesh
}

// PickModel returns the nearest triangle of the tree rooted at root hit by
// ray. Meshes whose world-space bounds the ray misses are skipped.
func PickModel(ray Ray, root *model.Node) (Hit, bool) {
	var best Hit
	found := false
	if root == nil {
		return best, false
	}

	root.Walk(func(n *model.Node, world math.Mat4) bool {
		for _, mesh := range n.Meshes {
			if len(mesh.Indices) < 3 {
				continue
			}
			local := bounds.Box{Min: math.FromArray(mesh.Bounds.Min), Max: math.FromArray(mesh.Bounds.Max)}
			boxT, ok := ray.IntersectBox(local.Transform(world))
			if !ok || (found && boxT > best.Distance) {
				continue
			}
			if t, ok := pickMesh(ray, mesh, world); ok && (!found || t < best.Distance) {
				best = Hit{Distance: t, Point: ray.At(t), Node: n, Mesh: mesh}
				found = true
			}
		}
		return true
	})
	return best, found
}

func pickMesh(ray Ray, mesh *model.Mesh, world math.Mat4) (float32, bool) {
	nearest := float32(gomath.MaxFloat32)
	found := false
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		if int(max(i0, i1, i2)) >= len(mesh.Vertices) {
			continue
		}
		a := math.FromArray(world.TransformPoint(mesh.Vertices[i0].Position))
		b := math.FromArray(world.TransformPoint(mesh.Vertices[i1].Position))
		c := math.FromArray(world.TransformPoint(mesh.Vertices[i2].Position))
		if t, ok := ray.IntersectTriangle(a, b, c); ok && t < nearest {
			nearest = t
			found = true
		}
	}
	return nearest, found
}
