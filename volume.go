package octree

import "cogentcore.org/core/math32"

// Volume is a query shape used by FindNodes.
type Volume interface {
	// IsInside classifies an octant culling box against the volume.
	IsInside(box math32.Box3) Intersection

	// IsInsideFast classifies a node bounding box. Only the Outside / not Outside
	// distinction is used, so implementations may report Inside for partial overlap.
	IsInsideFast(box math32.Box3) Intersection
}

// BoxVolume is an axis-aligned box query volume.
type BoxVolume struct {
	Box math32.Box3
}

func (v BoxVolume) degenerate() bool {
	return v.Box.IsEmpty() || v.Box.Min == v.Box.Max
}

func (v BoxVolume) IsInside(box math32.Box3) Intersection {
	if v.degenerate() {
		return Outside
	}
	return boxClassify(v.Box, box)
}

func (v BoxVolume) IsInsideFast(box math32.Box3) Intersection {
	if v.degenerate() || box.IsEmpty() || !v.Box.IntersectsBox(box) {
		return Outside
	}
	return Inside
}

// SphereVolume is a sphere query volume.
type SphereVolume struct {
	Sphere math32.Sphere
}

// NewSphereVolume returns a sphere volume with the given center and radius.
func NewSphereVolume(center math32.Vector3, radius float32) SphereVolume {
	return SphereVolume{Sphere: math32.Sphere{Center: center, Radius: radius}}
}

// distanceSquared returns the squared distance from the sphere center to the box.
func (v SphereVolume) distanceSquared(box math32.Box3) float32 {
	c := v.Sphere.Center
	var d2 float32
	axis := func(p, lo, hi float32) {
		if p < lo {
			d2 += (p - lo) * (p - lo)
		} else if p > hi {
			d2 += (p - hi) * (p - hi)
		}
	}
	axis(c.X, box.Min.X, box.Max.X)
	axis(c.Y, box.Min.Y, box.Max.Y)
	axis(c.Z, box.Min.Z, box.Max.Z)
	return d2
}

func (v SphereVolume) IsInside(box math32.Box3) Intersection {
	r2 := v.Sphere.Radius * v.Sphere.Radius
	if v.Sphere.Radius <= 0 || box.IsEmpty() || v.distanceSquared(box) >= r2 {
		return Outside
	}

	lo := box.Min.Sub(v.Sphere.Center)
	hi := box.Max.Sub(v.Sphere.Center)
	for i := 0; i < NumOctants; i++ {
		corner := lo
		if i&1 != 0 {
			corner.X = hi.X
		}
		if i&2 != 0 {
			corner.Y = hi.Y
		}
		if i&4 != 0 {
			corner.Z = hi.Z
		}
		if corner.Dot(corner) >= r2 {
			return Intersects
		}
	}
	return Inside
}

func (v SphereVolume) IsInsideFast(box math32.Box3) Intersection {
	if v.Sphere.Radius <= 0 || box.IsEmpty() || v.distanceSquared(box) >= v.Sphere.Radius*v.Sphere.Radius {
		return Outside
	}
	return Inside
}

// FrustumVolume is a convex volume bounded by the six inward facing planes of
// a math32.Frustum.
type FrustumVolume struct {
	Frustum math32.Frustum
}

// NewFrustumVolume extracts the frustum planes from a column-major
// view-projection matrix. The identity matrix yields the [-1, 1] cube.
//
// A matrix that leaves a plane without a normal (the zero matrix, for one)
// gives a degenerate volume that classifies everything Outside.
func NewFrustumVolume(m *math32.Matrix4) FrustumVolume {
	var v FrustumVolume
	v.Frustum.SetFromMatrix(m)
	return v
}

// NewFrustumVolumeFromPlanes returns a frustum volume bounded by planes whose
// normals point inside. Planes are normalized; a plane with a zero normal is
// kept as is and makes the volume degenerate.
func NewFrustumVolumeFromPlanes(planes [6]math32.Plane) FrustumVolume {
	for i := range planes {
		if planes[i].Norm != (math32.Vector3{}) {
			planes[i].Normalize()
		}
	}
	return FrustumVolume{Frustum: math32.Frustum{Planes: planes}}
}

// degenerate reports a plane with a zero normal, or a NaN normal left by
// normalizing one.
func (v FrustumVolume) degenerate() bool {
	for _, p := range v.Frustum.Planes {
		if !(p.Norm.Length() > 0) {
			return true
		}
	}
	return false
}

func (v FrustumVolume) IsInside(box math32.Box3) Intersection {
	if box.IsEmpty() || v.degenerate() {
		return Outside
	}

	center := box.Center()
	edge := center.Sub(box.Min)
	allInside := true
	for _, p := range v.Frustum.Planes {
		dist := p.DistanceToPoint(center)
		absDist := p.Norm.Abs().Dot(edge)
		if dist < -absDist {
			return Outside
		} else if dist < absDist {
			allInside = false
		}
	}

	if allInside {
		return Inside
	}
	return Intersects
}

func (v FrustumVolume) IsInsideFast(box math32.Box3) Intersection {
	if box.IsEmpty() || v.degenerate() {
		return Outside
	}

	center := box.Center()
	edge := center.Sub(box.Min)
	for _, p := range v.Frustum.Planes {
		if p.DistanceToPoint(center) < -p.Norm.Abs().Dot(edge) {
			return Outside
		}
	}
	return Inside
}
