package octree

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// boxString formats a box as "min max" for logs and error tags.
func boxString(b math32.Box3) string {
	return fmt.Sprintf("(%v %v %v) (%v %v %v)", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// boxInside returns true if inner lies completely within outer, touching faces included.
func boxInside(outer, inner math32.Box3) bool {
	return outer.Min.X <= inner.Min.X && inner.Max.X <= outer.Max.X &&
		outer.Min.Y <= inner.Min.Y && inner.Max.Y <= outer.Max.Y &&
		outer.Min.Z <= inner.Min.Z && inner.Max.Z <= outer.Max.Z
}

// boxClassify returns where inner lies relative to outer.
func boxClassify(outer, inner math32.Box3) Intersection {
	if outer.IsEmpty() || inner.IsEmpty() || !outer.IntersectsBox(inner) {
		return Outside
	}
	if boxInside(outer, inner) {
		return Inside
	}
	return Intersects
}

// boxHitDistance returns the distance along the ray at which it enters the box,
// 0 if the origin is inside, and math32.Infinity if it misses.
// The ray direction is expected to be normalized.
func boxHitDistance(ray math32.Ray, bb math32.Box3) float32 {
	dist, _ := boxHit(ray, bb)
	return dist
}

// boxHit is boxHitDistance that also reports the outward normal of the entered face.
// A ray starting inside the box reports the reversed ray direction as normal.
func boxHit(ray math32.Ray, bb math32.Box3) (float32, math32.Vector3) {
	if bb.IsEmpty() {
		return math32.Infinity, math32.Vector3{}
	}
	if bb.ContainsPoint(ray.Origin) {
		return 0, ray.Dir.MulScalar(-1)
	}

	tmin := -math32.Infinity
	tmax := math32.Infinity
	var normal math32.Vector3

	slab := func(origin, dir, lo, hi float32, axis math32.Vector3) bool {
		if dir == 0 {
			return origin >= lo && origin <= hi
		}
		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		n := axis.MulScalar(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			n = axis
		}
		if t1 > tmin {
			tmin = t1
			normal = n
		}
		tmax = math32.Min(tmax, t2)
		return true
	}

	if !slab(ray.Origin.X, ray.Dir.X, bb.Min.X, bb.Max.X, math32.Vec3(1, 0, 0)) ||
		!slab(ray.Origin.Y, ray.Dir.Y, bb.Min.Y, bb.Max.Y, math32.Vec3(0, 1, 0)) ||
		!slab(ray.Origin.Z, ray.Dir.Z, bb.Min.Z, bb.Max.Z, math32.Vec3(0, 0, 1)) {
		return math32.Infinity, math32.Vector3{}
	}

	if tmin <= tmax && 0 <= tmax {
		return math32.Max(tmin, 0), normal
	}
	return math32.Infinity, math32.Vector3{}
}

// boxSize returns the per-axis extent of the box.
func boxSize(bb math32.Box3) math32.Vector3 {
	return bb.Max.Sub(bb.Min)
}

// normalizeRay returns the ray with a unit direction; ok is false for a zero-length direction.
func normalizeRay(ray math32.Ray) (math32.Ray, bool) {
	l := ray.Dir.Length()
	if l == 0 || math32.IsNaN(l) {
		return ray, false
	}
	ray.Dir = ray.Dir.MulScalar(1 / l)
	return ray, true
}
