package octree

import (
	"cmp"
	"slices"

	"cogentcore.org/core/math32"
)

// RaycastResult is a single ray hit.
type RaycastResult struct {
	// Position is the world position of the hit.
	Position math32.Vector3
	// Normal is the world normal at the hit.
	Normal math32.Vector3
	// Distance is the distance along the ray.
	Distance float32
	// Node is the node that was hit.
	Node Node
	// ExtraData holds node specific hit details, such as a triangle index.
	ExtraData any
}

// NoHit returns the result reported by RaycastSingle when nothing is hit.
func NoHit() RaycastResult {
	return RaycastResult{Distance: math32.Infinity}
}

// Hit returns false for the NoHit result.
func (r RaycastResult) Hit() bool {
	return r.Node != nil
}

type rayCandidate struct {
	node     Node
	distance float32
}

func matchFlags(node Node, nodeFlags NodeFlags) bool {
	flags := node.Flags()
	return flags&FlagEnabled != 0 && flags&nodeFlags != 0
}

// FindNodes appends to dest[:0] the enabled nodes matching nodeFlags that
// the volume does not classify as Outside, and returns the extended slice.
func (o *Octree) FindNodes(dest []Node, volume Volume, nodeFlags NodeFlags) []Node {
	dest = dest[:0]
	if volume == nil {
		return dest
	}
	return o.collectVolume(dest, o.rootOctant(), volume, nodeFlags)
}

func (o *Octree) collectVolume(dest []Node, octant *Octant, volume Volume, nodeFlags NodeFlags) []Node {
	switch volume.IsInside(octant.cullingBox) {
	case Outside:
		return dest
	case Inside:
		// Everything below is inside as well.
		return o.collectFlags(dest, octant, nodeFlags)
	}

	for _, node := range octant.nodes {
		if matchFlags(node, nodeFlags) && volume.IsInsideFast(node.WorldBoundingBox()) != Outside {
			dest = append(dest, node)
		}
	}
	for _, id := range octant.children {
		if id != 0 {
			dest = o.collectVolume(dest, o.pool.get(id), volume, nodeFlags)
		}
	}
	return dest
}

func (o *Octree) collectFlags(dest []Node, octant *Octant, nodeFlags NodeFlags) []Node {
	for _, node := range octant.nodes {
		if matchFlags(node, nodeFlags) {
			dest = append(dest, node)
		}
	}
	for _, id := range octant.children {
		if id != 0 {
			dest = o.collectFlags(dest, o.pool.get(id), nodeFlags)
		}
	}
	return dest
}

// Raycast appends to dest[:0] every hit closer than maxDistance on enabled
// nodes matching nodeFlags, sorted by distance. The ray direction is
// normalized first; a zero direction hits nothing.
func (o *Octree) Raycast(dest []RaycastResult, ray math32.Ray, nodeFlags NodeFlags, maxDistance float32) []RaycastResult {
	dest = dest[:0]
	ray, ok := normalizeRay(ray)
	if !ok || maxDistance <= 0 {
		return dest
	}

	dest = o.collectRay(dest, o.rootOctant(), ray, nodeFlags, maxDistance)
	dest = slices.DeleteFunc(dest, func(r RaycastResult) bool {
		return r.Distance >= maxDistance
	})
	slices.SortStableFunc(dest, func(a, b RaycastResult) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return dest
}

func (o *Octree) collectRay(dest []RaycastResult, octant *Octant, ray math32.Ray, nodeFlags NodeFlags, maxDistance float32) []RaycastResult {
	if boxHitDistance(ray, octant.cullingBox) >= maxDistance {
		return dest
	}

	for _, node := range octant.nodes {
		if matchFlags(node, nodeFlags) {
			dest = node.OnRaycast(dest, ray, maxDistance)
		}
	}
	for _, id := range octant.children {
		if id != 0 {
			dest = o.collectRay(dest, o.pool.get(id), ray, nodeFlags, maxDistance)
		}
	}
	return dest
}

// RaycastSingle returns the closest hit within maxDistance on enabled nodes
// matching nodeFlags, or NoHit.
func (o *Octree) RaycastSingle(ray math32.Ray, nodeFlags NodeFlags, maxDistance float32) RaycastResult {
	res := NoHit()
	ray, ok := normalizeRay(ray)
	if !ok || maxDistance <= 0 {
		return res
	}

	candidates := o.collectCandidates(o.rayCandidates[:0], o.rootOctant(), ray, nodeFlags, maxDistance)
	slices.SortStableFunc(candidates, func(a, b rayCandidate) int {
		return cmp.Compare(a.distance, b.distance)
	})

	// Candidates are ordered by bounding box distance, which never exceeds the
	// distance of an actual hit, so the scan stops at the first box behind the
	// closest hit.
	closest := maxDistance
	hits := o.rayHits[:0]
	for _, c := range candidates {
		if c.distance >= closest {
			break
		}
		hits = c.node.OnRaycast(hits[:0], ray, closest)
		for _, hit := range hits {
			if hit.Distance < closest {
				closest = hit.Distance
				res = hit
			}
		}
	}

	clear(candidates)
	clear(hits)
	o.rayCandidates = candidates[:0]
	o.rayHits = hits[:0]
	return res
}

func (o *Octree) collectCandidates(dest []rayCandidate, octant *Octant, ray math32.Ray, nodeFlags NodeFlags, maxDistance float32) []rayCandidate {
	if boxHitDistance(ray, octant.cullingBox) >= maxDistance {
		return dest
	}

	for _, node := range octant.nodes {
		if !matchFlags(node, nodeFlags) {
			continue
		}
		if dist := boxHitDistance(ray, node.WorldBoundingBox()); dist < maxDistance {
			dest = append(dest, rayCandidate{node, dist})
		}
	}
	for _, id := range octant.children {
		if id != 0 {
			dest = o.collectCandidates(dest, o.pool.get(id), ray, nodeFlags, maxDistance)
		}
	}
	return dest
}
