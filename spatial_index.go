package octree

import "cogentcore.org/core/math32"

// SpatialIndex is the interface for spatial indexing of renderable nodes.
// It is implemented by Octree.
type SpatialIndex interface {
	// Count returns the number of objects currently placed in the index.
	Count() int

	// Each iterates over all placed objects, applying f to each one.
	Each(f func(node Node))

	// Contains checks if node is placed in the index.
	Contains(node Node) bool

	// QueueUpdate schedules the insertion or relocation of node.
	QueueUpdate(node Node)

	// CancelUpdate drops a scheduled relocation of node.
	CancelUpdate(node Node)

	// Update applies all scheduled relocations.
	Update()

	// RemoveNode deletes node from the index, if it exists.
	RemoveNode(node Node)

	// FindNodes returns the enabled nodes matching nodeFlags that are not
	// outside the volume.
	FindNodes(dest []Node, volume Volume, nodeFlags NodeFlags) []Node

	// Raycast returns every hit along the ray closer than maxDistance,
	// sorted by distance.
	Raycast(dest []RaycastResult, ray math32.Ray, nodeFlags NodeFlags, maxDistance float32) []RaycastResult

	// RaycastSingle returns the closest hit along the ray, or NoHit.
	RaycastSingle(ray math32.Ray, nodeFlags NodeFlags, maxDistance float32) RaycastResult
}

var _ SpatialIndex = (*Octree)(nil)
