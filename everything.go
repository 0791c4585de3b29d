package octree

import "cogentcore.org/core/math32"

const (
	// DefaultSize is the half extent of the root octant of a new Octree.
	DefaultSize float32 = 1000
	// DefaultLevels is the subdivision level count of a new Octree.
	DefaultLevels int = 8
	// MaxLevels caps the subdivision level count accepted by Resize.
	MaxLevels int = 32
	// NumOctants is the number of children of a subdivided octant.
	NumOctants = 8

	pooledBufferSize int = 256
)

// DefaultBoundingBox returns the root bounds used by New when no option overrides them.
func DefaultBoundingBox() math32.Box3 {
	return math32.B3(-DefaultSize, -DefaultSize, -DefaultSize, DefaultSize, DefaultSize, DefaultSize)
}

func clampLevels(numLevels int) int {
	return max(1, min(numLevels, MaxLevels))
}
