package octree

// Intersection is the result of classifying a box against a Volume.
type Intersection int

const (
	// Outside means the box and the volume do not overlap.
	Outside Intersection = iota
	// Intersects means the box is partially inside the volume.
	Intersects
	// Inside means the box is completely inside the volume.
	Inside
)

func (i Intersection) String() string {
	switch i {
	case Outside:
		return "outside"
	case Intersects:
		return "intersects"
	case Inside:
		return "inside"
	}
	return "unknown"
}
