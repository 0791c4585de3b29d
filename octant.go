package octree

import "cogentcore.org/core/math32"

// Octant is a cubic cell of an Octree with up to 8 child octants.
type Octant struct {
	// boundingBox is the exact region of the octant.
	boundingBox math32.Box3
	// cullingBox is boundingBox expanded by halfSize on every side. Queries and
	// placement test against it so objects near a split plane do not bounce
	// between siblings.
	cullingBox math32.Box3
	center     math32.Vector3
	halfSize   math32.Vector3
	level      int

	nodes    []Node
	children [NumOctants]octantID
	parent   octantID
	// index is the position of the octant in its parent's children.
	index int
	// numNodes counts the nodes in this octant and all child octants.
	numNodes int

	id   octantID
	pool *Pool
}

func (o *Octant) initialize(pool *Pool, id, parent octantID, index int, box math32.Box3, level int) {
	nodes := o.nodes
	*o = Octant{
		nodes:  nodes[:0],
		parent: parent,
		index:  index,
		level:  level,
		id:     id,
		pool:   pool,
	}
	o.boundingBox = box
	o.center, o.halfSize, o.cullingBox = octantGeometry(box)
}

// octantGeometry derives center, half size and the loose culling box of an octant.
func octantGeometry(box math32.Box3) (center, halfSize math32.Vector3, cullingBox math32.Box3) {
	center = box.Center()
	halfSize = box.Max.Sub(box.Min).MulScalar(0.5)
	cullingBox = math32.Box3{Min: box.Min.Sub(halfSize), Max: box.Max.Add(halfSize)}
	return
}

// fits reports whether a box of the given size, contained in cullingBox, is
// small enough for an octant of the given half size.
func fits(cullingBox math32.Box3, halfSize math32.Vector3, box math32.Box3, boxSize math32.Vector3) bool {
	return boxInside(cullingBox, box) &&
		boxSize.X <= halfSize.X*0.5 &&
		boxSize.Y <= halfSize.Y*0.5 &&
		boxSize.Z <= halfSize.Z*0.5
}

// FitBoundingBox returns true if box lies within the culling box and its size
// is at most half of the half size of the octant on every axis.
func (o *Octant) FitBoundingBox(box math32.Box3, boxSize math32.Vector3) bool {
	return fits(o.cullingBox, o.halfSize, box, boxSize)
}

// ChildIndex returns the index of the child octant containing position.
// Bit 0 selects the upper x half, bit 1 the upper y half and bit 2 the upper z half.
func (o *Octant) ChildIndex(position math32.Vector3) int {
	i := 0
	if position.X >= o.center.X {
		i |= 1
	}
	if position.Y >= o.center.Y {
		i |= 2
	}
	if position.Z >= o.center.Z {
		i |= 4
	}
	return i
}

// childBoundingBox returns the exact bounds of child i.
func (o *Octant) childBoundingBox(i int) math32.Box3 {
	b := math32.Box3{Min: o.boundingBox.Min, Max: o.center}
	if i&1 != 0 {
		b.Min.X, b.Max.X = o.center.X, o.boundingBox.Max.X
	}
	if i&2 != 0 {
		b.Min.Y, b.Max.Y = o.center.Y, o.boundingBox.Max.Y
	}
	if i&4 != 0 {
		b.Min.Z, b.Max.Z = o.center.Z, o.boundingBox.Max.Z
	}
	return b
}

// fitChild is FitBoundingBox of child i, evaluated without creating the child.
func (o *Octant) fitChild(i int, box math32.Box3, boxSize math32.Vector3) bool {
	if child := o.pool.get(o.children[i]); child != nil {
		return child.FitBoundingBox(box, boxSize)
	}
	_, halfSize, cullingBox := octantGeometry(o.childBoundingBox(i))
	return fits(cullingBox, halfSize, box, boxSize)
}

// BoundingBox returns the exact region of the octant.
func (o *Octant) BoundingBox() math32.Box3 { return o.boundingBox }

// CullingBox returns the loose bounds tested by queries.
func (o *Octant) CullingBox() math32.Box3 { return o.cullingBox }

func (o *Octant) Center() math32.Vector3 { return o.center }

func (o *Octant) HalfSize() math32.Vector3 { return o.halfSize }

// Level returns the depth of the octant; the root is level 0.
func (o *Octant) Level() int { return o.level }

// Nodes returns the nodes stored directly in this octant. The slice must not be modified.
func (o *Octant) Nodes() []Node { return o.nodes }

// NumNodes returns the number of nodes in this octant and its descendants.
func (o *Octant) NumNodes() int { return o.numNodes }

// Child returns child octant i, or nil if it does not exist.
func (o *Octant) Child(i int) *Octant {
	return o.pool.get(o.children[i])
}

// HasChild returns true if child octant i exists.
func (o *Octant) HasChild(i int) bool {
	return o.children[i] != 0
}

// Parent returns the parent octant, or nil for the root.
func (o *Octant) Parent() *Octant {
	return o.pool.get(o.parent)
}

// IsRoot returns true for the root octant.
func (o *Octant) IsRoot() bool {
	return o.parent == 0
}
