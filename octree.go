package octree

import (
	"cogentcore.org/core/math32"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Octree is a loose octree of Nodes used to accelerate culling and raycasts.
//
// Nodes enter the tree with QueueUpdate and are placed on the next Update.
// Moved or resized nodes call QueueUpdate again; all relocations are applied in
// one pass by Update. An Octree is not safe for concurrent use.
type Octree struct {
	pool       *Pool
	root       octantID
	numLevels  int
	numOctants int

	// updateQueue holds every node with a pending relocation exactly once.
	updateQueue []Node

	// Scratch buffers reused by RaycastSingle.
	rayCandidates []rayCandidate
	rayHits       []RaycastResult

	stats Stats
}

// Option configures an Octree created with New.
type Option func(*octreeOptions)

type octreeOptions struct {
	boundingBox math32.Box3
	numLevels   int
	pool        *Pool
}

// WithBoundingBox sets the root bounds.
func WithBoundingBox(box math32.Box3) Option {
	return func(o *octreeOptions) {
		o.boundingBox = box
	}
}

// WithNumLevels sets the number of subdivision levels, root included.
func WithNumLevels(numLevels int) Option {
	return func(o *octreeOptions) {
		o.numLevels = numLevels
	}
}

// WithPool makes the octree allocate its octants from p. A pool may be shared
// by several octrees that are used from the same goroutine.
func WithPool(p *Pool) Option {
	return func(o *octreeOptions) {
		o.pool = p
	}
}

// New returns an empty octree. Without options the root spans
// DefaultBoundingBox with DefaultLevels levels.
func New(opts ...Option) *Octree {
	options := octreeOptions{
		boundingBox: DefaultBoundingBox(),
		numLevels:   DefaultLevels,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.pool == nil {
		options.pool = NewPool(pooledBufferSize)
	}

	o := &Octree{
		pool:       options.pool,
		numLevels:  clampLevels(options.numLevels),
		numOctants: 1,
	}
	o.root = o.pool.reserve()
	o.rootOctant().initialize(o.pool, o.root, 0, 0, options.boundingBox, 0)
	return o
}

// Root returns the root octant.
func (o *Octree) Root() *Octant {
	return o.rootOctant()
}

func (o *Octree) rootOctant() *Octant {
	return o.pool.get(o.root)
}

// Count returns the number of nodes placed in the tree.
func (o *Octree) Count() int {
	return o.rootOctant().numNodes
}

// QueueLen returns the number of nodes waiting for Update.
func (o *Octree) QueueLen() int {
	return len(o.updateQueue)
}

// Resize discards the octant hierarchy, rebuilds the root with the new bounds
// and level count and re-inserts every placed node from its current bounds.
// numLevels is clamped to [1, MaxLevels]. Placed nodes drop out of the update
// queue; nodes queued for their first insertion stay queued.
func (o *Octree) Resize(boundingBox math32.Box3, numLevels int) {
	numLevels = clampLevels(numLevels)

	nodes := o.detachAll()
	o.numLevels = numLevels
	o.rootOctant().initialize(o.pool, o.root, 0, 0, boundingBox, 0)

	for _, node := range nodes {
		if node.link().queued {
			o.dequeue(node)
		}
		box := node.WorldBoundingBox()
		o.addNode(node, o.descend(o.root, box, boxSize(box)))
		o.stats.Reinsertions++
	}

	logs.WithTag("bounds", boxString(boundingBox)).
		WithTag("levels", numLevels).
		WithTag("nodes", len(nodes)).
		Debug("octree resized")
}

// Clear removes every node from the tree and the update queue.
func (o *Octree) Clear() {
	for _, node := range o.detachAll() {
		node.link().reset()
	}
	for _, node := range o.updateQueue {
		node.link().reset()
	}
	clear(o.updateQueue)
	o.updateQueue = o.updateQueue[:0]
}

// detachAll releases every child octant and empties the root. The returned
// nodes keep their octree and queue state but no longer reference an octant.
func (o *Octree) detachAll() []Node {
	root := o.rootOctant()
	nodes := o.deleteChildOctants(root, nil)
	nodes = append(nodes, root.nodes...)
	clear(root.nodes)
	root.nodes = root.nodes[:0]
	root.numNodes = 0

	for _, node := range nodes {
		link := node.link()
		link.octant = 0
		link.slot = 0
	}
	return nodes
}

// QueueUpdate schedules node for (re)insertion on the next Update. Repeated
// calls before Update coalesce into one relocation. A node that belongs to
// another octree is ignored.
func (o *Octree) QueueUpdate(node Node) {
	if node == nil {
		return
	}

	link := node.link()
	if link.octree != nil && link.octree != o {
		logs.Warn(errors.New("queueing update failed: node belongs to another octree").
			WithTag("bounds", boxString(node.WorldBoundingBox())))
		return
	}

	link.octree = o
	if link.queued {
		return
	}
	link.queued = true
	link.queueSlot = len(o.updateQueue)
	o.updateQueue = append(o.updateQueue, node)
}

// CancelUpdate drops a pending relocation. A placed node stays in its current
// octant; a node that was never placed no longer belongs to the octree.
func (o *Octree) CancelUpdate(node Node) {
	if node == nil {
		return
	}

	link := node.link()
	if link.octree != o || !link.queued {
		return
	}
	o.dequeue(node)
	if link.octant == 0 {
		link.octree = nil
	}
}

func (o *Octree) dequeue(node Node) {
	link := node.link()
	last := len(o.updateQueue) - 1
	if link.queueSlot != last {
		moved := o.updateQueue[last]
		o.updateQueue[link.queueSlot] = moved
		moved.link().queueSlot = link.queueSlot
	}
	o.updateQueue[last] = nil
	o.updateQueue = o.updateQueue[:last]

	link.queued = false
	link.queueSlot = 0
}

// Update processes the update queue, moving each queued node to the smallest
// octant that fits its current bounds.
func (o *Octree) Update() {
	if len(o.updateQueue) == 0 {
		return
	}

	relocations := o.stats.Relocations
	insertions := o.stats.Insertions
	for _, node := range o.updateQueue {
		node.link().queued = false
		node.link().queueSlot = 0
		o.insertNode(node)
	}
	o.stats.Updates++

	logs.WithTag("queued", len(o.updateQueue)).
		WithTag("inserted", o.stats.Insertions-insertions).
		WithTag("relocated", o.stats.Relocations-relocations).
		Debug("octree updated")

	clear(o.updateQueue)
	o.updateQueue = o.updateQueue[:0]
}

// RemoveNode detaches node from the tree and cancels its pending update.
// Nodes that do not belong to the octree are ignored.
func (o *Octree) RemoveNode(node Node) {
	if node == nil {
		return
	}

	link := node.link()
	if link.octree != o {
		return
	}
	if link.queued {
		o.dequeue(node)
	}
	if link.octant != 0 {
		o.removeFromOctant(link.octant, link.slot)
		o.stats.Removals++
	}
	link.reset()
}

// insertNode places the node into the smallest suitable octant, starting the
// search from its current octant.
func (o *Octree) insertNode(node Node) {
	link := node.link()
	box := node.WorldBoundingBox()
	size := boxSize(box)

	current := link.octant
	start := o.root
	if current != 0 {
		start = current
		for start != o.root {
			octant := o.pool.get(start)
			if octant.FitBoundingBox(box, size) {
				break
			}
			start = octant.parent
		}
	}

	target := o.descend(start, box, size)
	if target == current {
		return
	}

	// Add before removing so that pruning the old branch never releases a
	// freshly created octant on the new path.
	oldSlot := link.slot
	o.addNode(node, target)
	if current != 0 {
		o.removeFromOctant(current, oldSlot)
		o.stats.Relocations++
	} else {
		o.stats.Insertions++
	}
}

// descend walks down from start while the child containing the box center
// would fit the box, creating child octants on the way.
func (o *Octree) descend(start octantID, box math32.Box3, size math32.Vector3) octantID {
	id := start
	center := box.Center()
	for {
		octant := o.pool.get(id)
		if octant.level+1 >= o.numLevels {
			return id
		}

		i := octant.ChildIndex(center)
		if !octant.fitChild(i, box, size) {
			return id
		}

		child := octant.children[i]
		if child == 0 {
			child = o.createChildOctant(id, i)
		}
		id = child
	}
}

// addNode appends node to the octant and increments the counts up to the root.
func (o *Octree) addNode(node Node, id octantID) {
	octant := o.pool.get(id)
	link := node.link()
	link.octree = o
	link.octant = id
	link.slot = len(octant.nodes)
	octant.nodes = append(octant.nodes, node)

	for ; octant != nil; octant = o.pool.get(octant.parent) {
		octant.numNodes++
	}
}

// removeFromOctant removes the node at slot from the octant, decrements the
// counts up to the root and deletes octants left empty. The root is never deleted.
func (o *Octree) removeFromOctant(id octantID, slot int) {
	octant := o.pool.get(id)
	last := len(octant.nodes) - 1
	if slot != last {
		moved := octant.nodes[last]
		octant.nodes[slot] = moved
		moved.link().slot = slot
	}
	octant.nodes[last] = nil
	octant.nodes = octant.nodes[:last]

	for octant != nil {
		octant.numNodes--
		parent := octant.parent
		if octant.numNodes == 0 && parent != 0 {
			o.deleteChildOctant(parent, octant.index)
		}
		octant = o.pool.get(parent)
	}
}

func (o *Octree) createChildOctant(parentID octantID, index int) octantID {
	id := o.pool.reserve()
	o.numOctants++
	parent := o.pool.get(parentID)
	o.pool.get(id).initialize(o.pool, id, parentID, index, parent.childBoundingBox(index), parent.level+1)
	parent.children[index] = id
	return id
}

// deleteChildOctant releases child index of the parent and its descendants.
func (o *Octree) deleteChildOctant(parentID octantID, index int) {
	parent := o.pool.get(parentID)
	id := parent.children[index]
	if id == 0 {
		return
	}
	o.deleteChildOctants(o.pool.get(id), nil)
	o.releaseOctant(id)
	parent.children[index] = 0
}

func (o *Octree) releaseOctant(id octantID) {
	o.pool.release(id)
	o.numOctants--
}

// deleteChildOctants releases all descendants of the octant and appends the
// nodes they held to dest.
func (o *Octree) deleteChildOctants(octant *Octant, dest []Node) []Node {
	for i, id := range octant.children {
		if id == 0 {
			continue
		}
		child := o.pool.get(id)
		dest = o.deleteChildOctants(child, dest)
		dest = append(dest, child.nodes...)
		o.releaseOctant(id)
		octant.children[i] = 0
	}
	return dest
}

// Each calls f for every node placed in the tree.
func (o *Octree) Each(f func(node Node)) {
	o.each(o.rootOctant(), f)
}

func (o *Octree) each(octant *Octant, f func(node Node)) {
	for _, node := range octant.nodes {
		f(node)
	}
	for _, id := range octant.children {
		if id != 0 {
			o.each(o.pool.get(id), f)
		}
	}
}

// Contains returns true if node is placed in this octree.
func (o *Octree) Contains(node Node) bool {
	link := node.link()
	return link.octree == o && link.octant != 0
}

// Stats describes the octree and its allocator.
type Stats struct {
	// Octants counts the octants of this octree, root included.
	Octants int
	// PoolCapacity is the capacity of the allocator, which may be shared.
	PoolCapacity int
	Nodes        int
	Queued       int

	// Insertions counts first placements of nodes by Update.
	Insertions uint64
	// Relocations counts moves of placed nodes to another octant.
	Relocations uint64
	// Reinsertions counts nodes placed again by Resize.
	Reinsertions uint64
	Removals     uint64
	// Updates counts Update calls that processed a non-empty queue.
	Updates uint64
}

// Stats returns a snapshot of the octree statistics.
func (o *Octree) Stats() Stats {
	s := o.stats
	s.Octants = o.numOctants
	s.PoolCapacity = o.pool.Capacity()
	s.Nodes = o.Count()
	s.Queued = len(o.updateQueue)
	return s
}
