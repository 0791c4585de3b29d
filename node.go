package octree

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// NodeFlags is a bit mask tested against the flags of a query.
type NodeFlags uint32

const (
	// FlagEnabled marks a node as visible to queries.
	FlagEnabled NodeFlags = 1 << iota
	// FlagGeometry marks renderable geometry.
	FlagGeometry
	// FlagLight marks light sources.
	FlagLight
	// FlagUser is the first bit free for caller-defined types and layers.
	FlagUser

	// FlagAll matches every node type in a query.
	FlagAll NodeFlags = ^NodeFlags(0)
)

// Node is a spatial object stored in an Octree.
//
// Implementations embed NodeBase, which holds the back-link to the octant the
// node currently lives in. A node must be removed from its octree with
// RemoveNode before it is discarded.
type Node interface {
	// WorldBoundingBox returns the world space bounds used for placement and culling.
	WorldBoundingBox() math32.Box3

	// Flags returns the node flags. Queries only return nodes with FlagEnabled set
	// and at least one bit in common with the query flags.
	Flags() NodeFlags

	// OnRaycast appends the hits of the ray against the node to dest.
	// The ray direction is normalized and hits at or beyond maxDistance are ignored.
	OnRaycast(dest []RaycastResult, ray math32.Ray, maxDistance float32) []RaycastResult

	link() *NodeBase
}

// NodeBase is the octree bookkeeping embedded in every Node.
type NodeBase struct {
	octree *Octree
	// octant is the current octant; zero while the node waits for its first Update.
	octant octantID
	// slot is the index of the node in its octant's node list.
	slot int

	queued    bool
	queueSlot int
}

func (nb *NodeBase) link() *NodeBase {
	return nb
}

// Octree returns the octree the node belongs to, or nil.
func (nb *NodeBase) Octree() *Octree {
	return nb.octree
}

// Octant returns the octant the node is placed in, or nil.
func (nb *NodeBase) Octant() *Octant {
	if nb.octree == nil {
		return nil
	}
	return nb.octree.pool.get(nb.octant)
}

// IsTracked returns true if the node has been placed into an octant.
func (nb *NodeBase) IsTracked() bool {
	return nb.octant != 0
}

// IsQueued returns true if the node waits for relocation on the next Update.
func (nb *NodeBase) IsQueued() bool {
	return nb.queued
}

func (nb *NodeBase) reset() {
	*nb = NodeBase{}
}

// BoxNode is a Node with an explicit world bounding box.
type BoxNode struct {
	NodeBase
	Name     string
	UserData any

	box   math32.Box3
	flags NodeFlags
}

// NewBoxNode returns an enabled node with the given bounds and type flags.
func NewBoxNode(box math32.Box3, flags NodeFlags) *BoxNode {
	return &BoxNode{
		box:   box,
		flags: flags | FlagEnabled,
	}
}

func (n *BoxNode) String() string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("BoxNode %s", boxString(n.box))
}

func (n *BoxNode) WorldBoundingBox() math32.Box3 {
	return n.box
}

// SetBoundingBox moves or resizes the node. If the node belongs to an octree,
// a relocation is queued for the next Update.
func (n *BoxNode) SetBoundingBox(box math32.Box3) {
	n.box = box
	if n.octree != nil {
		n.octree.QueueUpdate(n)
	}
}

func (n *BoxNode) Flags() NodeFlags {
	return n.flags
}

func (n *BoxNode) SetFlags(flags NodeFlags) {
	n.flags = flags
}

// SetEnabled toggles FlagEnabled.
func (n *BoxNode) SetEnabled(enabled bool) {
	if enabled {
		n.flags |= FlagEnabled
	} else {
		n.flags &^= FlagEnabled
	}
}

func (n *BoxNode) OnRaycast(dest []RaycastResult, ray math32.Ray, maxDistance float32) []RaycastResult {
	return RaycastBox(dest, n, ray, maxDistance)
}

// RaycastBox appends the hit of the ray against the world bounding box of node.
// The reported normal is the outward normal of the face the ray enters through.
func RaycastBox(dest []RaycastResult, node Node, ray math32.Ray, maxDistance float32) []RaycastResult {
	dist, normal := boxHit(ray, node.WorldBoundingBox())
	if dist >= maxDistance {
		return dest
	}
	return append(dest, RaycastResult{
		Position: ray.Origin.Add(ray.Dir.MulScalar(dist)),
		Normal:   normal,
		Distance: dist,
		Node:     node,
	})
}
