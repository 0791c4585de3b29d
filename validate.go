package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// CheckInvariants walks the whole tree and reports the first broken invariant:
// aggregate node and octant counts, parent/child links, depth, back-links of nodes, and
// that every node not waiting for Update sits in an octant it fits (or the root).
//
// It is meant for tests and debug builds. A node discarded without RemoveNode
// shows up here as a node whose back-link no longer matches its octant.
func (o *Octree) CheckInvariants() error {
	var octants int
	total, err := o.checkOctant(o.rootOctant(), &octants)
	if err != nil {
		return err
	}
	if octants != o.numOctants {
		return errors.New("octant count mismatch").
			WithTag("visited", octants).
			WithTag("count", o.numOctants)
	}
	if total != o.Count() {
		return errors.New("node count mismatch").
			WithTag("visited", total).
			WithTag("count", o.Count())
	}

	for i, node := range o.updateQueue {
		link := node.link()
		if !link.queued || link.queueSlot != i || link.octree != o {
			return errors.New("update queue entry has a stale back-link").
				WithTag("slot", i)
		}
	}
	return nil
}

func (o *Octree) checkOctant(octant *Octant, octants *int) (int, error) {
	*octants++
	if octant.level >= o.numLevels {
		return 0, errors.New("octant deeper than the level limit").
			WithTag("level", octant.level).
			WithTag("levels", o.numLevels)
	}
	if !boxInside(octant.cullingBox, octant.boundingBox) {
		return 0, errors.New("culling box does not contain the bounding box").
			WithTag("bounds", boxString(octant.boundingBox))
	}

	for slot, node := range octant.nodes {
		link := node.link()
		if link.octree != o || link.octant != octant.id || link.slot != slot {
			return 0, errors.New("node back-link does not match its octant").
				WithTag("octant", octant.id).
				WithTag("slot", slot)
		}

		box := node.WorldBoundingBox()
		if !link.queued && octant.id != o.root && !octant.FitBoundingBox(box, boxSize(box)) {
			return 0, errors.New("node does not fit its octant").
				WithTag("octant", boxString(octant.boundingBox)).
				WithTag("node", boxString(box))
		}
	}

	total := len(octant.nodes)
	sum := len(octant.nodes)
	for i, id := range octant.children {
		if id == 0 {
			continue
		}
		child := o.pool.get(id)
		if child.parent != octant.id || child.index != i || child.level != octant.level+1 {
			return 0, errors.New("child octant is linked to the wrong parent").
				WithTag("level", child.level).
				WithTag("index", i)
		}
		if child.numNodes == 0 {
			return 0, errors.New("empty child octant was not pruned").
				WithTag("bounds", boxString(child.boundingBox))
		}

		n, err := o.checkOctant(child, octants)
		if err != nil {
			return 0, err
		}
		total += n
		sum += child.numNodes
	}

	if sum != octant.numNodes {
		return 0, errors.New("aggregate node count mismatch").
			WithTag("bounds", boxString(octant.boundingBox)).
			WithTag("numNodes", octant.numNodes).
			WithTag("expected", sum)
	}
	return total, nil
}
