package octree_test

import (
	"math/rand/v2"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/setanarut/octree"
	"github.com/stretchr/testify/require"
)

func overlaps(a, b math32.Box3) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

func sphereTouches(center math32.Vector3, radius float32, box math32.Box3) bool {
	closest := math32.Vec3(
		math32.Clamp(center.X, box.Min.X, box.Max.X),
		math32.Clamp(center.Y, box.Min.Y, box.Max.Y),
		math32.Clamp(center.Z, box.Min.Z, box.Max.Z),
	)
	d := closest.Sub(center)
	return d.Dot(d) < radius*radius
}

// scan is the brute force reference for FindNodes.
func scan(nodes []*octree.BoxNode, flags octree.NodeFlags, match func(math32.Box3) bool) []octree.Node {
	var res []octree.Node
	for _, node := range nodes {
		f := node.Flags()
		if f&octree.FlagEnabled != 0 && f&flags != 0 && match(node.WorldBoundingBox()) {
			res = append(res, node)
		}
	}
	return res
}

func TestOctreeFindNodes(t *testing.T) {
	o := newOctree(6)
	r := rand.New(rand.NewPCG(13, 14))
	nodes := populate(t, o, r, 400)
	for _, node := range nodes[:20] {
		node.SetEnabled(false)
	}

	t.Run("volume containing the whole tree", func(t *testing.T) {
		v := octree.BoxVolume{Box: o.Root().CullingBox()}

		res := o.FindNodes(nil, v, octree.FlagAll)
		require.Len(t, res, len(nodes)-20)

		res = o.FindNodes(res, v, octree.FlagLight)
		require.ElementsMatch(t, scan(nodes, octree.FlagLight, func(math32.Box3) bool { return true }), res)
	})

	t.Run("box volume", func(t *testing.T) {
		for range 20 {
			box := randomBox(r, o.BoundingBox(), 8)
			res := o.FindNodes(nil, octree.BoxVolume{Box: box}, octree.FlagGeometry)
			expected := scan(nodes, octree.FlagGeometry, func(b math32.Box3) bool {
				return overlaps(box, b)
			})
			require.ElementsMatch(t, expected, res)
		}
	})

	t.Run("sphere volume", func(t *testing.T) {
		for range 20 {
			center := randomBox(r, o.BoundingBox(), 0).Min
			radius := 0.5 + r.Float32()*4
			res := o.FindNodes(nil, octree.NewSphereVolume(center, radius), octree.FlagAll)
			expected := scan(nodes, octree.FlagAll, func(b math32.Box3) bool {
				return sphereTouches(center, radius, b)
			})
			require.ElementsMatch(t, expected, res)
		}
	})

	t.Run("frustum volume", func(t *testing.T) {
		m := math32.Matrix4{
			0.25, 0, 0, 0,
			0, 0.25, 0, 0,
			0, 0, 0.25, 0,
			-0.5, 0, 0, 1,
		}
		res := o.FindNodes(nil, octree.NewFrustumVolume(&m), octree.FlagAll)
		expected := scan(nodes, octree.FlagAll, func(b math32.Box3) bool {
			return overlaps(math32.B3(-2, -4, -4, 6, 4, 4), b)
		})
		require.ElementsMatch(t, expected, res)
	})

	t.Run("degenerate volumes find nothing", func(t *testing.T) {
		require.Empty(t, o.FindNodes(nil, octree.BoxVolume{Box: math32.B3Empty()}, octree.FlagAll))
		require.Empty(t, o.FindNodes(nil, octree.NewSphereVolume(math32.Vec3(0, 0, 0), 0), octree.FlagAll))
		require.Empty(t, o.FindNodes(nil, octree.FrustumVolume{}, octree.FlagAll))
		require.Empty(t, o.FindNodes(nil, nil, octree.FlagAll))
	})

	t.Run("no matching flags", func(t *testing.T) {
		v := octree.BoxVolume{Box: o.Root().CullingBox()}
		require.Empty(t, o.FindNodes(nil, v, octree.FlagUser))
	})
}

func TestOctreeFindNodesReusesDest(t *testing.T) {
	o := newOctree(4)
	node := octree.NewBoxNode(math32.B3(1, 1, 1, 2, 2, 2), octree.FlagGeometry)
	o.QueueUpdate(node)
	o.Update()

	dest := make([]octree.Node, 0, 16)
	dest = append(dest, node, node)
	res := o.FindNodes(dest, octree.BoxVolume{Box: o.BoundingBox()}, octree.FlagAll)
	require.Equal(t, []octree.Node{node}, res)
	require.Same(t, &dest[0], &res[0])
}

func newRaycastOctree(t *testing.T) (*octree.Octree, []*octree.BoxNode) {
	t.Helper()

	o := octree.New()
	nodes := []*octree.BoxNode{
		octree.NewBoxNode(math32.B3(1, -0.5, -0.5, 2, 0.5, 0.5), octree.FlagGeometry),
		octree.NewBoxNode(math32.B3(3, -0.5, -0.5, 4, 0.5, 0.5), octree.FlagGeometry),
		octree.NewBoxNode(math32.B3(5, -0.5, -0.5, 6, 0.5, 0.5), octree.FlagGeometry),
		octree.NewBoxNode(math32.B3(3, 5, -0.5, 4, 6, 0.5), octree.FlagGeometry),
	}
	// Inserted in reverse to make sure results do not follow insertion order.
	for i := len(nodes) - 1; i >= 0; i-- {
		o.QueueUpdate(nodes[i])
	}
	o.Update()
	return o, nodes
}

func TestOctreeRaycast(t *testing.T) {
	o, nodes := newRaycastOctree(t)
	ray := math32.Ray{Origin: math32.Vec3(0, 0, 0), Dir: math32.Vec3(1, 0, 0)}

	t.Run("hits are sorted by distance", func(t *testing.T) {
		res := o.Raycast(nil, ray, octree.FlagAll, math32.Infinity)
		require.Len(t, res, 3)
		for i, hit := range res {
			require.Same(t, nodes[i], hit.Node)
		}
		require.InDelta(t, 1, res[0].Distance, 1e-5)
		require.InDelta(t, 3, res[1].Distance, 1e-5)
		require.InDelta(t, 5, res[2].Distance, 1e-5)
		require.Equal(t, math32.Vec3(3, 0, 0), res[1].Position)
		require.Equal(t, math32.Vec3(-1, 0, 0), res[1].Normal)
	})

	t.Run("hits at or beyond the max distance are dropped", func(t *testing.T) {
		res := o.Raycast(nil, ray, octree.FlagAll, 4)
		require.Len(t, res, 2)

		res = o.Raycast(res, ray, octree.FlagAll, 3)
		require.Len(t, res, 1)
	})

	t.Run("direction is normalized", func(t *testing.T) {
		res := o.Raycast(nil, math32.Ray{Dir: math32.Vec3(10, 0, 0)}, octree.FlagAll, 4)
		require.Len(t, res, 2)
		require.InDelta(t, 3, res[1].Distance, 1e-5)
	})

	t.Run("zero direction hits nothing", func(t *testing.T) {
		require.Empty(t, o.Raycast(nil, math32.Ray{}, octree.FlagAll, math32.Infinity))
	})

	t.Run("non positive max distance hits nothing", func(t *testing.T) {
		require.Empty(t, o.Raycast(nil, ray, octree.FlagAll, 0))
	})

	t.Run("flags filter hits", func(t *testing.T) {
		require.Empty(t, o.Raycast(nil, ray, octree.FlagLight, math32.Infinity))
	})
}

func TestOctreeRaycastSingle(t *testing.T) {
	o, nodes := newRaycastOctree(t)
	ray := math32.Ray{Origin: math32.Vec3(0, 0, 0), Dir: math32.Vec3(1, 0, 0)}

	t.Run("closest hit", func(t *testing.T) {
		res := o.RaycastSingle(ray, octree.FlagAll, math32.Infinity)
		require.True(t, res.Hit())
		require.Same(t, nodes[0], res.Node)
		require.InDelta(t, 1, res.Distance, 1e-5)
		require.Equal(t, math32.Vec3(-1, 0, 0), res.Normal)
	})

	t.Run("agrees with the first raycast hit", func(t *testing.T) {
		rays := []math32.Ray{
			{Origin: math32.Vec3(10, 0, 0), Dir: math32.Vec3(-1, 0, 0)},
			{Origin: math32.Vec3(3.5, -10, 0), Dir: math32.Vec3(0, 1, 0)},
			{Origin: math32.Vec3(-1, -1, 0), Dir: math32.Vec3(4.5, 6.5, 0)},
		}
		for _, ray := range rays {
			all := o.Raycast(nil, ray, octree.FlagAll, math32.Infinity)
			require.NotEmpty(t, all)

			res := o.RaycastSingle(ray, octree.FlagAll, math32.Infinity)
			require.Same(t, all[0].Node, res.Node)
			require.Equal(t, all[0].Distance, res.Distance)
		}
	})

	t.Run("disabled node is skipped", func(t *testing.T) {
		nodes[0].SetEnabled(false)
		defer nodes[0].SetEnabled(true)

		res := o.RaycastSingle(ray, octree.FlagAll, math32.Infinity)
		require.Same(t, nodes[1], res.Node)
		require.InDelta(t, 3, res.Distance, 1e-5)
	})

	t.Run("nothing within the max distance", func(t *testing.T) {
		res := o.RaycastSingle(ray, octree.FlagAll, 1)
		require.False(t, res.Hit())
		require.Equal(t, octree.NoHit(), res)
	})

	t.Run("zero direction", func(t *testing.T) {
		res := o.RaycastSingle(math32.Ray{}, octree.FlagAll, math32.Infinity)
		require.False(t, res.Hit())
		require.Equal(t, math32.Infinity, res.Distance)
	})

	t.Run("miss", func(t *testing.T) {
		res := o.RaycastSingle(math32.Ray{Dir: math32.Vec3(0, 0, 1)}, octree.FlagAll, math32.Infinity)
		require.False(t, res.Hit())
	})
}
