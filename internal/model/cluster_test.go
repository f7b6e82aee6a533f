package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoModuleLayout returns a 4x2 module at the origin next to a 2x2 module.
func twoModuleLayout() *Layout {
	l := NewLayout(nil)
	l.AddModule(1, 4, 2)
	l.AddModule(2, 2, 2)
	l.Module(1).SetPosition(Pt(4, 0))
	return l
}

func TestCluster_BoundsFromLeaves(t *testing.T) {
	l := twoModuleLayout()
	c := l.WrapModules()

	assert.Equal(t, RectWH(0, 0, 6, 2), c.Bounds())
	assert.Equal(t, 6.0, c.RotatedWidth())
	assert.Equal(t, 2.0, c.RotatedHeight())
	assert.Equal(t, Pt(3, 1), c.Center())

	// Geometry follows the leaves, not the anchor.
	l.Module(1).SetPosition(Pt(10, 0))
	assert.Equal(t, 12.0, c.RotatedWidth())
	assert.Equal(t, Point{}, c.Position())
}

func TestCluster_RotateAboutCenter(t *testing.T) {
	l := twoModuleLayout()
	c := l.WrapModules()

	c.Rotate()

	a, b := l.Module(0), l.Module(1)
	assert.True(t, a.IsRotated())
	assert.True(t, b.IsRotated())
	assert.Equal(t, Pt(2, -2), a.Position())
	assert.Equal(t, Pt(2, 2), b.Position())

	assert.Equal(t, 2.0, c.RotatedWidth())
	assert.Equal(t, 6.0, c.RotatedHeight())
	assert.Equal(t, Pt(3, 1), c.Center(), "center is preserved")
	assert.True(t, c.IsRotated())
	assert.Equal(t, 6.0, c.OrgWidth())
	assert.Equal(t, 2.0, c.OrgHeight())
}

func TestCluster_RotateTwiceRestoresFlags(t *testing.T) {
	l := twoModuleLayout()
	l.Module(1).Rotate()
	c := l.WrapModules()

	c.Rotate()
	c.Rotate()

	assert.False(t, l.Module(0).IsRotated())
	assert.True(t, l.Module(1).IsRotated())
	assert.False(t, c.IsRotated())
}

func TestCluster_FourRotationsRestorePositions(t *testing.T) {
	l := twoModuleLayout()
	before := l.Snapshot()
	c := l.WrapModules()

	for i := 0; i < 4; i++ {
		c.Rotate()
	}

	assert.Equal(t, before, l.Snapshot())
}

func TestCluster_RotateTogglesNestedFlags(t *testing.T) {
	l := twoModuleLayout()
	inner := l.ClusterOf(0)
	outer := l.NewCluster(inner.ID(), ModuleNode(1))

	outer.Rotate()

	assert.True(t, outer.IsRotated())
	assert.True(t, inner.IsRotated())
	// The inner module was rotated exactly once.
	assert.True(t, l.Module(0).IsRotated())
	assert.Equal(t, 4.0, inner.OrgWidth())
	assert.Equal(t, 2.0, inner.OrgHeight())
}

func TestCluster_SetPositionIdempotent(t *testing.T) {
	l := twoModuleLayout()
	c := l.WrapModules()

	c.SetPosition(Pt(5, 7))
	first := l.Snapshot()
	c.SetPosition(Pt(5, 7))

	assert.Equal(t, first, l.Snapshot())
	assert.Equal(t, Pt(5, 7), c.Position())
	assert.Equal(t, Pt(5, 7), l.Module(0).Position())
	assert.Equal(t, Pt(9, 7), l.Module(1).Position())
}

func TestCluster_SetPositionComposes(t *testing.T) {
	l1 := twoModuleLayout()
	c1 := l1.WrapModules()
	c1.SetPosition(Pt(3, 3))
	c1.SetPosition(Pt(-1, 8))

	l2 := twoModuleLayout()
	c2 := l2.WrapModules()
	c2.SetPosition(Pt(-1, 8))

	assert.Equal(t, l2.Snapshot(), l1.Snapshot())
}

func TestCluster_SetPositionShiftsNestedAnchors(t *testing.T) {
	l := twoModuleLayout()
	inner := l.ClusterOf(1)
	outer := l.NewCluster(ModuleNode(0), inner.ID())

	outer.SetPosition(Pt(2, 1))

	assert.Equal(t, Pt(2, 1), inner.Position())
	assert.Equal(t, Pt(6, 1), l.Module(1).Position())
}

func TestCluster_DeduplicatesLeaves(t *testing.T) {
	l := twoModuleLayout()
	inner := l.ClusterOf(0, 1)
	c := l.NewCluster(ModuleNode(0), ModuleNode(0), inner.ID(), inner.ID())

	leaves := c.CollectLeaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, 1, leaves[0].ID)
	assert.Equal(t, 2, leaves[1].ID)

	assert.Len(t, c.CollectClusters(false), 1)
	assert.Len(t, c.SubModules(), 4, "direct children are not flattened")

	c.SetPosition(Pt(1, 0))
	assert.Equal(t, Pt(1, 0), l.Module(0).Position(), "shared module moves once")
}

func TestCluster_CycleSafe(t *testing.T) {
	l := twoModuleLayout()
	a := l.ClusterOf(0)
	b := l.NewCluster(a.ID(), ModuleNode(1))
	a.Add(b.ID())
	a.Add(a.ID())

	assert.Len(t, a.CollectLeaves(), 2)
	clusters := a.CollectClusters(true)
	require.Len(t, clusters, 2)
	assert.Same(t, a, clusters[0])
	assert.Same(t, b, clusters[1])

	a.SetPosition(Pt(1, 1))
	assert.Equal(t, Pt(1, 1), l.Module(0).Position())
	assert.Equal(t, Pt(5, 1), l.Module(1).Position())

	a.Rotate()
	assert.True(t, l.Module(0).IsRotated())
	assert.True(t, l.Module(1).IsRotated())
}

func TestCluster_Empty(t *testing.T) {
	l := NewLayout(nil)
	c := l.NewCluster()

	c.SetPosition(Pt(3, 4))
	assert.Equal(t, 0.0, c.RotatedWidth())
	assert.Equal(t, 0.0, c.RotatedHeight())
	assert.Equal(t, Pt(3, 4), c.Center())

	c.Rotate()
	assert.True(t, c.IsRotated())
	assert.Equal(t, Pt(3, 4), c.Position())
}

func TestCluster_DanglingChildIgnored(t *testing.T) {
	l := twoModuleLayout()
	c := l.NewCluster(ModuleNode(0), ModuleNode(9), ClusterNode(7))

	assert.Len(t, c.CollectLeaves(), 1)
	assert.Len(t, c.Children(), 1)
}

func TestMoveTo_ClusterUsesFootprint(t *testing.T) {
	l := twoModuleLayout()
	l.Module(0).SetPosition(Pt(5, 5))
	l.Module(1).SetPosition(Pt(9, 6))
	c := l.WrapModules()

	MoveTo(c, Pt(0, 0))

	assert.Equal(t, Pt(0, 0), c.Bounds().Min)
	assert.Equal(t, Pt(4, 1), l.Module(1).Position())
}

func TestMoveTo_Module(t *testing.T) {
	m := NewModule(1, 3, 2)
	MoveTo(&m, Pt(7, 8))
	assert.Equal(t, Pt(7, 8), m.Position())
}

func TestLayout_ResetClusters(t *testing.T) {
	l := twoModuleLayout()
	l.WrapModules()
	l.ClusterOf(0)
	require.Equal(t, 2, l.NumClusters())

	l.ResetClusters()
	assert.Equal(t, 0, l.NumClusters())
	assert.Nil(t, l.Cluster(0))
	assert.Equal(t, 2, l.Len(), "modules survive a reset")
}

func TestLayout_SnapshotRestore(t *testing.T) {
	l := twoModuleLayout()
	snap := l.Snapshot()

	l.WrapModules().Rotate()
	l.Restore(snap)

	assert.Equal(t, snap, l.Snapshot())
	l.ResetPlacement()
	assert.Equal(t, Point{}, l.Module(1).Position())
	assert.False(t, l.Module(1).IsRotated())
}
