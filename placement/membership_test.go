package placement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/placement"
)

func TestMembershipView_ReadOnlyWinsOnOverlap(t *testing.T) {
	topo := placement.NewTopologyIndex(nil)
	mv := placement.NewMembershipView(topo)

	mv.OnClusterChanged([]string{"a", "b"}, []string{"a"})

	require.False(t, mv.IsWritable("a"))
	require.True(t, mv.IsReadOnly("a"))
	require.True(t, mv.IsWritable("b"))
}

func TestMembershipView_RemovedNodesDropFromTopology(t *testing.T) {
	resolver := placement.NewStaticResolver(map[string]string{"a": "/r1/rack1"})
	topo := placement.NewTopologyIndex(resolver)
	mv := placement.NewMembershipView(topo)

	mv.OnClusterChanged([]string{"a"}, nil)
	require.ElementsMatch(t, []string{"a"}, topo.NodesInRack("/r1/rack1"))

	mv.OnClusterChanged(nil, nil)
	require.Empty(t, topo.NodesInRack("/r1/rack1"))
}

func TestMembershipView_SnapshotIsIndependentOfLaterChanges(t *testing.T) {
	topo := placement.NewTopologyIndex(nil)
	mv := placement.NewMembershipView(topo)

	mv.OnClusterChanged([]string{"a", "b"}, nil)
	snap := mv.Snapshot()

	mv.OnClusterChanged([]string{"b"}, nil)

	require.True(t, snap.IsWritable("a"))
	require.False(t, mv.IsWritable("a"))
}
