package placement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/placement"
)

func TestTopologyIndex_ResolveUnknownDefaultsToDefaultRegion(t *testing.T) {
	idx := placement.NewTopologyIndex(nil)
	region, rack := idx.Resolve("nobody")
	require.Equal(t, placement.DefaultRegion, region)
	require.Equal(t, placement.DefaultRack, rack)
}

func TestTopologyIndex_AddRemoveIsIdempotentAndPrunes(t *testing.T) {
	resolver := placement.NewStaticResolver(map[string]string{
		"a": "/r1/rack1",
		"b": "/r1/rack1",
	})
	idx := placement.NewTopologyIndex(resolver)

	idx.AddNode("a")
	idx.AddNode("a")
	idx.AddNode("b")

	require.ElementsMatch(t, []string{"a", "b"}, idx.NodesInRack("/r1/rack1"))
	require.ElementsMatch(t, []string{"/r1/rack1"}, idx.RacksInRegion("r1"))

	idx.RemoveNode("a")
	require.ElementsMatch(t, []string{"b"}, idx.NodesInRack("/r1/rack1"))

	idx.RemoveNode("b")
	require.Empty(t, idx.NodesInRack("/r1/rack1"))
	require.Empty(t, idx.RacksInRegion("r1"))
}

func TestTopologyIndex_RegionOfUnknownNodeErrors(t *testing.T) {
	idx := placement.NewTopologyIndex(nil)
	_, err := idx.RegionOf("ghost")
	require.ErrorIs(t, err, placement.ErrUnknownNode)
}

func TestTopologyIndex_RegionOfKnownNode(t *testing.T) {
	resolver := placement.NewStaticResolver(map[string]string{"a": "/r1/rack1"})
	idx := placement.NewTopologyIndex(resolver)
	idx.AddNode("a")

	region, err := idx.RegionOf("a")
	require.NoError(t, err)
	require.Equal(t, "r1", region)
}
