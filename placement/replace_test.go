package placement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/placement"
)

func TestReplaceBookie_WithinRegion(t *testing.T) {
	resolver := placement.NewStaticResolver(map[string]string{
		"default1": placement.DefaultRack,
		"region1a": "/region1/r1",
		"region1b": "/region1/r2",
		"default2": "/default-region/r3",
	})
	p, err := placement.NewPolicy(placement.DefaultConfig(), resolver, nil)
	require.NoError(t, err)
	p.OnClusterChanged([]string{"default1", "region1a", "region1b", "default2"}, nil)

	got, err := p.ReplaceBookie(1, 1, 1, []string{"region1a"}, "region1a", nil)
	require.NoError(t, err)
	require.Equal(t, "region1b", got)
}

func TestReplaceBookie_FallsBackToOtherRegion(t *testing.T) {
	resolver := placement.NewStaticResolver(map[string]string{
		"a": placement.DefaultRack,
		"b": "/region1/r2",
		"c": "/region2/r3",
		"d": "/region3/r4",
	})
	p, err := placement.NewPolicy(placement.DefaultConfig(), resolver, nil)
	require.NoError(t, err)
	p.OnClusterChanged([]string{"a", "b", "c", "d"}, nil)

	got, err := p.ReplaceBookie(1, 1, 1, []string{"b"}, "b", []string{"a"})
	require.NoError(t, err)
	require.Contains(t, []string{"c", "d"}, got)
}

func TestReplaceBookie_NotEnoughBookies(t *testing.T) {
	resolver := placement.NewStaticResolver(map[string]string{
		"a": placement.DefaultRack,
		"b": "/region2/r2",
		"c": "/region3/r3",
		"d": "/region4/r4",
	})
	p, err := placement.NewPolicy(placement.DefaultConfig(), resolver, nil)
	require.NoError(t, err)
	p.OnClusterChanged([]string{"a", "b", "c", "d"}, nil)

	_, err = p.ReplaceBookie(1, 1, 1, []string{"b"}, "b", []string{"a", "c", "d"})
	require.ErrorIs(t, err, placement.ErrNotEnoughBookies)
}

func TestReplaceBookie_ReplacementNeverEqualsVictimOrExcluded(t *testing.T) {
	resolver, nodes := threeRegionCluster()
	p, err := placement.NewPolicy(placement.DefaultConfig(), resolver, nil)
	require.NoError(t, err)
	p.OnClusterChanged(nodes, nil)

	ensemble := nodes[:4]
	victim := ensemble[0]
	excluded := []string{nodes[4]}
	got, err := p.ReplaceBookie(len(ensemble), 1, 1, ensemble, victim, excluded)
	require.NoError(t, err)
	require.NotEqual(t, victim, got)
	require.NotEqual(t, nodes[4], got)
	for _, n := range ensemble {
		require.NotEqual(t, n, got)
	}
}
