package placement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/placement"
)

func TestNewPolicy_RejectsInvalidConfig(t *testing.T) {
	cfg := placement.DefaultConfig()
	cfg.MinRegionsForDurability = 0
	_, err := placement.NewPolicy(cfg, nil, nil)
	require.ErrorIs(t, err, placement.ErrInvalidConfiguration)
}

func TestNewPolicy_DefaultResolverAndReporter(t *testing.T) {
	p, err := placement.NewPolicy(placement.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	defer p.Close()

	region, err := p.RegionOf("anything")
	require.Error(t, err)
	require.ErrorIs(t, err, placement.ErrUnknownNode)
	_ = region
}

func TestPolicy_WriteSetCoversWindowAtEveryOffset(t *testing.T) {
	resolver, nodes := threeRegionCluster()
	p, err := placement.NewPolicy(placement.DefaultConfig(), resolver, nil)
	require.NoError(t, err)
	p.OnClusterChanged(nodes, nil)

	ens, err := p.NewEnsemble(6, 4, 2, nil)
	require.NoError(t, err)

	for i := 0; i < len(ens); i++ {
		ws := placement.WriteSet(len(ens), 4, i)
		require.Len(t, ws, 4)
		seen := map[int]bool{}
		for _, idx := range ws {
			require.False(t, seen[idx])
			seen[idx] = true
		}
	}
}
