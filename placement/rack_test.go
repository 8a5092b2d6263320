package placement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/placement"
)

func TestRackAwareSelector_PrefersRackDiversity(t *testing.T) {
	s := placement.NewRackAwareSelector(placement.NewSeededRand(1))
	racks := map[string][]string{
		"/r1/rack1": {"a1", "a2"},
		"/r1/rack2": {"b1"},
		"/r1/rack3": {"c1"},
	}
	picks, err := s.PickN(racks, 3, nil, false, "")
	require.NoError(t, err)
	require.Len(t, picks, 3)

	racksUsed := map[string]bool{}
	for _, addr := range picks {
		switch addr {
		case "a1", "a2":
			racksUsed["/r1/rack1"] = true
		case "b1":
			racksUsed["/r1/rack2"] = true
		case "c1":
			racksUsed["/r1/rack3"] = true
		}
	}
	require.Len(t, racksUsed, 3, "expected all three racks represented before any repeats")
}

func TestRackAwareSelector_ExclusionRespected(t *testing.T) {
	s := placement.NewRackAwareSelector(placement.NewSeededRand(1))
	racks := map[string][]string{
		"/r1/rack1": {"a1", "a2"},
		"/r1/rack2": {"b1"},
	}
	picks, err := s.PickN(racks, 2, map[string]struct{}{"a1": {}}, false, "")
	require.NoError(t, err)
	for _, addr := range picks {
		require.NotEqual(t, "a1", addr)
	}
}

func TestRackAwareSelector_NotEnoughNodes(t *testing.T) {
	s := placement.NewRackAwareSelector(placement.NewSeededRand(1))
	racks := map[string][]string{"/r1/rack1": {"a1"}}
	_, err := s.PickN(racks, 2, nil, false, "")
	require.ErrorIs(t, err, placement.ErrNotEnoughNodes)
}

func TestRackAwareSelector_Deterministic(t *testing.T) {
	racks := map[string][]string{
		"/r1/rack1": {"a1", "a2"},
		"/r1/rack2": {"b1", "b2"},
		"/r1/rack3": {"c1", "c2"},
	}
	s1 := placement.NewRackAwareSelector(placement.NewSeededRand(42))
	s2 := placement.NewRackAwareSelector(placement.NewSeededRand(42))

	p1, err := s1.PickN(racks, 4, nil, false, "")
	require.NoError(t, err)
	p2, err := s2.PickN(racks, 4, nil, false, "")
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}

func TestRackAwareSelector_PreferLocalFirst(t *testing.T) {
	s := placement.NewRackAwareSelector(placement.NewSeededRand(1))
	racks := map[string][]string{
		"/r1/rack1": {"a1"},
		"/r1/rack2": {"b1"},
	}
	picks, err := s.PickN(racks, 1, nil, true, "/r1/rack2")
	require.NoError(t, err)
	require.Equal(t, []string{"b1"}, picks)
}
