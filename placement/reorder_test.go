package placement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/placement"
)

// newTestPolicy builds a Policy over a four-node topology matching the
// scenarios in spec.md §8 (S1-S3): addr1 -> /r1/rack1, addr2 -> default,
// addr3 -> default, addr4 -> /r1/rack2. The caller's own rack is
// registered under callerAddr.
func newTestPolicy(t *testing.T, callerAddr, callerRack string) (*placement.Policy, []string) {
	t.Helper()
	resolver := placement.NewStaticResolver(map[string]string{
		"addr1": "/r1/rack1",
		"addr4": "/r1/rack2",
	})
	if callerRack != "" {
		resolver.Add(callerAddr, callerRack)
	}
	p, err := placement.NewPolicy(placement.DefaultConfig(), resolver, nil)
	require.NoError(t, err)
	ensemble := []string{"addr1", "addr2", "addr3", "addr4"}
	return p, ensemble
}

func TestReorderReadSequence_LocalRackFirst(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r1/rack3")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)

	got := p.ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller")
	require.Equal(t, []int{0, 3, 1, 2}, got)
}

func TestReorderReadSequence_NodeDown(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r1/rack1")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)
	p.OnClusterChanged([]string{"addr2", "addr3", "addr4"}, nil)

	got := p.ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller")
	require.Equal(t, []int{3, 1, 2, 0}, got)
}

func TestReorderReadSequence_NodeReadOnly(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r1/rack1")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)
	p.OnClusterChanged([]string{"addr2", "addr3", "addr4"}, []string{"addr1"})

	got := p.ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller")
	require.Equal(t, []int{3, 1, 2, 0}, got)
}

func TestReorderReadSequence_TwoNodesDown(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r1/rack1")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)
	p.OnClusterChanged([]string{"addr3", "addr4"}, nil)

	got := p.ReorderReadSequence(ensemble, []int{0, 1, 2, 3}, "caller")
	require.Equal(t, []int{3, 2, 0, 1}, got)
}

func TestReorderReadSequence_DefaultRegionUnchanged(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)

	writeSet := []int{0, 1, 2, 3}
	got := p.ReorderReadSequence(ensemble, writeSet, "caller")
	require.Equal(t, writeSet, got)
}

func TestReorderReadSequence_NotInSameRegion(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r2/rack1")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)

	writeSet := []int{0, 1, 2, 3}
	got := p.ReorderReadSequence(ensemble, writeSet, "caller")
	require.Equal(t, writeSet, got)
}

func TestReorderReadSequence_IsPermutation(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r1/rack1")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)

	writeSet := []int{0, 1, 2, 3}
	got := p.ReorderReadSequence(ensemble, writeSet, "caller")
	require.ElementsMatch(t, writeSet, got)
}

func TestReorderReadLACSequence_NoLocalMembersReturnsUnchanged(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r2/rack1")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)

	writeSet := []int{0, 1, 2, 3}
	got := p.ReorderReadLACSequence(ensemble, writeSet, "caller")
	require.Equal(t, writeSet, got)
}

func TestReorderReadLACSequence_MatchesReadSequenceWhenLocalPresent(t *testing.T) {
	p, ensemble := newTestPolicy(t, "caller", "/r1/rack3")
	p.OnClusterChanged([]string{"addr1", "addr2", "addr3", "addr4"}, nil)

	writeSet := []int{0, 1, 2, 3}
	want := p.ReorderReadSequence(ensemble, writeSet, "caller")
	got := p.ReorderReadLACSequence(ensemble, writeSet, "caller")
	require.Equal(t, want, got)
}
