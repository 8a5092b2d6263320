package cluster_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gomsg/pkg/cluster"
	"gomsg/placement"
)

func newTestWatcher(t *testing.T) (*cluster.Watcher, *placement.Policy) {
	t.Helper()
	resolver := placement.NewStaticResolver(map[string]string{
		"10.0.0.1:3181": "/r1/rack1",
		"10.0.0.2:3181": "/r1/rack2",
	})
	policy, err := placement.NewPolicy(placement.DefaultConfig(), resolver, nil)
	require.NoError(t, err)

	w, err := cluster.NewWatcher(cluster.WatcherConfig{
		Self: cluster.Config{
			NodeID:       "n1",
			Address:      "10.0.0.1:3181",
			HeartbeatTTL: 200 * time.Millisecond,
		},
		PollInterval: 10 * time.Millisecond,
	}, policy, nil)
	require.NoError(t, err)
	return w, policy
}

func TestWatcher_JoinPushesWritableSnapshot(t *testing.T) {
	w, policy := newTestWatcher(t)

	w.Join("n2", "10.0.0.2:3181")

	ens, err := policy.NewEnsemble(2, 2, 1, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"10.0.0.1:3181", "10.0.0.2:3181"}, ens)
}

func TestWatcher_LeaveRemovesNode(t *testing.T) {
	w, policy := newTestWatcher(t)

	w.Join("n2", "10.0.0.2:3181")
	w.Leave("n2")

	_, err := policy.NewEnsemble(2, 2, 1, nil)
	require.ErrorIs(t, err, placement.ErrNotEnoughBookies)
}

func TestWatcher_IsLeaderFalseWithoutRaft(t *testing.T) {
	w, _ := newTestWatcher(t)
	require.False(t, w.IsLeader())
}

func TestWatcher_CloseWithoutRaftIsNoop(t *testing.T) {
	w, _ := newTestWatcher(t)
	w.Close()
}
