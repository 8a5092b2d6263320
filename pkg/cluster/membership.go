package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gomsg/pkg/cluster/raft"
	"gomsg/placement"
)

// Watcher adapts a coordination-service-style membership source into
// the placement.Policy.OnClusterChanged calls spec.md §4.2 expects.
// It owns an in-memory node registry (Manager) and, when
// WatcherConfig.Raft.BindAddr is set, an embedded raft node running
// NewNoopFSM. The writable and read-only sets are derived from the
// registry alone; the raft node is consulted only by IsLeader.
type Watcher struct {
	manager      *Manager
	raftNode     *raft.Node
	policy       *placement.Policy
	log          *logrus.Logger
	pollInterval time.Duration
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Self describes this process's own entry in the node registry.
	Self Config
	// Raft, if BindAddr is non-empty, starts an embedded raft node
	// whose only use is IsLeader; it does not feed the writable set.
	Raft raft.Config
	// PollInterval governs how often Run re-derives the writable/
	// read-only sets from heartbeat freshness. Defaults to 5s.
	PollInterval time.Duration
}

// NewWatcher builds a Watcher around policy. A nil log gets a
// default logrus.Logger, matching the structured-logging convention
// used throughout pkg/server.
func NewWatcher(cfg WatcherConfig, policy *placement.Policy, log *logrus.Logger) (*Watcher, error) {
	if log == nil {
		log = logrus.New()
	}
	w := &Watcher{
		manager:      NewManager(cfg.Self),
		policy:       policy,
		log:          log,
		pollInterval: cfg.PollInterval,
	}
	if w.pollInterval <= 0 {
		w.pollInterval = 5 * time.Second
	}
	if cfg.Raft.BindAddr != "" {
		node, err := raft.Start(cfg.Raft, raft.NewNoopFSM())
		if err != nil {
			return nil, fmt.Errorf("membership raft start: %w", err)
		}
		w.raftNode = node
	}
	return w, nil
}

// Join registers addr as present and immediately pushes a refreshed
// snapshot to the placement policy.
func (w *Watcher) Join(id, address string) {
	w.manager.Join(id, address)
	w.refresh()
}

// Leave removes id from the registry and pushes a refreshed snapshot.
func (w *Watcher) Leave(id string) {
	w.manager.Leave(id)
	w.refresh()
}

// Heartbeat marks id as freshly seen and pushes a refreshed snapshot.
func (w *Watcher) Heartbeat(id string) {
	w.manager.Heartbeat(id)
	w.refresh()
}

// IsLeader reports whether this watcher's embedded raft node (if any)
// currently holds leadership of the membership-agreement group.
func (w *Watcher) IsLeader() bool {
	return w.raftNode != nil && w.raftNode.IsLeader()
}

// Run polls the registry at PollInterval and reports the derived
// writable/read-only sets to the placement policy until ctx is
// canceled. It pushes an initial snapshot immediately.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	w.refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

// refresh classifies every registered node by heartbeat freshness: a
// node seen within the last half of its HeartbeatTTL is writable, one
// seen more recently than the full TTL but past half of it is
// read-only (it may still serve reads, but the placement core should
// no longer choose it for new ensembles), and Manager's own sweep
// removes it entirely once the full TTL elapses.
func (w *Watcher) refresh() {
	nodes := w.manager.GetNodes()
	writable := make([]string, 0, len(nodes))
	readOnly := make([]string, 0, len(nodes))

	halfTTL := w.manager.cfg.HeartbeatTTL / 2
	now := time.Now()
	for _, n := range nodes {
		if halfTTL > 0 && now.Sub(n.LastSeen) > halfTTL {
			readOnly = append(readOnly, n.Address)
		} else {
			writable = append(writable, n.Address)
		}
	}

	w.policy.OnClusterChanged(writable, readOnly)
	w.log.WithFields(logrus.Fields{
		"writable": len(writable),
		"readOnly": len(readOnly),
	}).Debug("pushed membership snapshot to placement policy")
}

// Close shuts down the embedded raft node, if any.
func (w *Watcher) Close() {
	if w.raftNode != nil {
		_ = w.raftNode.Shutdown()
	}
}
