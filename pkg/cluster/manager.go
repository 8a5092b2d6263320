package cluster

import (
	"sync"
	"time"
)

// Manager maintains the in-memory node registry a Watcher classifies
// by heartbeat freshness. Adapted from the teacher's Manager, which
// also elected a leader by smallest ID — that role-tracking is absent
// here since the placement core never needs a leader (spec.md §1
// Non-goals).
type Manager struct {
	mu    sync.RWMutex
	cfg   Config
	nodes map[string]*Node
}

// NewManager creates a manager and registers the local node.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		cfg:   cfg,
		nodes: make(map[string]*Node),
	}
	m.nodes[cfg.NodeID] = &Node{
		ID:       cfg.NodeID,
		Address:  cfg.Address,
		State:    "active",
		LastSeen: time.Now(),
	}
	return m
}

// Join registers or updates a node in the cluster.
func (m *Manager) Join(id, address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		n = &Node{ID: id}
		m.nodes[id] = n
	}
	n.Address = address
	n.State = "active"
	n.LastSeen = time.Now()
}

// Leave marks a node as left/removed.
func (m *Manager) Leave(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
}

// Heartbeat updates a node's liveness timestamp.
func (m *Manager) Heartbeat(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[id]; ok {
		n.LastSeen = time.Now()
	}
	m.sweepLocked()
}

// GetNodes returns a snapshot of current nodes.
func (m *Manager) GetNodes() []Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.sweepLocked()
	out := make([]Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, *n)
	}
	return out
}

// sweepLocked removes nodes that missed heartbeats.
func (m *Manager) sweepLocked() {
	ttl := m.cfg.HeartbeatTTL
	if ttl <= 0 {
		return
	}
	deadline := time.Now().Add(-ttl)
	for id, n := range m.nodes {
		if n.LastSeen.Before(deadline) {
			delete(m.nodes, id)
		}
	}
}
