package cluster

import "time"

// Node represents a cluster member. Adapted from the teacher's Node,
// which also carried a Role (leader/follower) — leader election has
// no placement counterpart (spec.md §1 Non-goals) so that field is
// dropped here.
type Node struct {
	ID       string
	Address  string
	State    string
	LastSeen time.Time
}

// Config controls the in-process cluster manager.
type Config struct {
	// NodeID is this process's ID.
	NodeID string
	// Address is this process's advertised address.
	Address string
	// HeartbeatTTL marks a node unhealthy if not seen within this duration.
	HeartbeatTTL time.Duration
}
