package placement

import (
	"sort"
	"sync"
)

// MembershipView tracks the two disjoint sets of writable and
// read-only nodes, per spec §4.2. It owns the TopologyIndex: nodes new
// to the union are added to it, nodes removed from the union are
// removed from it.
type MembershipView struct {
	mu       sync.RWMutex
	writable map[string]struct{}
	readOnly map[string]struct{}
	topo     *TopologyIndex
}

// NewMembershipView creates an empty view backed by topo.
func NewMembershipView(topo *TopologyIndex) *MembershipView {
	return &MembershipView{
		writable: make(map[string]struct{}),
		readOnly: make(map[string]struct{}),
		topo:     topo,
	}
}

// OnClusterChanged atomically replaces the writable and read-only
// sets. Overlapping input (an address present in both) is resolved
// with read-only winning, per spec §4.2. Nodes newly present in the
// union are added to the TopologyIndex; nodes that drop out of the
// union entirely are removed from it.
func (m *MembershipView) OnClusterChanged(writable, readOnly []string) {
	newWritable := make(map[string]struct{}, len(writable))
	newReadOnly := make(map[string]struct{}, len(readOnly))

	for _, addr := range readOnly {
		newReadOnly[addr] = struct{}{}
	}
	for _, addr := range writable {
		if _, dup := newReadOnly[addr]; dup {
			continue
		}
		newWritable[addr] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	oldUnion := unionOf(m.writable, m.readOnly)
	newUnion := unionOf(newWritable, newReadOnly)

	for addr := range newUnion {
		if _, known := oldUnion[addr]; !known {
			m.topo.AddNode(addr)
		}
	}
	for addr := range oldUnion {
		if _, still := newUnion[addr]; !still {
			m.topo.RemoveNode(addr)
		}
	}

	m.writable = newWritable
	m.readOnly = newReadOnly
}

// IsWritable reports whether addr is currently in the writable set.
func (m *MembershipView) IsWritable(addr string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.writable[addr]
	return ok
}

// IsReadOnly reports whether addr is currently in the read-only set.
func (m *MembershipView) IsReadOnly(addr string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.readOnly[addr]
	return ok
}

// Snapshot captures an immutable view of (writable, read-only,
// topology) for a single selection call. The caller owns the returned
// value exclusively; it is never mutated in place.
func (m *MembershipView) Snapshot() Snapshot {
	m.mu.RLock()
	writable := make(map[string]struct{}, len(m.writable))
	for a := range m.writable {
		writable[a] = struct{}{}
	}
	readOnly := make(map[string]struct{}, len(m.readOnly))
	for a := range m.readOnly {
		readOnly[a] = struct{}{}
	}
	m.mu.RUnlock()

	return Snapshot{
		writable: writable,
		readOnly: readOnly,
		topo:     m.topo.snapshot(),
	}
}

func unionOf(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// Snapshot is the immutable membership+topology view a single
// selection call reads from, per spec §3's Membership Snapshot.
type Snapshot struct {
	writable map[string]struct{}
	readOnly map[string]struct{}
	topo     topologySnapshot
}

// IsWritable reports whether addr was writable as of this snapshot.
func (s Snapshot) IsWritable(addr string) bool {
	_, ok := s.writable[addr]
	return ok
}

// IsReadOnly reports whether addr was read-only as of this snapshot.
func (s Snapshot) IsReadOnly(addr string) bool {
	_, ok := s.readOnly[addr]
	return ok
}

// RegionOf returns addr's region as of this snapshot, defaulting to
// DefaultRegion for unknown addresses.
func (s Snapshot) RegionOf(addr string) string {
	return s.topo.regionOf(addr)
}

// RackOf returns addr's rack as of this snapshot, defaulting to
// DefaultRack for unknown addresses.
func (s Snapshot) RackOf(addr string) string {
	return s.topo.rackOf(addr)
}

// Regions returns all known regions, lexicographically sorted.
func (s Snapshot) Regions() []string {
	return s.topo.regions()
}

// RacksInRegion returns the racks known in region, lexicographically
// sorted.
func (s Snapshot) RacksInRegion(region string) []string {
	return s.topo.regionRack[region]
}

// NodesInRack returns the nodes known in rack, lexicographically
// sorted.
func (s Snapshot) NodesInRack(rack string) []string {
	return s.topo.rackNodes[rack]
}

// WritableNodesByRegion groups the writable set by region and rack,
// each rack's address list lexicographically sorted, restricted to
// addresses not present in excluded.
func (s Snapshot) WritableNodesByRegion(excluded map[string]struct{}) map[string]map[string][]string {
	out := make(map[string]map[string][]string)
	for addr := range s.writable {
		if _, ex := excluded[addr]; ex {
			continue
		}
		region := s.RegionOf(addr)
		rack := s.RackOf(addr)
		if out[region] == nil {
			out[region] = make(map[string][]string)
		}
		out[region][rack] = append(out[region][rack], addr)
	}
	for _, racks := range out {
		for rack := range racks {
			sort.Strings(racks[rack])
		}
	}
	return out
}
