package placement

// ReadReorderer produces read-order permutations of a write-set,
// preferring the caller's local region and deprioritizing unhealthy
// nodes, per spec §4.6. It is a pure function of its inputs plus a
// snapshot — no hidden state.
type ReadReorderer struct {
	cfg Config
}

// NewReadReorderer builds a reorderer for cfg.
func NewReadReorderer(cfg Config) *ReadReorderer {
	return &ReadReorderer{cfg: cfg}
}

// nodeClass is the four-way classification spec §4.6 reorders by.
type nodeClass int

const (
	classLocal nodeClass = iota
	classRemoteWritable
	classRemoteReadOnly
	classUnavailable
)

// classify buckets an ensemble address against the caller's region and
// the snapshot's liveness view. Local means same region AND writable
// — a same-region node that is down or read-only is not "local" for
// read-ordering purposes; it falls through to the remote/unavailable
// classes like any other non-local node.
func classify(snap Snapshot, callerRegion, addr string) nodeClass {
	if snap.RegionOf(addr) == callerRegion && snap.IsWritable(addr) {
		return classLocal
	}
	if snap.IsWritable(addr) {
		return classRemoteWritable
	}
	if snap.IsReadOnly(addr) {
		return classRemoteReadOnly
	}
	return classUnavailable
}

// ReorderReadSequence returns a permutation of writeSet: local entries
// first in original order, then remote entries ordered
// writable -> read-only -> unavailable (each class preserving its
// original write-set order), with one remote entry interleaved after
// the first K local entries per spec §4.6's
// "[local...local, remote, local, remote-tail...]" shape. If
// callerRegion is the default/unknown region, writeSet is returned
// unchanged.
//
// callerRegion is the reading client's own region, resolved the same
// way a storage node's region is (via the injected Resolver) — the
// caller need not itself be a known cluster member.
func (r *ReadReorderer) ReorderReadSequence(snap Snapshot, ensemble []string, writeSet []int, callerRegion string) []int {
	if callerRegion == DefaultRegion {
		return copyInts(writeSet)
	}
	local, remotes := r.classifyWriteSet(snap, ensemble, writeSet, callerRegion)
	return shapeReorder(local, remotes, r.cfg.RemoteNodeReorderThreshold)
}

// ReorderReadLACSequence implements spec §4.6's LAC variant: identical
// classification to ReorderReadSequence, but it skips the local-heavy
// reorder and returns writeSet unchanged when the caller's region has
// no members in writeSet at all (per the open-question resolution in
// spec §9(b)).
func (r *ReadReorderer) ReorderReadLACSequence(snap Snapshot, ensemble []string, writeSet []int, callerRegion string) []int {
	if callerRegion == DefaultRegion {
		return copyInts(writeSet)
	}
	local, remotes := r.classifyWriteSet(snap, ensemble, writeSet, callerRegion)
	if len(local) == 0 {
		return copyInts(writeSet)
	}
	return shapeReorder(local, remotes, r.cfg.RemoteNodeReorderThreshold)
}

// classifyWriteSet splits writeSet into the local list (original
// order) and the concatenated remote lists
// (writable, then read-only, then unavailable; each preserving
// original order within its class).
func (r *ReadReorderer) classifyWriteSet(snap Snapshot, ensemble []string, writeSet []int, callerRegion string) (local, remotes []int) {
	var writable, readOnly, unavailable []int
	for _, idx := range writeSet {
		addr := ensemble[idx]
		switch classify(snap, callerRegion, addr) {
		case classLocal:
			local = append(local, idx)
		case classRemoteWritable:
			writable = append(writable, idx)
		case classRemoteReadOnly:
			readOnly = append(readOnly, idx)
		default:
			unavailable = append(unavailable, idx)
		}
	}
	remotes = append(remotes, writable...)
	remotes = append(remotes, readOnly...)
	remotes = append(remotes, unavailable...)
	return local, remotes
}

// shapeReorder produces [local...local, remote, local, remote-tail...]
// when local has more than k entries and at least one remote exists;
// otherwise it is a plain concatenation of local then remotes.
func shapeReorder(local, remotes []int, k int) []int {
	if len(remotes) == 0 || len(local) <= k {
		out := make([]int, 0, len(local)+len(remotes))
		out = append(out, local...)
		out = append(out, remotes...)
		return out
	}

	out := make([]int, 0, len(local)+len(remotes))
	out = append(out, local[:k]...)
	out = append(out, remotes[0])
	out = append(out, local[k:]...)
	out = append(out, remotes[1:]...)
	return out
}

func copyInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
