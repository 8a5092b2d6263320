package placement

import "errors"

// Policy is the composition root described by spec §4/§9: it owns one
// TopologyIndex, one MembershipView, a RegionAwareSelector (which
// itself owns one RackAwareSelector per active region), a
// ReplacementPlanner, and a ReadReorderer. It is the library API
// surface named in spec §6.
type Policy struct {
	cfg      Config
	resolver Resolver
	reporter Reporter

	topology   *TopologyIndex
	membership *MembershipView
	region     *RegionAwareSelector
	replanner  *ReplacementPlanner
	reorderer  *ReadReorderer
}

// NewPolicy starts the placement core: it validates cfg, wires the
// injected resolver (or DefaultResolver if nil) and reporter (or
// NopReporter if nil), and returns a ready-to-use Policy. It replaces
// the source ecosystem's initialize(config, resolver, reporter)
// lifecycle call with ordinary Go construction, per the design note in
// spec §9 that the resolver is an explicit dependency rather than a
// process-wide singleton.
func NewPolicy(cfg Config, resolver Resolver, reporter Reporter) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		resolver = DefaultResolver{}
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	topo := NewTopologyIndex(resolver)
	return &Policy{
		cfg:        cfg,
		resolver:   resolver,
		reporter:   reporter,
		topology:   topo,
		membership: NewMembershipView(topo),
		region:     NewRegionAwareSelector(cfg, NewSeededRand(cfg.Seed)),
		replanner:  NewReplacementPlanner(cfg),
		reorderer:  NewReadReorderer(cfg),
	}, nil
}

// Close ends the policy's lifecycle. The placement core holds no
// durable state and no background goroutines, so Close is a no-op
// kept for lifecycle parity with spec §6's uninitialize(); it exists
// so callers that treat the policy like any other managed resource
// (e.g. via a defer) don't need a special case.
func (p *Policy) Close() {}

// OnClusterChanged implements spec §4.2: atomically replaces the
// writable and read-only sets observed by the policy.
func (p *Policy) OnClusterChanged(writable, readOnly []string) {
	p.membership.OnClusterChanged(writable, readOnly)
}

// NewEnsemble implements spec §4.4: a region- and rack-aware ensemble
// of E addresses with write-quorum W and ack-quorum A, excluding
// excluded.
func (p *Policy) NewEnsemble(e, w, a int, excluded []string) ([]string, error) {
	snap := p.membership.Snapshot()
	ens, err := p.region.NewEnsemble(snap, e, w, a, toSet(excluded))
	if err != nil {
		if errors.Is(err, ErrNotEnoughBookies) {
			p.reporter.EnsembleFailed()
		}
		return nil, err
	}
	p.reporter.EnsembleCreated(len(distinctRegions(snap, ens)))
	return ens, nil
}

// ReplaceBookie implements spec §4.5: a replacement address for victim
// within ensemble, preserving the diversity the ensemble already had.
func (p *Policy) ReplaceBookie(e, w, a int, ensemble []string, victim string, excluded []string) (string, error) {
	snap := p.membership.Snapshot()
	addr, err := p.replanner.ReplaceBookie(snap, e, w, a, ensemble, victim, toSet(excluded))
	if err != nil {
		if errors.Is(err, ErrNotEnoughBookies) {
			p.reporter.ReplaceFailed()
		}
		return "", err
	}
	p.reporter.BookieReplaced()
	return addr, nil
}

// ReorderReadSequence implements spec §4.6: a read-preferring
// permutation of writeSet given the caller's address (used only to
// resolve its region).
func (p *Policy) ReorderReadSequence(ensemble []string, writeSet []int, callerAddr string) []int {
	snap := p.membership.Snapshot()
	callerRegion, _ := p.topology.Resolve(callerAddr)
	return p.reorderer.ReorderReadSequence(snap, ensemble, writeSet, callerRegion)
}

// ReorderReadLACSequence implements spec §4.6's LAC variant.
func (p *Policy) ReorderReadLACSequence(ensemble []string, writeSet []int, callerAddr string) []int {
	snap := p.membership.Snapshot()
	callerRegion, _ := p.topology.Resolve(callerAddr)
	return p.reorderer.ReorderReadLACSequence(snap, ensemble, writeSet, callerRegion)
}

// RegionOf is an inspection helper: it returns ErrUnknownNode for an
// address the topology index has never observed, unlike the selection
// paths above which tolerate unknowns by defaulting them.
func (p *Policy) RegionOf(addr string) (string, error) {
	return p.topology.RegionOf(addr)
}

func toSet(addrs []string) map[string]struct{} {
	out := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		out[a] = struct{}{}
	}
	return out
}

func distinctRegions(snap Snapshot, ensemble []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ensemble))
	for _, addr := range ensemble {
		out[snap.RegionOf(addr)] = struct{}{}
	}
	return out
}
