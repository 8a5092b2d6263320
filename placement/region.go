package placement

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// RegionAwareSelector composes one RackAwareSelector per active
// region, enforcing the minimum-regions-for-durability coverage rule
// of spec §4.4. Per the design note in §9, the region/rack hierarchy
// is expressed as composition rather than an inheritance chain: this
// selector owns the per-region RackAwareSelectors, the RackAwareSelector
// has no knowledge of regions at all.
type RegionAwareSelector struct {
	cfg  Config
	rand Rand

	mu        sync.Mutex
	selectors map[string]*RackAwareSelector
}

// NewRegionAwareSelector builds a selector for cfg, drawing tie-break
// randomness from rnd. A nil rnd gets the default seeded source keyed
// by cfg.Seed.
func NewRegionAwareSelector(cfg Config, rnd Rand) *RegionAwareSelector {
	if rnd == nil {
		rnd = NewSeededRand(cfg.Seed)
	}
	return &RegionAwareSelector{
		cfg:       cfg,
		rand:      rnd,
		selectors: make(map[string]*RackAwareSelector),
	}
}

// rackSelectorFor returns the (lazily created, cached) RackAwareSelector
// for region, so repeated calls against the same selector reuse the
// same Rand sequence for that region rather than reseeding it.
func (s *RegionAwareSelector) rackSelectorFor(region string) *RackAwareSelector {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rs, ok := s.selectors[region]; ok {
		return rs
	}
	rs := NewRackAwareSelector(s.rand)
	s.selectors[region] = rs
	return rs
}

// regionsToWrite resolves the configured region priority list against
// the snapshot: the explicit RegionsToWrite list if set, otherwise all
// known regions in canonical (lexicographic) order.
func (s *RegionAwareSelector) regionsToWrite(snap Snapshot) []string {
	if len(s.cfg.RegionsToWrite) > 0 {
		out := make([]string, len(s.cfg.RegionsToWrite))
		copy(out, s.cfg.RegionsToWrite)
		return out
	}
	return snap.Regions()
}

// NewEnsemble implements spec §4.4: it allocates E nodes across the
// configured regions, interleaves the per-region picks round-robin,
// and validates durability coverage when enabled.
func (s *RegionAwareSelector) NewEnsemble(snap Snapshot, e, w, a int, excluded map[string]struct{}) ([]string, error) {
	if err := ValidateSizes(e, w, a); err != nil {
		return nil, err
	}

	regions := s.regionsToWrite(snap)
	if len(regions) == 0 {
		return nil, fmt.Errorf("%w: no known regions", ErrNotEnoughBookies)
	}

	byRegion := snap.WritableNodesByRegion(excluded)

	avail := make(map[string]int, len(regions))
	for _, r := range regions {
		n := 0
		for _, addrs := range byRegion[r] {
			n += len(addrs)
		}
		avail[r] = n
	}

	totalAvail := 0
	for _, r := range regions {
		totalAvail += avail[r]
	}
	if totalAvail < e {
		return nil, s.notEnoughBookies(regions, avail, e)
	}

	assigned, err := s.allocate(regions, avail, e)
	if err != nil {
		return nil, err
	}

	picksByRegion := make(map[string][]string, len(regions))
	for _, r := range regions {
		if assigned[r] == 0 {
			continue
		}
		picks, err := s.rackSelectorFor(r).PickN(byRegion[r], assigned[r], nil, false, "")
		if err != nil {
			return nil, fmt.Errorf("%w: region %s: %v", ErrNotEnoughBookies, r, err)
		}
		picksByRegion[r] = picks
	}

	ensemble := interleave(regions, picksByRegion, e)

	distinctRegionsUsed := 0
	for _, r := range regions {
		if assigned[r] > 0 {
			distinctRegionsUsed++
		}
	}

	// Single-region clusters (or an allocation that only ever touched
	// one region) cannot reach durability coverage >= 2; validation is
	// implicitly skipped for them regardless of EnableValidation, per
	// spec §9(c).
	if s.cfg.EnableValidation && distinctRegionsUsed > 1 {
		for i := 0; i < e; i++ {
			ws := WriteSet(e, w, i)
			if len(RegionsInWriteSet(snap, ensemble, ws)) < s.cfg.MinRegionsForDurability {
				return nil, fmt.Errorf("%w: write-set at %d spans fewer than %d regions", ErrNotEnoughBookies, i, s.cfg.MinRegionsForDurability)
			}
		}
	}

	return ensemble, nil
}

// allocate computes the per-region node count summing to e: a base
// share of e/len(regions) per region, remainder distributed to the
// highest-priority regions first, then rebalanced across regions with
// spare availability when a region can't fill its base share. Returns
// ErrNotEnoughBookies if the cluster-wide shortfall can't be absorbed.
func (s *RegionAwareSelector) allocate(regions []string, avail map[string]int, e int) (map[string]int, error) {
	base := e / len(regions)
	remainder := e % len(regions)

	alloc := make(map[string]int, len(regions))
	for i, r := range regions {
		alloc[r] = base
		if i < remainder {
			alloc[r]++
		}
	}

	assigned := make(map[string]int, len(regions))
	for _, r := range regions {
		if alloc[r] > avail[r] {
			assigned[r] = avail[r]
		} else {
			assigned[r] = alloc[r]
		}
	}

	deficit := e
	for _, r := range regions {
		deficit -= assigned[r]
	}

	for deficit > 0 {
		progressed := false
		for _, r := range regions {
			if deficit <= 0 {
				break
			}
			room := avail[r] - assigned[r]
			if room <= 0 {
				continue
			}
			take := room
			if take > deficit {
				take = deficit
			}
			assigned[r] += take
			deficit -= take
			progressed = true
		}
		if !progressed {
			break
		}
	}

	if deficit > 0 {
		return nil, s.notEnoughBookies(regions, avail, e)
	}
	return assigned, nil
}

func (s *RegionAwareSelector) notEnoughBookies(regions []string, avail map[string]int, e int) error {
	var merr *multierror.Error
	for _, r := range regions {
		merr = multierror.Append(merr, fmt.Errorf("region %s: only %d available", r, avail[r]))
	}
	return fmt.Errorf("%w: requested %d across %d regions: %v", ErrNotEnoughBookies, e, len(regions), merr)
}

// interleave produces the final ensemble by round-robin across regions
// in priority order, consuming the next unused pick from each region
// in turn and skipping regions that have been exhausted, per spec
// §4.4's "interleave" step.
func interleave(regions []string, picksByRegion map[string][]string, e int) []string {
	cursor := make(map[string]int, len(regions))
	ensemble := make([]string, 0, e)
	for len(ensemble) < e {
		progressed := false
		for _, r := range regions {
			if len(ensemble) >= e {
				break
			}
			picks := picksByRegion[r]
			idx := cursor[r]
			if idx >= len(picks) {
				continue
			}
			ensemble = append(ensemble, picks[idx])
			cursor[r] = idx + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return ensemble
}
