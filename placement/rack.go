package placement

import (
	"fmt"
	"sort"
)

// RackAwareSelector implements the basic diversity policy of spec
// §4.3: pick N nodes such that no two share a rack when possible,
// honoring an exclusion set and a local-rack bias.
type RackAwareSelector struct {
	rand Rand
}

// NewRackAwareSelector builds a selector whose tie-breaking draws from
// rand. A nil rand gets the default seeded source.
func NewRackAwareSelector(rnd Rand) *RackAwareSelector {
	if rnd == nil {
		rnd = NewSeededRand(0)
	}
	return &RackAwareSelector{rand: rnd}
}

// PickN selects count distinct addresses from racks (a rack path ->
// candidate address list, each list already restricted to writable,
// non-excluded nodes), preferring rack diversity first and the
// caller's local rack first when preferLocal is set and a local
// candidate remains. It returns ErrNotEnoughNodes if fewer than count
// candidates are available across all racks.
func (s *RackAwareSelector) PickN(racks map[string][]string, count int, excluded map[string]struct{}, preferLocal bool, localRack string) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	// Copy and filter candidate lists, sorted for a deterministic
	// base order (tie-break rule from spec §9(a)).
	remaining := make(map[string][]string, len(racks))
	order := make([]string, 0, len(racks))
	total := 0
	for rack, addrs := range racks {
		filtered := make([]string, 0, len(addrs))
		for _, a := range addrs {
			if _, ex := excluded[a]; ex {
				continue
			}
			filtered = append(filtered, a)
		}
		if len(filtered) == 0 {
			continue
		}
		sort.Strings(filtered)
		remaining[rack] = filtered
		order = append(order, rack)
		total += len(filtered)
	}
	if total < count {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughNodes, count, total)
	}
	sort.Strings(order)

	rackOrder := s.rackOrder(order, preferLocal, localRack)

	picked := make([]string, 0, count)
	cursor := make(map[string]int, len(remaining))
	for len(picked) < count {
		progressed := false
		for _, rack := range rackOrder {
			if len(picked) >= count {
				break
			}
			addrs := remaining[rack]
			idx := cursor[rack]
			if idx >= len(addrs) {
				continue
			}
			picked = append(picked, addrs[idx])
			cursor[rack] = idx + 1
			progressed = true
		}
		if !progressed {
			break
		}
	}

	if len(picked) < count {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughNodes, count, len(picked))
	}
	return picked, nil
}

// rackOrder returns a deterministic traversal order over racks: the
// local rack pinned first (if requested and present), the rest
// shuffled by the selector's seeded Rand so repeated calls with the
// same seed reproduce the same order (spec §4.3 step 4).
func (s *RackAwareSelector) rackOrder(racks []string, preferLocal bool, localRack string) []string {
	ordered := make([]string, 0, len(racks))
	rest := make([]string, 0, len(racks))
	localPlaced := false
	for _, r := range racks {
		if preferLocal && !localPlaced && r == localRack {
			ordered = append(ordered, r)
			localPlaced = true
			continue
		}
		rest = append(rest, r)
	}

	// Fisher-Yates shuffle over a seeded Rand: deterministic given the
	// same seed and the same input slice (already lexicographically
	// sorted by the caller), satisfying the reproducibility invariant
	// without depending on Go's map iteration order.
	for i := len(rest) - 1; i > 0; i-- {
		j := s.rand.Intn(i + 1)
		rest[i], rest[j] = rest[j], rest[i]
	}
	return append(ordered, rest...)
}
