package placement

import (
	"fmt"
	"sort"
)

// ReplacementPlanner chooses a substitute for a failed node in an
// existing ensemble while preserving the region diversity the ensemble
// already had, per spec §4.5.
type ReplacementPlanner struct {
	cfg Config
}

// NewReplacementPlanner builds a planner for cfg.
func NewReplacementPlanner(cfg Config) *ReplacementPlanner {
	return &ReplacementPlanner{cfg: cfg}
}

// ReplaceBookie returns a replacement address for victim within
// currentEnsemble. The candidate must not be a member of
// currentEnsemble or excluded. Candidates are tried in locality order
// — same rack as victim, then same region, then another region
// consistent with RegionsToWrite — and, within each tier, the first
// candidate (lexicographically) that would not drop any write-set
// window containing victim below MinRegionsForDurability is returned.
// If no candidate preserves that coverage, the first candidate overall
// is returned as the weakest acceptable choice, per spec §4.5.
func (p *ReplacementPlanner) ReplaceBookie(snap Snapshot, e, w, a int, currentEnsemble []string, victim string, excluded map[string]struct{}) (string, error) {
	if err := ValidateSizes(e, w, a); err != nil {
		return "", err
	}

	victimIdx := -1
	for i, addr := range currentEnsemble {
		if addr == victim {
			victimIdx = i
			break
		}
	}
	if victimIdx == -1 {
		return "", fmt.Errorf("%w: victim %s not in ensemble", ErrInvalidConfiguration, victim)
	}

	blocked := make(map[string]struct{}, len(currentEnsemble)+len(excluded))
	for _, addr := range currentEnsemble {
		blocked[addr] = struct{}{}
	}
	for addr := range excluded {
		blocked[addr] = struct{}{}
	}

	victimRegion := snap.RegionOf(victim)
	victimRack := snap.RackOf(victim)

	tiers := p.candidateTiers(snap, victimRegion, victimRack, blocked)

	var firstOverall string
	haveFirst := false

	windows := windowsContaining(e, w, victimIdx)

	for _, tier := range tiers {
		for _, cand := range tier {
			if !haveFirst {
				firstOverall = cand
				haveFirst = true
			}
			if p.preservesCoverage(snap, currentEnsemble, victimIdx, cand, windows) {
				return cand, nil
			}
		}
	}

	if haveFirst {
		return firstOverall, nil
	}
	return "", fmt.Errorf("%w: no replacement candidate for %s", ErrNotEnoughBookies, victim)
}

// candidateTiers returns, in locality-preference order, the
// lexicographically sorted candidate lists for each tier: (1) same
// rack as the victim, (2) same region but a different rack, (3)
// another region consistent with RegionsToWrite.
func (p *ReplacementPlanner) candidateTiers(snap Snapshot, victimRegion, victimRack string, blocked map[string]struct{}) [][]string {
	sameRack := make([]string, 0)
	sameRegion := make([]string, 0)
	otherRegion := make([]string, 0)

	allowedOtherRegions := map[string]struct{}{}
	if len(p.cfg.RegionsToWrite) > 0 {
		for _, r := range p.cfg.RegionsToWrite {
			allowedOtherRegions[r] = struct{}{}
		}
	}

	for _, region := range snap.Regions() {
		for _, rack := range snap.RacksInRegion(region) {
			for _, addr := range snap.NodesInRack(rack) {
				if _, ex := blocked[addr]; ex {
					continue
				}
				if !snap.IsWritable(addr) {
					continue
				}
				switch {
				case rack == victimRack:
					sameRack = append(sameRack, addr)
				case region == victimRegion:
					sameRegion = append(sameRegion, addr)
				default:
					if len(allowedOtherRegions) == 0 {
						otherRegion = append(otherRegion, addr)
					} else if _, ok := allowedOtherRegions[region]; ok {
						otherRegion = append(otherRegion, addr)
					}
				}
			}
		}
	}

	sort.Strings(sameRack)
	sort.Strings(sameRegion)
	sort.Strings(otherRegion)
	return [][]string{sameRack, sameRegion, otherRegion}
}

// preservesCoverage reports whether substituting cand for
// currentEnsemble[victimIdx] keeps every window in windows at or above
// MinRegionsForDurability distinct regions.
func (p *ReplacementPlanner) preservesCoverage(snap Snapshot, ensemble []string, victimIdx int, cand string, windows [][]int) bool {
	candRegion := snap.RegionOf(cand)
	for _, ws := range windows {
		regions := make(map[string]struct{}, len(ws))
		for _, idx := range ws {
			if idx == victimIdx {
				regions[candRegion] = struct{}{}
			} else {
				regions[snap.RegionOf(ensemble[idx])] = struct{}{}
			}
		}
		if len(regions) < p.cfg.MinRegionsForDurability {
			return false
		}
	}
	return true
}

// windowsContaining returns every write-set window (as index lists)
// of an E/W ensemble that contains position victimIdx.
func windowsContaining(e, w, victimIdx int) [][]int {
	windows := make([][]int, 0, w)
	for i := 0; i < e; i++ {
		ws := WriteSet(e, w, i)
		for _, idx := range ws {
			if idx == victimIdx {
				windows = append(windows, ws)
				break
			}
		}
	}
	return windows
}
