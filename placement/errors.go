package placement

import "errors"

// Sentinel errors surfaced by the placement core. Callers should use
// errors.Is against these rather than comparing error strings.
var (
	// ErrNotEnoughBookies is returned when the size, diversity, or
	// exclusion constraints of a selection cannot be satisfied by the
	// current membership snapshot.
	ErrNotEnoughBookies = errors.New("placement: not enough bookies to satisfy request")

	// ErrInvalidConfiguration is returned when a configuration or call
	// parameter is structurally invalid (W > E, A > W, non-positive
	// sizes, MinRegionsForDurability < 1, a negative reorder threshold,
	// or a replacement victim missing from its ensemble). An empty
	// region list is not reported with it: NewEnsemble returns
	// ErrNotEnoughBookies when no region is known.
	ErrInvalidConfiguration = errors.New("placement: invalid configuration")

	// ErrUnknownNode is returned only by the RegionOf inspection helper
	// when an address has never been observed by the topology index.
	// Selection paths never return it; they map unknowns to the default
	// region instead.
	ErrUnknownNode = errors.New("placement: unknown node")

	// ErrNotEnoughNodes is the Rack-Aware Selector's local failure
	// mode: fewer than the requested count of candidates remain within
	// the selector's restricted node set. The Region-Aware Selector
	// translates it into ErrNotEnoughBookies before returning to the
	// caller.
	ErrNotEnoughNodes = errors.New("placement: not enough nodes in rack-aware candidate set")
)
