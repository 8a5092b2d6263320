// Package ensemble plays the role spec.md §1 assigns to the "log
// storage engine": the external collaborator that opens ledgers by
// asking the placement core for an ensemble and, on bookie failure,
// asks it for a replacement. Nothing in this package influences a
// placement decision; it only calls into placement.Policy and reacts
// to the result.
package ensemble

import (
	"fmt"

	"github.com/google/uuid"

	"gomsg/placement"
)

// Ledger is a minimal stand-in for a bookie-style replicated log
// segment: an ID, the ensemble it was opened against, and the
// write/ack quorum sizes used to compute write-set windows.
type Ledger struct {
	ID       string
	Ensemble []string
	E, W, A  int
}

// OpenLedger requests a new ensemble from policy and mints a ledger ID,
// mirroring the teacher's replicated command envelope minting a new
// identifier per operation (pkg/cluster's Command, google/uuid) but
// for ledger creation rather than a KV/stream write.
func OpenLedger(policy *placement.Policy, e, w, a int, excluded []string) (*Ledger, error) {
	ensemble, err := policy.NewEnsemble(e, w, a, excluded)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &Ledger{
		ID:       uuid.NewString(),
		Ensemble: ensemble,
		E:        e,
		W:        w,
		A:        a,
	}, nil
}

// WriteSet returns the write-quorum window for entry index i.
func (l *Ledger) WriteSet(i int) []int {
	return placement.WriteSet(len(l.Ensemble), l.W, i)
}
