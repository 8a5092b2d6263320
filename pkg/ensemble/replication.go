package ensemble

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"gomsg/placement"
)

// ReplicationCoordinator reacts to a bookie going unavailable within
// an open ledger by asking the placement core for a substitute,
// adapted from the teacher's pkg/cluster/replication.go dispatch
// point (there: applying a replicated KV/stream command; here:
// reacting to a bookie failure). Deciding *when* to trigger
// re-replication, and committing the new ensemble back to the
// ledger's own metadata store, remain outside the placement core per
// spec.md §1 Non-goals — this coordinator is the call site that
// exists so the core has a real caller to exercise.
type ReplicationCoordinator struct {
	policy *placement.Policy
	log    *logrus.Logger
}

// NewReplicationCoordinator builds a coordinator around policy. A nil
// log gets a default logrus.Logger.
func NewReplicationCoordinator(policy *placement.Policy, log *logrus.Logger) *ReplicationCoordinator {
	if log == nil {
		log = logrus.New()
	}
	return &ReplicationCoordinator{policy: policy, log: log}
}

// HandleBookieFailure replaces victim within l's ensemble and returns
// the updated ledger. The caller is responsible for persisting the
// new ensemble and for deciding whether already-written entries need
// re-replicating onto the replacement.
func (c *ReplicationCoordinator) HandleBookieFailure(l *Ledger, victim string, excluded []string) (*Ledger, error) {
	replacement, err := c.policy.ReplaceBookie(l.E, l.W, l.A, l.Ensemble, victim, excluded)
	if err != nil {
		return nil, fmt.Errorf("handle bookie failure for ledger %s: %w", l.ID, err)
	}

	newEnsemble := make([]string, len(l.Ensemble))
	copy(newEnsemble, l.Ensemble)
	for i, addr := range newEnsemble {
		if addr == victim {
			newEnsemble[i] = replacement
			break
		}
	}

	c.log.WithFields(logrus.Fields{
		"ledger":      l.ID,
		"victim":      victim,
		"replacement": replacement,
	}).Info("replaced failed bookie in ensemble")

	return &Ledger{ID: l.ID, Ensemble: newEnsemble, E: l.E, W: l.W, A: l.A}, nil
}
