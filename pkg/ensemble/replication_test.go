package ensemble_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gomsg/pkg/ensemble"
	"gomsg/placement"
)

func TestHandleBookieFailure_SubstitutesVictim(t *testing.T) {
	p := newTestPolicy(t)

	l, err := ensemble.OpenLedger(p, 2, 2, 1, nil)
	require.NoError(t, err)
	victim := l.Ensemble[0]

	coord := ensemble.NewReplicationCoordinator(p, nil)
	replaced, err := coord.HandleBookieFailure(l, victim, nil)
	require.NoError(t, err)

	require.Equal(t, l.ID, replaced.ID)
	require.NotContains(t, replaced.Ensemble, victim)
	require.Len(t, replaced.Ensemble, len(l.Ensemble))
}

func TestHandleBookieFailure_NotEnoughBookies(t *testing.T) {
	p := newTestPolicy(t)

	l, err := ensemble.OpenLedger(p, 4, 2, 1, nil)
	require.NoError(t, err)
	victim := l.Ensemble[0]

	coord := ensemble.NewReplicationCoordinator(p, nil)
	_, err = coord.HandleBookieFailure(l, victim, []string{"a", "b", "c", "d"})
	require.ErrorIs(t, err, placement.ErrNotEnoughBookies)
}
