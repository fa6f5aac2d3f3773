package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryTracksLiveSessions(t *testing.T) {
	r := NewRegistry()
	s := NewSession()

	assert.False(t, r.Busy("scan-1"))

	r.Add("scan-1", s)
	got, ok := r.Lookup("scan-1")
	require.True(t, ok)
	assert.Same(t, s, got)

	// An idle session is registered but not busy.
	assert.False(t, r.Busy("scan-1"))

	require.NoError(t, s.RequestPermission(grant(&fakeStream{})))
	_, err := s.Capture(frame([]byte("x"), nil))
	require.NoError(t, err)
	require.NoError(t, s.BeginPhase(PhaseProcessing))
	assert.True(t, r.Busy("scan-1"))

	s.EndPhase()
	assert.False(t, r.Busy("scan-1"))

	r.Remove("scan-1")
	_, ok = r.Lookup("scan-1")
	assert.False(t, ok)
}
