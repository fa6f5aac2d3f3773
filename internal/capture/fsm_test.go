package capture

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	closed int
}

func (f *fakeStream) Close() error {
	f.closed++
	return nil
}

func grant(stream io.Closer) PermissionFunc {
	return func() (io.Closer, error) { return stream, nil }
}

func deny() PermissionFunc {
	return func() (io.Closer, error) { return nil, ErrPermissionDenied }
}

func frame(data []byte, err error) FrameFunc {
	return func(io.Closer) ([]byte, error) { return data, err }
}

func TestPermissionGranted(t *testing.T) {
	s := NewSession()
	stream := &fakeStream{}

	require.NoError(t, s.RequestPermission(grant(stream)))
	assert.Equal(t, StatePreviewing, s.State())
}

func TestPermissionDenied(t *testing.T) {
	s := NewSession()

	err := s.RequestPermission(deny())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StatePermissionDenied, s.State())

	// A denied session cannot start capturing.
	_, err = s.Capture(frame([]byte("x"), nil))
	assert.ErrorIs(t, err, ErrBadState)
}

func TestCaptureBeforePermission(t *testing.T) {
	s := NewSession()
	_, err := s.Capture(frame([]byte("x"), nil))
	assert.ErrorIs(t, err, ErrBadState)
}

func TestCaptureSucceeds(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.RequestPermission(grant(&fakeStream{})))

	data, err := s.Capture(frame([]byte("jpeg"), nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, StateCaptureSucceeded, s.State())
}

func TestCaptureFailureAllowsRetake(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.RequestPermission(grant(&fakeStream{})))

	_, err := s.Capture(frame(nil, errors.New("sensor fault")))
	require.Error(t, err)
	assert.Equal(t, StateCaptureFailed, s.State())

	data, err := s.Capture(frame([]byte("jpeg"), nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)
}

func TestPhaseLabels(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.RequestPermission(grant(&fakeStream{})))

	_, err := s.Capture(frame([]byte("jpeg"), nil))
	require.NoError(t, err)

	require.NoError(t, s.BeginPhase(PhaseUploading))
	assert.Equal(t, PhaseUploading, s.Phase())
	require.NoError(t, s.BeginPhase(PhaseProcessing))
	assert.Equal(t, PhaseProcessing, s.Phase())
	s.EndPhase()
	assert.Empty(t, s.Phase())
}

func TestPhaseRequiresCapture(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.RequestPermission(grant(&fakeStream{})))
	assert.ErrorIs(t, s.BeginPhase(PhaseUploading), ErrBadState)
}

func TestCloseReleasesStream(t *testing.T) {
	s := NewSession()
	stream := &fakeStream{}
	require.NoError(t, s.RequestPermission(grant(stream)))

	require.NoError(t, s.Close())
	assert.Equal(t, 1, stream.closed)
	assert.Equal(t, StateClosed, s.State())

	// Double close does not touch the stream again.
	require.NoError(t, s.Close())
	assert.Equal(t, 1, stream.closed)
}

func TestCloseAfterCaptureReleasesStream(t *testing.T) {
	s := NewSession()
	stream := &fakeStream{}
	require.NoError(t, s.RequestPermission(grant(stream)))

	_, err := s.Capture(frame(nil, errors.New("sensor fault")))
	require.Error(t, err)

	require.NoError(t, s.Close())
	assert.Equal(t, 1, stream.closed)
}

func TestCloseWhileCapturingIsRejected(t *testing.T) {
	s := NewSession()
	stream := &fakeStream{}
	require.NoError(t, s.RequestPermission(grant(stream)))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Capture(func(io.Closer) ([]byte, error) {
			close(started)
			<-release
			return []byte("jpeg"), nil
		})
	}()

	<-started
	assert.ErrorIs(t, s.Close(), ErrBusy)
	assert.Equal(t, 0, stream.closed)

	close(release)
	<-done

	// Once the capture settles the close goes through.
	require.NoError(t, s.Close())
	assert.Equal(t, 1, stream.closed)
}

func TestCloseWhilePhaseActiveIsRejected(t *testing.T) {
	s := NewSession()
	stream := &fakeStream{}
	require.NoError(t, s.RequestPermission(grant(stream)))

	_, err := s.Capture(frame([]byte("jpeg"), nil))
	require.NoError(t, err)
	require.NoError(t, s.BeginPhase(PhaseUploading))
	assert.True(t, s.Busy())

	assert.ErrorIs(t, s.Close(), ErrBusy)
	assert.Equal(t, 0, stream.closed)

	s.EndPhase()
	assert.False(t, s.Busy())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, stream.closed)
}

func TestCloseWithoutPermission(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
}
