// Package capture models the lifecycle of a single camera capture session,
// from the permission prompt through frame capture and shutdown.
package capture

import (
	"errors"
	"io"
	"sync"
)

// State is the capture session lifecycle state.
type State string

const (
	StateIdle                State = "idle"
	StatePermissionRequested State = "permission_requested"
	StatePermissionDenied    State = "permission_denied"
	StatePreviewing          State = "previewing"
	StateCapturing           State = "capturing"
	StateCaptureSucceeded    State = "capture_succeeded"
	StateCaptureFailed       State = "capture_failed"
	StateClosed              State = "closed"
)

// Phase labels shown to the user while the captured frame moves through the
// pipeline.
const (
	PhaseScanning   = "Scanning…"
	PhaseUploading  = "Uploading image…"
	PhaseProcessing = "Processing image…"
)

var (
	// ErrBusy is returned when Close is called while a capture is in flight.
	ErrBusy = errors.New("capture in progress")
	// ErrBadState is returned for a transition the current state does not
	// allow.
	ErrBadState = errors.New("operation not allowed in current state")
	// ErrPermissionDenied is returned when the camera permission was refused.
	ErrPermissionDenied = errors.New("camera permission denied")
)

// PermissionFunc asks the platform for camera access and, when granted,
// returns the live preview stream. The stream must be non-nil on grant.
type PermissionFunc func() (io.Closer, error)

// FrameFunc grabs one frame from the live stream and returns its encoded
// bytes.
type FrameFunc func(stream io.Closer) ([]byte, error)

// Session is a single capture session. All methods are safe for concurrent
// use. The preview stream is released exactly once, on whichever path ends
// the session.
type Session struct {
	mu     sync.Mutex
	state  State
	phase  string
	stream io.Closer
}

func NewSession() *Session {
	return &Session{state: StateIdle}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase reports the current pipeline phase label, or "" when no phase is
// active.
func (s *Session) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Busy reports whether a capture or a pipeline phase is in flight. A busy
// session refuses to close.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateCapturing || s.phase != ""
}

// RequestPermission asks for camera access. On grant the session holds the
// returned stream and enters the previewing state; on refusal it enters the
// denied state and stays there. Only valid from idle.
func (s *Session) RequestPermission(ask PermissionFunc) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBadState
	}
	s.state = StatePermissionRequested
	s.mu.Unlock()

	stream, err := ask()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || stream == nil {
		s.state = StatePermissionDenied
		if err == nil {
			err = ErrPermissionDenied
		}
		return err
	}
	s.stream = stream
	s.state = StatePreviewing
	return nil
}

// Capture grabs one frame from the preview stream. Only valid while
// previewing or after a previous capture finished; the preview keeps running
// either way so the user can retake.
func (s *Session) Capture(grab FrameFunc) ([]byte, error) {
	s.mu.Lock()
	switch s.state {
	case StatePreviewing, StateCaptureSucceeded, StateCaptureFailed:
	default:
		s.mu.Unlock()
		return nil, ErrBadState
	}
	s.state = StateCapturing
	s.phase = PhaseScanning
	stream := s.stream
	s.mu.Unlock()

	frame, err := grab(stream)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = ""
	if err != nil {
		s.state = StateCaptureFailed
		return nil, err
	}
	s.state = StateCaptureSucceeded
	return frame, nil
}

// BeginPhase records the pipeline phase for the last captured frame. Only
// valid after a successful capture.
func (s *Session) BeginPhase(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCaptureSucceeded {
		return ErrBadState
	}
	s.phase = label
	return nil
}

// EndPhase clears the active phase label.
func (s *Session) EndPhase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = ""
}

// Close ends the session and releases the preview stream. A close while a
// capture or pipeline phase is in flight is rejected with ErrBusy; the caller
// retries after the work settles. Closing an already closed or never granted
// session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateCapturing || s.phase != "" {
		s.mu.Unlock()
		return ErrBusy
	}
	stream := s.stream
	s.stream = nil
	s.phase = ""
	s.state = StateClosed
	s.mu.Unlock()

	if stream != nil {
		return stream.Close()
	}
	return nil
}
