package video

import "sync"

// logicalTrack is a server-side stand-in for a capture device: it
// carries the enabled/closed state the session machine manages while
// the actual media capture happens in the participant's browser.
type logicalTrack struct {
	kind MediaType

	mu      sync.Mutex
	enabled bool
	closed  bool
}

func (t *logicalTrack) Kind() MediaType {
	return t.kind
}

func (t *logicalTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.enabled = enabled
}

func (t *logicalTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled && !t.closed
}

// Close releases the track. Double close is a no-op.
func (t *logicalTrack) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.enabled = false
}

// LogicalDevices issues logical tracks. Both start enabled, matching a
// fresh microphone/camera acquisition.
type LogicalDevices struct{}

func (LogicalDevices) OpenMicrophone() (Track, error) {
	return &logicalTrack{kind: MediaAudio, enabled: true}, nil
}

func (LogicalDevices) OpenCamera() (Track, error) {
	return &logicalTrack{kind: MediaVideo, enabled: true}, nil
}
