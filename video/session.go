package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

type State string

const (
	StateIdle    State = "idle"
	StateReady   State = "ready"
	StateJoining State = "joining"
	StateJoined  State = "joined"
	StateLeft    State = "left"
)

var (
	ErrNotConfigured = errors.New("video: app id or channel missing")
	ErrSessionClosed = errors.New("video: session already left")
)

// RemoteUser is one remote participant's publication state. An entry
// stays in the set while any of its media may still be active; a
// video-only unpublish clears HasVideo without removing it.
type RemoteUser struct {
	UID      string `json:"uid"`
	HasAudio bool   `json:"has_audio"`
	HasVideo bool   `json:"has_video"`
}

// ChatMessage is one entry of the append-only message log.
type ChatMessage struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
	Local      bool      `json:"local"`
}

// chatPayload is the wire format on the data stream, shared with the
// web client.
type chatPayload struct {
	UserName string `json:"userName"`
	Text     string `json:"text"`
}

// SessionEvent is the typed stream a consumer can watch instead of
// polling the session.
type SessionEvent interface {
	isSessionEvent()
}

type ParticipantAdded struct{ User RemoteUser }
type ParticipantUpdated struct{ User RemoteUser }
type ParticipantRemoved struct{ UID string }
type MessageReceived struct{ Message ChatMessage }

func (ParticipantAdded) isSessionEvent()   {}
func (ParticipantUpdated) isSessionEvent() {}
func (ParticipantRemoved) isSessionEvent() {}
func (MessageReceived) isSessionEvent()    {}

// Config identifies the channel a session connects to.
type Config struct {
	AppID    string
	Channel  string
	Token    string
	UID      string
	UserName string
	// SettleDelay is how long to wait after publishing before opening
	// the data stream. The connection needs a moment before the stream
	// request is accepted; tests shorten this.
	SettleDelay time.Duration
}

// Session drives one connection to one channel through
// Ready -> Joining -> Joined -> Left. There is exactly one join attempt
// at a time: the joining flag guards against duplicate async re-entry,
// and the mutex makes the machine safe under concurrent handler calls.
type Session struct {
	client  Client
	devices Devices
	cfg     Config

	mu         sync.Mutex
	state      State
	joining    bool
	audioTrack Track
	videoTrack Track
	dataStream int
	remotes    map[string]*RemoteUser
	messages   []ChatMessage

	events chan SessionEvent
	done   chan struct{}
}

func NewSession(client Client, devices Devices, cfg Config) *Session {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = time.Second
	}
	s := &Session{
		client:     client,
		devices:    devices,
		cfg:        cfg,
		state:      StateReady,
		dataStream: -1,
		remotes:    make(map[string]*RemoteUser),
		events:     make(chan SessionEvent, 64),
		done:       make(chan struct{}),
	}
	go s.consumeEvents()
	return s
}

// Join acquires the microphone and camera, connects to the channel and
// publishes both tracks. Duplicate calls while a join is in flight or
// after it succeeded are no-ops, so repeated triggers cannot
// double-publish. On any failure every partially-acquired track is
// released and the session is back in the clean pre-join state.
func (s *Session) Join(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateLeft {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.joining || s.state == StateJoined {
		s.mu.Unlock()
		return nil
	}
	if s.cfg.AppID == "" || s.cfg.Channel == "" {
		s.mu.Unlock()
		return ErrNotConfigured
	}
	s.joining = true
	s.state = StateJoining
	s.mu.Unlock()

	err := s.doJoin(ctx)

	s.mu.Lock()
	s.joining = false
	switch {
	case err != nil:
		if s.state != StateLeft {
			s.state = StateReady
		}
		s.mu.Unlock()
		return err
	case s.state == StateLeft:
		// Torn down while the join was in flight. Whatever doJoin
		// acquired must still be released.
		audio, camera := s.audioTrack, s.videoTrack
		s.audioTrack = nil
		s.videoTrack = nil
		s.mu.Unlock()
		if audio != nil {
			audio.Close()
		}
		if camera != nil {
			camera.Close()
		}
		if leaveErr := s.client.Leave(ctx); leaveErr != nil {
			log.Printf("video: leave after teardown: %v", leaveErr)
		}
		return ErrSessionClosed
	default:
		s.state = StateJoined
		s.mu.Unlock()
		return nil
	}
}

func (s *Session) doJoin(ctx context.Context) error {
	audio, err := s.devices.OpenMicrophone()
	if err != nil {
		return fmt.Errorf("acquire microphone: %w", err)
	}
	camera, err := s.devices.OpenCamera()
	if err != nil {
		audio.Close()
		return fmt.Errorf("acquire camera: %w", err)
	}

	if err := s.client.Join(ctx, s.cfg.AppID, s.cfg.Channel, s.cfg.Token, s.cfg.UID); err != nil {
		audio.Close()
		camera.Close()
		return fmt.Errorf("join channel: %w", err)
	}

	if err := s.client.Publish(ctx, audio, camera); err != nil {
		audio.Close()
		camera.Close()
		if leaveErr := s.client.Leave(ctx); leaveErr != nil {
			log.Printf("video: leave after failed publish: %v", leaveErr)
		}
		return fmt.Errorf("publish tracks: %w", err)
	}

	s.mu.Lock()
	s.audioTrack = audio
	s.videoTrack = camera
	s.mu.Unlock()

	// The data stream is opened after publishing, once the connection
	// has settled. Chat is degraded, not fatal, if this fails.
	select {
	case <-ctx.Done():
	case <-time.After(s.cfg.SettleDelay):
	}
	streamID, err := s.client.CreateDataStream(ctx, true, true)
	if err != nil {
		log.Printf("video: create data stream: %v", err)
	} else {
		s.mu.Lock()
		s.dataStream = streamID
		s.mu.Unlock()
	}

	return nil
}

// Leave releases the capture devices, disconnects and clears the
// remote set. Calling it before or without a successful Join is a
// no-op; it is the unconditional teardown path, so cleanup errors are
// logged, never returned.
func (s *Session) Leave(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateLeft {
		s.mu.Unlock()
		return
	}
	wasJoined := s.state == StateJoined
	audio, camera := s.audioTrack, s.videoTrack
	s.audioTrack = nil
	s.videoTrack = nil
	s.dataStream = -1
	s.remotes = make(map[string]*RemoteUser)
	s.state = StateLeft
	close(s.done)
	s.mu.Unlock()

	if audio != nil {
		audio.Close()
	}
	if camera != nil {
		camera.Close()
	}
	if wasJoined {
		if err := s.client.Leave(ctx); err != nil {
			log.Printf("video: leave channel: %v", err)
		}
	}
	s.client.Close()
}

// ToggleAudio flips the microphone. No-op before the track exists.
func (s *Session) ToggleAudio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audioTrack == nil {
		return false
	}
	s.audioTrack.SetEnabled(!s.audioTrack.Enabled())
	return s.audioTrack.Enabled()
}

// ToggleVideo flips the camera. No-op before the track exists.
func (s *Session) ToggleVideo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.videoTrack == nil {
		return false
	}
	s.videoTrack.SetEnabled(!s.videoTrack.Enabled())
	return s.videoTrack.Enabled()
}

// SendChat serializes the sender name and text onto the data stream.
// It reports success instead of failing the request: a lost chat line
// is a warning, not a broken session. Ordering comes entirely from the
// stream's reliable+ordered mode.
func (s *Session) SendChat(ctx context.Context, text string) bool {
	s.mu.Lock()
	if s.state != StateJoined || s.dataStream < 0 {
		s.mu.Unlock()
		return false
	}
	streamID := s.dataStream
	s.mu.Unlock()

	data, err := json.Marshal(chatPayload{UserName: s.cfg.UserName, Text: text})
	if err != nil {
		log.Printf("video: encode chat payload: %v", err)
		return false
	}
	if err := s.client.SendStreamMessage(ctx, streamID, data); err != nil {
		log.Printf("video: send chat: %v", err)
		return false
	}

	s.mu.Lock()
	s.messages = append(s.messages, ChatMessage{
		UserID:     s.cfg.UID,
		UserName:   s.cfg.UserName,
		Text:       text,
		ReceivedAt: time.Now(),
		Local:      true,
	})
	s.mu.Unlock()
	return true
}

func (s *Session) consumeEvents() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.client.Events():
			if !ok {
				return
			}
			s.handleEvent(ev)
		}
	}
}

func (s *Session) handleEvent(ev Event) {
	switch e := ev.(type) {
	case UserPublished:
		if err := s.client.Subscribe(context.Background(), e.UID, e.Media); err != nil {
			log.Printf("video: subscribe %s/%s: %v", e.UID, e.Media, err)
			return
		}
		s.mu.Lock()
		ru, ok := s.remotes[e.UID]
		if !ok {
			ru = &RemoteUser{UID: e.UID}
			s.remotes[e.UID] = ru
		}
		switch e.Media {
		case MediaAudio:
			ru.HasAudio = true
		case MediaVideo:
			ru.HasVideo = true
		}
		snapshot := *ru
		s.mu.Unlock()
		if ok {
			s.emit(ParticipantUpdated{User: snapshot})
		} else {
			s.emit(ParticipantAdded{User: snapshot})
		}

	case UserUnpublished:
		// Only video unpublish is tracked; the entry survives because
		// audio may still be active.
		if e.Media != MediaVideo {
			return
		}
		s.mu.Lock()
		ru, ok := s.remotes[e.UID]
		if ok {
			ru.HasVideo = false
		}
		var snapshot RemoteUser
		if ok {
			snapshot = *ru
		}
		s.mu.Unlock()
		if ok {
			s.emit(ParticipantUpdated{User: snapshot})
		}

	case UserLeft:
		s.mu.Lock()
		_, ok := s.remotes[e.UID]
		delete(s.remotes, e.UID)
		s.mu.Unlock()
		if ok {
			s.emit(ParticipantRemoved{UID: e.UID})
		}

	case StreamMessage:
		var payload chatPayload
		if err := json.Unmarshal(e.Data, &payload); err != nil || payload.Text == "" {
			// Malformed chat payloads are dropped; they must never
			// take the session down.
			log.Printf("video: dropping malformed chat payload from %s", e.UID)
			return
		}
		msg := ChatMessage{
			UserID:     e.UID,
			UserName:   payload.UserName,
			Text:       payload.Text,
			ReceivedAt: time.Now(),
		}
		s.mu.Lock()
		s.messages = append(s.messages, msg)
		s.mu.Unlock()
		s.emit(MessageReceived{Message: msg})
	}
}

func (s *Session) emit(ev SessionEvent) {
	select {
	case s.events <- ev:
	default:
		// Slow consumers lose notifications, never block the session;
		// the full state remains available from the accessors.
	}
}

// Events is the typed notification stream for this session.
func (s *Session) Events() <-chan SessionEvent {
	return s.events
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Connected() bool {
	return s.State() == StateJoined
}

func (s *Session) AudioEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioTrack != nil && s.audioTrack.Enabled()
}

func (s *Session) VideoEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoTrack != nil && s.videoTrack.Enabled()
}

// RemoteUsers returns the remote participant set, ordered by uid.
func (s *Session) RemoteUsers() []RemoteUser {
	s.mu.Lock()
	out := make([]RemoteUser, 0, len(s.remotes))
	for _, ru := range s.remotes {
		out = append(out, *ru)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

// Messages returns a copy of the append-only chat log.
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}
