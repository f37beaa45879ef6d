package video

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns at most one session per (meeting, user): the capture
// devices belong exclusively to the active session instance, so a
// second join for the same pair returns the existing session instead
// of creating a competing one.
type Manager struct {
	appID string
	// SettleDelay overrides the sessions' data-stream settle delay
	// when non-zero; tests shorten it.
	SettleDelay time.Duration
	hub         *Hub
	devices     Devices

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(appID string) *Manager {
	return &Manager{
		appID:    appID,
		hub:      NewHub(),
		devices:  LogicalDevices{},
		sessions: make(map[string]*Session),
	}
}

func sessionKey(meetingID, userID uint) string {
	return fmt.Sprintf("m%d:u%d", meetingID, userID)
}

// Get returns the active session for the pair, if any.
func (m *Manager) Get(meetingID, userID uint) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionKey(meetingID, userID)]
	return s, ok
}

// GetOrCreate returns the pair's session, constructing it on first
// use. The uid is minted per session so a rejoin after leaving gets a
// fresh identity on the channel.
func (m *Manager) GetOrCreate(meetingID, userID uint, channel, userName string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(meetingID, userID)
	if s, ok := m.sessions[key]; ok {
		return s
	}
	s := NewSession(m.hub.NewClient(), m.devices, Config{
		AppID:       m.appID,
		Channel:     channel,
		UID:         uuid.NewString(),
		UserName:    userName,
		SettleDelay: m.SettleDelay,
	})
	m.sessions[key] = s
	return s
}

// Remove drops the pair's session after teardown so a later join
// starts from a clean machine.
func (m *Manager) Remove(meetingID, userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(meetingID, userID))
}
