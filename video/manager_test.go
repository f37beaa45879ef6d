package video

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerReusesSessionPerMeetingAndUser(t *testing.T) {
	m := NewManager("test-app")
	m.SettleDelay = time.Millisecond

	s1 := m.GetOrCreate(1, 7, "meeting_1_abc", "Ada")
	s2 := m.GetOrCreate(1, 7, "meeting_1_abc", "Ada")
	assert.Same(t, s1, s2)

	other := m.GetOrCreate(1, 8, "meeting_1_abc", "Grace")
	assert.NotSame(t, s1, other)

	got, ok := m.Get(1, 7)
	require.True(t, ok)
	assert.Same(t, s1, got)
}

func TestManagerSessionsShareOneChannel(t *testing.T) {
	m := NewManager("test-app")
	m.SettleDelay = time.Millisecond

	ada := m.GetOrCreate(1, 7, "meeting_1_abc", "Ada")
	grace := m.GetOrCreate(1, 8, "meeting_1_abc", "Grace")

	require.NoError(t, ada.Join(context.Background()))
	require.NoError(t, grace.Join(context.Background()))

	require.Eventually(t, func() bool {
		return len(ada.RemoteUsers()) == 1 && len(grace.RemoteUsers()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestManagerRemoveForgetsSession(t *testing.T) {
	m := NewManager("test-app")
	m.SettleDelay = time.Millisecond

	s := m.GetOrCreate(1, 7, "meeting_1_abc", "Ada")
	require.NoError(t, s.Join(context.Background()))
	s.Leave(context.Background())
	m.Remove(1, 7)

	_, ok := m.Get(1, 7)
	assert.False(t, ok)

	// A fresh session replaces the torn-down one.
	next := m.GetOrCreate(1, 7, "meeting_1_abc", "Ada")
	assert.NotSame(t, s, next)
	assert.Equal(t, StateReady, next.State())
}
