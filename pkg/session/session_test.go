package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmart-ai/dashmart/pkg/types"
)

func TestAddMessageBoundedWindow(t *testing.T) {
	s := NewStore(nil, WithWindowSize(3))

	for i, content := range []string{"one", "two", "three", "four", "five"} {
		role := types.MESSAGE_ROLE_CUSTOMER
		if i%2 == 1 {
			role = types.MESSAGE_ROLE_ASSISTANT
		}
		s.AddMessage("s1", "u1", role, content)
	}

	history := s.History("s1", "u1")
	require.Len(t, history, 3)
	// oldest trimmed first
	assert.Equal(t, "three", history[0].Content)
	assert.Equal(t, "four", history[1].Content)
	assert.Equal(t, "five", history[2].Content)
}

func TestHistoryIsolatedPerSession(t *testing.T) {
	s := NewStore(nil)
	s.AddMessage("s1", "u1", types.MESSAGE_ROLE_CUSTOMER, "hello")
	s.AddMessage("s2", "u2", types.MESSAGE_ROLE_CUSTOMER, "hi there")

	assert.Len(t, s.History("s1", "u1"), 1)
	assert.Len(t, s.History("s2", "u2"), 1)
	assert.Equal(t, "hello", s.History("s1", "u1")[0].Content)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(nil)
	s.AddMessage("s1", "u1", types.MESSAGE_ROLE_CUSTOMER, "hello")

	history := s.History("s1", "u1")
	history[0].Content = "mutated"
	assert.Equal(t, "hello", s.History("s1", "u1")[0].Content)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	s := NewStore(nil, WithIdleTTL(time.Hour), WithClock(func() time.Time { return clock() }))

	s.AddMessage("idle", "u1", types.MESSAGE_ROLE_CUSTOMER, "old")
	require.Equal(t, 1, s.InMemoryCount())

	// 2h later the idle session is evicted
	clock = func() time.Time { return now.Add(2 * time.Hour) }
	s.AddMessage("fresh", "u2", types.MESSAGE_ROLE_CUSTOMER, "new")
	s.Sweep()

	assert.Equal(t, 1, s.InMemoryCount())
	_, ok := s.sessions.Get("idle")
	assert.False(t, ok)
	_, ok = s.sessions.Get("fresh")
	assert.True(t, ok)
}

func TestWindowSizeDefault(t *testing.T) {
	s := NewStore(nil)
	for i := 0; i < 40; i++ {
		s.AddMessage("s1", "u1", types.MESSAGE_ROLE_CUSTOMER, "msg")
	}
	assert.Len(t, s.History("s1", "u1"), DefaultWindowSize)
}
