package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_EnsureReturnsSameSession(t *testing.T) {
	m := NewManager(0)

	first := m.Ensure("user-1")
	second := m.Ensure("user-1")
	assert.Same(t, first, second)
	assert.Equal(t, 1, m.Len())
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := NewManager(0)

	m.Ensure("user-1").SetState(StateAwaitingReportNick)
	assert.Equal(t, StateIdle, m.Ensure("user-2").State(), "состояние одного пользователя не видно другому")
}

func TestManager_ConcurrentEnsure(t *testing.T) {
	m := NewManager(0)

	const events = 50
	sessions := make([]*Session, events)
	var wg sync.WaitGroup
	wg.Add(events)
	for i := 0; i < events; i++ {
		go func(i int) {
			defer wg.Done()
			sessions[i] = m.Ensure("user-1")
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, m.Len())
	for _, sess := range sessions {
		assert.Same(t, sessions[0], sess, "параллельные события получают одну сессию")
	}
}

func TestSession_ResetClearsScratch(t *testing.T) {
	m := NewManager(0)
	sess := m.Ensure("user-1")

	sess.SetState(StateAwaitingReportProof)
	sess.Put(ScratchReportNick, "scamguy")

	sess.Reset()
	assert.Equal(t, StateIdle, sess.State())
	_, ok := sess.Get(ScratchReportNick)
	assert.False(t, ok)
}

func TestManager_SweepDropsStaleSessions(t *testing.T) {
	m := NewManager(50 * time.Millisecond)

	m.Ensure("stale")
	time.Sleep(80 * time.Millisecond)
	m.Ensure("fresh")

	m.sweep()
	assert.Equal(t, 1, m.Len(), "просроченная сессия вычищается, свежая остаётся")
}
