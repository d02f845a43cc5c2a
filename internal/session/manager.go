package session

import (
	"sync"
	"time"

	"github.com/ignatzorin/scambase-backend/internal/goroutine"
)

// Manager — таблица диалоговых сессий по идентификатору пользователя.
// Сессии живут только в памяти процесса и не персистятся.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

// NewManager создаёт таблицу сессий. ttl > 0 включает фоновую очистку
// заброшенных диалогов, чтобы ограничить память; ttl = 0 её отключает.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
}

// Ensure возвращает сессию пользователя, создавая её при первом обращении.
func (m *Manager) Ensure(userID string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Параллельное событие того же пользователя могло успеть первым.
	if sess, ok = m.sessions[userID]; ok {
		return sess
	}
	sess = newSession()
	m.sessions[userID] = sess
	return sess
}

// Reset сбрасывает диалог пользователя в исходное состояние.
func (m *Manager) Reset(userID string) {
	m.Ensure(userID).Reset()
}

// StartSweeper запускает фоновую очистку просроченных сессий.
// Ничего не делает при отключённом TTL.
func (m *Manager) StartSweeper(rh *goroutine.RecoveryHandler) {
	if m.ttl <= 0 {
		return
	}
	rh.SafeGo(func() {
		t := time.NewTicker(m.ttl / 2)
		defer t.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-t.C:
				m.sweep()
			}
		}
	})
}

// Stop останавливает фоновую очистку.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })
}

func (m *Manager) sweep() {
	deadline := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, sess := range m.sessions {
		if sess.touchedBefore(deadline) {
			delete(m.sessions, userID)
		}
	}
}

// Len возвращает число живых сессий (для тестов и диагностики).
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
