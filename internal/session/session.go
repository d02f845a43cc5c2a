package session

import (
	"sync"
	"time"
)

// State — позиция пользователя в многошаговом диалоге.
type State int

const (
	StateIdle State = iota
	StateAwaitingCheckNick
	StateAwaitingReportNick
	StateAwaitingReportProof
	StateAwaitingEditNick
	StateAwaitingEditStatusChoice
)

// Ключи черновика сессии.
const (
	ScratchReportNick = "report_nick"
	ScratchEditNick   = "edit_nick"
)

// Session — эфемерное состояние диалога одного пользователя. Сессии разных
// пользователей независимы; поля одной сессии защищены её мьютексом от
// параллельных событий того же пользователя (двойное нажатие кнопки).
type Session struct {
	mu        sync.Mutex
	state     State
	scratch   map[string]string
	updatedAt time.Time
}

func newSession() *Session {
	return &Session{
		state:     StateIdle,
		scratch:   make(map[string]string),
		updatedAt: time.Now(),
	}
}

// State возвращает текущее состояние диалога.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState переводит диалог в новое состояние.
func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.updatedAt = time.Now()
}

// Put сохраняет частично собранный ввод (например, ник до получения улик).
func (s *Session) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scratch[key] = value
	s.updatedAt = time.Now()
}

// Get возвращает значение из черновика.
func (s *Session) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.scratch[key]
	return v, ok
}

// Reset возвращает диалог в исходное состояние и очищает черновик.
// Вызывается после завершения или отмены любого сценария.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.scratch = make(map[string]string)
	s.updatedAt = time.Now()
}

func (s *Session) touchedBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt.Before(t)
}
