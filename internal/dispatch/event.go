package dispatch

import (
	"github.com/ignatzorin/scambase-backend/internal/models"
)

// EventKind — вид входящего события от чат-транспорта.
type EventKind string

const (
	EventCommand   EventKind = "command"
	EventSelection EventKind = "selection"
	EventText      EventKind = "text"
	EventMedia     EventKind = "media"
)

// Команды, приходящие от транспорта.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

// Event — входящее событие, уже привязанное к пользователю.
// Интерпретация текста и медиа зависит от текущего состояния диалога.
type Event struct {
	UserID    string
	Kind      EventKind
	Command   string
	Selection string
	Text      string
	Media     *models.Evidence
}

// Button — кнопка inline-меню: подпись и payload выбора.
type Button struct {
	Label  string `json:"label"`
	Select string `json:"select"`
}

// Response — ответ транспорту: текст и описание меню (ряды кнопок).
type Response struct {
	Text string     `json:"text"`
	Menu [][]Button `json:"menu,omitempty"`
}
