package models

import (
	"strings"
	"time"
)

// RecordStatus — статус репутации игрока в базе.
type RecordStatus string

const (
	StatusUnknown  RecordStatus = "unknown"
	StatusScammer  RecordStatus = "scammer"
	StatusVerified RecordStatus = "verified"
)

// ValidRecordStatuses список валидных статусов записи.
var ValidRecordStatuses = map[RecordStatus]struct{}{
	StatusUnknown:  {},
	StatusScammer:  {},
	StatusVerified: {},
}

// Display возвращает отображаемое название статуса для пользователя.
func (s RecordStatus) Display() string {
	switch s {
	case StatusScammer:
		return "Скамер"
	case StatusVerified:
		return "Проверенный"
	default:
		return "Неизвестно"
	}
}

// DateLayout — формат дат в базе (ДД.ММ.ГГГГ).
const DateLayout = "02.01.2006"

// FormatDate приводит время к формату хранения.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeNick нормализует ник игрока: обрезает пробелы и приводит к нижнему регистру.
// Нормализация идемпотентна: повторный вызов не меняет результат.
func NormalizeNick(nick string) string {
	return strings.ToLower(strings.TrimSpace(nick))
}

// ReputationRecord — запись репутации по нормализованному нику.
// Запись никогда не удаляется; счётчики голосов только растут.
type ReputationRecord struct {
	Nickname  string       `db:"nickname" json:"-"`
	Status    RecordStatus `db:"status" json:"status"`
	Likes     uint64       `db:"likes" json:"likes"`
	Dislikes  uint64       `db:"dislikes" json:"dislikes"`
	DateAdded string       `db:"date_added" json:"date_added"`
}

// NewRecord создаёт запись с нулевыми счётчиками и статусом «Неизвестно».
func NewRecord(nick string, date string) *ReputationRecord {
	return &ReputationRecord{
		Nickname:  nick,
		Status:    StatusUnknown,
		DateAdded: date,
	}
}
