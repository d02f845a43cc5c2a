package models

import (
	"github.com/google/uuid"
)

// RequestStatus — статус заявки на модерацию.
// pending — единственное нетерминальное состояние; из терминальных переходов нет.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusScammer  RequestStatus = "scammer"
	RequestStatusVerified RequestStatus = "verified"
	RequestStatusUnknown  RequestStatus = "unknown"
	RequestStatusReject   RequestStatus = "reject"
)

// Decision — решение модератора по заявке.
type Decision string

const (
	DecisionScammer  Decision = "scammer"
	DecisionVerified Decision = "verified"
	DecisionUnknown  Decision = "unknown"
	DecisionReject   Decision = "reject"
)

// ValidDecisions список валидных решений модератора.
var ValidDecisions = map[Decision]struct{}{
	DecisionScammer:  {},
	DecisionVerified: {},
	DecisionUnknown:  {},
	DecisionReject:   {},
}

// Display возвращает отображаемое название решения.
func (d Decision) Display() string {
	if d == DecisionReject {
		return "Отклонено"
	}
	if status, ok := d.RecordStatus(); ok {
		return status.Display()
	}
	return string(d)
}

// RequestStatus переводит решение в терминальный статус заявки.
func (d Decision) RequestStatus() RequestStatus {
	return RequestStatus(d)
}

// RecordStatus переводит решение в статус записи репутации.
// Для reject статуса записи нет: заявка отклоняется без изменения базы.
func (d Decision) RecordStatus() (RecordStatus, bool) {
	switch d {
	case DecisionScammer:
		return StatusScammer, true
	case DecisionVerified:
		return StatusVerified, true
	case DecisionUnknown:
		return StatusUnknown, true
	default:
		return "", false
	}
}

// ModerationRequest — заявка на модерацию. Заявки только добавляются и
// никогда не удаляются: журнал служит аудиторским следом.
type ModerationRequest struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	Nick          string        `db:"nick" json:"nick"`
	Proof         string        `db:"proof" json:"proof"`
	ReportedBy    string        `db:"reported_by" json:"reported_by"`
	Date          string        `db:"date" json:"date"`
	Status        RequestStatus `db:"status" json:"status"`
	ModeratedBy   *string       `db:"moderated_by" json:"moderated_by,omitempty"`
	ModeratedDate *string       `db:"moderated_date" json:"moderated_date,omitempty"`
}

// Evidence — доказательство из входящего события: медиа по ссылке (file_id)
// или сырые байты, которые нужно распознать.
type Evidence struct {
	FileID string
	Data   []byte
}
