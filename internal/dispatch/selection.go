package dispatch

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
	"github.com/ignatzorin/scambase-backend/internal/store"
)

// Разделитель в параметризованных payload кнопок. Ники, содержащие его,
// закодировать нельзя — такой ввод отклоняется на границе, а не
// разбирается «как получится».
const payloadDelimiter = "_"

// SelectionKind — вид выбора в меню.
type SelectionKind int

const (
	SelMenu SelectionKind = iota
	SelCheckUser
	SelAddScammer
	SelModeration
	SelModerationRequests
	SelModerationEdit
	SelVote
	SelDecision
	SelResolve
	SelStatus
)

// Selection — разобранный выбор: помеченный вариант с типизированными
// полями. Payload разбирается ровно один раз здесь и ниже по стеку
// никогда не расщепляется повторно.
type Selection struct {
	Kind      SelectionKind
	Nick      string
	Vote      store.VoteKind
	Decision  models.Decision
	Status    models.RecordStatus
	RequestID uuid.UUID
}

var simpleSelections = map[string]SelectionKind{
	"menu":                SelMenu,
	"check_user":          SelCheckUser,
	"add_scammer":         SelAddScammer,
	"moderation":          SelModeration,
	"moderation_requests": SelModerationRequests,
	"moderation_edit":     SelModerationEdit,
}

// ParseSelection разбирает payload кнопки. Payload, не распадающийся на
// ожидаемое число полей (например, ник с разделителем внутри), — это
// MalformedSelection: отклоняем явно, не продолжаем со смещёнными полями.
func ParseSelection(raw string) (Selection, error) {
	if kind, ok := simpleSelections[raw]; ok {
		return Selection{Kind: kind}, nil
	}

	switch {
	case strings.HasPrefix(raw, "vote_"):
		parts := strings.Split(raw, payloadDelimiter)
		if len(parts) != 3 || parts[2] == "" {
			return Selection{}, apperror.ErrMalformedSelection
		}
		kind := store.VoteKind(parts[1])
		if _, ok := store.ValidVoteKinds[kind]; !ok {
			return Selection{}, apperror.ErrMalformedSelection
		}
		return Selection{Kind: SelVote, Vote: kind, Nick: parts[2]}, nil

	case strings.HasPrefix(raw, "decision_"):
		parts := strings.Split(raw, payloadDelimiter)
		if len(parts) != 3 || parts[1] == "" {
			return Selection{}, apperror.ErrMalformedSelection
		}
		decision := models.Decision(parts[2])
		if _, ok := models.ValidDecisions[decision]; !ok {
			return Selection{}, apperror.ErrMalformedSelection
		}
		return Selection{Kind: SelDecision, Nick: parts[1], Decision: decision}, nil

	case strings.HasPrefix(raw, "resolve_"):
		// Решение по идентификатору заявки: UUID не содержит разделителя,
		// поэтому payload безопасен для любого ника.
		parts := strings.Split(raw, payloadDelimiter)
		if len(parts) != 3 {
			return Selection{}, apperror.ErrMalformedSelection
		}
		id, err := uuid.Parse(parts[1])
		if err != nil {
			return Selection{}, apperror.ErrMalformedSelection
		}
		decision := models.Decision(parts[2])
		if _, ok := models.ValidDecisions[decision]; !ok {
			return Selection{}, apperror.ErrMalformedSelection
		}
		return Selection{Kind: SelResolve, RequestID: id, Decision: decision}, nil

	case strings.HasPrefix(raw, "status_"):
		parts := strings.Split(raw, payloadDelimiter)
		if len(parts) != 2 {
			return Selection{}, apperror.ErrMalformedSelection
		}
		status := models.RecordStatus(parts[1])
		if _, ok := models.ValidRecordStatuses[status]; !ok {
			return Selection{}, apperror.ErrMalformedSelection
		}
		return Selection{Kind: SelStatus, Status: status}, nil
	}

	return Selection{}, apperror.ErrMalformedSelection
}

// nickEncodable сообщает, можно ли безопасно зашить ник в payload кнопки.
func nickEncodable(nick string) bool {
	return nick != "" && !strings.Contains(nick, payloadDelimiter)
}
