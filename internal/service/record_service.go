package service

import (
	"context"
	"time"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/store"
)

// Подменяется в тестах.
var nowFunc = time.Now

// UnknownDate — сентинел для даты отсутствующей записи.
const UnknownDate = "Неизвестно"

type RecordStore interface {
	GetRecord(ctx context.Context, nick string) (*models.ReputationRecord, error)
	UpsertVote(ctx context.Context, nick string, kind store.VoteKind) (*models.ReputationRecord, error)
	SetStatus(ctx context.Context, nick string, status models.RecordStatus, date string) error
}

// RecordService — тонкий слой политики над хранилищем для сценариев
// «проверить игрока» и голосования.
type RecordService struct {
	store RecordStore
}

func NewRecordService(s RecordStore) *RecordService {
	return &RecordService{store: s}
}

// RecordInfo — карточка игрока для отображения. Отсутствующая запись
// отображается дефолтами, а не ошибкой.
type RecordInfo struct {
	Nick      string
	Status    models.RecordStatus
	DateAdded string
	Likes     uint64
	Dislikes  uint64
}

// Describe возвращает карточку игрока; при отсутствии записи — дефолты.
func (s *RecordService) Describe(ctx context.Context, nick string) (*RecordInfo, error) {
	nick = models.NormalizeNick(nick)

	rec, err := s.store.GetRecord(ctx, nick)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &RecordInfo{
			Nick:      nick,
			Status:    models.StatusUnknown,
			DateAdded: UnknownDate,
		}, nil
	}
	return &RecordInfo{
		Nick:      nick,
		Status:    rec.Status,
		DateAdded: rec.DateAdded,
		Likes:     rec.Likes,
		Dislikes:  rec.Dislikes,
	}, nil
}

// Vote засчитывает голос за ник. Повторные голоса одного пользователя
// не отсеиваются: ограничение сознательно не вводится.
func (s *RecordService) Vote(ctx context.Context, nick string, kind store.VoteKind) (*models.ReputationRecord, error) {
	return s.store.UpsertVote(ctx, models.NormalizeNick(nick), kind)
}

// AssignStatus выставляет статус записи с текущей датой, создавая запись
// при отсутствии. Авторизацию проверяет вызывающий слой модерации.
func (s *RecordService) AssignStatus(ctx context.Context, nick string, status models.RecordStatus) error {
	return s.store.SetStatus(ctx, models.NormalizeNick(nick), status, models.FormatDate(nowFunc()))
}

// Ensure лениво материализует запись со статусом «Неизвестно» и возвращает
// карточку. Используется на входе в сценарий изменения статуса.
func (s *RecordService) Ensure(ctx context.Context, nick string) (*RecordInfo, error) {
	nick = models.NormalizeNick(nick)

	rec, err := s.store.GetRecord(ctx, nick)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		if err := s.store.SetStatus(ctx, nick, models.StatusUnknown, models.FormatDate(nowFunc())); err != nil {
			return nil, err
		}
	}
	return s.Describe(ctx, nick)
}
