package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/scambase-backend/internal/logger"
	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
)

type ModerationStore interface {
	AppendRequest(ctx context.Context, req *models.ModerationRequest) error
	ListPending(ctx context.Context) ([]models.ModerationRequest, error)
	ResolveFirstPending(ctx context.Context, nick string, decision models.Decision, moderator string, date string) (bool, error)
	ResolveRequestByID(ctx context.Context, id uuid.UUID, decision models.Decision, moderator string, date string) (string, bool, error)
	IsModerator(ctx context.Context, userID string) (bool, error)
}

type RecordAssigner interface {
	AssignStatus(ctx context.Context, nick string, status models.RecordStatus) error
}

// Notifier получает уведомления о новых заявках (например, для живой
// ленты модераторов по WebSocket).
type Notifier interface {
	RequestCreated(req *models.ModerationRequest)
}

// ModerationService управляет жизненным циклом заявок на модерацию.
// Каждая привилегированная операция сама проверяет модераторские права,
// независимо от того, каким путём меню до неё добрались.
type ModerationService struct {
	store    ModerationStore
	records  RecordAssigner
	notifier Notifier
}

func NewModerationService(store ModerationStore, records RecordAssigner) *ModerationService {
	return &ModerationService{store: store, records: records}
}

// SetNotifier устанавливает получателя уведомлений о новых заявках.
func (s *ModerationService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Submit регистрирует заявку со статусом pending и уведомляет модераторов.
func (s *ModerationService) Submit(ctx context.Context, nick, proof, reportedBy string) (*models.ModerationRequest, error) {
	req := &models.ModerationRequest{
		ID:         uuid.New(),
		Nick:       models.NormalizeNick(nick),
		Proof:      proof,
		ReportedBy: reportedBy,
		Date:       models.FormatDate(nowFunc()),
		Status:     models.RequestStatusPending,
	}

	if err := s.store.AppendRequest(ctx, req); err != nil {
		return nil, err
	}

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"request_id": req.ID,
			"nick":       req.Nick,
		}).Info("новая заявка на модерацию")
	}

	if s.notifier != nil {
		s.notifier.RequestCreated(req)
	}
	return req, nil
}

// NextPending возвращает самую раннюю pending-заявку или nil, если заявок
// нет. Просмотр очереди — привилегированная операция.
func (s *ModerationService) NextPending(ctx context.Context, moderator string) (*models.ModerationRequest, error) {
	if err := s.requireModerator(ctx, moderator); err != nil {
		return nil, err
	}

	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	// Очередь показывается по одной заявке: всегда первая из оставшихся.
	return &pending[0], nil
}

// Decide применяет решение модератора к самой ранней pending-заявке по
// нику. Отклонение не трогает запись репутации; остальные решения
// выставляют соответствующий статус.
func (s *ModerationService) Decide(ctx context.Context, moderator, nick string, decision models.Decision) error {
	if err := s.requireModerator(ctx, moderator); err != nil {
		return err
	}
	if _, ok := models.ValidDecisions[decision]; !ok {
		return fmt.Errorf("неизвестное решение %q", decision)
	}

	nick = models.NormalizeNick(nick)
	date := models.FormatDate(nowFunc())

	found, err := s.store.ResolveFirstPending(ctx, nick, decision, moderator, date)
	if err != nil {
		return err
	}
	if !found {
		// Гонка двух модераторов или заявка уже разобрана: об этом нужно
		// сообщить, а не отчитаться об успехе.
		return apperror.ErrNoMatchingPendingRequest
	}

	if status, ok := decision.RecordStatus(); ok {
		if err := s.records.AssignStatus(ctx, nick, status); err != nil {
			return err
		}
	}

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"nick":      nick,
			"decision":  decision,
			"moderator": moderator,
		}).Info("решение по заявке сохранено")
	}
	return nil
}

// DecideByID применяет решение модератора к конкретной заявке по её
// идентификатору. Используется для заявок, чей ник нельзя закодировать
// в payload кнопки; семантика решения совпадает с Decide.
func (s *ModerationService) DecideByID(ctx context.Context, moderator string, id uuid.UUID, decision models.Decision) error {
	if err := s.requireModerator(ctx, moderator); err != nil {
		return err
	}
	if _, ok := models.ValidDecisions[decision]; !ok {
		return fmt.Errorf("неизвестное решение %q", decision)
	}

	nick, found, err := s.store.ResolveRequestByID(ctx, id, decision, moderator, models.FormatDate(nowFunc()))
	if err != nil {
		return err
	}
	if !found {
		return apperror.ErrNoMatchingPendingRequest
	}

	if status, ok := decision.RecordStatus(); ok {
		if err := s.records.AssignStatus(ctx, nick, status); err != nil {
			return err
		}
	}

	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"request_id": id,
			"nick":       nick,
			"decision":   decision,
			"moderator":  moderator,
		}).Info("решение по заявке сохранено")
	}
	return nil
}

// EditStatus напрямую выставляет статус записи (сценарий «Изменить статус»).
func (s *ModerationService) EditStatus(ctx context.Context, moderator, nick string, status models.RecordStatus) error {
	if err := s.requireModerator(ctx, moderator); err != nil {
		return err
	}
	if _, ok := models.ValidRecordStatuses[status]; !ok {
		return fmt.Errorf("неизвестный статус %q", status)
	}
	return s.records.AssignStatus(ctx, nick, status)
}

// IsModerator сообщает, модератор ли пользователь (для видимости меню).
func (s *ModerationService) IsModerator(ctx context.Context, userID string) bool {
	ok, err := s.store.IsModerator(ctx, userID)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithError(err).Warn("не удалось проверить модератора")
		}
		return false
	}
	return ok
}

func (s *ModerationService) requireModerator(ctx context.Context, userID string) error {
	ok, err := s.store.IsModerator(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrUnauthorized
	}
	return nil
}
