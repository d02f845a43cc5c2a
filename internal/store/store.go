package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/scambase-backend/internal/models"
)

// nowFunc подменяется в тестах.
var nowFunc = time.Now

// VoteKind — вид голоса за игрока.
type VoteKind string

const (
	VoteLike    VoteKind = "like"
	VoteDislike VoteKind = "dislike"
)

// ValidVoteKinds список валидных видов голоса.
var ValidVoteKinds = map[VoteKind]struct{}{
	VoteLike:    {},
	VoteDislike: {},
}

// Store — единственный разделяемый мутабельный ресурс системы: таблица
// записей репутации, журнал заявок на модерацию (порядок вставки значим)
// и статический список модераторов. Все мутации сериализуются внутри
// реализации; каждая мутация атомарна относительно персистентности.
type Store interface {
	// GetRecord возвращает запись по нику или nil, если записи нет.
	// Отсутствие записи — не ошибка: вызывающий подставляет дефолты.
	GetRecord(ctx context.Context, nick string) (*models.ReputationRecord, error)

	// UpsertVote создаёт запись при отсутствии и увеличивает счётчик
	// голосов на единицу. Инкремент атомарен: параллельные голоса
	// за один ник не теряются.
	UpsertVote(ctx context.Context, nick string, kind VoteKind) (*models.ReputationRecord, error)

	// SetStatus создаёт запись при отсутствии и выставляет статус
	// с обновлением даты.
	SetStatus(ctx context.Context, nick string, status models.RecordStatus, date string) error

	// AppendRequest дописывает заявку в конец журнала.
	AppendRequest(ctx context.Context, req *models.ModerationRequest) error

	// ListPending возвращает все pending-заявки в порядке подачи.
	ListPending(ctx context.Context) ([]models.ModerationRequest, error)

	// ResolveFirstPending находит самую раннюю pending-заявку по нику
	// и переводит её в терминальный статус. Мутируется не более одной
	// заявки; при параллельных решениях по одному нику побеждает ровно
	// одно. Возвращает false, если подходящей заявки нет.
	ResolveFirstPending(ctx context.Context, nick string, decision models.Decision, moderator string, date string) (bool, error)

	// ResolveRequestByID переводит конкретную pending-заявку в терминальный
	// статус по её идентификатору и возвращает её ник. Используется для
	// заявок, чей ник нельзя зашить в payload кнопки. Возвращает false,
	// если заявка не найдена или уже разобрана.
	ResolveRequestByID(ctx context.Context, id uuid.UUID, decision models.Decision, moderator string, date string) (string, bool, error)

	// IsModerator проверяет, входит ли пользователь в список модераторов.
	IsModerator(ctx context.Context, userID string) (bool, error)

	Close() error
}
