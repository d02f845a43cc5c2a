package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
)

// PostgresStore — реализация Store поверх PostgreSQL. Атомарность голосов
// и решений обеспечивается самой базой: инкремент одним UPDATE, выбор
// заявки — блокировкой строки (FOR UPDATE).
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetRecord возвращает запись по нику или nil, если записи нет.
func (s *PostgresStore) GetRecord(ctx context.Context, nick string) (*models.ReputationRecord, error) {
	var rec models.ReputationRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT nickname, status, likes, dislikes, date_added
		FROM users WHERE nickname = $1
	`, models.NormalizeNick(nick))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: не удалось прочитать запись: %w", err)
	}
	return &rec, nil
}

// UpsertVote увеличивает счётчик одним атомарным UPSERT: параллельные
// голоса за один ник сериализуются на уровне строки.
func (s *PostgresStore) UpsertVote(ctx context.Context, nick string, kind VoteKind) (*models.ReputationRecord, error) {
	if _, ok := ValidVoteKinds[kind]; !ok {
		return nil, fmt.Errorf("pgstore: неизвестный вид голоса %q", kind)
	}

	column := "likes"
	if kind == VoteDislike {
		column = "dislikes"
	}

	var rec models.ReputationRecord
	// Имя колонки подставляется из белого списка выше, не из ввода.
	query := fmt.Sprintf(`
		INSERT INTO users (nickname, status, likes, dislikes, date_added)
		VALUES ($1, 'unknown', %s, %s, $2)
		ON CONFLICT (nickname) DO UPDATE SET %s = users.%s + 1
		RETURNING nickname, status, likes, dislikes, date_added
	`,
		boolToCount(kind == VoteLike), boolToCount(kind == VoteDislike), column, column)

	err := s.db.GetContext(ctx, &rec, query, models.NormalizeNick(nick), models.FormatDate(nowFunc()))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodePersistence, "не удалось сохранить голос")
	}
	return &rec, nil
}

// SetStatus выставляет статус записи, создавая её при необходимости.
func (s *PostgresStore) SetStatus(ctx context.Context, nick string, status models.RecordStatus, date string) error {
	if _, ok := models.ValidRecordStatuses[status]; !ok {
		return fmt.Errorf("pgstore: неизвестный статус %q", status)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (nickname, status, likes, dislikes, date_added)
		VALUES ($1, $2, 0, 0, $3)
		ON CONFLICT (nickname) DO UPDATE SET status = $2, date_added = $3
	`, models.NormalizeNick(nick), status, date)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodePersistence, "не удалось сохранить статус")
	}
	return nil
}

// AppendRequest дописывает заявку в журнал; порядок подачи задаётся
// последовательностью seq.
func (s *PostgresStore) AppendRequest(ctx context.Context, req *models.ModerationRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_requests (id, nick, proof, reported_by, date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, req.ID, models.NormalizeNick(req.Nick), req.Proof, req.ReportedBy, req.Date, req.Status)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodePersistence, "не удалось сохранить заявку")
	}
	return nil
}

// ListPending возвращает pending-заявки в порядке подачи.
func (s *PostgresStore) ListPending(ctx context.Context) ([]models.ModerationRequest, error) {
	var reqs []models.ModerationRequest
	err := s.db.SelectContext(ctx, &reqs, `
		SELECT id, nick, proof, reported_by, date, status, moderated_by, moderated_date
		FROM moderation_requests WHERE status = 'pending' ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: не удалось прочитать заявки: %w", err)
	}
	return reqs, nil
}

// ResolveFirstPending переводит самую раннюю pending-заявку по нику в
// терминальный статус. Подзапрос с FOR UPDATE сериализует параллельные
// решения по одному нику: проигравшая транзакция после снятия блокировки
// перечитывает условие, видит уже не pending-строку и не мутирует ничего.
func (s *PostgresStore) ResolveFirstPending(ctx context.Context, nick string, decision models.Decision, moderator string, date string) (bool, error) {
	if _, ok := models.ValidDecisions[decision]; !ok {
		return false, fmt.Errorf("pgstore: неизвестное решение %q", decision)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE moderation_requests
		SET status = $1, moderated_by = $2, moderated_date = $3
		WHERE seq = (
			SELECT seq FROM moderation_requests
			WHERE nick = $4 AND status = 'pending'
			ORDER BY seq ASC
			LIMIT 1
			FOR UPDATE
		)
	`, decision.RequestStatus(), moderator, date, models.NormalizeNick(nick))
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodePersistence, "не удалось сохранить решение")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgstore: не удалось получить число строк: %w", err)
	}
	return affected == 1, nil
}

// ResolveRequestByID переводит конкретную pending-заявку в терминальный
// статус по идентификатору и возвращает её ник.
func (s *PostgresStore) ResolveRequestByID(ctx context.Context, id uuid.UUID, decision models.Decision, moderator string, date string) (string, bool, error) {
	if _, ok := models.ValidDecisions[decision]; !ok {
		return "", false, fmt.Errorf("pgstore: неизвестное решение %q", decision)
	}

	var nick string
	err := s.db.GetContext(ctx, &nick, `
		UPDATE moderation_requests
		SET status = $1, moderated_by = $2, moderated_date = $3
		WHERE id = $4 AND status = 'pending'
		RETURNING nick
	`, decision.RequestStatus(), moderator, date, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperror.Wrap(err, apperror.ErrCodePersistence, "не удалось сохранить решение")
	}
	return nick, true, nil
}

// IsModerator проверяет пользователя по таблице модераторов.
func (s *PostgresStore) IsModerator(ctx context.Context, userID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM moderators WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("pgstore: не удалось проверить модератора: %w", err)
	}
	return count > 0, nil
}

// AddModerators дописывает пользователей в таблицу модераторов.
// Используется при начальном заполнении из конфигурации.
func (s *PostgresStore) AddModerators(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO moderators (user_id) VALUES ($1)
			ON CONFLICT (user_id) DO NOTHING
		`, id)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodePersistence, "не удалось добавить модератора")
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func boolToCount(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
