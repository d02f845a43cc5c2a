package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
)

// fileData — схема файла scam_db.json.
type fileData struct {
	Users              map[string]*models.ReputationRecord `json:"users"`
	ModerationRequests []*models.ModerationRequest         `json:"moderation_requests"`
	Moderators         []string                            `json:"moderators"`
}

// FileStore хранит всю базу в одном JSON-файле. Вся база держится в памяти
// под одним мьютексом; каждая мутация сериализуется и сбрасывается на диск
// целиком через временный файл и rename — запись «всё или ничего».
type FileStore struct {
	mu   sync.Mutex
	path string
	data *fileData
	log  *logrus.Logger
}

// NewFileStore загружает базу из файла. Отсутствующий файл — не ошибка:
// база начинается пустой и будет создана первой мутацией.
func NewFileStore(path string, log *logrus.Logger) (*FileStore, error) {
	s := &FileStore{
		path: path,
		log:  log,
		data: &fileData{Users: make(map[string]*models.ReputationRecord)},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: не удалось прочитать %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, s.data); err != nil {
		return nil, fmt.Errorf("filestore: не удалось разобрать %s: %w", path, err)
	}
	if s.data.Users == nil {
		s.data.Users = make(map[string]*models.ReputationRecord)
	}
	// Ключ карты — ник; проставляем его в записи после загрузки.
	for nick, rec := range s.data.Users {
		rec.Nickname = nick
	}
	return s, nil
}

// GetRecord возвращает копию записи или nil, если записи нет.
func (s *FileStore) GetRecord(_ context.Context, nick string) (*models.ReputationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Users[models.NormalizeNick(nick)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// UpsertVote увеличивает счётчик голосов, создавая запись при необходимости.
func (s *FileStore) UpsertVote(_ context.Context, nick string, kind VoteKind) (*models.ReputationRecord, error) {
	if _, ok := ValidVoteKinds[kind]; !ok {
		return nil, fmt.Errorf("filestore: неизвестный вид голоса %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nick = models.NormalizeNick(nick)
	snapshot := s.snapshotLocked()

	rec, ok := s.data.Users[nick]
	if !ok {
		rec = models.NewRecord(nick, models.FormatDate(nowFunc()))
		s.data.Users[nick] = rec
	}
	if kind == VoteLike {
		rec.Likes++
	} else {
		rec.Dislikes++
	}

	if err := s.persistLocked(snapshot); err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

// SetStatus выставляет статус записи, создавая её при необходимости.
func (s *FileStore) SetStatus(_ context.Context, nick string, status models.RecordStatus, date string) error {
	if _, ok := models.ValidRecordStatuses[status]; !ok {
		return fmt.Errorf("filestore: неизвестный статус %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nick = models.NormalizeNick(nick)
	snapshot := s.snapshotLocked()

	rec, ok := s.data.Users[nick]
	if !ok {
		rec = models.NewRecord(nick, date)
		s.data.Users[nick] = rec
	}
	rec.Status = status
	rec.DateAdded = date

	return s.persistLocked(snapshot)
}

// AppendRequest дописывает заявку в конец журнала.
func (s *FileStore) AppendRequest(_ context.Context, req *models.ModerationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()

	cp := *req
	cp.Nick = models.NormalizeNick(cp.Nick)
	s.data.ModerationRequests = append(s.data.ModerationRequests, &cp)

	return s.persistLocked(snapshot)
}

// ListPending возвращает pending-заявки в порядке подачи.
func (s *FileStore) ListPending(_ context.Context) ([]models.ModerationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := lo.FilterMap(s.data.ModerationRequests, func(req *models.ModerationRequest, _ int) (models.ModerationRequest, bool) {
		return *req, req.Status == models.RequestStatusPending
	})
	return pending, nil
}

// ResolveFirstPending переводит самую раннюю pending-заявку по нику
// в терминальный статус. Мутируется не более одной заявки.
func (s *FileStore) ResolveFirstPending(_ context.Context, nick string, decision models.Decision, moderator string, date string) (bool, error) {
	if _, ok := models.ValidDecisions[decision]; !ok {
		return false, fmt.Errorf("filestore: неизвестное решение %q", decision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nick = models.NormalizeNick(nick)
	for _, req := range s.data.ModerationRequests {
		if req.Nick != nick || req.Status != models.RequestStatusPending {
			continue
		}

		snapshot := s.snapshotLocked()
		req.Status = decision.RequestStatus()
		req.ModeratedBy = &moderator
		req.ModeratedDate = &date

		if err := s.persistLocked(snapshot); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ResolveRequestByID переводит конкретную pending-заявку в терминальный
// статус по идентификатору и возвращает её ник.
func (s *FileStore) ResolveRequestByID(_ context.Context, id uuid.UUID, decision models.Decision, moderator string, date string) (string, bool, error) {
	if _, ok := models.ValidDecisions[decision]; !ok {
		return "", false, fmt.Errorf("filestore: неизвестное решение %q", decision)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.data.ModerationRequests {
		if req.ID != id || req.Status != models.RequestStatusPending {
			continue
		}

		snapshot := s.snapshotLocked()
		req.Status = decision.RequestStatus()
		req.ModeratedBy = &moderator
		req.ModeratedDate = &date

		if err := s.persistLocked(snapshot); err != nil {
			return "", false, err
		}
		return req.Nick, true, nil
	}
	return "", false, nil
}

// IsModerator проверяет пользователя по статическому списку.
func (s *FileStore) IsModerator(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Contains(s.data.Moderators, userID), nil
}

// SetModerators заменяет список модераторов. Используется при начальном
// наполнении базы и в тестах.
func (s *FileStore) SetModerators(moderators []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()
	s.data.Moderators = append([]string(nil), moderators...)
	return s.persistLocked(snapshot)
}

func (s *FileStore) Close() error { return nil }

// snapshotLocked делает глубокую копию состояния. База невелика, поэтому
// копия дешевле выборочного отката.
func (s *FileStore) snapshotLocked() *fileData {
	cp := &fileData{
		Users:      make(map[string]*models.ReputationRecord, len(s.data.Users)),
		Moderators: append([]string(nil), s.data.Moderators...),
	}
	for nick, rec := range s.data.Users {
		r := *rec
		cp.Users[nick] = &r
	}
	cp.ModerationRequests = lo.Map(s.data.ModerationRequests, func(req *models.ModerationRequest, _ int) *models.ModerationRequest {
		r := *req
		return &r
	})
	return cp
}

// persistLocked сбрасывает состояние на диск. При любой ошибке память
// откатывается к снимку: состояние в памяти не расходится с последним
// надёжно записанным.
func (s *FileStore) persistLocked(snapshot *fileData) error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return s.rollbackLocked(snapshot, err, "не удалось сериализовать базу")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".scam_db-*.json")
	if err != nil {
		return s.rollbackLocked(snapshot, err, "не удалось создать временный файл")
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(raw); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, s.path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return s.rollbackLocked(snapshot, err, "не удалось записать базу")
	}
	return nil
}

// rollbackLocked возвращает память к снимку и логирует отказ записи.
func (s *FileStore) rollbackLocked(snapshot *fileData, err error, message string) error {
	s.data = snapshot
	s.log.WithError(err).WithField("path", s.path).Error("откат изменений: " + message)
	return apperror.Wrap(err, apperror.ErrCodePersistence, message)
}
