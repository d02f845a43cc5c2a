package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/scambase-backend/internal/logger"
	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	logger.Init("error")

	s, err := NewFileStore(filepath.Join(t.TempDir(), "scam_db.json"), logger.Log)
	require.NoError(t, err)
	return s
}

func pendingRequest(nick, reporter string) *models.ModerationRequest {
	return &models.ModerationRequest{
		ID:         uuid.New(),
		Nick:       nick,
		Proof:      "видео по ссылке",
		ReportedBy: reporter,
		Date:       "01.09.2026",
		Status:     models.RequestStatusPending,
	}
}

func TestFileStore_NormalizesNicks(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	_, err := s.UpsertVote(ctx, "  ScamGuy  ", VoteLike)
	require.NoError(t, err)

	rec, err := s.GetRecord(ctx, "scamguy")
	require.NoError(t, err)
	require.NotNil(t, rec, "запись должна находиться по нормализованному нику")
	assert.Equal(t, "scamguy", rec.Nickname)
	assert.Equal(t, uint64(1), rec.Likes)

	// Повторная нормализация ничего не меняет.
	rec2, err := s.GetRecord(ctx, "ScamGuy")
	require.NoError(t, err)
	require.NotNil(t, rec2)
	assert.Equal(t, rec.Nickname, rec2.Nickname)
}

func TestFileStore_GetRecordMissing(t *testing.T) {
	s := newTestFileStore(t)

	rec, err := s.GetRecord(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, rec, "отсутствующая запись — это nil, а не ошибка")
}

func TestFileStore_ConcurrentVotesAreNotLost(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	const voters = 50
	var wg sync.WaitGroup
	wg.Add(voters)
	for i := 0; i < voters; i++ {
		kind := VoteLike
		if i%2 == 1 {
			kind = VoteDislike
		}
		go func(kind VoteKind) {
			defer wg.Done()
			_, err := s.UpsertVote(ctx, "target", kind)
			assert.NoError(t, err)
		}(kind)
	}
	wg.Wait()

	rec, err := s.GetRecord(ctx, "target")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(voters), rec.Likes+rec.Dislikes, "ни один голос не должен потеряться")
}

func TestFileStore_ResolveFirstPendingIsFIFO(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	first := pendingRequest("cheater", "user-1")
	second := pendingRequest("cheater", "user-2")
	require.NoError(t, s.AppendRequest(ctx, first))
	require.NoError(t, s.AppendRequest(ctx, second))

	found, err := s.ResolveFirstPending(ctx, "cheater", models.DecisionScammer, "mod-1", "01.09.2026")
	require.NoError(t, err)
	require.True(t, found)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "решена должна быть ровно одна заявка")
	assert.Equal(t, second.ID, pending[0].ID, "разрешается самая ранняя заявка")
}

func TestFileStore_ResolveIsAtMostOnce(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendRequest(ctx, pendingRequest("cheater", "user-1")))

	const moderators = 10
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(moderators)
	for i := 0; i < moderators; i++ {
		go func() {
			defer wg.Done()
			found, err := s.ResolveFirstPending(ctx, "cheater", models.DecisionReject, "mod", "01.09.2026")
			assert.NoError(t, err)
			if found {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "заявку может разрешить ровно один модератор")
}

func TestFileStore_ResolveNoPending(t *testing.T) {
	s := newTestFileStore(t)

	found, err := s.ResolveFirstPending(context.Background(), "ghost", models.DecisionScammer, "mod", "01.09.2026")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	logger.Init("error")
	path := filepath.Join(t.TempDir(), "scam_db.json")
	ctx := context.Background()

	s, err := NewFileStore(path, logger.Log)
	require.NoError(t, err)

	_, err = s.UpsertVote(ctx, "keeper", VoteLike)
	require.NoError(t, err)
	require.NoError(t, s.SetStatus(ctx, "keeper", models.StatusVerified, "01.09.2026"))
	require.NoError(t, s.AppendRequest(ctx, pendingRequest("keeper", "user-1")))
	require.NoError(t, s.SetModerators([]string{"mod-1"}))

	reopened, err := NewFileStore(path, logger.Log)
	require.NoError(t, err)

	rec, err := reopened.GetRecord(ctx, "keeper")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusVerified, rec.Status)
	assert.Equal(t, uint64(1), rec.Likes)
	assert.Equal(t, "keeper", rec.Nickname, "ник восстанавливается из ключа карты")

	pending, err := reopened.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	ok, err := reopened.IsModerator(ctx, "mod-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStore_ResolveRequestByID(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	req := pendingRequest("scam_guy", "user-1")
	require.NoError(t, s.AppendRequest(ctx, req))

	nick, found, err := s.ResolveRequestByID(ctx, req.ID, models.DecisionScammer, "mod-1", "01.09.2026")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "scam_guy", nick)

	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Повторное решение и неизвестный идентификатор — не найдено.
	_, found, err = s.ResolveRequestByID(ctx, req.ID, models.DecisionReject, "mod-1", "01.09.2026")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.ResolveRequestByID(ctx, uuid.New(), models.DecisionReject, "mod-1", "01.09.2026")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFileStore_PersistFailureRollsBackAndLogs(t *testing.T) {
	log, hook := logrustest.NewNullLogger()
	// Каталог файла не существует: любая запись на диск провалится.
	path := filepath.Join(t.TempDir(), "missing", "scam_db.json")
	ctx := context.Background()

	s, err := NewFileStore(path, log)
	require.NoError(t, err)

	_, err = s.UpsertVote(ctx, "target", VoteLike)
	require.Error(t, err)
	assert.True(t, apperror.IsPersistence(err))

	rec, err := s.GetRecord(ctx, "target")
	require.NoError(t, err)
	assert.Nil(t, rec, "память откатывается к последнему сохранённому состоянию")

	require.NotEmpty(t, hook.Entries, "отказ записи логируется")
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestFileStore_RejectKeepsRequestLog(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	req := pendingRequest("cheater", "user-1")
	require.NoError(t, s.AppendRequest(ctx, req))

	found, err := s.ResolveFirstPending(ctx, "cheater", models.DecisionReject, "mod-1", "01.09.2026")
	require.NoError(t, err)
	require.True(t, found)

	// Отклонённая заявка уходит из очереди, но запись о ней остаётся.
	pending, err := s.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	rec, err := s.GetRecord(ctx, "cheater")
	require.NoError(t, err)
	assert.Nil(t, rec, "отклонение не создаёт запись репутации")
}
