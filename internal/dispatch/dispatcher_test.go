package dispatch

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/scambase-backend/internal/logger"
	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/service"
	"github.com/ignatzorin/scambase-backend/internal/session"
	"github.com/ignatzorin/scambase-backend/internal/store"
)

// testEnv — диспетчер поверх настоящего файлового хранилища.
type testEnv struct {
	dispatcher *Dispatcher
	store      *store.FileStore
	sessions   *session.Manager
}

func newTestEnv(t *testing.T, moderators ...string) *testEnv {
	t.Helper()
	logger.Init("error")

	fs, err := store.NewFileStore(filepath.Join(t.TempDir(), "scam_db.json"), logger.Log)
	require.NoError(t, err)
	if len(moderators) > 0 {
		require.NoError(t, fs.SetModerators(moderators))
	}

	records := service.NewRecordService(fs)
	moderation := service.NewModerationService(fs, records)
	sessions := session.NewManager(0)

	return &testEnv{
		dispatcher: NewDispatcher(sessions, records, moderation, logger.Log),
		store:      fs,
		sessions:   sessions,
	}
}

func (e *testEnv) handle(t *testing.T, ev Event) *Response {
	t.Helper()
	resp, err := e.dispatcher.Handle(context.Background(), ev)
	require.NoError(t, err)
	require.NotNil(t, resp)
	return resp
}

func (e *testEnv) selection(t *testing.T, userID, payload string) *Response {
	return e.handle(t, Event{UserID: userID, Kind: EventSelection, Selection: payload})
}

func (e *testEnv) text(t *testing.T, userID, text string) *Response {
	return e.handle(t, Event{UserID: userID, Kind: EventText, Text: text})
}

// menuPayloads собирает payload всех кнопок ответа.
func menuPayloads(resp *Response) []string {
	var payloads []string
	for _, row := range resp.Menu {
		for _, b := range row {
			payloads = append(payloads, b.Select)
		}
	}
	return payloads
}

func TestDispatcher_StartShowsMenu(t *testing.T) {
	env := newTestEnv(t, "mod-1")

	resp := env.handle(t, Event{UserID: "user-1", Kind: EventCommand, Command: CommandStart})
	assert.Equal(t, textWelcome, resp.Text)
	assert.NotContains(t, menuPayloads(resp), "moderation", "обычный пользователь не видит модерацию")

	resp = env.handle(t, Event{UserID: "mod-1", Kind: EventCommand, Command: CommandStart})
	assert.Contains(t, menuPayloads(resp), "moderation")
}

func TestDispatcher_CheckUnknownPlayer(t *testing.T) {
	env := newTestEnv(t)

	resp := env.selection(t, "user-1", "check_user")
	assert.Equal(t, textCheckPrompt, resp.Text)

	resp = env.text(t, "user-1", "  Ghost  ")
	assert.Contains(t, resp.Text, "Ник: ghost")
	assert.Contains(t, resp.Text, "Неизвестно")
	assert.Contains(t, menuPayloads(resp), "vote_like_ghost")
}

func TestDispatcher_ReportFlowCreatesRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.selection(t, "user-1", "add_scammer")
	resp := env.text(t, "user-1", "ScamGuy")
	assert.Equal(t, textProofPrompt, resp.Text)

	resp = env.text(t, "user-1", "видео: example.com/proof")
	assert.Equal(t, textSubmitted, resp.Text)

	pending, err := env.store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "scamguy", pending[0].Nick)
	assert.Equal(t, "user-1", pending[0].ReportedBy)
}

func TestDispatcher_ReportRejectsDelimiterNick(t *testing.T) {
	env := newTestEnv(t)

	env.selection(t, "user-1", "add_scammer")
	resp := env.text(t, "user-1", "scam_guy")
	assert.Equal(t, textNickDelimiter, resp.Text, "ник с разделителем отклоняется на входе")

	// Диалог остаётся на том же шаге и принимает исправленный ник.
	resp = env.text(t, "user-1", "scamguy")
	assert.Equal(t, textProofPrompt, resp.Text)
}

func TestDispatcher_ReportInvalidProofRetries(t *testing.T) {
	env := newTestEnv(t)

	env.selection(t, "user-1", "add_scammer")
	env.text(t, "user-1", "scamguy")

	resp := env.text(t, "user-1", "   ")
	assert.Equal(t, textProofInvalid, resp.Text)

	resp = env.text(t, "user-1", "ссылка на видео")
	assert.Equal(t, textSubmitted, resp.Text)
}

func TestDispatcher_CancelFromAnyState(t *testing.T) {
	env := newTestEnv(t)

	env.selection(t, "user-1", "add_scammer")
	env.text(t, "user-1", "scamguy")

	resp := env.handle(t, Event{UserID: "user-1", Kind: EventCommand, Command: CommandCancel})
	assert.Equal(t, textCancelled, resp.Text)

	// После отмены текст трактуется вне сценария.
	resp = env.text(t, "user-1", "что-нибудь")
	assert.Equal(t, textPickFromMenu, resp.Text)
}

func TestDispatcher_VotingUpdatesCard(t *testing.T) {
	env := newTestEnv(t)

	resp := env.selection(t, "user-1", "vote_like_scamguy")
	assert.Contains(t, resp.Text, "👍 1 👎 0")

	resp = env.selection(t, "user-2", "vote_dislike_scamguy")
	assert.Contains(t, resp.Text, "👍 1 👎 1")
}

func TestDispatcher_ModerationDecisionFlow(t *testing.T) {
	env := newTestEnv(t, "mod-1")
	ctx := context.Background()

	// Пользователь подаёт заявку.
	env.selection(t, "user-1", "add_scammer")
	env.text(t, "user-1", "scamguy")
	env.text(t, "user-1", "видео с доказательствами")

	// Модератор открывает очередь и видит заявку.
	resp := env.selection(t, "mod-1", "moderation_requests")
	assert.Contains(t, resp.Text, "Ник: scamguy")
	assert.Contains(t, menuPayloads(resp), "decision_scamguy_scammer")

	// Решение «скамер» выставляет статус записи.
	resp = env.selection(t, "mod-1", "decision_scamguy_scammer")
	assert.Contains(t, resp.Text, "сохранено")

	rec, err := env.store.GetRecord(ctx, "scamguy")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusScammer, rec.Status)

	// Очередь пуста; повторное решение по той же заявке — отказ.
	resp = env.selection(t, "mod-1", "moderation_requests")
	assert.Equal(t, textNoRequests, resp.Text)

	resp = env.selection(t, "mod-1", "decision_scamguy_verified")
	assert.Equal(t, textNoPending, resp.Text)
	rec, _ = env.store.GetRecord(ctx, "scamguy")
	assert.Equal(t, models.StatusScammer, rec.Status, "проигравшее решение не трогает запись")
}

// Заявка с разделителем в нике (например, из унаследованного scam_db.json)
// не должна намертво вставать в голове очереди: её карточка адресует
// решение идентификатором, и заявка разрешается как любая другая.
func TestDispatcher_DelimiterNickRequestIsResolvable(t *testing.T) {
	env := newTestEnv(t, "mod-1")
	ctx := context.Background()

	req := &models.ModerationRequest{
		ID:         uuid.New(),
		Nick:       "scam_guy",
		Proof:      "видео по ссылке",
		ReportedBy: "user-1",
		Date:       "01.09.2026",
		Status:     models.RequestStatusPending,
	}
	require.NoError(t, env.store.AppendRequest(ctx, req))

	resp := env.selection(t, "mod-1", "moderation_requests")
	assert.Contains(t, resp.Text, "Ник: scam_guy")

	payloads := menuPayloads(resp)
	assert.NotContains(t, payloads, "decision_scam_guy_scammer", "ник с разделителем не кодируется в payload")
	resolvePayload := "resolve_" + req.ID.String() + "_scammer"
	assert.Contains(t, payloads, resolvePayload)

	resp = env.selection(t, "mod-1", resolvePayload)
	assert.Contains(t, resp.Text, "сохранено")

	rec, err := env.store.GetRecord(ctx, "scam_guy")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusScammer, rec.Status)

	resp = env.selection(t, "mod-1", "moderation_requests")
	assert.Equal(t, textNoRequests, resp.Text, "очередь продвигается, заявка не застревает")
}

// Вход в сценарий изменения статуса — привилегированная операция:
// не-модератор не получает состояние, и его последующий текст не
// трактуется как ник для редактирования.
func TestDispatcher_EditEntryGuarded(t *testing.T) {
	env := newTestEnv(t, "mod-1")
	ctx := context.Background()

	resp := env.selection(t, "stranger", "moderation_edit")
	assert.Equal(t, textUnauthorized, resp.Text)
	assert.Equal(t, session.StateIdle, env.sessions.Ensure("stranger").State(), "состояние редактирования не создаётся")

	resp = env.text(t, "stranger", "victim")
	assert.Equal(t, textPickFromMenu, resp.Text, "текст не потребляется как ник для редактирования")

	rec, err := env.store.GetRecord(ctx, "victim")
	require.NoError(t, err)
	assert.Nil(t, rec, "запись не материализуется")
}

func TestDispatcher_ModerationIsGuarded(t *testing.T) {
	env := newTestEnv(t, "mod-1")

	resp := env.selection(t, "stranger", "moderation")
	assert.Equal(t, textUnauthorized, resp.Text)

	resp = env.selection(t, "stranger", "moderation_requests")
	assert.Equal(t, textUnauthorized, resp.Text)

	// Payload решения, отправленный не модератором, тоже отклоняется.
	resp = env.selection(t, "stranger", "decision_scamguy_scammer")
	assert.Equal(t, textUnauthorized, resp.Text)
}

func TestDispatcher_EditStatusFlow(t *testing.T) {
	env := newTestEnv(t, "mod-1")
	ctx := context.Background()

	env.selection(t, "mod-1", "moderation_edit")
	resp := env.text(t, "mod-1", "NewGuy")
	assert.True(t, strings.HasPrefix(resp.Text, "Текущий статус игрока newguy"))

	resp = env.selection(t, "mod-1", "status_verified")
	assert.Contains(t, resp.Text, "Проверенный")

	rec, err := env.store.GetRecord(ctx, "newguy")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusVerified, rec.Status)
}

func TestDispatcher_StatusChoiceOutsideFlowIgnored(t *testing.T) {
	env := newTestEnv(t, "mod-1")

	// Кнопка статуса из устаревшего сообщения, вне сценария изменения.
	resp := env.selection(t, "mod-1", "status_scammer")
	assert.Equal(t, textPickFromMenu, resp.Text)
}

func TestDispatcher_MalformedSelection(t *testing.T) {
	env := newTestEnv(t)

	resp := env.selection(t, "user-1", "vote_like_bad_nick")
	assert.Equal(t, textMalformed, resp.Text)
}
