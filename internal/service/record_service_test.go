package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/store"
)

// mockRecordStore реализует RecordStore поверх карты.
type mockRecordStore struct {
	records map[string]*models.ReputationRecord
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{records: make(map[string]*models.ReputationRecord)}
}

func (m *mockRecordStore) GetRecord(_ context.Context, nick string) (*models.ReputationRecord, error) {
	rec, ok := m.records[nick]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRecordStore) UpsertVote(_ context.Context, nick string, kind store.VoteKind) (*models.ReputationRecord, error) {
	rec, ok := m.records[nick]
	if !ok {
		rec = models.NewRecord(nick, models.FormatDate(time.Now()))
		m.records[nick] = rec
	}
	if kind == store.VoteLike {
		rec.Likes++
	} else {
		rec.Dislikes++
	}
	cp := *rec
	return &cp, nil
}

func (m *mockRecordStore) SetStatus(_ context.Context, nick string, status models.RecordStatus, date string) error {
	rec, ok := m.records[nick]
	if !ok {
		rec = models.NewRecord(nick, date)
		m.records[nick] = rec
	}
	rec.Status = status
	rec.DateAdded = date
	return nil
}

func TestRecordService_DescribeMissingRecord(t *testing.T) {
	svc := NewRecordService(newMockRecordStore())

	info, err := svc.Describe(context.Background(), "  Ghost  ")
	require.NoError(t, err)

	assert.Equal(t, "ghost", info.Nick, "ник нормализуется перед поиском")
	assert.Equal(t, models.StatusUnknown, info.Status)
	assert.Equal(t, UnknownDate, info.DateAdded)
	assert.Zero(t, info.Likes)
	assert.Zero(t, info.Dislikes)
}

func TestRecordService_VoteNormalizesNick(t *testing.T) {
	ms := newMockRecordStore()
	svc := NewRecordService(ms)

	rec, err := svc.Vote(context.Background(), "ScamGuy", store.VoteLike)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Likes)

	_, ok := ms.records["scamguy"]
	assert.True(t, ok, "голос должен лечь под нормализованный ник")
}

func TestRecordService_AssignStatusUsesCurrentDate(t *testing.T) {
	ms := newMockRecordStore()
	svc := NewRecordService(ms)

	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	origNow := nowFunc
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = origNow }()

	require.NoError(t, svc.AssignStatus(context.Background(), "cheater", models.StatusScammer))

	rec := ms.records["cheater"]
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusScammer, rec.Status)
	assert.Equal(t, "01.09.2026", rec.DateAdded)
}

func TestRecordService_EnsureMaterializesRecord(t *testing.T) {
	ms := newMockRecordStore()
	svc := NewRecordService(ms)
	ctx := context.Background()

	info, err := svc.Ensure(ctx, "NewGuy")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, info.Status)

	_, ok := ms.records["newguy"]
	assert.True(t, ok, "отсутствующая запись материализуется")

	// Повторный вызов не трогает существующую запись.
	ms.records["newguy"].Status = models.StatusVerified
	info, err = svc.Ensure(ctx, "newguy")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, info.Status)
}
