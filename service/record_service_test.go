package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"betpool/events"
	"betpool/models"
)

const (
	testGrace     = 2 * time.Minute
	testRetention = 7 * 24 * time.Hour
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTestRecord(createdAt time.Time, participants ...string) *models.BetRecord {
	record := models.NewBetRecord("test round", createdAt)
	record.Participants = append(record.Participants, participants...)
	return record
}

func TestRecordService_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	mockSessions := new(MockSessionRepository)
	mockTrash := new(MockTrashRepository)
	service := NewRecordService(mockSessions, mockTrash, events.NewBus(), testGrace, testRetention, fixedClock(now))

	mockSessions.On("Save", mock.AnythingOfType("*models.BetRecord")).Return(nil)

	record, err := service.Create(ctx, "")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(record.ID, "calc_20260827100000_"))
	assert.Equal(t, "Round 2026-08-27 10:00:00", record.Title)
	assert.Equal(t, now, record.CreatedAt)
	assert.Empty(t, record.Participants)
	assert.True(t, record.Summary.TotalStaked.IsZero())

	mockSessions.AssertExpectations(t)
	mockTrash.AssertNotCalled(t, "Backup")
}

func TestRecordService_Create_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	mockSessions := new(MockSessionRepository)
	service := NewRecordService(mockSessions, new(MockTrashRepository), events.NewBus(), testGrace, testRetention, fixedClock(now))

	mockSessions.On("Save", mock.AnythingOfType("*models.BetRecord")).Return(nil)

	first, err := service.Create(ctx, "a")
	require.NoError(t, err)
	second, err := service.Create(ctx, "b")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "records created in the same second must not collide")
}

func TestRecordService_AddParticipant(t *testing.T) {
	service := NewRecordService(new(MockSessionRepository), new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)
	record := newTestRecord(time.Now())

	require.NoError(t, service.AddParticipant(record, "  Alice  "))
	assert.Equal(t, []string{"Alice"}, record.Participants, "surrounding whitespace is trimmed")

	err := service.AddParticipant(record, "Alice")
	assert.ErrorIs(t, err, models.ErrDuplicateName)

	err = service.AddParticipant(record, "   ")
	assert.ErrorIs(t, err, models.ErrEmptyName)

	assert.Equal(t, []string{"Alice"}, record.Participants)
}

func TestRecordService_RemoveParticipant(t *testing.T) {
	service := NewRecordService(new(MockSessionRepository), new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)
	record := newTestRecord(time.Now(), "A", "B")
	record.Stakes = models.StakeTable{"A": {"7": dec("10")}}

	require.NoError(t, service.RemoveParticipant(record, "A"))
	assert.Equal(t, []string{"B"}, record.Participants)
	assert.NotContains(t, record.Stakes, "A", "stake data goes with the participant")
	assert.True(t, record.Summary.TotalStaked.IsZero())

	err := service.RemoveParticipant(record, "A")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecordService_SetStake(t *testing.T) {
	service := NewRecordService(new(MockSessionRepository), new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)
	record := newTestRecord(time.Now(), "A")

	require.NoError(t, service.SetStake(record, "A", 7, dec("10")))
	assert.True(t, dec("10").Equal(record.Stakes["A"]["7"]))
	assert.True(t, dec("10").Equal(record.Summary.TotalStaked), "recompute runs on every mutation")

	require.NoError(t, service.SetStake(record, "A", 7, dec("25")))
	assert.True(t, dec("25").Equal(record.Summary.TotalStaked))
}

func TestRecordService_SetStake_Validation(t *testing.T) {
	service := NewRecordService(new(MockSessionRepository), new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)
	record := newTestRecord(time.Now(), "A")

	err := service.SetStake(record, "A", 50, dec("10"))
	assert.ErrorIs(t, err, models.ErrInvalidNumber)

	err = service.SetStake(record, "A", 0, dec("10"))
	assert.ErrorIs(t, err, models.ErrInvalidNumber)

	err = service.SetStake(record, "nobody", 7, dec("10"))
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = service.SetStake(record, "A", 7, dec("-1"))
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	// A failed call leaves the record unchanged.
	assert.Empty(t, record.Stakes)
	assert.True(t, record.Summary.TotalStaked.IsZero())
}

func TestRecordService_SetStake_ZeroClearsEntry(t *testing.T) {
	service := NewRecordService(new(MockSessionRepository), new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)
	record := newTestRecord(time.Now(), "A")

	require.NoError(t, service.SetStake(record, "A", 7, dec("10")))
	require.NoError(t, service.SetStake(record, "A", 7, decimal.Zero))

	assert.NotContains(t, record.Stakes, "A", "clearing the last stake removes the participant's map")
	assert.True(t, record.Summary.TotalStaked.IsZero())
}

func TestRecordService_SetPrizeSettings(t *testing.T) {
	service := NewRecordService(new(MockSessionRepository), new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)
	record := newTestRecord(time.Now(), "A")
	require.NoError(t, service.SetStake(record, "A", 7, dec("10")))

	require.NoError(t, service.SetPrizeSettings(record, intPtr(7), decPtr("3")))
	assert.True(t, dec("30").Equal(record.Summary.TotalPaid))
	assert.True(t, dec("-20").Equal(record.Summary.HouseProfit))

	// Unsetting the prize zeroes the winnings again.
	require.NoError(t, service.SetPrizeSettings(record, nil, nil))
	assert.True(t, record.Summary.TotalPaid.IsZero())
}

func TestRecordService_SetPrizeSettings_Validation(t *testing.T) {
	service := NewRecordService(new(MockSessionRepository), new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)
	record := newTestRecord(time.Now(), "A")

	err := service.SetPrizeSettings(record, intPtr(50), decPtr("3"))
	assert.ErrorIs(t, err, models.ErrInvalidPrizeSettings)

	err = service.SetPrizeSettings(record, intPtr(7), decPtr("0"))
	assert.ErrorIs(t, err, models.ErrInvalidPrizeSettings)

	err = service.SetPrizeSettings(record, intPtr(7), decPtr("-2"))
	assert.ErrorIs(t, err, models.ErrInvalidPrizeSettings)

	assert.Nil(t, record.PrizeSettings.WinningNumber, "rejected values are not clamped in")
}

func TestRecordService_Save_NewRecordFastPath(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	mockSessions := new(MockSessionRepository)
	mockTrash := new(MockTrashRepository)
	service := NewRecordService(mockSessions, mockTrash, events.NewBus(), testGrace, testRetention, fixedClock(now))

	record := newTestRecord(now.Add(-time.Hour), "A")

	mockSessions.On("Exists", record.ID).Return(false)
	mockSessions.On("Save", record).Return(nil)

	// No confirm callback supplied: the fast path must not need one.
	err := service.Save(ctx, record, nil)

	require.NoError(t, err)
	mockSessions.AssertExpectations(t)
	mockTrash.AssertNotCalled(t, "Backup", mock.Anything, mock.Anything)
}

func TestRecordService_Save_WithinGraceSkipsConfirmation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	mockSessions := new(MockSessionRepository)
	mockTrash := new(MockTrashRepository)
	service := NewRecordService(mockSessions, mockTrash, events.NewBus(), testGrace, testRetention, fixedClock(now))

	record := newTestRecord(now.Add(-time.Minute), "A")
	stored := record.Clone()

	mockSessions.On("Exists", record.ID).Return(true)
	mockSessions.On("Load", record.ID).Return(stored, nil)
	mockSessions.On("Save", record).Return(nil)
	mockTrash.On("Backup", stored, now).Return(nil)
	mockTrash.On("PurgeOlderThan", now.Add(-testRetention)).Return(0, nil)

	err := service.Save(ctx, record, nil)

	require.NoError(t, err)
	mockSessions.AssertExpectations(t)
	mockTrash.AssertExpectations(t)
}

func TestRecordService_Save_PastGraceDeclined(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	mockSessions := new(MockSessionRepository)
	mockTrash := new(MockTrashRepository)
	service := NewRecordService(mockSessions, mockTrash, events.NewBus(), testGrace, testRetention, fixedClock(now))

	record := newTestRecord(now.Add(-time.Hour), "A")

	mockSessions.On("Exists", record.ID).Return(true)

	declined := false
	err := service.Save(ctx, record, func(prompt string) bool {
		declined = true
		return false
	})

	assert.ErrorIs(t, err, models.ErrConfirmationDeclined)
	assert.True(t, declined, "the confirmation callback must be consulted")
	mockSessions.AssertNotCalled(t, "Save", mock.Anything)
	mockTrash.AssertNotCalled(t, "Backup", mock.Anything, mock.Anything)
}

func TestRecordService_Save_PastGraceConfirmedBacksUpStoredVersion(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	mockSessions := new(MockSessionRepository)
	mockTrash := new(MockTrashRepository)
	bus := events.NewBus()
	service := NewRecordService(mockSessions, mockTrash, bus, testGrace, testRetention, fixedClock(now))

	var backedUp, saved []events.EventType
	bus.Subscribe(events.EventTypeRecordBackedUp, func(ctx context.Context, e events.Event) {
		backedUp = append(backedUp, e.Type())
	})
	bus.Subscribe(events.EventTypeRecordSaved, func(ctx context.Context, e events.Event) {
		saved = append(saved, e.Type())
	})

	record := newTestRecord(now.Add(-time.Hour), "A", "B")
	stored := record.Clone()
	stored.Title = "previous title"

	mockSessions.On("Exists", record.ID).Return(true)
	mockSessions.On("Load", record.ID).Return(stored, nil)
	mockSessions.On("Save", record).Return(nil)
	// The trash receives the stored version, not the one being saved.
	mockTrash.On("Backup", stored, now).Return(nil)
	mockTrash.On("PurgeOlderThan", now.Add(-testRetention)).Return(2, nil)

	err := service.Save(ctx, record, func(prompt string) bool { return true })

	require.NoError(t, err)
	assert.Len(t, backedUp, 1)
	assert.Len(t, saved, 1)
	mockSessions.AssertExpectations(t)
	mockTrash.AssertExpectations(t)
}

func TestRecordService_Delete(t *testing.T) {
	ctx := context.Background()

	mockSessions := new(MockSessionRepository)
	service := NewRecordService(mockSessions, new(MockTrashRepository), events.NewBus(), testGrace, testRetention, nil)

	mockSessions.On("Delete", "calc_x").Return(nil)

	require.NoError(t, service.Delete(ctx, "calc_x"))
	mockSessions.AssertExpectations(t)
}
