package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betpool/models"
)

func TestTrashRepository_BackupAndListNewestFirst(t *testing.T) {
	repo := NewTrashRepository(newTestStore(t))

	record := models.NewBetRecord("round one", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	base := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Backup(record, base))
	require.NoError(t, repo.Backup(record, base.Add(2*time.Hour)))
	require.NoError(t, repo.Backup(record, base.Add(time.Hour)))

	entries, err := repo.ListForID(record.ID)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.True(t, base.Add(2*time.Hour).Equal(entries[0].Key.BackupTime))
	assert.True(t, base.Add(time.Hour).Equal(entries[1].Key.BackupTime))
	assert.True(t, base.Equal(entries[2].Key.BackupTime))
	assert.Equal(t, "round one", entries[0].Title)

	latest, err := repo.Latest(record.ID)
	require.NoError(t, err)
	assert.True(t, base.Add(2*time.Hour).Equal(latest.BackupTime))
}

func TestTrashRepository_ListIsScopedToID(t *testing.T) {
	repo := NewTrashRepository(newTestStore(t))

	at := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)
	first := models.NewBetRecord("first", at.Add(-time.Hour))
	second := models.NewBetRecord("second", at.Add(-time.Hour))

	require.NoError(t, repo.Backup(first, at))
	require.NoError(t, repo.Backup(second, at))

	entries, err := repo.ListForID(first.ID)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, first.ID, entries[0].Key.ID)
}

func TestTrashRepository_LoadRoundtrip(t *testing.T) {
	repo := NewTrashRepository(newTestStore(t))

	record := models.NewBetRecord("backed up", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	record.Participants = []string{"Alice"}
	record.Stakes = models.StakeTable{"Alice": {"7": dec("10")}}

	at := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Backup(record, at))

	loaded, err := repo.Load(models.TrashKey{ID: record.ID, BackupTime: at})
	require.NoError(t, err)

	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, "backed up", loaded.Title)
	assert.True(t, dec("10").Equal(loaded.Stakes["Alice"]["7"]))
}

func TestTrashRepository_LoadMissing(t *testing.T) {
	repo := NewTrashRepository(newTestStore(t))

	_, err := repo.Load(models.TrashKey{ID: "calc_x", BackupTime: time.Unix(1700000000, 0)})
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.Latest("calc_x")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTrashRepository_PurgeOlderThan(t *testing.T) {
	repo := NewTrashRepository(newTestStore(t))

	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	record := models.NewBetRecord("round", now.AddDate(0, 0, -30))

	// One backup 8 days old, one 6 days old.
	require.NoError(t, repo.Backup(record, now.AddDate(0, 0, -8)))
	require.NoError(t, repo.Backup(record, now.AddDate(0, 0, -6)))

	purged, err := repo.PurgeOlderThan(now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	entries, err := repo.ListForID(record.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, now.AddDate(0, 0, -6).Equal(entries[0].Key.BackupTime))

	// Purging again finds nothing and is not an error.
	purged, err = repo.PurgeOlderThan(now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestTrashRepository_DeleteSpecific(t *testing.T) {
	repo := NewTrashRepository(newTestStore(t))

	record := models.NewBetRecord("round", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	at := time.Date(2026, 8, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Backup(record, at))

	key := models.TrashKey{ID: record.ID, BackupTime: at}
	require.NoError(t, repo.Delete(key))

	err := repo.Delete(key)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
