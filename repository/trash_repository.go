package repository

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"betpool/models"
	"betpool/storage"
)

// Separates the record id from the backup timestamp in a trash file name.
// Generated record ids never contain it; parsing still splits on the last
// occurrence so an id carrying the separator cannot shift the timestamp.
const trashKeySep = "#"

// TrashRepository holds timestamped backup copies of records taken just
// before an overwrite. Backups share the session record's file format; the
// composite key (id, backupTime) is encoded into the file name.
type TrashRepository struct {
	store *storage.Store
}

// NewTrashRepository creates a new trash repository over the given store.
func NewTrashRepository(store *storage.Store) *TrashRepository {
	return &TrashRepository{store: store}
}

func encodeTrashKey(key models.TrashKey) string {
	return key.ID + trashKeySep + strconv.FormatInt(key.BackupTime.Unix(), 10)
}

func decodeTrashKey(name string) (models.TrashKey, bool) {
	i := strings.LastIndex(name, trashKeySep)
	if i <= 0 {
		return models.TrashKey{}, false
	}
	ts, err := strconv.ParseInt(name[i+1:], 10, 64)
	if err != nil {
		return models.TrashKey{}, false
	}
	return models.TrashKey{ID: name[:i], BackupTime: time.Unix(ts, 0)}, true
}

// Backup stores a copy of the record keyed by (record id, at).
func (r *TrashRepository) Backup(record *models.BetRecord, at time.Time) error {
	key := models.TrashKey{ID: record.ID, BackupTime: at}
	if err := r.store.WriteJSON(encodeTrashKey(key), record); err != nil {
		return fmt.Errorf("failed to back up session %s: %w", record.ID, err)
	}
	log.WithFields(log.Fields{
		"id":         record.ID,
		"backupTime": at,
	}).Info("Backed up session to trash")
	return nil
}

// Load retrieves the backup for the given composite key. Returns
// models.ErrNotFound if no such backup exists.
func (r *TrashRepository) Load(key models.TrashKey) (*models.BetRecord, error) {
	var stored storedRecord
	if err := r.store.ReadJSON(encodeTrashKey(key), &stored); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("trash entry %s@%d: %w", key.ID, key.BackupTime.Unix(), models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load trash entry for %s: %w", key.ID, err)
	}
	return stored.toRecord(key.ID), nil
}

// Delete removes a single backup. Returns models.ErrNotFound if no such
// backup exists.
func (r *TrashRepository) Delete(key models.TrashKey) error {
	if err := r.store.Remove(encodeTrashKey(key)); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("trash entry %s@%d: %w", key.ID, key.BackupTime.Unix(), models.ErrNotFound)
		}
		return fmt.Errorf("failed to delete trash entry for %s: %w", key.ID, err)
	}
	return nil
}

// ListForID returns the backups for one record id, newest first.
func (r *TrashRepository) ListForID(id string) ([]models.TrashEntry, error) {
	keys, err := r.keys()
	if err != nil {
		return nil, err
	}

	var entries []models.TrashEntry
	for _, key := range keys {
		if key.ID != id {
			continue
		}
		entries = append(entries, models.TrashEntry{Key: key, Title: r.title(key)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.BackupTime.After(entries[j].Key.BackupTime)
	})
	return entries, nil
}

// Latest returns the composite key of the newest backup for id. Returns
// models.ErrNotFound when no backup exists for id.
func (r *TrashRepository) Latest(id string) (models.TrashKey, error) {
	entries, err := r.ListForID(id)
	if err != nil {
		return models.TrashKey{}, err
	}
	if len(entries) == 0 {
		return models.TrashKey{}, fmt.Errorf("no trash entries for %s: %w", id, models.ErrNotFound)
	}
	return entries[0].Key, nil
}

// PurgeOlderThan deletes every backup taken strictly before cutoff and
// returns how many were removed. Safe to call at any time; purging an empty
// trash is not an error.
func (r *TrashRepository) PurgeOlderThan(cutoff time.Time) (int, error) {
	keys, err := r.keys()
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, key := range keys {
		if !key.BackupTime.Before(cutoff) {
			continue
		}
		if err := r.store.Remove(encodeTrashKey(key)); err != nil {
			if errors.Is(err, storage.ErrKeyNotFound) {
				continue
			}
			return purged, fmt.Errorf("failed to purge trash entry for %s: %w", key.ID, err)
		}
		purged++
	}
	if purged > 0 {
		log.WithFields(log.Fields{"purged": purged, "cutoff": cutoff}).Info("Purged expired trash entries")
	}
	return purged, nil
}

// keys decodes every trash file name, skipping files that do not carry a
// well-formed composite key.
func (r *TrashRepository) keys() ([]models.TrashKey, error) {
	names, err := r.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}

	keys := make([]models.TrashKey, 0, len(names))
	for _, name := range names {
		key, ok := decodeTrashKey(name)
		if !ok {
			log.WithFields(log.Fields{"name": name}).Warn("Skipping malformed trash file name")
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (r *TrashRepository) title(key models.TrashKey) string {
	var stored struct {
		Title string `json:"title"`
	}
	if err := r.store.ReadJSON(encodeTrashKey(key), &stored); err != nil {
		return ""
	}
	return stored.Title
}
