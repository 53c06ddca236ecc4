package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"betpool/models"
	"betpool/settle"
	"betpool/storage"
)

// SessionRepository persists bet records as one JSON file per record id.
type SessionRepository struct {
	store *storage.Store
}

// NewSessionRepository creates a new session repository over the given store.
func NewSessionRepository(store *storage.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// storedRecord is the on-disk shape of a record. Stakes are decoded loosely
// so that dirty data from older files can be cleaned instead of failing the
// whole load.
type storedRecord struct {
	Title         string                    `json:"title"`
	CreatedAt     time.Time                 `json:"createdAt"`
	Participants  []string                  `json:"participants"`
	Stakes        map[string]map[string]any `json:"stakes"`
	PrizeSettings models.PrizeSettings      `json:"prizeSettings"`
}

// toRecord rebuilds an authoritative record from the stored shape: duplicate
// or blank participant names are dropped, stakes are run through the
// settlement engine's cleaner, an out-of-range winning number is treated as
// unset, and the derived fields are recomputed from scratch. Stored
// summaries are never trusted.
func (sr *storedRecord) toRecord(id string) *models.BetRecord {
	participants := make([]string, 0, len(sr.Participants))
	seen := make(map[string]struct{}, len(sr.Participants))
	for _, name := range sr.Participants {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		participants = append(participants, name)
	}

	prize := sr.PrizeSettings
	if prize.WinningNumber != nil && !models.ValidNumber(*prize.WinningNumber) {
		prize.WinningNumber = nil
	}

	record := &models.BetRecord{
		ID:            id,
		Title:         sr.Title,
		CreatedAt:     sr.CreatedAt,
		Participants:  participants,
		Stakes:        settle.CleanStakes(sr.Stakes, participants),
		PrizeSettings: prize,
	}
	settle.Recompute(record)
	return record
}

// Save writes the record unconditionally. Overwrite policy (confirmation,
// backup) is the service layer's concern.
func (r *SessionRepository) Save(record *models.BetRecord) error {
	if err := r.store.WriteJSON(record.ID, record); err != nil {
		return fmt.Errorf("failed to save session %s: %w", record.ID, err)
	}
	return nil
}

// Load retrieves a record by id. Returns models.ErrNotFound if no record
// with that id is stored.
func (r *SessionRepository) Load(id string) (*models.BetRecord, error) {
	var stored storedRecord
	if err := r.store.ReadJSON(id, &stored); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return stored.toRecord(id), nil
}

// Exists reports whether a record with the given id is stored.
func (r *SessionRepository) Exists(id string) bool {
	return r.store.Exists(id)
}

// Delete removes a record from primary storage. Trash backups are not
// affected. Returns models.ErrNotFound if no record with that id is stored.
func (r *SessionRepository) Delete(id string) error {
	if err := r.store.Remove(id); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("session %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// List returns the headers of every stored record, most recently created
// first. Files that cannot be decoded are skipped with a warning so one
// corrupt record does not hide the rest of the history.
func (r *SessionRepository) List() ([]models.RecordHeader, error) {
	keys, err := r.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	headers := make([]models.RecordHeader, 0, len(keys))
	for _, id := range keys {
		var stored struct {
			Title     string    `json:"title"`
			CreatedAt time.Time `json:"createdAt"`
		}
		if err := r.store.ReadJSON(id, &stored); err != nil {
			log.WithFields(log.Fields{"id": id}).WithError(err).Warn("Skipping unreadable session file")
			continue
		}
		headers = append(headers, models.RecordHeader{
			ID:        id,
			Title:     stored.Title,
			CreatedAt: stored.CreatedAt,
		})
	}

	sort.Slice(headers, func(i, j int) bool {
		return headers[i].CreatedAt.After(headers[j].CreatedAt)
	})
	return headers, nil
}
