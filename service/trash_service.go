package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"betpool/events"
	"betpool/models"
)

type trashService struct {
	sessions  SessionRepository
	trash     TrashRepository
	bus       *events.Bus
	retention time.Duration
	clock     Clock
}

// NewTrashService creates a new trash service. retention is how long
// backups are kept before PurgeExpired removes them.
func NewTrashService(sessions SessionRepository, trash TrashRepository, bus *events.Bus, retention time.Duration, clock Clock) TrashService {
	if clock == nil {
		clock = time.Now
	}
	return &trashService{
		sessions:  sessions,
		trash:     trash,
		bus:       bus,
		retention: retention,
		clock:     clock,
	}
}

func (s *trashService) ListForRecord(ctx context.Context, id string) ([]models.TrashEntry, error) {
	return s.trash.ListForID(id)
}

func (s *trashService) RestoreLatest(ctx context.Context, id string) (*models.BetRecord, error) {
	key, err := s.trash.Latest(id)
	if err != nil {
		return nil, err
	}
	return s.restore(ctx, key)
}

func (s *trashService) RestoreSpecific(ctx context.Context, key models.TrashKey) (*models.BetRecord, error) {
	return s.restore(ctx, key)
}

// restore copies the backup back over the primary record unconditionally;
// restoring never takes a backup of what it replaces.
func (s *trashService) restore(ctx context.Context, key models.TrashKey) (*models.BetRecord, error) {
	record, err := s.trash.Load(key)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(record); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"id":         key.ID,
		"backupTime": key.BackupTime,
	}).Info("Restored record from trash")
	s.bus.Emit(ctx, events.RecordRestoredEvent{RecordID: key.ID, BackupTime: key.BackupTime})
	return record, nil
}

func (s *trashService) DeleteEntry(ctx context.Context, key models.TrashKey) error {
	return s.trash.Delete(key)
}

func (s *trashService) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := s.clock().Add(-s.retention)
	purged, err := s.trash.PurgeOlderThan(cutoff)
	if err != nil {
		return purged, err
	}
	if purged > 0 {
		s.bus.Emit(ctx, events.TrashPurgedEvent{Purged: purged})
	}
	return purged, nil
}
