package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"betpool/events"
	"betpool/models"
	"betpool/settle"
)

type recordService struct {
	sessions  SessionRepository
	trash     TrashRepository
	bus       *events.Bus
	grace     time.Duration
	retention time.Duration
	clock     Clock
}

// NewRecordService creates a new record service. grace is the window after
// record creation during which saves overwrite without confirmation;
// retention bounds the age of trash backups.
func NewRecordService(sessions SessionRepository, trash TrashRepository, bus *events.Bus, grace, retention time.Duration, clock Clock) RecordService {
	if clock == nil {
		clock = time.Now
	}
	return &recordService{
		sessions:  sessions,
		trash:     trash,
		bus:       bus,
		grace:     grace,
		retention: retention,
		clock:     clock,
	}
}

func (s *recordService) Create(ctx context.Context, title string) (*models.BetRecord, error) {
	record := models.NewBetRecord(title, s.clock())
	settle.Recompute(record)

	if err := s.sessions.Save(record); err != nil {
		return nil, fmt.Errorf("failed to persist new record: %w", err)
	}

	log.WithFields(log.Fields{"id": record.ID, "title": record.Title}).Info("Created record")
	s.bus.Emit(ctx, events.RecordSavedEvent{RecordID: record.ID, Title: record.Title})
	return record, nil
}

func (s *recordService) Load(ctx context.Context, id string) (*models.BetRecord, error) {
	return s.sessions.Load(id)
}

func (s *recordService) Delete(ctx context.Context, id string) error {
	if err := s.sessions.Delete(id); err != nil {
		return err
	}
	s.bus.Emit(ctx, events.RecordDeletedEvent{RecordID: id})
	return nil
}

func (s *recordService) List(ctx context.Context) ([]models.RecordHeader, error) {
	return s.sessions.List()
}

func (s *recordService) AddParticipant(record *models.BetRecord, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ErrEmptyName
	}
	if record.HasParticipant(name) {
		return fmt.Errorf("participant %q: %w", name, models.ErrDuplicateName)
	}

	record.Participants = append(record.Participants, name)
	settle.Recompute(record)
	return nil
}

func (s *recordService) RemoveParticipant(record *models.BetRecord, name string) error {
	if !record.HasParticipant(name) {
		return fmt.Errorf("participant %q: %w", name, models.ErrNotFound)
	}

	participants := record.Participants[:0]
	for _, p := range record.Participants {
		if p != name {
			participants = append(participants, p)
		}
	}
	record.Participants = participants
	delete(record.Stakes, name)
	settle.Recompute(record)
	return nil
}

func (s *recordService) SetStake(record *models.BetRecord, participant string, number int, amount decimal.Decimal) error {
	if !record.HasParticipant(participant) {
		return fmt.Errorf("participant %q: %w", participant, models.ErrNotFound)
	}
	if !models.ValidNumber(number) {
		return fmt.Errorf("number %d: %w", number, models.ErrInvalidNumber)
	}
	if amount.IsNegative() {
		return fmt.Errorf("amount %s: %w", amount, models.ErrInvalidAmount)
	}

	key := models.NumberKey(number)
	if amount.IsZero() {
		// Zero clears the entry; the table stays sparse.
		if stakes, ok := record.Stakes[participant]; ok {
			delete(stakes, key)
			if len(stakes) == 0 {
				delete(record.Stakes, participant)
			}
		}
	} else {
		if record.Stakes == nil {
			record.Stakes = models.StakeTable{}
		}
		if record.Stakes[participant] == nil {
			record.Stakes[participant] = models.NumberStakes{}
		}
		record.Stakes[participant][key] = amount
	}

	settle.Recompute(record)
	return nil
}

func (s *recordService) SetPrizeSettings(record *models.BetRecord, winningNumber *int, payoutRate *decimal.Decimal) error {
	if winningNumber != nil && !models.ValidNumber(*winningNumber) {
		return fmt.Errorf("winning number %d: %w", *winningNumber, models.ErrInvalidPrizeSettings)
	}
	if payoutRate != nil && !payoutRate.IsPositive() {
		return fmt.Errorf("payout rate %s: %w", payoutRate, models.ErrInvalidPrizeSettings)
	}

	record.PrizeSettings = models.PrizeSettings{}
	if winningNumber != nil {
		n := *winningNumber
		record.PrizeSettings.WinningNumber = &n
	}
	if payoutRate != nil {
		rate := *payoutRate
		record.PrizeSettings.PayoutRate = &rate
	}

	settle.Recompute(record)
	return nil
}

// Save persists the record. A record not yet in storage is written directly.
// Overwriting a stored record whose creation time is past the grace window
// counts as modifying history: the caller-supplied confirm must approve, and
// the stored version is copied to trash before being replaced so it stays
// recoverable. Expired trash entries are purged after each new backup.
func (s *recordService) Save(ctx context.Context, record *models.BetRecord, confirm ConfirmFunc) error {
	settle.Recompute(record)

	if !s.sessions.Exists(record.ID) {
		if err := s.sessions.Save(record); err != nil {
			return err
		}
		log.WithFields(log.Fields{"id": record.ID}).Info("Saved new record")
		s.bus.Emit(ctx, events.RecordSavedEvent{RecordID: record.ID, Title: record.Title})
		return nil
	}

	now := s.clock()
	if now.Sub(record.CreatedAt) > s.grace {
		prompt := fmt.Sprintf("Record %q already exists. Overwrite the stored version?", record.Title)
		if confirm == nil || !confirm(prompt) {
			return fmt.Errorf("save of %s: %w", record.ID, models.ErrConfirmationDeclined)
		}
	}

	existing, err := s.sessions.Load(record.ID)
	if err != nil {
		return fmt.Errorf("failed to load stored version of %s: %w", record.ID, err)
	}
	if err := s.trash.Backup(existing, now); err != nil {
		return err
	}
	s.bus.Emit(ctx, events.RecordBackedUpEvent{RecordID: record.ID, BackupTime: now})

	if purged, err := s.trash.PurgeOlderThan(now.Add(-s.retention)); err != nil {
		log.WithError(err).Warn("Opportunistic trash purge failed")
	} else if purged > 0 {
		s.bus.Emit(ctx, events.TrashPurgedEvent{Purged: purged})
	}

	if err := s.sessions.Save(record); err != nil {
		return err
	}
	log.WithFields(log.Fields{"id": record.ID}).Info("Overwrote stored record")
	s.bus.Emit(ctx, events.RecordSavedEvent{RecordID: record.ID, Title: record.Title, Overwrite: true})
	return nil
}
