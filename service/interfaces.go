package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"betpool/models"
)

// ConfirmFunc asks the user to approve a destructive overwrite. The core
// only signals that confirmation is needed; how the question is displayed is
// the caller's concern. A nil ConfirmFunc counts as a decline.
type ConfirmFunc func(prompt string) bool

// Clock supplies the current time. Injected so grace-window and retention
// behavior is testable.
type Clock func() time.Time

// SessionRepository defines the interface for session record persistence
type SessionRepository interface {
	// Save writes the record unconditionally
	Save(record *models.BetRecord) error

	// Load retrieves a record by id, models.ErrNotFound if absent
	Load(id string) (*models.BetRecord, error)

	// Exists reports whether a record with the given id is stored
	Exists(id string) bool

	// Delete removes a record from primary storage
	Delete(id string) error

	// List returns record headers, most recently created first
	List() ([]models.RecordHeader, error)
}

// TemplateRepository defines the interface for template persistence
type TemplateRepository interface {
	// Save writes the template unconditionally
	Save(template *models.Template) error

	// Load retrieves a template by name, models.ErrNotFound if absent
	Load(name string) (*models.Template, error)

	// Exists reports whether a template with the given name is stored
	Exists(name string) bool

	// Delete removes a template
	Delete(name string) error

	// List returns template names and participant counts
	List() ([]models.TemplateInfo, error)
}

// TrashRepository defines the interface for record backup storage
type TrashRepository interface {
	// Backup stores a copy of the record keyed by (record id, at)
	Backup(record *models.BetRecord, at time.Time) error

	// Load retrieves the backup for the given composite key
	Load(key models.TrashKey) (*models.BetRecord, error)

	// Delete removes a single backup
	Delete(key models.TrashKey) error

	// ListForID returns the backups for one record id, newest first
	ListForID(id string) ([]models.TrashEntry, error)

	// Latest returns the key of the newest backup for id
	Latest(id string) (models.TrashKey, error)

	// PurgeOlderThan deletes every backup taken before cutoff
	PurgeOlderThan(cutoff time.Time) (int, error)
}

// RecordService defines the UI-facing operations on bet records
type RecordService interface {
	// Create assigns a fresh id and persists an empty record
	Create(ctx context.Context, title string) (*models.BetRecord, error)

	// Load retrieves a record from storage
	Load(ctx context.Context, id string) (*models.BetRecord, error)

	// Delete removes a record from primary storage; trash is untouched
	Delete(ctx context.Context, id string) error

	// List returns stored record headers, most recent first
	List(ctx context.Context) ([]models.RecordHeader, error)

	// AddParticipant appends a new unique participant name
	AddParticipant(record *models.BetRecord, name string) error

	// RemoveParticipant removes a participant and their stake data.
	// Removing a name that is not in the record fails with models.ErrNotFound.
	RemoveParticipant(record *models.BetRecord, name string) error

	// SetStake stores, updates or (amount zero) clears one stake entry
	SetStake(record *models.BetRecord, participant string, number int, amount decimal.Decimal) error

	// SetPrizeSettings replaces both prize fields; nil means unset
	SetPrizeSettings(record *models.BetRecord, winningNumber *int, payoutRate *decimal.Decimal) error

	// Save persists the record, asking for confirmation and taking a trash
	// backup when it would overwrite stored history
	Save(ctx context.Context, record *models.BetRecord, confirm ConfirmFunc) error
}

// TemplateService defines the UI-facing operations on templates
type TemplateService interface {
	// SaveFromRecord stores the record's participant list under name
	SaveFromRecord(ctx context.Context, name string, record *models.BetRecord, confirm ConfirmFunc) error

	// Apply merges the named template into the record and reports which
	// names were added and which already existed
	Apply(ctx context.Context, record *models.BetRecord, name string) (added, duplicates []string, err error)

	// Load retrieves a template by name
	Load(ctx context.Context, name string) (*models.Template, error)

	// List returns stored template names and participant counts
	List(ctx context.Context) ([]models.TemplateInfo, error)

	// Delete removes a template
	Delete(ctx context.Context, name string) error
}

// TrashService defines the UI-facing operations on record backups
type TrashService interface {
	// ListForRecord returns the backups for one record, newest first
	ListForRecord(ctx context.Context, id string) ([]models.TrashEntry, error)

	// RestoreLatest copies the newest backup for id back over the primary
	// record, overwriting it unconditionally
	RestoreLatest(ctx context.Context, id string) (*models.BetRecord, error)

	// RestoreSpecific restores one backup identified by its composite key
	RestoreSpecific(ctx context.Context, key models.TrashKey) (*models.BetRecord, error)

	// DeleteEntry removes a single backup
	DeleteEntry(ctx context.Context, key models.TrashKey) error

	// PurgeExpired removes every backup older than the retention window
	PurgeExpired(ctx context.Context) (int, error)
}
