package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRecordSaved     EventType = "record_saved"
	EventTypeRecordBackedUp  EventType = "record_backed_up"
	EventTypeRecordDeleted   EventType = "record_deleted"
	EventTypeRecordRestored  EventType = "record_restored"
	EventTypeTemplateSaved   EventType = "template_saved"
	EventTypeTemplateApplied EventType = "template_applied"
	EventTypeTrashPurged     EventType = "trash_purged"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// RecordSavedEvent fires after a record reaches primary storage.
type RecordSavedEvent struct {
	RecordID  string
	Title     string
	Overwrite bool
}

func (e RecordSavedEvent) Type() EventType {
	return EventTypeRecordSaved
}

// RecordBackedUpEvent fires after the pre-overwrite copy lands in trash.
type RecordBackedUpEvent struct {
	RecordID   string
	BackupTime time.Time
}

func (e RecordBackedUpEvent) Type() EventType {
	return EventTypeRecordBackedUp
}

// RecordDeletedEvent fires after a record leaves primary storage.
type RecordDeletedEvent struct {
	RecordID string
}

func (e RecordDeletedEvent) Type() EventType {
	return EventTypeRecordDeleted
}

// RecordRestoredEvent fires after a trash backup overwrites the primary copy.
type RecordRestoredEvent struct {
	RecordID   string
	BackupTime time.Time
}

func (e RecordRestoredEvent) Type() EventType {
	return EventTypeRecordRestored
}

// TemplateSavedEvent fires after a template is written.
type TemplateSavedEvent struct {
	Name             string
	ParticipantCount int
	Overwrite        bool
}

func (e TemplateSavedEvent) Type() EventType {
	return EventTypeTemplateSaved
}

// TemplateAppliedEvent fires after a template is merged into a record.
type TemplateAppliedEvent struct {
	Name       string
	RecordID   string
	Added      []string
	Duplicates []string
}

func (e TemplateAppliedEvent) Type() EventType {
	return EventTypeTemplateApplied
}

// TrashPurgedEvent fires after expired backups are removed.
type TrashPurgedEvent struct {
	Purged int
}

func (e TrashPurgedEvent) Type() EventType {
	return EventTypeTrashPurged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching. Dispatch is synchronous:
// every operation completes (including the notifications it triggers) before
// the next user action is accepted, so subscribers never observe a stale
// settlement.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit dispatches an event to all registered handlers in subscription order.
// A panicking handler is recovered and logged so one bad subscriber cannot
// take the operation down with it.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range handlers {
		func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
