package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"betpool/events"
	"betpool/models"
	"betpool/settle"
)

type templateService struct {
	templates TemplateRepository
	bus       *events.Bus
}

// NewTemplateService creates a new template service
func NewTemplateService(templates TemplateRepository, bus *events.Bus) TemplateService {
	return &templateService{templates: templates, bus: bus}
}

// SaveFromRecord stores the record's current participant list under name.
// Overwriting an existing template requires confirmation; unlike record
// saves there is no backup, an overwritten template is gone.
func (s *templateService) SaveFromRecord(ctx context.Context, name string, record *models.BetRecord, confirm ConfirmFunc) error {
	if !models.ValidStorageName(name) {
		return fmt.Errorf("template name %q: %w", name, models.ErrInvalidName)
	}

	overwrite := s.templates.Exists(name)
	if overwrite {
		prompt := fmt.Sprintf("Template %q already exists. Overwrite it?", name)
		if confirm == nil || !confirm(prompt) {
			return fmt.Errorf("save of template %s: %w", name, models.ErrConfirmationDeclined)
		}
	}

	template := models.NewTemplate(name, record.Participants)
	if err := s.templates.Save(template); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"name":         name,
		"participants": template.ParticipantCount,
		"overwrite":    overwrite,
	}).Info("Saved template")
	s.bus.Emit(ctx, events.TemplateSavedEvent{
		Name:             name,
		ParticipantCount: template.ParticipantCount,
		Overwrite:        overwrite,
	})
	return nil
}

// Apply merges the named template's participants into the record. Names
// already present are reported back instead of re-added; their stakes are
// untouched.
func (s *templateService) Apply(ctx context.Context, record *models.BetRecord, name string) (added, duplicates []string, err error) {
	template, err := s.templates.Load(name)
	if err != nil {
		return nil, nil, err
	}

	added, duplicates = settle.MergeTemplate(record, template.Participants)
	settle.Recompute(record)

	log.WithFields(log.Fields{
		"name":       name,
		"recordID":   record.ID,
		"added":      len(added),
		"duplicates": len(duplicates),
	}).Info("Applied template")
	s.bus.Emit(ctx, events.TemplateAppliedEvent{
		Name:       name,
		RecordID:   record.ID,
		Added:      added,
		Duplicates: duplicates,
	})
	return added, duplicates, nil
}

func (s *templateService) Load(ctx context.Context, name string) (*models.Template, error) {
	return s.templates.Load(name)
}

func (s *templateService) List(ctx context.Context) ([]models.TemplateInfo, error) {
	return s.templates.List()
}

func (s *templateService) Delete(ctx context.Context, name string) error {
	return s.templates.Delete(name)
}
