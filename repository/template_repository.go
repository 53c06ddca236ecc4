package repository

import (
	"errors"
	"fmt"
	"sort"

	"betpool/models"
	"betpool/storage"
)

// TemplateRepository persists participant-list templates as one JSON file
// per template name.
type TemplateRepository struct {
	store *storage.Store
}

// NewTemplateRepository creates a new template repository over the given store.
func NewTemplateRepository(store *storage.Store) *TemplateRepository {
	return &TemplateRepository{store: store}
}

// Save writes the template unconditionally. Name validation and overwrite
// confirmation are the service layer's concern.
func (r *TemplateRepository) Save(template *models.Template) error {
	if err := r.store.WriteJSON(template.Name, template); err != nil {
		return fmt.Errorf("failed to save template %s: %w", template.Name, err)
	}
	return nil
}

// Load retrieves a template by name. Returns models.ErrNotFound if no
// template with that name is stored. The participant count is rebuilt from
// the list itself rather than read from the file.
func (r *TemplateRepository) Load(name string) (*models.Template, error) {
	var template models.Template
	if err := r.store.ReadJSON(name, &template); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("template %s: %w", name, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load template %s: %w", name, err)
	}
	template.Name = name
	template.ParticipantCount = len(template.Participants)
	return &template, nil
}

// Exists reports whether a template with the given name is stored.
func (r *TemplateRepository) Exists(name string) bool {
	return r.store.Exists(name)
}

// Delete removes a template. Returns models.ErrNotFound if no template with
// that name is stored.
func (r *TemplateRepository) Delete(name string) error {
	if err := r.store.Remove(name); err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("template %s: %w", name, models.ErrNotFound)
		}
		return fmt.Errorf("failed to delete template %s: %w", name, err)
	}
	return nil
}

// List returns every stored template's name and participant count, sorted
// by name.
func (r *TemplateRepository) List() ([]models.TemplateInfo, error) {
	names, err := r.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	infos := make([]models.TemplateInfo, 0, len(names))
	for _, name := range names {
		template, err := r.Load(name)
		if err != nil {
			continue
		}
		infos = append(infos, models.TemplateInfo{
			Name:             name,
			ParticipantCount: template.ParticipantCount,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
