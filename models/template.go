package models

// Template is a named, reusable participant list. The name doubles as the
// storage key and is kept out of the serialized body.
type Template struct {
	Name             string   `json:"-"`
	Participants     []string `json:"participants"`
	ParticipantCount int      `json:"participantCount"`
}

// TemplateInfo is the listing projection of a stored template.
type TemplateInfo struct {
	Name             string
	ParticipantCount int
}

// NewTemplate builds a template from a participant list.
func NewTemplate(name string, participants []string) *Template {
	return &Template{
		Name:             name,
		Participants:     append([]string(nil), participants...),
		ParticipantCount: len(participants),
	}
}
