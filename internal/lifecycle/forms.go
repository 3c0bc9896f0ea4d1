package lifecycle

import (
	"fmt"

	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/domain"
)

// descriptionMaxLength caps the only multi-line form field.
const descriptionMaxLength = 1024

// categoryFields maps each category to its creation-form labels. The sets
// are identical today but stay per-category so one can diverge without
// touching the lifecycle.
var categoryFields = map[domain.Category][]string{
	domain.CategoryUltraWeeklies: {"Room Name", "Server Name", "Your AQW Username", "Description"},
	domain.CategoryUltraSpeaker:  {"Room Name", "Server Name", "Your AQW Username", "Description"},
	domain.CategoryTempleShrine:  {"Room Name", "Server Name", "Your AQW Username", "Description"},
	domain.CategoryUltraDailies:  {"Room Name", "Server Name", "Your AQW Username", "Description"},
	domain.CategorySpamming:      {"Room Name", "Server Name", "Your AQW Username", "Description"},
	domain.CategoryOthers:        {"Room Name", "Server Name", "Your AQW Username", "Description"},
}

// FormFor builds the creation form for a category.
func FormFor(category domain.Category) (*chat.Form, error) {
	labels, ok := categoryFields[category]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	fields := make([]chat.FormField, 0, len(labels))
	for _, label := range labels {
		field := chat.FormField{Label: label}
		if label == "Description" {
			field.Multiline = true
			field.MaxLength = descriptionMaxLength
		}
		fields = append(fields, field)
	}
	return &chat.Form{
		Title:  fmt.Sprintf("%s - Help Request", category),
		Fields: fields,
	}, nil
}
