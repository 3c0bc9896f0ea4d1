package chat

import (
	"github.com/spec-kit/helpdesk-bot/internal/domain"
	"github.com/spec-kit/helpdesk-bot/internal/gate"
)

// Interaction is the closed set of inbound event kinds the core dispatches
// on. Each variant carries the resolved actor; the collaborator maps its own
// wire discriminators onto these before handing them to the lifecycle.
type Interaction interface {
	interaction()
	// Kind names the variant for metrics and logging.
	Kind() string
}

// CreateTicketPressed is the panel's ticket-creation trigger.
type CreateTicketPressed struct {
	Member gate.Member
}

// CategorySelected is a per-category menu selection.
type CategorySelected struct {
	Member   gate.Member
	Category domain.Category
}

// TicketFormSubmitted is a completed creation form for one category.
type TicketFormSubmitted struct {
	Member   gate.Member
	Category domain.Category
	Fields   []domain.FieldValue
}

// CompletePressed is the "complete" affordance on a ticket channel.
type CompletePressed struct {
	ChannelID string
	Member    gate.Member
}

// CancelPressed is the "cancel" affordance on a ticket channel.
type CancelPressed struct {
	ChannelID string
	Member    gate.Member
}

// HelpersSelected is a multi-user helper selection.
type HelpersSelected struct {
	ChannelID string
	Member    gate.Member
	HelperIDs []string
}

// ConfirmCompletionPressed finalizes a pending completion.
type ConfirmCompletionPressed struct {
	ChannelID string
	Member    gate.Member
}

// RollbackCompletionPressed clears a pending helper selection.
type RollbackCompletionPressed struct {
	ChannelID string
	Member    gate.Member
}

func (CreateTicketPressed) interaction()       {}
func (CategorySelected) interaction()          {}
func (TicketFormSubmitted) interaction()       {}
func (CompletePressed) interaction()           {}
func (CancelPressed) interaction()             {}
func (HelpersSelected) interaction()           {}
func (ConfirmCompletionPressed) interaction()  {}
func (RollbackCompletionPressed) interaction() {}

func (CreateTicketPressed) Kind() string       { return "create_ticket_pressed" }
func (CategorySelected) Kind() string          { return "category_selected" }
func (TicketFormSubmitted) Kind() string       { return "ticket_form_submitted" }
func (CompletePressed) Kind() string           { return "complete_pressed" }
func (CancelPressed) Kind() string             { return "cancel_pressed" }
func (HelpersSelected) Kind() string           { return "helpers_selected" }
func (ConfirmCompletionPressed) Kind() string  { return "confirm_completion_pressed" }
func (RollbackCompletionPressed) Kind() string { return "rollback_completion_pressed" }

// Reply is the core's answer to one interaction, rendered by the
// collaborator as an (often ephemeral) response.
type Reply struct {
	Message
	Ephemeral bool
	Form      *Form
}
