package events

import (
	"time"

	"github.com/spec-kit/helpdesk-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventCompletionFlagged EventType = "completion_flagged"
	EventTicketCompleted   EventType = "ticket_completed"
	EventTicketCanceled    EventType = "ticket_canceled"
)

// Event represents a domain event emitted by the lifecycle.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber int         `json:"ticket_number"`
	ChannelID    string      `json:"channel_id"`
	ActorID      string      `json:"actor_id"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category  domain.Category     `json:"category"`
	CreatorID string              `json:"creator_id"`
	Fields    []domain.FieldValue `json:"fields"`
}

// CompletionFlaggedPayload payload. Emitted when a non-privileged actor
// presses complete; the ticket state does not change.
type CompletionFlaggedPayload struct {
	Category domain.Category `json:"category"`
}

// TicketCompletedPayload payload.
type TicketCompletedPayload struct {
	Category        domain.Category `json:"category"`
	CreatorID       string          `json:"creator_id"`
	CompletedBy     string          `json:"completed_by"`
	Helpers         []string        `json:"helpers"`
	PointsPerHelper int             `json:"points_per_helper"`
	TotalPoints     int             `json:"total_points"`
}

// TicketCanceledPayload payload.
type TicketCanceledPayload struct {
	Category   domain.Category `json:"category"`
	CreatorID  string          `json:"creator_id"`
	CanceledBy string          `json:"canceled_by"`
}
