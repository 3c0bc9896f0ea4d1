package domain

// TicketState enumerates lifecycle states for tickets. NONE (no record for a
// channel) and the terminal states have no stored representation: a ticket
// exists in activeTickets only while OPEN or PENDING_COMPLETION.
type TicketState string

const (
	TicketStateNone              TicketState = "NONE"
	TicketStateOpen              TicketState = "OPEN"
	TicketStatePendingCompletion TicketState = "PENDING_COMPLETION"
	TicketStateCompleted         TicketState = "COMPLETED"
	TicketStateCanceled          TicketState = "CANCELED"
)

// FieldValue is one (label, value) pair collected from the creation form.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Ticket is a single help request bound to one dedicated channel. It is
// embedded in Document.ActiveTickets keyed by that channel's identity.
type Ticket struct {
	TicketNumber    int          `json:"ticketNumber"`
	UserID          string       `json:"userId"`
	Category        Category     `json:"category"`
	Fields          []FieldValue `json:"fields"`
	SelectedHelpers []string     `json:"selectedHelpers,omitempty"`
	CompletedBy     string       `json:"completedBy,omitempty"`
}

// State derives the lifecycle state from the completion-pending fields.
func (t *Ticket) State() TicketState {
	if t == nil {
		return TicketStateNone
	}
	if len(t.SelectedHelpers) > 0 || t.CompletedBy != "" {
		return TicketStatePendingCompletion
	}
	return TicketStateOpen
}

// ClearSelection rolls the ticket back to OPEN. SelectedHelpers and
// CompletedBy are always present or absent together.
func (t *Ticket) ClearSelection() {
	t.SelectedHelpers = nil
	t.CompletedBy = ""
}
