package dto

// Interaction wire discriminators accepted on the webhook. They mirror the
// component custom IDs the platform connector attaches to panel widgets.
const (
	InteractionCreateTicket       = "create_ticket"
	InteractionTicketCategory     = "ticket_category"
	InteractionTicketForm         = "ticket_form"
	InteractionCompleteTicket     = "complete_ticket"
	InteractionCancelTicket       = "cancel_ticket"
	InteractionSelectHelpers      = "select_helpers"
	InteractionConfirmCompletion  = "confirm_completion"
	InteractionRollbackCompletion = "cancel_completion"
)

// InteractionMember identifies the acting member and their standing.
type InteractionMember struct {
	UserID        string   `json:"user_id"`
	RoleIDs       []string `json:"role_ids"`
	Administrator bool     `json:"administrator"`
}

// InteractionField is one submitted form value.
type InteractionField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// InteractionRequest is one inbound interaction event from the connector.
// Which optional fields are meaningful depends on the discriminator.
type InteractionRequest struct {
	Type      string             `json:"type"`
	ChannelID string             `json:"channel_id,omitempty"`
	Member    InteractionMember  `json:"member"`
	Category  string             `json:"category,omitempty"`
	Fields    []InteractionField `json:"fields,omitempty"`
	HelperIDs []string           `json:"helper_ids,omitempty"`
}

// ReplyEmbedField mirrors one embed field in a reply.
type ReplyEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// ReplyEmbed mirrors an embed in a reply.
type ReplyEmbed struct {
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      []ReplyEmbedField `json:"fields,omitempty"`
}

// ReplyAction mirrors one requested affordance.
type ReplyAction struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// ReplyHelperSelect mirrors a multi-user selection prompt.
type ReplyHelperSelect struct {
	MinValues int `json:"min_values"`
	MaxValues int `json:"max_values"`
}

// ReplyFormField mirrors one form field to present.
type ReplyFormField struct {
	Label     string `json:"label"`
	Multiline bool   `json:"multiline,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

// ReplyForm mirrors a form the connector should open.
type ReplyForm struct {
	Title  string           `json:"title"`
	Fields []ReplyFormField `json:"fields"`
}

// InteractionReply is the rendered answer to one interaction.
type InteractionReply struct {
	Ephemeral    bool               `json:"ephemeral"`
	Content      string             `json:"content,omitempty"`
	Embed        *ReplyEmbed        `json:"embed,omitempty"`
	Actions      []ReplyAction      `json:"actions,omitempty"`
	HelperSelect *ReplyHelperSelect `json:"helper_select,omitempty"`
	Form         *ReplyForm         `json:"form,omitempty"`
}
