package chat

import (
	"context"
	"errors"
	"time"
)

// ErrChannelNotFound is returned by gateway implementations when the target
// channel no longer exists. Deferred deletions treat it as a no-op.
var ErrChannelNotFound = errors.New("channel not found")

// ChannelKind distinguishes text channels from grouping categories.
type ChannelKind string

const (
	ChannelKindText     ChannelKind = "text"
	ChannelKindCategory ChannelKind = "category"
)

// Channel describes a channel as reported by the platform.
type Channel struct {
	ID       string
	Name     string
	Kind     ChannelKind
	ParentID string
}

// Role describes a guild role as reported by the platform.
type Role struct {
	ID            string
	Name          string
	Administrator bool
	Moderator     bool
}

// PermissionOverwrite grants or denies view access for one subject
// (the community itself, a role, or a user) on a created channel.
type PermissionOverwrite struct {
	SubjectID string
	AllowView bool
}

// ChannelCreate is a request to create a dedicated ticket channel.
type ChannelCreate struct {
	Name       string
	ParentID   string
	Overwrites []PermissionOverwrite
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a structured message block.
type Embed struct {
	Title       string
	Description string
	Fields      []EmbedField
	Timestamp   time.Time
}

// Attachment is a file uploaded with a message.
type Attachment struct {
	Name string
	Data []byte
}

// AttachmentRef points at a file already hosted by the platform.
type AttachmentRef struct {
	Name string
	URL  string
}

// ActionKind enumerates the affordances the core can request on a message.
// Rendering them as buttons is the collaborator's concern.
type ActionKind string

const (
	ActionCompleteTicket     ActionKind = "complete_ticket"
	ActionCancelTicket       ActionKind = "cancel_ticket"
	ActionConfirmCompletion  ActionKind = "confirm_completion"
	ActionRollbackCompletion ActionKind = "rollback_completion"
)

// Action is one requested affordance.
type Action struct {
	Kind  ActionKind
	Label string
}

// HelperSelect requests a multi-user selection prompt.
type HelperSelect struct {
	MinValues int
	MaxValues int
}

// Message is an outbound message request.
type Message struct {
	Content      string
	Embed        *Embed
	Attachment   *Attachment
	Actions      []Action
	HelperSelect *HelperSelect
}

// HistoryMessage is one archived message retrieved from a channel.
type HistoryMessage struct {
	ID          string
	AuthorID    string
	AuthorTag   string
	Timestamp   time.Time
	Content     string
	Embeds      []Embed
	Attachments []AttachmentRef
}

// Gateway is the chat-platform collaborator. The core requests side effects
// through it and never touches platform primitives directly.
type Gateway interface {
	// Channel returns metadata for an existing channel.
	Channel(ctx context.Context, channelID string) (*Channel, error)
	// CreateChannel creates a channel and returns it.
	CreateChannel(ctx context.Context, req ChannelCreate) (*Channel, error)
	// DeleteChannel removes a channel. Returns ErrChannelNotFound when the
	// channel is already gone.
	DeleteChannel(ctx context.Context, channelID string) error
	// SendMessage posts a message into a channel.
	SendMessage(ctx context.Context, channelID string, msg Message) error
	// SendDirectMessage delivers a message to a user's direct channel.
	SendDirectMessage(ctx context.Context, userID string, msg Message) error
	// MessagesBefore fetches up to limit messages older than beforeID,
	// newest first. An empty beforeID starts from the channel's tail.
	MessagesBefore(ctx context.Context, channelID, beforeID string, limit int) ([]HistoryMessage, error)
	// Roles lists the community's roles.
	Roles(ctx context.Context) ([]Role, error)
}
