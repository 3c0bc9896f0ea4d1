package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// pageSize is the bounded page for backward history fetches.
const pageSize = 100

// Archiver flattens a ticket channel's history into a durable text record
// and delivers it at closure.
type Archiver struct {
	gateway chat.Gateway
	logger  *zap.Logger
}

// NewArchiver constructs the archiver.
func NewArchiver(gateway chat.Gateway, logger *zap.Logger) *Archiver {
	return &Archiver{gateway: gateway, logger: logger}
}

// Generate retrieves the channel's full history and renders it
// chronologically. It returns an error, never a partial blob, when any page
// fetch fails.
func (a *Archiver) Generate(ctx context.Context, channelID string) (string, error) {
	channel, err := a.gateway.Channel(ctx, channelID)
	if err != nil {
		return "", apperrors.NewArchiveFailure(err)
	}

	var history []chat.HistoryMessage
	cursor := ""
	for {
		page, err := a.gateway.MessagesBefore(ctx, channelID, cursor, pageSize)
		if err != nil {
			return "", apperrors.NewArchiveFailure(err)
		}
		if len(page) == 0 {
			break
		}
		history = append(history, page...)
		// pages arrive newest first, so the page's last entry is the
		// oldest message seen so far
		cursor = page[len(page)-1].ID
		if len(page) < pageSize {
			break
		}
	}

	// reverse into chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return render(channel, history), nil
}

func render(channel *chat.Channel, history []chat.HistoryMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket Transcript - %s\n", channel.Name)
	fmt.Fprintf(&b, "Channel ID: %s\n", channel.ID)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().UTC().Format(time.RFC1123))
	b.WriteString(strings.Repeat("=", 80))
	b.WriteString("\n\n")

	for _, msg := range history {
		fmt.Fprintf(&b, "[%s] %s (%s):\n", msg.Timestamp.UTC().Format(time.RFC1123), msg.AuthorTag, msg.AuthorID)
		if msg.Content != "" {
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
		if len(msg.Embeds) > 0 {
			fmt.Fprintf(&b, "[Embeds: %d]\n", len(msg.Embeds))
			for i, embed := range msg.Embeds {
				fmt.Fprintf(&b, "  Embed %d:\n", i+1)
				if embed.Title != "" {
					fmt.Fprintf(&b, "    Title: %s\n", embed.Title)
				}
				if embed.Description != "" {
					fmt.Fprintf(&b, "    Description: %s\n", embed.Description)
				}
				for _, field := range embed.Fields {
					fmt.Fprintf(&b, "    %s: %s\n", field.Name, field.Value)
				}
			}
		}
		if len(msg.Attachments) > 0 {
			fmt.Fprintf(&b, "[Attachments: %d]\n", len(msg.Attachments))
			for _, att := range msg.Attachments {
				fmt.Fprintf(&b, "  - %s (%s)\n", att.Name, att.URL)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FileName returns the transcript attachment name for a ticket.
func FileName(ticketNumber int) string {
	return fmt.Sprintf("ticket-%d-transcript.txt", ticketNumber)
}

// Deliver sends the archive to the ticket creator as a direct message and
// uploads the same bytes to the logs channel. Both deliveries are
// best-effort: rejections are logged and swallowed.
func (a *Archiver) Deliver(ctx context.Context, ticket *domain.Ticket, logsChannelID, closure, content string) {
	data := []byte(content)
	name := FileName(ticket.TicketNumber)

	dm := chat.Message{
		Content:    fmt.Sprintf("Here is the transcript for your %s ticket #%d:", closure, ticket.TicketNumber),
		Attachment: &chat.Attachment{Name: name, Data: data},
	}
	if err := a.gateway.SendDirectMessage(ctx, ticket.UserID, dm); err != nil {
		a.logger.Warn("transcript delivery failed",
			zap.String("target", "creator_dm"),
			zap.String("user_id", ticket.UserID),
			zap.Error(apperrors.NewDeliveryFailure("creator_dm", err)))
	}

	if logsChannelID == "" {
		return
	}
	upload := chat.Message{
		Content:    fmt.Sprintf("Transcript for %s ticket #%d:", closure, ticket.TicketNumber),
		Attachment: &chat.Attachment{Name: name, Data: data},
	}
	if err := a.gateway.SendMessage(ctx, logsChannelID, upload); err != nil {
		a.logger.Warn("transcript delivery failed",
			zap.String("target", "logs_channel"),
			zap.String("channel_id", logsChannelID),
			zap.Error(apperrors.NewDeliveryFailure("logs_channel", err)))
	}
}
