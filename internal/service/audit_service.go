package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/events"
	"github.com/spec-kit/helpdesk-bot/internal/ledger"
	"github.com/spec-kit/helpdesk-bot/internal/store"
)

// AuditService mirrors lifecycle events into the configured logs channel
// and into structured logs. Every channel post is best-effort.
type AuditService struct {
	dispatcher events.Dispatcher
	store      store.Store
	gateway    chat.Gateway
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, docStore store.Store, gateway chat.Gateway, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		store:      docStore,
		gateway:    gateway,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleTicketCreated)
	a.dispatcher.Subscribe(events.EventCompletionFlagged, a.handleCompletionFlagged)
	a.dispatcher.Subscribe(events.EventTicketCompleted, a.handleTicketCompleted)
	a.dispatcher.Subscribe(events.EventTicketCanceled, a.handleTicketCanceled)
}

func (a *AuditService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	a.logger.Info("TicketCreated",
		zap.Int("ticket_number", event.TicketNumber),
		zap.String("category", string(payload.Category)),
		zap.String("creator_id", payload.CreatorID))

	fields := []chat.EmbedField{
		{Name: "Ticket Number", Value: fmt.Sprintf("#%d", event.TicketNumber), Inline: true},
		{Name: "Category", Value: string(payload.Category), Inline: true},
		{Name: "Created By", Value: chat.MentionUser(payload.CreatorID), Inline: true},
		{Name: "Channel", Value: chat.MentionChannel(event.ChannelID)},
	}
	for _, field := range payload.Fields {
		fields = append(fields, chat.EmbedField{Name: field.Name, Value: field.Value})
	}
	a.postToLogs(ctx, chat.Embed{
		Title:     "Ticket Created",
		Fields:    fields,
		Timestamp: time.Now(),
	})
	return nil
}

func (a *AuditService) handleCompletionFlagged(ctx context.Context, event events.Event) error {
	// No state change happened; keep the log so repeated flags are visible.
	a.logger.Info("CompletionFlagged",
		zap.Int("ticket_number", event.TicketNumber),
		zap.String("channel_id", event.ChannelID),
		zap.String("actor_id", event.ActorID))
	return nil
}

func (a *AuditService) handleTicketCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCompletedPayload)
	if !ok {
		return nil
	}
	a.logger.Info("TicketCompleted",
		zap.Int("ticket_number", event.TicketNumber),
		zap.String("category", string(payload.Category)),
		zap.Strings("helpers", payload.Helpers),
		zap.Int("points_per_helper", payload.PointsPerHelper),
		zap.Int("total_points", payload.TotalPoints))

	a.postToLogs(ctx, chat.Embed{
		Title: "Ticket Completed",
		Fields: []chat.EmbedField{
			{Name: "Ticket Number", Value: fmt.Sprintf("#%d", event.TicketNumber), Inline: true},
			{Name: "Category", Value: string(payload.Category), Inline: true},
			{Name: "Created By", Value: chat.MentionUser(payload.CreatorID), Inline: true},
			{Name: "Completed By", Value: chat.MentionUser(payload.CompletedBy), Inline: true},
			{Name: "Helpers Mentioned", Value: chat.MentionUsers(payload.Helpers)},
			{Name: "Points Awarded", Value: fmt.Sprintf("%s per helper (%d total)",
				ledger.FormatPoints(payload.PointsPerHelper), payload.TotalPoints)},
		},
		Timestamp: time.Now(),
	})
	return nil
}

func (a *AuditService) handleTicketCanceled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCanceledPayload)
	if !ok {
		return nil
	}
	a.logger.Info("TicketCanceled",
		zap.Int("ticket_number", event.TicketNumber),
		zap.String("category", string(payload.Category)),
		zap.String("canceled_by", payload.CanceledBy))

	a.postToLogs(ctx, chat.Embed{
		Title: "Ticket Canceled",
		Fields: []chat.EmbedField{
			{Name: "Ticket Number", Value: fmt.Sprintf("#%d", event.TicketNumber), Inline: true},
			{Name: "Category", Value: string(payload.Category), Inline: true},
			{Name: "Created By", Value: chat.MentionUser(payload.CreatorID), Inline: true},
			{Name: "Canceled By", Value: chat.MentionUser(payload.CanceledBy), Inline: true},
		},
		Timestamp: time.Now(),
	})
	return nil
}

func (a *AuditService) postToLogs(ctx context.Context, embed chat.Embed) {
	doc, err := a.store.Load(ctx)
	if err != nil {
		a.logger.Warn("audit log skipped; document load failed", zap.Error(err))
		return
	}
	if doc.LogsChannel == "" {
		return
	}
	if err := a.gateway.SendMessage(ctx, doc.LogsChannel, chat.Message{Embed: &embed}); err != nil {
		a.logger.Warn("audit log post failed",
			zap.String("channel_id", doc.LogsChannel),
			zap.Error(err))
	}
}
