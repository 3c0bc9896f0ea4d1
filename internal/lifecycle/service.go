package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/config"
	"github.com/spec-kit/helpdesk-bot/internal/domain"
	"github.com/spec-kit/helpdesk-bot/internal/events"
	"github.com/spec-kit/helpdesk-bot/internal/gate"
	"github.com/spec-kit/helpdesk-bot/internal/ledger"
	"github.com/spec-kit/helpdesk-bot/internal/scheduler"
	"github.com/spec-kit/helpdesk-bot/internal/store"
	"github.com/spec-kit/helpdesk-bot/internal/transcript"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// Helper selection bounds for the completion flow.
const (
	minHelpers = 1
	maxHelpers = 25
)

const helperSelectPrompt = "Please select the helper(s) who resolved this ticket:"

// Service coordinates the ticket lifecycle state machine.
type Service struct {
	store      store.Store
	gateway    chat.Gateway
	archiver   *transcript.Archiver
	dispatcher events.Dispatcher
	scheduler  *scheduler.Scheduler
	cache      *ledger.Cache
	logger     *zap.Logger
	cfg        config.TicketConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Dependencies bundles collaborators for the lifecycle service.
type Dependencies struct {
	Store      store.Store
	Gateway    chat.Gateway
	Archiver   *transcript.Archiver
	Dispatcher events.Dispatcher
	Scheduler  *scheduler.Scheduler
	Cache      *ledger.Cache
	Logger     *zap.Logger
	Ticket     config.TicketConfig
}

// NewService constructs the service.
func NewService(deps Dependencies) *Service {
	return &Service{
		store:      deps.Store,
		gateway:    deps.Gateway,
		archiver:   deps.Archiver,
		dispatcher: deps.Dispatcher,
		scheduler:  deps.Scheduler,
		cache:      deps.Cache,
		logger:     deps.Logger,
		cfg:        deps.Ticket,
		locks:      make(map[string]*sync.Mutex),
	}
}

// channelLock serializes operations for one ticket channel. Two
// near-simultaneous confirmations for the same channel must not both award
// points.
func (s *Service) channelLock(channelID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[channelID] = lock
	}
	return lock
}

// StartCreation handles the panel trigger: it gates creation and asks the
// collaborator to prompt for a category.
func (s *Service) StartCreation(ctx context.Context, in chat.CreateTicketPressed) (*chat.Reply, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !gate.CanCreate(in.Member, doc) {
		return nil, apperrors.NewPermissionDenied("you do not have permission to create tickets")
	}
	return &chat.Reply{
		Message:   chat.Message{Content: "Please select the type of help you need:"},
		Ephemeral: true,
	}, nil
}

// SelectCategory validates the chosen category and requests its form.
func (s *Service) SelectCategory(ctx context.Context, in chat.CategorySelected) (*chat.Reply, error) {
	if !in.Category.IsValid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": string(in.Category)})
	}
	form, err := FormFor(in.Category)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	return &chat.Reply{Ephemeral: true, Form: form}, nil
}

// Create runs the NONE -> OPEN transition: allocate a ticket number, create
// the dedicated channel, post the initial message and persist the ticket.
func (s *Service) Create(ctx context.Context, in chat.TicketFormSubmitted) (*chat.Reply, error) {
	if !in.Category.IsValid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": string(in.Category)})
	}

	// The counter commit stands alone so a failed channel creation can
	// never reuse a number.
	var ticketNumber int
	doc, err := s.store.Update(ctx, func(doc *domain.Document) error {
		doc.TicketCounter++
		ticketNumber = doc.TicketCounter
		return nil
	})
	if err != nil {
		return nil, err
	}

	roles, err := s.gateway.Roles(ctx)
	if err != nil {
		return nil, err
	}
	helpersRole := s.findHelpersRole(roles)

	channel, err := s.gateway.CreateChannel(ctx, chat.ChannelCreate{
		Name:       fmt.Sprintf("ticket-%d", ticketNumber),
		ParentID:   s.resolveParent(ctx, doc, in.Category),
		Overwrites: buildOverwrites(in.Member.UserID, helpersRole, roles, doc),
	})
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		TicketNumber: ticketNumber,
		UserID:       in.Member.UserID,
		Category:     in.Category,
		Fields:       in.Fields,
	}

	if err := s.gateway.SendMessage(ctx, channel.ID, initialTicketMessage(ticket, helpersRole, doc)); err != nil {
		return nil, err
	}

	if _, err := s.store.Update(ctx, func(doc *domain.Document) error {
		doc.ActiveTickets[channel.ID] = ticket
		return nil
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketNumber: ticketNumber,
		ChannelID:    channel.ID,
		ActorID:      in.Member.UserID,
		Payload: events.TicketCreatedPayload{
			Category:  in.Category,
			CreatorID: in.Member.UserID,
			Fields:    in.Fields,
		},
	})

	return &chat.Reply{
		Message:   chat.Message{Content: fmt.Sprintf("Ticket created! Check %s", chat.MentionChannel(channel.ID))},
		Ephemeral: true,
	}, nil
}

// RequestCompletion handles the "complete" affordance. A privileged actor is
// prompted for helpers; anyone else only flags the ticket, leaving its state
// untouched.
func (s *Service) RequestCompletion(ctx context.Context, in chat.CompletePressed) (*chat.Reply, error) {
	lock := s.channelLock(in.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	ticket, ok := doc.ActiveTickets[in.ChannelID]
	if !ok {
		return nil, apperrors.NewTicketNotFound(in.ChannelID)
	}

	if !gate.CanComplete(in.Member, doc) {
		notice := chat.Message{Content: "Ticket marked complete. Only the Mods/Admins can finalize this ticket."}
		if err := s.gateway.SendMessage(ctx, in.ChannelID, notice); err != nil {
			s.logger.Warn("completion flag notice failed", zap.String("channel_id", in.ChannelID), zap.Error(err))
		}
		s.publish(ctx, events.Event{
			Type:         events.EventCompletionFlagged,
			TicketNumber: ticket.TicketNumber,
			ChannelID:    in.ChannelID,
			ActorID:      in.Member.UserID,
			Payload:      events.CompletionFlaggedPayload{Category: ticket.Category},
		})
		return &chat.Reply{
			Message:   chat.Message{Content: "Ticket marked as complete. Waiting for Mods/Admins to finalize."},
			Ephemeral: true,
		}, nil
	}

	return helperSelectReply(), nil
}

// SelectHelpers records the proposed helper list and the proposing completer
// on the ticket. Points are not awarded yet.
func (s *Service) SelectHelpers(ctx context.Context, in chat.HelpersSelected) (*chat.Reply, error) {
	if len(in.HelperIDs) < minHelpers {
		return nil, apperrors.NewEmptySelection()
	}
	if len(in.HelperIDs) > maxHelpers {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("at most %d helpers may be selected", maxHelpers), nil)
	}

	lock := s.channelLock(in.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.Update(ctx, func(doc *domain.Document) error {
		ticket, ok := doc.ActiveTickets[in.ChannelID]
		if !ok {
			return apperrors.NewTicketNotFound(in.ChannelID)
		}
		ticket.SelectedHelpers = append([]string(nil), in.HelperIDs...)
		ticket.CompletedBy = in.Member.UserID
		return nil
	}); err != nil {
		return nil, err
	}

	content := fmt.Sprintf(
		"**Selected Helpers:**\n%s\n\nPlease confirm to finalize the ticket and award points, or cancel to select different helpers.",
		chat.MentionUsers(in.HelperIDs))
	return &chat.Reply{
		Message: chat.Message{
			Content: content,
			Actions: []chat.Action{
				{Kind: chat.ActionConfirmCompletion, Label: "Confirm"},
				{Kind: chat.ActionRollbackCompletion, Label: "Cancel"},
			},
		},
		Ephemeral: true,
	}, nil
}

// RollbackSelection clears the pending helper selection and re-prompts.
// Ledger state is untouched.
func (s *Service) RollbackSelection(ctx context.Context, in chat.RollbackCompletionPressed) (*chat.Reply, error) {
	lock := s.channelLock(in.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.Update(ctx, func(doc *domain.Document) error {
		ticket, ok := doc.ActiveTickets[in.ChannelID]
		if !ok {
			return apperrors.NewTicketNotFound(in.ChannelID)
		}
		ticket.ClearSelection()
		return nil
	}); err != nil {
		return nil, err
	}

	return helperSelectReply(), nil
}

// ConfirmCompletion runs PENDING_COMPLETION -> COMPLETED: award points,
// remove the ticket, then archive, deliver and schedule channel deletion.
// The ledger and removal commit is the durable point; everything after is
// best-effort.
func (s *Service) ConfirmCompletion(ctx context.Context, in chat.ConfirmCompletionPressed) (*chat.Reply, error) {
	lock := s.channelLock(in.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	var (
		ticket          *domain.Ticket
		pointsPerHelper int
		totalPoints     int
	)
	doc, err := s.store.Update(ctx, func(doc *domain.Document) error {
		current, ok := doc.ActiveTickets[in.ChannelID]
		if !ok {
			return apperrors.NewTicketNotFound(in.ChannelID)
		}
		if len(current.SelectedHelpers) == 0 {
			return apperrors.NewEmptySelection()
		}
		ticket = current
		pointsPerHelper = ledger.Weight(doc, current.Category)
		totalPoints = ledger.Award(doc, current.SelectedHelpers, pointsPerHelper)
		delete(doc.ActiveTickets, in.ChannelID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Refresh(ctx, ledger.Leaderboard(doc))

	s.publish(ctx, events.Event{
		Type:         events.EventTicketCompleted,
		TicketNumber: ticket.TicketNumber,
		ChannelID:    in.ChannelID,
		ActorID:      in.Member.UserID,
		Payload: events.TicketCompletedPayload{
			Category:        ticket.Category,
			CreatorID:       ticket.UserID,
			CompletedBy:     ticket.CompletedBy,
			Helpers:         ticket.SelectedHelpers,
			PointsPerHelper: pointsPerHelper,
			TotalPoints:     totalPoints,
		},
	})

	s.closeChannel(ctx, in.ChannelID, ticket, doc.LogsChannel, "completed")

	description := fmt.Sprintf(
		"**Helpers awarded %s each:**\n%s\n\nGenerating transcript and closing in %d seconds...",
		ledger.FormatPoints(pointsPerHelper),
		chat.MentionUsers(ticket.SelectedHelpers),
		int(s.cfg.DeleteGrace()/time.Second))
	return &chat.Reply{
		Message: chat.Message{Embed: &chat.Embed{
			Title:       "Ticket Completed",
			Description: description,
			Timestamp:   time.Now(),
		}},
	}, nil
}

// Cancel runs OPEN/PENDING_COMPLETION -> CANCELED. The ledger is untouched.
func (s *Service) Cancel(ctx context.Context, in chat.CancelPressed) (*chat.Reply, error) {
	lock := s.channelLock(in.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	var ticket *domain.Ticket
	doc, err := s.store.Update(ctx, func(doc *domain.Document) error {
		current, ok := doc.ActiveTickets[in.ChannelID]
		if !ok {
			return apperrors.NewTicketNotFound(in.ChannelID)
		}
		if !gate.CanCancel(in.Member, current, doc) {
			return apperrors.NewPermissionDenied("only the ticket creator or moderators/admins can cancel this ticket")
		}
		ticket = current
		delete(doc.ActiveTickets, in.ChannelID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.EventTicketCanceled,
		TicketNumber: ticket.TicketNumber,
		ChannelID:    in.ChannelID,
		ActorID:      in.Member.UserID,
		Payload: events.TicketCanceledPayload{
			Category:   ticket.Category,
			CreatorID:  ticket.UserID,
			CanceledBy: in.Member.UserID,
		},
	})

	s.closeChannel(ctx, in.ChannelID, ticket, doc.LogsChannel, "canceled")

	description := fmt.Sprintf(
		"This ticket has been canceled.\n\nGenerating transcript and closing in %d seconds...",
		int(s.cfg.DeleteGrace()/time.Second))
	return &chat.Reply{
		Message: chat.Message{Embed: &chat.Embed{
			Title:       "Ticket Canceled",
			Description: description,
			Timestamp:   time.Now(),
		}},
	}, nil
}

// closeChannel archives the channel, delivers the transcript and schedules
// deletion after the grace delay. All steps are best-effort and the
// scheduled deletion is an idempotent no-op if the channel is already gone.
func (s *Service) closeChannel(ctx context.Context, channelID string, ticket *domain.Ticket, logsChannelID, closure string) {
	content, err := s.archiver.Generate(ctx, channelID)
	if err != nil {
		s.logger.Error("transcript generation failed",
			zap.String("channel_id", channelID),
			zap.Int("ticket_number", ticket.TicketNumber),
			zap.Error(err))
	} else {
		s.archiver.Deliver(ctx, ticket, logsChannelID, closure, content)
	}

	s.scheduler.Schedule(channelID, s.cfg.DeleteGrace(), func(ctx context.Context) {
		err := s.gateway.DeleteChannel(ctx, channelID)
		switch {
		case err == nil:
			s.logger.Info("ticket channel deleted", zap.String("channel_id", channelID))
		case errors.Is(err, chat.ErrChannelNotFound):
			s.logger.Debug("ticket channel already gone", zap.String("channel_id", channelID))
		default:
			s.logger.Warn("ticket channel deletion failed",
				zap.Error(apperrors.NewChannelDeletionFailure(channelID, err)))
		}
	})
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *Service) findHelpersRole(roles []chat.Role) *chat.Role {
	name := strings.ToLower(s.cfg.HelpersRoleName)
	for i := range roles {
		if strings.ToLower(roles[i].Name) == name {
			return &roles[i]
		}
	}
	return nil
}

// resolveParent maps the category's configured destination channel to the
// creation parent: a grouping category is used directly, a text channel
// contributes its own parent.
func (s *Service) resolveParent(ctx context.Context, doc *domain.Document, category domain.Category) string {
	targetID, ok := doc.TicketChannels[category]
	if !ok || targetID == "" {
		return ""
	}
	target, err := s.gateway.Channel(ctx, targetID)
	if err != nil {
		s.logger.Warn("configured ticket channel unavailable",
			zap.String("channel_id", targetID), zap.Error(err))
		return ""
	}
	if target.Kind == chat.ChannelKindCategory {
		return target.ID
	}
	return target.ParentID
}

// buildOverwrites restricts channel visibility to the creator, the helpers
// role, administrative/moderation roles and both allow-lists.
func buildOverwrites(creatorID string, helpersRole *chat.Role, roles []chat.Role, doc *domain.Document) []chat.PermissionOverwrite {
	seen := map[string]bool{}
	overwrites := []chat.PermissionOverwrite{
		{SubjectID: chat.EveryoneID, AllowView: false},
		{SubjectID: creatorID, AllowView: true},
	}
	seen[chat.EveryoneID] = true
	seen[creatorID] = true

	allow := func(subjectID string) {
		if subjectID == "" || seen[subjectID] {
			return
		}
		seen[subjectID] = true
		overwrites = append(overwrites, chat.PermissionOverwrite{SubjectID: subjectID, AllowView: true})
	}

	if helpersRole != nil {
		allow(helpersRole.ID)
	}
	for _, role := range roles {
		if role.Administrator || role.Moderator {
			allow(role.ID)
		}
	}
	known := map[string]bool{}
	for _, role := range roles {
		known[role.ID] = true
	}
	for _, roleID := range doc.AllowedCompletionRoles {
		if known[roleID] {
			allow(roleID)
		}
	}
	for _, roleID := range doc.AllowedCreationRoles {
		if known[roleID] {
			allow(roleID)
		}
	}
	return overwrites
}

func initialTicketMessage(ticket *domain.Ticket, helpersRole *chat.Role, doc *domain.Document) chat.Message {
	fields := make([]chat.EmbedField, 0, len(ticket.Fields))
	for _, field := range ticket.Fields {
		fields = append(fields, chat.EmbedField{Name: field.Name, Value: field.Value})
	}

	content := "New help request!"
	if helpersRole != nil && doc.HasCreationRole(helpersRole.ID) {
		content = fmt.Sprintf("%s - New help request!", chat.MentionRole(helpersRole.ID))
	}

	return chat.Message{
		Content: content,
		Embed: &chat.Embed{
			Title: fmt.Sprintf("Help Ticket #%d", ticket.TicketNumber),
			Description: fmt.Sprintf("**Category:** %s\n**Created by:** %s",
				ticket.Category, chat.MentionUser(ticket.UserID)),
			Fields:    fields,
			Timestamp: time.Now(),
		},
		Actions: []chat.Action{
			{Kind: chat.ActionCompleteTicket, Label: "Complete Ticket"},
			{Kind: chat.ActionCancelTicket, Label: "Cancel"},
		},
	}
}

func helperSelectReply() *chat.Reply {
	return &chat.Reply{
		Message: chat.Message{
			Content:      helperSelectPrompt,
			HelperSelect: &chat.HelperSelect{MinValues: minHelpers, MaxValues: maxHelpers},
		},
		Ephemeral: true,
	}
}
