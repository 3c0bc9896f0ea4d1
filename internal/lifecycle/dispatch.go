package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/observability"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// Dispatcher routes inbound interactions to lifecycle transitions. The
// variant set is closed; an unknown type is a programming error in the
// collaborator adapter, not user input.
type Dispatcher struct {
	service *Service
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(service *Service, metrics *observability.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{service: service, metrics: metrics, logger: logger}
}

// Dispatch maps one interaction to its state transition and returns the
// reply the collaborator should render.
func (d *Dispatcher) Dispatch(ctx context.Context, in chat.Interaction) (*chat.Reply, error) {
	var (
		reply *chat.Reply
		err   error
	)
	switch ev := in.(type) {
	case chat.CreateTicketPressed:
		reply, err = d.service.StartCreation(ctx, ev)
	case chat.CategorySelected:
		reply, err = d.service.SelectCategory(ctx, ev)
	case chat.TicketFormSubmitted:
		reply, err = d.service.Create(ctx, ev)
	case chat.CompletePressed:
		reply, err = d.service.RequestCompletion(ctx, ev)
	case chat.CancelPressed:
		reply, err = d.service.Cancel(ctx, ev)
	case chat.HelpersSelected:
		reply, err = d.service.SelectHelpers(ctx, ev)
	case chat.ConfirmCompletionPressed:
		reply, err = d.service.ConfirmCompletion(ctx, ev)
	case chat.RollbackCompletionPressed:
		reply, err = d.service.RollbackSelection(ctx, ev)
	default:
		err = fmt.Errorf("unhandled interaction type %T", in)
	}

	outcome := "ok"
	if err != nil {
		outcome = apperrors.ToDomainError(err).Code
		d.logger.Warn("interaction rejected",
			zap.String("kind", in.Kind()),
			zap.String("code", outcome),
			zap.Error(err))
	}
	d.metrics.RecordInteraction(in.Kind(), outcome)
	return reply, err
}
