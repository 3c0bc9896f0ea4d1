package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-bot/internal/api/dto"
	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/domain"
	"github.com/spec-kit/helpdesk-bot/internal/gate"
	"github.com/spec-kit/helpdesk-bot/internal/lifecycle"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// InteractionHandler accepts interaction events posted by the platform
// connector and returns the reply it should render. Wire discriminators are
// mapped onto the closed variant set here, at the edge.
type InteractionHandler struct {
	dispatcher *lifecycle.Dispatcher
}

// NewInteractionHandler constructs handler.
func NewInteractionHandler(dispatcher *lifecycle.Dispatcher) *InteractionHandler {
	return &InteractionHandler{dispatcher: dispatcher}
}

// Handle POST /interactions.
func (h *InteractionHandler) Handle(c *fiber.Ctx) error {
	var req dto.InteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Member.UserID == "" {
		return apperrors.NewValidationError("member.user_id is required", nil)
	}

	in, err := decodeInteraction(req)
	if err != nil {
		return err
	}

	reply, err := h.dispatcher.Dispatch(c.Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": encodeReply(reply)})
}

func decodeInteraction(req dto.InteractionRequest) (chat.Interaction, error) {
	member := gate.Member{
		UserID:        req.Member.UserID,
		RoleIDs:       req.Member.RoleIDs,
		Administrator: req.Member.Administrator,
	}

	switch req.Type {
	case dto.InteractionCreateTicket:
		return chat.CreateTicketPressed{Member: member}, nil
	case dto.InteractionTicketCategory:
		return chat.CategorySelected{Member: member, Category: domain.Category(req.Category)}, nil
	case dto.InteractionTicketForm:
		fields := make([]domain.FieldValue, 0, len(req.Fields))
		for _, f := range req.Fields {
			fields = append(fields, domain.FieldValue{Name: f.Name, Value: f.Value})
		}
		return chat.TicketFormSubmitted{Member: member, Category: domain.Category(req.Category), Fields: fields}, nil
	case dto.InteractionCompleteTicket:
		return chat.CompletePressed{ChannelID: req.ChannelID, Member: member}, nil
	case dto.InteractionCancelTicket:
		return chat.CancelPressed{ChannelID: req.ChannelID, Member: member}, nil
	case dto.InteractionSelectHelpers:
		return chat.HelpersSelected{ChannelID: req.ChannelID, Member: member, HelperIDs: req.HelperIDs}, nil
	case dto.InteractionConfirmCompletion:
		return chat.ConfirmCompletionPressed{ChannelID: req.ChannelID, Member: member}, nil
	case dto.InteractionRollbackCompletion:
		return chat.RollbackCompletionPressed{ChannelID: req.ChannelID, Member: member}, nil
	default:
		return nil, apperrors.NewValidationError("unknown interaction type", map[string]any{"type": req.Type})
	}
}

func encodeReply(reply *chat.Reply) *dto.InteractionReply {
	if reply == nil {
		return nil
	}
	out := &dto.InteractionReply{
		Ephemeral: reply.Ephemeral,
		Content:   reply.Content,
	}
	if reply.Embed != nil {
		embed := &dto.ReplyEmbed{
			Title:       reply.Embed.Title,
			Description: reply.Embed.Description,
		}
		for _, f := range reply.Embed.Fields {
			embed.Fields = append(embed.Fields, dto.ReplyEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		out.Embed = embed
	}
	for _, action := range reply.Actions {
		out.Actions = append(out.Actions, dto.ReplyAction{Kind: string(action.Kind), Label: action.Label})
	}
	if reply.HelperSelect != nil {
		out.HelperSelect = &dto.ReplyHelperSelect{
			MinValues: reply.HelperSelect.MinValues,
			MaxValues: reply.HelperSelect.MaxValues,
		}
	}
	if reply.Form != nil {
		form := &dto.ReplyForm{Title: reply.Form.Title}
		for _, f := range reply.Form.Fields {
			form.Fields = append(form.Fields, dto.ReplyFormField{Label: f.Label, Multiline: f.Multiline, MaxLength: f.MaxLength})
		}
		out.Form = form
	}
	return out
}
