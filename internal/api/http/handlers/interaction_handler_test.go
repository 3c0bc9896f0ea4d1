package handlers

import (
	"testing"

	"github.com/spec-kit/helpdesk-bot/internal/api/dto"
	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

func TestDecodeInteraction(t *testing.T) {
	member := dto.InteractionMember{UserID: "u1", RoleIDs: []string{"r1"}, Administrator: true}

	tests := []struct {
		name string
		req  dto.InteractionRequest
		want string
	}{
		{
			name: "create ticket",
			req:  dto.InteractionRequest{Type: dto.InteractionCreateTicket, Member: member},
			want: "create_ticket_pressed",
		},
		{
			name: "category selection",
			req: dto.InteractionRequest{
				Type:     dto.InteractionTicketCategory,
				Member:   member,
				Category: string(domain.CategorySpamming),
			},
			want: "category_selected",
		},
		{
			name: "form submission",
			req: dto.InteractionRequest{
				Type:     dto.InteractionTicketForm,
				Member:   member,
				Category: string(domain.CategoryOthers),
				Fields:   []dto.InteractionField{{Name: "Room Name", Value: "lair"}},
			},
			want: "ticket_form_submitted",
		},
		{
			name: "complete pressed",
			req:  dto.InteractionRequest{Type: dto.InteractionCompleteTicket, ChannelID: "c1", Member: member},
			want: "complete_pressed",
		},
		{
			name: "cancel pressed",
			req:  dto.InteractionRequest{Type: dto.InteractionCancelTicket, ChannelID: "c1", Member: member},
			want: "cancel_pressed",
		},
		{
			name: "helpers selected",
			req: dto.InteractionRequest{
				Type:      dto.InteractionSelectHelpers,
				ChannelID: "c1",
				Member:    member,
				HelperIDs: []string{"h1", "h2"},
			},
			want: "helpers_selected",
		},
		{
			name: "confirm completion",
			req:  dto.InteractionRequest{Type: dto.InteractionConfirmCompletion, ChannelID: "c1", Member: member},
			want: "confirm_completion_pressed",
		},
		{
			name: "rollback completion",
			req:  dto.InteractionRequest{Type: dto.InteractionRollbackCompletion, ChannelID: "c1", Member: member},
			want: "rollback_completion_pressed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := decodeInteraction(tt.req)
			if err != nil {
				t.Fatalf("decodeInteraction: %v", err)
			}
			if in.Kind() != tt.want {
				t.Errorf("Kind() = %q, want %q", in.Kind(), tt.want)
			}
		})
	}
}

func TestDecodeInteractionCarriesPayload(t *testing.T) {
	in, err := decodeInteraction(dto.InteractionRequest{
		Type:      dto.InteractionSelectHelpers,
		ChannelID: "chan-9",
		Member:    dto.InteractionMember{UserID: "admin", Administrator: true},
		HelperIDs: []string{"h1", "h2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	selected, ok := in.(chat.HelpersSelected)
	if !ok {
		t.Fatalf("variant = %T", in)
	}
	if selected.ChannelID != "chan-9" || len(selected.HelperIDs) != 2 {
		t.Errorf("variant = %+v", selected)
	}
	if !selected.Member.Administrator || selected.Member.UserID != "admin" {
		t.Errorf("member = %+v", selected.Member)
	}
}

func TestDecodeInteractionUnknownType(t *testing.T) {
	_, err := decodeInteraction(dto.InteractionRequest{
		Type:   "open_ticket",
		Member: dto.InteractionMember{UserID: "u1"},
	})
	if !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestEncodeReply(t *testing.T) {
	reply := &chat.Reply{
		Message: chat.Message{
			Content: "Please select the type of help you need:",
			Actions: []chat.Action{{Kind: chat.ActionCompleteTicket, Label: "Complete Ticket"}},
			HelperSelect: &chat.HelperSelect{MinValues: 1, MaxValues: 25},
		},
		Ephemeral: true,
		Form: &chat.Form{
			Title:  "Spamming - Help Request",
			Fields: []chat.FormField{{Label: "Description", Multiline: true, MaxLength: 1024}},
		},
	}

	out := encodeReply(reply)
	if out == nil || !out.Ephemeral {
		t.Fatalf("encoded = %+v", out)
	}
	if out.Content != reply.Content {
		t.Errorf("content = %q", out.Content)
	}
	if len(out.Actions) != 1 || out.Actions[0].Kind != "complete_ticket" {
		t.Errorf("actions = %v", out.Actions)
	}
	if out.HelperSelect == nil || out.HelperSelect.MaxValues != 25 {
		t.Errorf("helper select = %+v", out.HelperSelect)
	}
	if out.Form == nil || len(out.Form.Fields) != 1 || !out.Form.Fields[0].Multiline {
		t.Errorf("form = %+v", out.Form)
	}

	if got := encodeReply(nil); got != nil {
		t.Errorf("encodeReply(nil) = %+v, want nil", got)
	}
}
