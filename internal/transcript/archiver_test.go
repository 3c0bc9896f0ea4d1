package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-bot/internal/chat"
	"github.com/spec-kit/helpdesk-bot/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// historyGateway serves a fixed chronological history in newest-first pages,
// the way the platform paginates.
type historyGateway struct {
	channel   *chat.Channel
	history   []chat.HistoryMessage
	pageCalls int
	pageErr   error

	sent   map[string][]chat.Message
	direct map[string][]chat.Message
}

func newHistoryGateway(channel *chat.Channel, count int) *historyGateway {
	g := &historyGateway{
		channel: channel,
		sent:    map[string][]chat.Message{},
		direct:  map[string][]chat.Message{},
	}
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		g.history = append(g.history, chat.HistoryMessage{
			ID:        fmt.Sprintf("m%04d", i),
			AuthorID:  "u1",
			AuthorTag: "user#0001",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Content:   fmt.Sprintf("message %d", i),
		})
	}
	return g
}

func (g *historyGateway) Channel(ctx context.Context, channelID string) (*chat.Channel, error) {
	if g.channel == nil {
		return nil, chat.ErrChannelNotFound
	}
	return g.channel, nil
}

func (g *historyGateway) CreateChannel(ctx context.Context, req chat.ChannelCreate) (*chat.Channel, error) {
	return nil, errors.New("not supported")
}

func (g *historyGateway) DeleteChannel(ctx context.Context, channelID string) error {
	return errors.New("not supported")
}

func (g *historyGateway) SendMessage(ctx context.Context, channelID string, msg chat.Message) error {
	g.sent[channelID] = append(g.sent[channelID], msg)
	return nil
}

func (g *historyGateway) SendDirectMessage(ctx context.Context, userID string, msg chat.Message) error {
	g.direct[userID] = append(g.direct[userID], msg)
	return nil
}

func (g *historyGateway) MessagesBefore(ctx context.Context, channelID, beforeID string, limit int) ([]chat.HistoryMessage, error) {
	g.pageCalls++
	if g.pageErr != nil {
		return nil, g.pageErr
	}

	end := len(g.history)
	if beforeID != "" {
		end = 0
		for i, msg := range g.history {
			if msg.ID == beforeID {
				end = i
				break
			}
		}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	page := make([]chat.HistoryMessage, 0, end-start)
	for i := end - 1; i >= start; i-- {
		page = append(page, g.history[i])
	}
	return page, nil
}

func (g *historyGateway) Roles(ctx context.Context) ([]chat.Role, error) {
	return nil, nil
}

func TestGenerateOrdersChronologically(t *testing.T) {
	channel := &chat.Channel{ID: "chan-1", Name: "ticket-4"}
	gw := newHistoryGateway(channel, 5)
	a := NewArchiver(gw, zap.NewNop())

	out, err := a.Generate(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(out, "Ticket Transcript - ticket-4\n") {
		t.Errorf("missing header, got %q", out[:40])
	}
	if !strings.Contains(out, "Channel ID: chan-1\n") {
		t.Error("missing channel id line")
	}
	last := -1
	for i := 0; i < 5; i++ {
		idx := strings.Index(out, fmt.Sprintf("message %d", i))
		if idx < 0 {
			t.Fatalf("message %d missing from transcript", i)
		}
		if idx < last {
			t.Fatalf("message %d appears before its predecessor", i)
		}
		last = idx
	}
}

func TestGeneratePaginatesBackward(t *testing.T) {
	tests := []struct {
		name      string
		messages  int
		wantCalls int
	}{
		{"empty channel", 0, 1},
		{"single short page", 42, 1},
		{"exactly one full page", 100, 2},
		{"several pages", 250, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newHistoryGateway(&chat.Channel{ID: "chan-1", Name: "ticket-9"}, tt.messages)
			a := NewArchiver(gw, zap.NewNop())

			out, err := a.Generate(context.Background(), "chan-1")
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if gw.pageCalls != tt.wantCalls {
				t.Errorf("page fetches = %d, want %d", gw.pageCalls, tt.wantCalls)
			}
			if got := strings.Count(out, "user#0001"); got != tt.messages {
				t.Errorf("rendered %d messages, want %d", got, tt.messages)
			}
		})
	}
}

func TestGenerateFailsClosed(t *testing.T) {
	gw := newHistoryGateway(&chat.Channel{ID: "chan-1", Name: "ticket-2"}, 10)
	gw.pageErr = errors.New("history unavailable")
	a := NewArchiver(gw, zap.NewNop())

	out, err := a.Generate(context.Background(), "chan-1")
	if err == nil {
		t.Fatal("expected error when a page fetch fails")
	}
	if !apperrors.HasCode(err, "ARCHIVE_FAILURE") {
		t.Errorf("error code = %v, want ARCHIVE_FAILURE", err)
	}
	if out != "" {
		t.Errorf("expected no partial transcript, got %d bytes", len(out))
	}
}

func TestGenerateRendersEmbedsAndAttachments(t *testing.T) {
	gw := newHistoryGateway(&chat.Channel{ID: "chan-1", Name: "ticket-3"}, 0)
	gw.history = []chat.HistoryMessage{{
		ID:        "m1",
		AuthorID:  "u2",
		AuthorTag: "helper#0002",
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Embeds: []chat.Embed{{
			Title:       "Help Ticket #3",
			Description: "details",
			Fields:      []chat.EmbedField{{Name: "Category", Value: "Spamming"}},
		}},
		Attachments: []chat.AttachmentRef{{Name: "proof.png", URL: "https://cdn.example/proof.png"}},
	}}
	a := NewArchiver(gw, zap.NewNop())

	out, err := a.Generate(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{
		"[Embeds: 1]",
		"Title: Help Ticket #3",
		"Category: Spamming",
		"[Attachments: 1]",
		"- proof.png (https://cdn.example/proof.png)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestDeliver(t *testing.T) {
	gw := newHistoryGateway(&chat.Channel{ID: "chan-1", Name: "ticket-6"}, 0)
	a := NewArchiver(gw, zap.NewNop())
	ticket := &domain.Ticket{TicketNumber: 6, UserID: "creator"}

	a.Deliver(context.Background(), ticket, "logs-chan", "completed", "body")

	dms := gw.direct["creator"]
	if len(dms) != 1 {
		t.Fatalf("creator DMs = %d, want 1", len(dms))
	}
	if want := "Here is the transcript for your completed ticket #6:"; dms[0].Content != want {
		t.Errorf("DM content = %q, want %q", dms[0].Content, want)
	}
	if dms[0].Attachment == nil || dms[0].Attachment.Name != "ticket-6-transcript.txt" {
		t.Errorf("DM attachment = %+v", dms[0].Attachment)
	}

	uploads := gw.sent["logs-chan"]
	if len(uploads) != 1 {
		t.Fatalf("logs uploads = %d, want 1", len(uploads))
	}
	if want := "Transcript for completed ticket #6:"; uploads[0].Content != want {
		t.Errorf("logs content = %q, want %q", uploads[0].Content, want)
	}
}

func TestDeliverSkipsLogsWhenUnset(t *testing.T) {
	gw := newHistoryGateway(&chat.Channel{ID: "chan-1", Name: "ticket-6"}, 0)
	a := NewArchiver(gw, zap.NewNop())
	ticket := &domain.Ticket{TicketNumber: 6, UserID: "creator"}

	a.Deliver(context.Background(), ticket, "", "canceled", "body")

	if len(gw.sent) != 0 {
		t.Errorf("expected no channel uploads, got %v", gw.sent)
	}
	if len(gw.direct["creator"]) != 1 {
		t.Error("expected creator DM even without logs channel")
	}
}
