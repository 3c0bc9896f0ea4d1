package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
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

// fakeGateway records every side effect the lifecycle requests.
type fakeGateway struct {
	mu         sync.Mutex
	channels   map[string]*chat.Channel
	roles      []chat.Role
	sent       map[string][]chat.Message
	direct     map[string][]chat.Message
	deleted    []string
	lastCreate chat.ChannelCreate
	createErr  error
	nextID     int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		channels: map[string]*chat.Channel{},
		sent:     map[string][]chat.Message{},
		direct:   map[string][]chat.Message{},
	}
}

func (g *fakeGateway) Channel(ctx context.Context, channelID string) (*chat.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	channel, ok := g.channels[channelID]
	if !ok {
		return nil, chat.ErrChannelNotFound
	}
	return channel, nil
}

func (g *fakeGateway) CreateChannel(ctx context.Context, req chat.ChannelCreate) (*chat.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	channel := &chat.Channel{
		ID:       fmt.Sprintf("chan-%d", g.nextID),
		Name:     req.Name,
		Kind:     chat.ChannelKindText,
		ParentID: req.ParentID,
	}
	g.channels[channel.ID] = channel
	g.lastCreate = req
	return channel, nil
}

func (g *fakeGateway) DeleteChannel(ctx context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channelID]; !ok {
		return chat.ErrChannelNotFound
	}
	delete(g.channels, channelID)
	g.deleted = append(g.deleted, channelID)
	return nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, channelID string, msg chat.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent[channelID] = append(g.sent[channelID], msg)
	return nil
}

func (g *fakeGateway) SendDirectMessage(ctx context.Context, userID string, msg chat.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.direct[userID] = append(g.direct[userID], msg)
	return nil
}

func (g *fakeGateway) MessagesBefore(ctx context.Context, channelID, beforeID string, limit int) ([]chat.HistoryMessage, error) {
	return nil, nil
}

func (g *fakeGateway) Roles(ctx context.Context) ([]chat.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]chat.Role(nil), g.roles...), nil
}

func (g *fakeGateway) channelDeleted(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.deleted {
		if id == channelID {
			return true
		}
	}
	return false
}

type fixture struct {
	service *Service
	gateway *fakeGateway
	store   store.Store
	events  *[]events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gw := newFakeGateway()
	docStore := store.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	logger := zap.NewNop()

	dispatcher := events.NewInMemoryDispatcher()
	var recorded []events.Event
	record := func(ctx context.Context, event events.Event) error {
		recorded = append(recorded, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventCompletionFlagged,
		events.EventTicketCompleted,
		events.EventTicketCanceled,
	} {
		dispatcher.Subscribe(eventType, record)
	}

	sched := scheduler.New()
	t.Cleanup(sched.Close)

	service := NewService(Dependencies{
		Store:      docStore,
		Gateway:    gw,
		Archiver:   transcript.NewArchiver(gw, logger),
		Dispatcher: dispatcher,
		Scheduler:  sched,
		Cache:      ledger.NewCache(nil, logger),
		Logger:     logger,
		Ticket: config.TicketConfig{
			DeleteGraceSeconds: 1,
			HelpersRoleName:    "helpers",
		},
	})

	return &fixture{service: service, gateway: gw, store: docStore, events: &recorded}
}

func (f *fixture) createTicket(t *testing.T, member gate.Member, category domain.Category) string {
	t.Helper()
	reply, err := f.service.Create(context.Background(), chat.TicketFormSubmitted{
		Member:   member,
		Category: category,
		Fields: []domain.FieldValue{
			{Name: "Room Name", Value: "lair"},
			{Name: "Description", Value: "need a hand"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !reply.Ephemeral {
		t.Error("creation reply should be ephemeral")
	}

	doc, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for channelID := range doc.ActiveTickets {
		if strings.Contains(reply.Content, chat.MentionChannel(channelID)) {
			return channelID
		}
	}
	t.Fatalf("created channel not referenced in reply %q", reply.Content)
	return ""
}

func (f *fixture) loadDoc(t *testing.T) *domain.Document {
	t.Helper()
	doc, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

var (
	creator = gate.Member{UserID: "creator"}
	admin   = gate.Member{UserID: "admin", Administrator: true}
)

func TestCreateAllocatesSequentialNumbers(t *testing.T) {
	f := newFixture(t)

	first := f.createTicket(t, creator, domain.CategorySpamming)
	second := f.createTicket(t, gate.Member{UserID: "other"}, domain.CategoryOthers)

	doc := f.loadDoc(t)
	if doc.TicketCounter != 2 {
		t.Errorf("TicketCounter = %d, want 2", doc.TicketCounter)
	}
	if got := doc.ActiveTickets[first].TicketNumber; got != 1 {
		t.Errorf("first ticket number = %d, want 1", got)
	}
	if got := doc.ActiveTickets[second].TicketNumber; got != 2 {
		t.Errorf("second ticket number = %d, want 2", got)
	}
	if name := f.gateway.channels[first].Name; name != "ticket-1" {
		t.Errorf("first channel name = %q, want ticket-1", name)
	}

	initial := f.gateway.sent[first]
	if len(initial) != 1 {
		t.Fatalf("initial messages = %d, want 1", len(initial))
	}
	if initial[0].Embed == nil || initial[0].Embed.Title != "Help Ticket #1" {
		t.Errorf("initial embed = %+v", initial[0].Embed)
	}
	if len(initial[0].Actions) != 2 {
		t.Errorf("initial actions = %v", initial[0].Actions)
	}

	var created int
	for _, event := range *f.events {
		if event.Type == events.EventTicketCreated {
			created++
		}
	}
	if created != 2 {
		t.Errorf("ticket_created events = %d, want 2", created)
	}
}

func TestFailedChannelCreationStillConsumesNumber(t *testing.T) {
	f := newFixture(t)

	f.gateway.createErr = fmt.Errorf("channel quota reached")
	if _, err := f.service.Create(context.Background(), chat.TicketFormSubmitted{
		Member:   creator,
		Category: domain.CategorySpamming,
	}); err == nil {
		t.Fatal("expected channel creation error")
	}

	doc := f.loadDoc(t)
	if doc.TicketCounter != 1 {
		t.Errorf("TicketCounter = %d after failure, want 1", doc.TicketCounter)
	}
	if len(doc.ActiveTickets) != 0 {
		t.Errorf("ActiveTickets = %v after failure, want none", doc.ActiveTickets)
	}

	f.gateway.createErr = nil
	channelID := f.createTicket(t, creator, domain.CategorySpamming)
	if got := f.loadDoc(t).ActiveTickets[channelID].TicketNumber; got != 2 {
		t.Errorf("ticket number after retry = %d, want 2", got)
	}
}

func TestCreateRestrictsChannelVisibility(t *testing.T) {
	f := newFixture(t)
	f.gateway.roles = []chat.Role{
		{ID: "r-helpers", Name: "Helpers"},
		{ID: "r-admin", Name: "Admins", Administrator: true},
		{ID: "r-mod", Name: "Mods", Moderator: true},
		{ID: "r-plain", Name: "Members"},
	}

	f.createTicket(t, creator, domain.CategorySpamming)

	overwrites := map[string]bool{}
	for _, ow := range f.gateway.lastCreate.Overwrites {
		overwrites[ow.SubjectID] = ow.AllowView
	}
	if allow, ok := overwrites[chat.EveryoneID]; !ok || allow {
		t.Error("everyone must be denied view")
	}
	for _, subject := range []string{"creator", "r-helpers", "r-admin", "r-mod"} {
		if !overwrites[subject] {
			t.Errorf("subject %s not granted view", subject)
		}
	}
	if _, ok := overwrites["r-plain"]; ok {
		t.Error("unprivileged role must not receive an overwrite")
	}
}

func TestStartCreationGated(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.Update(context.Background(), func(doc *domain.Document) error {
		doc.AllowedCreationRoles = []string{"r-create"}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.service.StartCreation(context.Background(), chat.CreateTicketPressed{Member: creator}); !apperrors.HasCode(err, "PERMISSION_DENIED") {
		t.Errorf("err = %v, want PERMISSION_DENIED", err)
	}

	allowed := gate.Member{UserID: "u2", RoleIDs: []string{"r-create"}}
	reply, err := f.service.StartCreation(context.Background(), chat.CreateTicketPressed{Member: allowed})
	if err != nil {
		t.Fatalf("StartCreation: %v", err)
	}
	if !reply.Ephemeral || reply.Content == "" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestSelectCategory(t *testing.T) {
	f := newFixture(t)

	reply, err := f.service.SelectCategory(context.Background(), chat.CategorySelected{
		Member:   creator,
		Category: domain.CategoryUltraWeeklies,
	})
	if err != nil {
		t.Fatalf("SelectCategory: %v", err)
	}
	if reply.Form == nil || len(reply.Form.Fields) != 4 {
		t.Fatalf("form = %+v", reply.Form)
	}
	last := reply.Form.Fields[len(reply.Form.Fields)-1]
	if last.Label != "Description" || !last.Multiline || last.MaxLength != 1024 {
		t.Errorf("description field = %+v", last)
	}

	if _, err := f.service.SelectCategory(context.Background(), chat.CategorySelected{
		Member:   creator,
		Category: domain.Category("bogus"),
	}); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestRequestCompletionUnprivilegedOnlyFlags(t *testing.T) {
	f := newFixture(t)
	channelID := f.createTicket(t, creator, domain.CategorySpamming)

	reply, err := f.service.RequestCompletion(context.Background(), chat.CompletePressed{
		ChannelID: channelID,
		Member:    creator,
	})
	if err != nil {
		t.Fatalf("RequestCompletion: %v", err)
	}
	if !reply.Ephemeral || !strings.Contains(reply.Content, "Waiting for Mods/Admins") {
		t.Errorf("reply = %+v", reply)
	}

	ticket := f.loadDoc(t).ActiveTickets[channelID]
	if ticket == nil || ticket.State() != domain.TicketStateOpen {
		t.Errorf("ticket state = %v, want OPEN", ticket.State())
	}

	notices := f.gateway.sent[channelID]
	if len(notices) != 2 || !strings.Contains(notices[1].Content, "Only the Mods/Admins") {
		t.Errorf("channel notices = %+v", notices)
	}

	last := (*f.events)[len(*f.events)-1]
	if last.Type != events.EventCompletionFlagged {
		t.Errorf("last event = %s, want completion_flagged", last.Type)
	}
}

func TestRequestCompletionPrivilegedPromptsForHelpers(t *testing.T) {
	f := newFixture(t)
	channelID := f.createTicket(t, creator, domain.CategorySpamming)

	reply, err := f.service.RequestCompletion(context.Background(), chat.CompletePressed{
		ChannelID: channelID,
		Member:    admin,
	})
	if err != nil {
		t.Fatalf("RequestCompletion: %v", err)
	}
	if reply.HelperSelect == nil || reply.HelperSelect.MinValues != 1 || reply.HelperSelect.MaxValues != 25 {
		t.Errorf("helper select = %+v", reply.HelperSelect)
	}
}

func TestRequestCompletionUnknownChannel(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.RequestCompletion(context.Background(), chat.CompletePressed{
		ChannelID: "no-such-channel",
		Member:    admin,
	}); !apperrors.HasCode(err, "NOT_FOUND") {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestSelectHelpersValidation(t *testing.T) {
	f := newFixture(t)
	channelID := f.createTicket(t, creator, domain.CategorySpamming)

	if _, err := f.service.SelectHelpers(context.Background(), chat.HelpersSelected{
		ChannelID: channelID,
		Member:    admin,
	}); !apperrors.HasCode(err, "EMPTY_SELECTION") {
		t.Errorf("err = %v, want EMPTY_SELECTION", err)
	}

	tooMany := make([]string, 26)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("h%d", i)
	}
	if _, err := f.service.SelectHelpers(context.Background(), chat.HelpersSelected{
		ChannelID: channelID,
		Member:    admin,
		HelperIDs: tooMany,
	}); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestSelectHelpersMarksPending(t *testing.T) {
	f := newFixture(t)
	channelID := f.createTicket(t, creator, domain.CategorySpamming)

	reply, err := f.service.SelectHelpers(context.Background(), chat.HelpersSelected{
		ChannelID: channelID,
		Member:    admin,
		HelperIDs: []string{"h1", "h2"},
	})
	if err != nil {
		t.Fatalf("SelectHelpers: %v", err)
	}
	if !strings.Contains(reply.Content, "Selected Helpers") || len(reply.Actions) != 2 {
		t.Errorf("reply = %+v", reply)
	}

	ticket := f.loadDoc(t).ActiveTickets[channelID]
	if ticket.State() != domain.TicketStatePendingCompletion {
		t.Errorf("state = %v, want PENDING_COMPLETION", ticket.State())
	}
	if ticket.CompletedBy != "admin" || len(ticket.SelectedHelpers) != 2 {
		t.Errorf("ticket = %+v", ticket)
	}
}

func TestRollbackClearsSelection(t *testing.T) {
	f := newFixture(t)
	channelID := f.createTicket(t, creator, domain.CategorySpamming)

	if _, err := f.service.SelectHelpers(context.Background(), chat.HelpersSelected{
		ChannelID: channelID,
		Member:    admin,
		HelperIDs: []string{"h1"},
	}); err != nil {
		t.Fatal(err)
	}

	reply, err := f.service.RollbackSelection(context.Background(), chat.RollbackCompletionPressed{
		ChannelID: channelID,
		Member:    admin,
	})
	if err != nil {
		t.Fatalf("RollbackSelection: %v", err)
	}
	if reply.HelperSelect == nil {
		t.Error("expected a fresh helper selection prompt")
	}

	doc := f.loadDoc(t)
	ticket := doc.ActiveTickets[channelID]
	if ticket.State() != domain.TicketStateOpen || ticket.CompletedBy != "" {
		t.Errorf("ticket after rollback = %+v", ticket)
	}
	if len(doc.HelperPoints) != 0 {
		t.Errorf("ledger after rollback = %v, want untouched", doc.HelperPoints)
	}
}

func TestConfirmCompletionAwardsAndRemoves(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.Update(context.Background(), func(doc *domain.Document) error {
		doc.CategoryPoints[domain.CategoryUltraWeeklies] = 5
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	channelID := f.createTicket(t, creator, domain.CategoryUltraWeeklies)

	if _, err := f.service.SelectHelpers(context.Background(), chat.HelpersSelected{
		ChannelID: channelID,
		Member:    admin,
		HelperIDs: []string{"h1", "h2", "h3"},
	}); err != nil {
		t.Fatal(err)
	}

	reply, err := f.service.ConfirmCompletion(context.Background(), chat.ConfirmCompletionPressed{
		ChannelID: channelID,
		Member:    admin,
	})
	if err != nil {
		t.Fatalf("ConfirmCompletion: %v", err)
	}
	if reply.Embed == nil || reply.Embed.Title != "Ticket Completed" {
		t.Errorf("reply embed = %+v", reply.Embed)
	}
	if !strings.Contains(reply.Embed.Description, "5 points each") {
		t.Errorf("description = %q", reply.Embed.Description)
	}

	doc := f.loadDoc(t)
	for _, helperID := range []string{"h1", "h2", "h3"} {
		if doc.HelperPoints[helperID] != 5 {
			t.Errorf("HelperPoints[%s] = %d, want 5", helperID, doc.HelperPoints[helperID])
		}
	}
	if _, ok := doc.ActiveTickets[channelID]; ok {
		t.Error("ticket still active after completion")
	}

	last := (*f.events)[len(*f.events)-1]
	if last.Type != events.EventTicketCompleted {
		t.Fatalf("last event = %s, want ticket_completed", last.Type)
	}
	payload, ok := last.Payload.(events.TicketCompletedPayload)
	if !ok {
		t.Fatalf("payload type = %T", last.Payload)
	}
	if payload.TotalPoints != 15 || payload.PointsPerHelper != 5 {
		t.Errorf("payload = %+v", payload)
	}

	if f.gateway.channelDeleted(channelID) {
		t.Error("channel deleted before the grace delay")
	}
	deadline := time.After(3 * time.Second)
	for !f.gateway.channelDeleted(channelID) {
		select {
		case <-deadline:
			t.Fatal("channel not deleted after grace delay")
		case <-time.After(20 * time.Millisecond):
		}
	}

	if len(f.gateway.direct["creator"]) != 1 {
		t.Errorf("creator DMs = %d, want 1 transcript", len(f.gateway.direct["creator"]))
	}

	if _, err := f.service.ConfirmCompletion(context.Background(), chat.ConfirmCompletionPressed{
		ChannelID: channelID,
		Member:    admin,
	}); !apperrors.HasCode(err, "NOT_FOUND") {
		t.Errorf("second confirm err = %v, want NOT_FOUND", err)
	}
}

func TestConfirmCompletionRequiresSelection(t *testing.T) {
	f := newFixture(t)
	channelID := f.createTicket(t, creator, domain.CategorySpamming)

	if _, err := f.service.ConfirmCompletion(context.Background(), chat.ConfirmCompletionPressed{
		ChannelID: channelID,
		Member:    admin,
	}); !apperrors.HasCode(err, "EMPTY_SELECTION") {
		t.Errorf("err = %v, want EMPTY_SELECTION", err)
	}
	if _, ok := f.loadDoc(t).ActiveTickets[channelID]; !ok {
		t.Error("ticket must survive a rejected confirmation")
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	channelID := f.createTicket(t, creator, domain.CategorySpamming)

	if _, err := f.service.Cancel(context.Background(), chat.CancelPressed{
		ChannelID: channelID,
		Member:    gate.Member{UserID: "bystander"},
	}); !apperrors.HasCode(err, "PERMISSION_DENIED") {
		t.Fatalf("bystander cancel err = %v, want PERMISSION_DENIED", err)
	}

	reply, err := f.service.Cancel(context.Background(), chat.CancelPressed{
		ChannelID: channelID,
		Member:    creator,
	})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if reply.Embed == nil || reply.Embed.Title != "Ticket Canceled" {
		t.Errorf("reply embed = %+v", reply.Embed)
	}

	doc := f.loadDoc(t)
	if _, ok := doc.ActiveTickets[channelID]; ok {
		t.Error("ticket still active after cancel")
	}
	if len(doc.HelperPoints) != 0 {
		t.Errorf("ledger after cancel = %v, want untouched", doc.HelperPoints)
	}

	last := (*f.events)[len(*f.events)-1]
	if last.Type != events.EventTicketCanceled {
		t.Errorf("last event = %s, want ticket_canceled", last.Type)
	}
}
