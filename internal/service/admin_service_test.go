package service

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-bot/internal/domain"
	"github.com/spec-kit/helpdesk-bot/internal/ledger"
	"github.com/spec-kit/helpdesk-bot/internal/store"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

func newAdminFixture(t *testing.T) (*AdminService, store.Store) {
	t.Helper()
	docStore := store.NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	logger := zap.NewNop()
	return NewAdminService(docStore, ledger.NewCache(nil, logger), logger), docStore
}

func TestSetCategoryPoints(t *testing.T) {
	admin, docStore := newAdminFixture(t)
	ctx := context.Background()

	if err := admin.SetCategoryPoints(ctx, domain.CategoryUltraWeeklies, 5); err != nil {
		t.Fatalf("SetCategoryPoints: %v", err)
	}
	doc, err := docStore.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.CategoryPoints[domain.CategoryUltraWeeklies] != 5 {
		t.Errorf("weight = %d, want 5", doc.CategoryPoints[domain.CategoryUltraWeeklies])
	}

	if err := admin.SetCategoryPoints(ctx, domain.Category("bogus"), 5); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("unknown category err = %v", err)
	}
	if err := admin.SetCategoryPoints(ctx, domain.CategoryOthers, 0); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("zero points err = %v", err)
	}
}

func TestSetCategoryChannelAndLogsChannel(t *testing.T) {
	admin, docStore := newAdminFixture(t)
	ctx := context.Background()

	if err := admin.SetCategoryChannel(ctx, domain.CategorySpamming, "cat-1"); err != nil {
		t.Fatalf("SetCategoryChannel: %v", err)
	}
	if err := admin.SetLogsChannel(ctx, "logs-1"); err != nil {
		t.Fatalf("SetLogsChannel: %v", err)
	}

	doc, err := docStore.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if doc.TicketChannels[domain.CategorySpamming] != "cat-1" {
		t.Errorf("TicketChannels = %v", doc.TicketChannels)
	}
	if doc.LogsChannel != "logs-1" {
		t.Errorf("LogsChannel = %q", doc.LogsChannel)
	}

	if err := admin.SetCategoryChannel(ctx, domain.CategorySpamming, ""); !apperrors.HasCode(err, "VALIDATION_FAILED") {
		t.Errorf("empty channel err = %v", err)
	}
}

func TestAddRoleRejectsDuplicates(t *testing.T) {
	admin, docStore := newAdminFixture(t)
	ctx := context.Background()

	if err := admin.AddCompletionRole(ctx, "r-mod"); err != nil {
		t.Fatalf("AddCompletionRole: %v", err)
	}
	if err := admin.AddCompletionRole(ctx, "r-mod"); !apperrors.HasCode(err, "CONFLICT") {
		t.Errorf("duplicate err = %v, want CONFLICT", err)
	}
	if err := admin.AddCreationRole(ctx, "r-mod"); err != nil {
		t.Errorf("same role in the other list should be allowed: %v", err)
	}

	doc, err := docStore.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.AllowedCompletionRoles) != 1 || len(doc.AllowedCreationRoles) != 1 {
		t.Errorf("allow-lists = %v / %v", doc.AllowedCompletionRoles, doc.AllowedCreationRoles)
	}
}

func TestResetLeaderboard(t *testing.T) {
	admin, docStore := newAdminFixture(t)
	ctx := context.Background()

	if _, err := docStore.Update(ctx, func(doc *domain.Document) error {
		doc.HelperPoints["h1"] = 12
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := admin.ResetLeaderboard(ctx); err != nil {
		t.Fatalf("ResetLeaderboard: %v", err)
	}
	doc, err := docStore.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.HelperPoints) != 0 {
		t.Errorf("HelperPoints = %v, want empty", doc.HelperPoints)
	}
}

func TestLeaderboardFallsBackToStore(t *testing.T) {
	admin, docStore := newAdminFixture(t)
	ctx := context.Background()

	if _, err := docStore.Update(ctx, func(doc *domain.Document) error {
		doc.HelperPoints = map[string]int{"h1": 3, "h2": 9, "h3": 1}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	entries, err := admin.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %v, want 2", entries)
	}
	if entries[0].HelperID != "h2" || entries[0].Points != 9 {
		t.Errorf("entries[0] = %v, want {h2 9}", entries[0])
	}
	if entries[1].HelperID != "h1" || entries[1].Points != 3 {
		t.Errorf("entries[1] = %v, want {h1 3}", entries[1])
	}
}
