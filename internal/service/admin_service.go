package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-bot/internal/domain"
	"github.com/spec-kit/helpdesk-bot/internal/ledger"
	"github.com/spec-kit/helpdesk-bot/internal/store"
	apperrors "github.com/spec-kit/helpdesk-bot/pkg/util"
)

// AdminService implements the administrative configuration commands. Every
// operation is a thin document mutation through the store.
type AdminService struct {
	store  store.Store
	cache  *ledger.Cache
	logger *zap.Logger
}

// NewAdminService creates the service.
func NewAdminService(docStore store.Store, cache *ledger.Cache, logger *zap.Logger) *AdminService {
	return &AdminService{store: docStore, cache: cache, logger: logger}
}

// SetCategoryPoints sets the point weight for a category.
func (s *AdminService) SetCategoryPoints(ctx context.Context, category domain.Category, points int) error {
	if !category.IsValid() {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": string(category)})
	}
	if points < 1 {
		return apperrors.NewValidationError("points must be at least 1", nil)
	}
	_, err := s.store.Update(ctx, func(doc *domain.Document) error {
		doc.CategoryPoints[category] = points
		return nil
	})
	return err
}

// SetCategoryChannel routes a category's tickets under the given channel.
func (s *AdminService) SetCategoryChannel(ctx context.Context, category domain.Category, channelID string) error {
	if !category.IsValid() {
		return apperrors.NewValidationError("unknown category", map[string]any{"category": string(category)})
	}
	if channelID == "" {
		return apperrors.NewValidationError("channel_id required", nil)
	}
	_, err := s.store.Update(ctx, func(doc *domain.Document) error {
		doc.TicketChannels[category] = channelID
		return nil
	})
	return err
}

// SetLogsChannel sets the audit output channel.
func (s *AdminService) SetLogsChannel(ctx context.Context, channelID string) error {
	if channelID == "" {
		return apperrors.NewValidationError("channel_id required", nil)
	}
	_, err := s.store.Update(ctx, func(doc *domain.Document) error {
		doc.LogsChannel = channelID
		return nil
	})
	return err
}

// AddCompletionRole appends a role to the completion allow-list.
func (s *AdminService) AddCompletionRole(ctx context.Context, roleID string) error {
	return s.addRole(ctx, roleID, func(doc *domain.Document) (*[]string, bool) {
		return &doc.AllowedCompletionRoles, doc.HasCompletionRole(roleID)
	})
}

// AddCreationRole appends a role to the creation allow-list.
func (s *AdminService) AddCreationRole(ctx context.Context, roleID string) error {
	return s.addRole(ctx, roleID, func(doc *domain.Document) (*[]string, bool) {
		return &doc.AllowedCreationRoles, doc.HasCreationRole(roleID)
	})
}

func (s *AdminService) addRole(ctx context.Context, roleID string, pick func(doc *domain.Document) (*[]string, bool)) error {
	if roleID == "" {
		return apperrors.NewValidationError("role_id required", nil)
	}
	_, err := s.store.Update(ctx, func(doc *domain.Document) error {
		list, exists := pick(doc)
		if exists {
			return apperrors.NewConflict("role already in allow-list", map[string]any{"role_id": roleID})
		}
		*list = append(*list, roleID)
		return nil
	})
	return err
}

// ResetLeaderboard clears every ledger entry.
func (s *AdminService) ResetLeaderboard(ctx context.Context) error {
	doc, err := s.store.Update(ctx, func(doc *domain.Document) error {
		ledger.Reset(doc)
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Refresh(ctx, ledger.Leaderboard(doc))
	s.logger.Info("leaderboard reset")
	return nil
}

// Leaderboard returns the top n entries, served from the cache when warm.
func (s *AdminService) Leaderboard(ctx context.Context, n int) ([]ledger.Entry, error) {
	if n <= 0 {
		n = 10
	}
	if entries, ok := s.cache.Top(ctx, n); ok {
		return entries, nil
	}
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	entries := ledger.Top(doc, n)
	s.cache.Refresh(ctx, ledger.Leaderboard(doc))
	return entries, nil
}
