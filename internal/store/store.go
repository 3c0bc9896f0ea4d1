package store

import (
	"context"

	"github.com/spec-kit/helpdesk-bot/internal/domain"
)

// Store persists the single Document aggregate. Load backfills defaults for
// missing fields so older files and rows stay readable. Save overwrites the
// whole document. Update is the only path mutations should take: it runs fn
// against the current document and commits the result atomically, so two
// concurrent read-modify-write cycles cannot lose each other's writes.
type Store interface {
	Load(ctx context.Context) (*domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
	Update(ctx context.Context, fn func(doc *domain.Document) error) (*domain.Document, error)
}
