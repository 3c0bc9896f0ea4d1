package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-bot/internal/domain"
)

// documentID is the primary key of the single document row. One community
// instance owns exactly one document.
const documentID = 1

// PostgresStore keeps the document as one jsonb row. Update locks the row
// with SELECT ... FOR UPDATE inside a transaction, which serializes
// read-modify-write cycles across processes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore instantiates the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load reads the document, creating a default-populated one on first use.
func (s *PostgresStore) Load(ctx context.Context) (*domain.Document, error) {
	const query = `SELECT body FROM helpdesk_document WHERE id=$1`

	var raw []byte
	err := s.pool.QueryRow(ctx, query, documentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		doc := domain.NewDocument()
		if err := s.Save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return decodeDocument(raw)
}

// Save performs a full overwrite of the document row.
func (s *PostgresStore) Save(ctx context.Context, doc *domain.Document) error {
	const query = `
        INSERT INTO helpdesk_document (id, body, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (id) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()`

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, documentID, raw); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Update runs fn against the current document under a row lock and commits
// the result in the same transaction.
func (s *PostgresStore) Update(ctx context.Context, fn func(doc *domain.Document) error) (*domain.Document, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var raw []byte
	var doc *domain.Document
	err = tx.QueryRow(ctx, `SELECT body FROM helpdesk_document WHERE id=$1 FOR UPDATE`, documentID).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		doc = domain.NewDocument()
	case err != nil:
		return nil, fmt.Errorf("lock document: %w", err)
	default:
		doc, err = decodeDocument(raw)
		if err != nil {
			return nil, err
		}
	}

	if err := fn(doc); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	const upsert = `
        INSERT INTO helpdesk_document (id, body, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (id) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()`
	if _, err := tx.Exec(ctx, upsert, documentID, encoded); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return doc, nil
}

func decodeDocument(raw []byte) (*domain.Document, error) {
	doc := &domain.Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc.ApplyDefaults()
	return doc, nil
}
