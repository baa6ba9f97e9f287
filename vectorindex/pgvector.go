package vectorindex

import (
	"context"
	"fmt"

	"papertalk-backend/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// Execer is the part of a pgx pool the pgvector backend needs
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PGVector stores vectors in the document_chunks table
type PGVector struct {
	log        *logger.Logger
	db         Execer
	dimensions int
}

// NewPGVector creates a pgvector-backed index. dimensions of 0 disables the length check.
func NewPGVector(log *logger.Logger, db Execer, dimensions int) *PGVector {
	return &PGVector{
		log:        log.With("client", "PGVectorIndex"),
		db:         db,
		dimensions: dimensions,
	}
}

// Upsert inserts or replaces each chunk row
func (p *PGVector) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if namespace == "" {
		return fmt.Errorf("namespace required")
	}

	query := `
		INSERT INTO document_chunks (namespace, chunk_id, chunk_index, chunk_text, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, chunk_id) DO UPDATE
		SET chunk_index = EXCLUDED.chunk_index,
			chunk_text = EXCLUDED.chunk_text,
			embedding = EXCLUDED.embedding`

	for _, v := range vectors {
		if p.dimensions > 0 && len(v.Values) != p.dimensions {
			return fmt.Errorf("embedding must be %d dimensions, got %d", p.dimensions, len(v.Values))
		}
		_, err := p.db.Exec(ctx, query, namespace, v.ID, v.ChunkIndex, v.Text, pgvector.NewVector(v.Values))
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", v.ID, err)
		}
	}
	return nil
}

// DeleteNamespace removes every chunk of namespace
func (p *PGVector) DeleteNamespace(ctx context.Context, namespace string) error {
	if namespace == "" {
		return fmt.Errorf("namespace required")
	}

	tag, err := p.db.Exec(ctx, `DELETE FROM document_chunks WHERE namespace = $1`, namespace)
	if err != nil {
		return fmt.Errorf("failed to delete namespace: %w", err)
	}
	p.log.Debug("namespace deleted", "namespace", namespace, "rows", tag.RowsAffected())
	return nil
}
