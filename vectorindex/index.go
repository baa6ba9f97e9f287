// Package vectorindex stores document chunk embeddings partitioned by namespace.
// Each uploaded file owns exactly one namespace, named by the file ID.
package vectorindex

import (
	"context"
	"fmt"

	"papertalk-backend/config"
	"papertalk-backend/logger"
)

// Vector is one embedded chunk of a document
type Vector struct {
	ID         string
	Values     []float32
	ChunkIndex int
	Text       string
}

// Index is the vector store used by ingestion and file deletion
type Index interface {
	// Upsert writes vectors into namespace, replacing vectors with the same ID
	Upsert(ctx context.Context, namespace string, vectors []Vector) error

	// DeleteNamespace removes every vector in namespace. A missing namespace is not an error.
	DeleteNamespace(ctx context.Context, namespace string) error
}

// New builds the Index selected by cfg.Backend. db is only used by the pgvector backend.
func New(ctx context.Context, log *logger.Logger, cfg config.VectorConfig, db Execer) (Index, error) {
	switch cfg.Backend {
	case "pinecone":
		return NewPinecone(ctx, log, PineconeConfig{
			APIKey:     cfg.APIKey,
			APIVersion: cfg.APIVersion,
			IndexHost:  cfg.IndexHost,
			IndexName:  cfg.IndexName,
			Timeout:    cfg.Timeout,
		})
	case "pgvector":
		if db == nil {
			return nil, fmt.Errorf("pgvector backend requires a database connection")
		}
		return NewPGVector(log, db, cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s", cfg.Backend)
	}
}
