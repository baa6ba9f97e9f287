package service

import (
	"context"
	"fmt"

	"papertalk-backend/logger"

	"github.com/google/generative-ai-go/genai"
)

// embedBatchSize is the Gemini batchEmbedContents request limit
const embedBatchSize = 100

// GeminiEmbedder embeds document chunks with a Gemini embedding model
type GeminiEmbedder struct {
	log   *logger.Logger
	model *genai.EmbeddingModel
	retry retryPolicy
}

// NewGeminiEmbedder creates an embedder for the named model, e.g. "text-embedding-004"
func NewGeminiEmbedder(log *logger.Logger, client *genai.Client, model string) *GeminiEmbedder {
	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeRetrievalDocument
	return &GeminiEmbedder{
		log:   log.With("client", "GeminiEmbedder"),
		model: em,
		retry: defaultRetryPolicy(),
	}
}

// Embed returns one vector per text, batching requests and retrying failed batches
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += embedBatchSize {
		end := min(i+embedBatchSize, len(texts))

		batch := e.model.NewBatch()
		for _, t := range texts[i:end] {
			batch.AddContent(genai.Text(t))
		}

		var res *genai.BatchEmbedContentsResponse
		err := e.retry.do(ctx, func(ctx context.Context) error {
			var err error
			res, err = e.model.BatchEmbedContents(ctx, batch)
			if err != nil {
				e.log.Warn("embedding batch failed", "offset", i, "error", err)
			}
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("batch at %d: %w", i, err)
		}

		if len(res.Embeddings) != end-i {
			return nil, fmt.Errorf("mismatch: got %d embeddings for %d chunks in batch", len(res.Embeddings), end-i)
		}
		for k, emb := range res.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("chunk %d has empty embedding", i+k)
			}
			out = append(out, emb.Values)
		}
	}

	return out, nil
}
