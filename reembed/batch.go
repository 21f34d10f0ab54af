package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage"
)

// BatchProcessor embeds and stores one batch of fragments.
type BatchProcessor struct {
	repo           storage.FragmentRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a processor retrying failed embedding requests
// up to maxRetries attempts.
func NewBatchProcessor(repo storage.FragmentRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process replaces the vectors of fragments with fresh normalized embeddings.
func (bp *BatchProcessor) Process(ctx context.Context, fragments []*core.Fragment) error {
	if len(fragments) == 0 {
		return nil
	}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func(int) error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		if err == nil && len(vectors) != len(fragments) {
			err = fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(fragments), len(vectors))
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	for i, f := range fragments {
		f.Vector = ai.NormalizeVector(vectors[i])
	}

	if _, err := bp.repo.UpdateFragments(ctx, fragments...); err != nil {
		return fmt.Errorf("failed to update fragments: %w", err)
	}
	return nil
}
