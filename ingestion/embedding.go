package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/caselens/ai"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage"
)

// embeddingProcessor generates embeddings for the fragments of a case.
type embeddingProcessor struct {
	fragmentRepository storage.FragmentRepository
	embedder           ai.Embedder
	batchSize          int
	logger             *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(fragmentRepository storage.FragmentRepository, embedder ai.Embedder, batchSize int, logger *slog.Logger) (processor, error) {
	if fragmentRepository == nil {
		return nil, ErrFragmentRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		fragmentRepository: fragmentRepository,
		embedder:           embedder,
		batchSize:          batchSize,
		logger:             logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the fragments in batches, normalizes the vectors and stores them.
func (ep *embeddingProcessor) process(ctx context.Context, doc *core.Document, fragments []*core.Fragment) error {
	ep.logger.Debug("processing fragments for embeddings", "document", doc.ID, "fragments", len(fragments))

	for start := 0; start < len(fragments); start += ep.batchSize {
		end := min(start+ep.batchSize, len(fragments))
		batch := fragments[start:end]

		texts := make([]string, len(batch))
		for i, f := range batch {
			texts[i] = f.Text
		}

		vectors, err := ep.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			ep.logger.Error("error generating embeddings", "document", doc.ID, "err", err)
			return err
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(batch), len(vectors))
		}

		for i := range vectors {
			batch[i].Vector = ai.NormalizeVector(vectors[i])
		}
		if _, err := ep.fragmentRepository.UpdateFragments(ctx, batch...); err != nil {
			return err
		}
	}
	return nil
}
