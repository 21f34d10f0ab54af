package ingestion

import (
	"context"
	"log/slog"

	"github.com/poiesic/caselens/bm25"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/segment"
)

// IndexLexical adds a stored case document to a BM25 index. The index
// entry carries the document's ID, text and metadata but no fragments, so
// the same entry is produced at ingestion and when replaying storage.
func IndexLexical(index *bm25.Index, doc *core.Document) error {
	entry := &core.Document{ID: doc.ID, Text: doc.Text, Metadata: doc.Metadata}
	return index.IndexTokens(entry, segment.Terms(doc.Text, doc.Metadata))
}

// lexicalProcessor feeds cases to the lexical index.
type lexicalProcessor struct {
	index  *bm25.Index
	logger *slog.Logger
}

var _ processor = (*lexicalProcessor)(nil)

func newLexicalProcessor(index *bm25.Index, logger *slog.Logger) processor {
	return &lexicalProcessor{
		index:  index,
		logger: logger.With("processor", "lexical"),
	}
}

func (lp *lexicalProcessor) process(_ context.Context, doc *core.Document, _ []*core.Fragment) error {
	if err := IndexLexical(lp.index, doc); err != nil {
		return err
	}
	lp.logger.Debug("indexed document terms", "document", doc.ID)
	return nil
}
