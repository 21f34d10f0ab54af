package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrFragmentRepositoryRequired is returned when a fragment repository is not provided.
	ErrFragmentRepositoryRequired = errors.New("fragment repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")

	// ErrNoLexicalTerms is returned for a case whose title and metadata give
	// the lexical index nothing to index.
	ErrNoLexicalTerms = errors.New("case has no lexical terms")

	// ErrInvalidOption is returned when a pipeline option has an invalid value.
	ErrInvalidOption = errors.New("invalid pipeline option")
)
