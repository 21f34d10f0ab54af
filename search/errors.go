// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import "errors"

var (
	// ErrFragmentRepositoryRequired is returned when a fragment repository is not provided.
	ErrFragmentRepositoryRequired = errors.New("fragment repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrLexicalIndexRequired is returned by SearchText when no BM25 index is configured.
	ErrLexicalIndexRequired = errors.New("lexical index required")

	// ErrEmbeddingMismatch is returned when the embedder returns a different
	// number of vectors than query fragments.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")

	// ErrUnknownMetric is returned when a request ranks by a score that vector
	// candidates do not carry.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrInvalidOption is returned when a searcher option has an invalid value.
	ErrInvalidOption = errors.New("invalid searcher option")
)
