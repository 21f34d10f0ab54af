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


package bm25

import "errors"

var (
	// ErrEmptyText is returned when indexing a document without tokens.
	ErrEmptyText = errors.New("document text is empty")

	// ErrEmptyQuery is returned when a query has no tokens.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrInvalidTopK is returned for a top_k below one.
	ErrInvalidTopK = errors.New("top_k must be at least 1")

	// ErrInvalidParameter is returned for out-of-range BM25 parameters.
	ErrInvalidParameter = errors.New("invalid BM25 parameter")
)
