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


// Package bm25 provides an in-memory Okapi BM25 index over whitespace
// tokenized documents.
//
// The corpus is append-only: a document's position in the corpus is its
// handle and there is no way to remove or replace one. Indexing marks the
// model dirty and the next search rebuilds term statistics over the whole
// corpus before scoring.
//
// An Index is safe for concurrent use. Index and the rebuild step of a search
// hold the write lock; scoring a model that is already built only holds the
// read lock, so concurrent searches do not serialize once the corpus settles.
package bm25
