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


// Package search finds the stored cases most similar to a query document.
//
// The Searcher type implements the query-side pipeline:
//   - Segmenting the query into one fragment per line, with clause sub-fragments
//   - Embedding each fragment and fetching the most similar stored fragments,
//     scored as cosine, cosine_distance and l2
//   - Aggregating those fragment-level candidates into document-level matches
//     ranked by modality diversity, then score
//
// SearchText offers a lexical alternative backed by a BM25 index, and
// FindMatchesBatch runs many queries on a worker pool.
package search
