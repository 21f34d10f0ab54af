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


// Package rank recombines fragment-level match candidates into document-level
// matches.
//
// Every fragment of a query document is searched independently, so a single
// indexed case usually shows up many times: once per query fragment and per
// modality of the indexed fragment it hit. The Aggregator groups those
// candidates by their parent document, keeps the best-scoring one as the
// document's representative and ranks representatives by:
//
//   - modality diversity: the number of distinct modalities that matched the
//     parent document, descending
//   - the configured score metric, descending for similarities and ascending
//     for distances
//
// A representative whose raw score is at or below the epsilon gets the
// diversity ceiling instead of its modality count, so documents matched only
// by near-zero signals are not pushed down for low diversity. Both epsilon and
// the ceiling are configuration, not constants of the algorithm.
//
// Diversity only works when indexing and query segmentation agree on the
// modality taxonomy. A mismatch is not an error: it silently yields
// single-modality groups.
package rank
