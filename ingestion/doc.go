// Package ingestion loads legal cases and indexes them for search.
//
// The Pipeline type manages the index-side workflow for each case:
//   - Segmenting the case into typed fragments
//   - Adding the document and its fragments to storage
//   - Feeding the document's terms to the lexical index
//   - Generating fragment embeddings on a worker pool
//
// Cases are independent: a failure on one case is recorded in the Report and
// never stops its siblings.
package ingestion
