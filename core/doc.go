// Package core holds the domain model shared by every stage of the retrieval
// pipeline: documents, their typed fragments, and the scored matches that are
// attached to fragments by similarity search and recombined per document by
// the rank package.
package core
