// Package reembed re-embeds every stored fragment, typically after switching
// embedding models.
//
// Fragments are walked in key order in batches. Each batch is embedded with
// retry and exponential backoff, normalized for cosine similarity search and
// written back, after which a checkpoint records the last fragment key so an
// interrupted run can resume where it stopped.
package reembed
