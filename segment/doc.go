// Package segment turns cases and queries into modality-tagged fragments.
//
// IndexSegmenter works on the structured fields of a parsed judgment: every
// paragraph whose tag is not in the skip list is split into lines and then
// into sentences, each becoming a paras fragment located at [line, sentence].
// Title, causes, court and the other scalar fields are opt-in with WithFields.
// QuerySegmenter emits one content fragment per non-blank line of free text.
//
// Ranking by modality diversity depends on both segmenters drawing modalities
// from the same taxonomy; a query modality that never occurs at index time
// simply never groups.
package segment
