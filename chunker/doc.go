// Package chunker provides deterministic text normalization, sliding-window
// segmentation, and snippet capping.
//
// Chunking collapses whitespace, walks a fixed-size window with a fixed
// overlap, and tags every emitted chunk with a dense zero-based index and a
// content hash over "{index}:{text}". Because the function is pure,
// re-chunking identical text yields identical hashes, which is what makes
// ingestion idempotent at the chunk level.
package chunker
