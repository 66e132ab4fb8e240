// Package ingest implements the source ingestion pipeline.
//
// One Ingest call takes a raw document through policy gating, source upsert,
// sliding-window chunking, batch embedding, and a durable vector index
// upsert. Every step is deterministic with respect to its input, and point
// ids are derived from the source id and chunk index, so ingesting the same
// URL twice refreshes the existing rows and points instead of duplicating
// them.
package ingest
