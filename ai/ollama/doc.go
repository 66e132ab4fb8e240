// Package ollama provides production AI gateways against a local Ollama
// server.
//
// The embedder speaks the native /api/embed endpoint directly because the
// gateway must observe the raw response body: the endpoint answers with
// either a batched "embeddings" list or a legacy single "embedding" field,
// and the gateway normalizes both shapes. The stance extractor goes through
// the OpenAI-compatible /v1 surface in JSON mode at low temperature.
//
// Every call carries its own hard timeout and maps failures onto the typed
// taxonomy in the core package. There are no retries; a failed call fails
// the operation that issued it.
package ollama
