package chunker

// MaxSnippetLen is the global upper bound on stored snippet length. A domain
// or source policy may tighten it, never widen it.
const MaxSnippetLen = 240

// truncationMarker terminates every truncated snippet, exactly once.
const truncationMarker = "…"

// CapSnippet normalizes whitespace and bounds the text to max characters.
// Untruncated snippets are returned verbatim apart from whitespace
// normalization; truncated snippets end with a single truncation marker and
// never exceed max characters in total.
func CapSnippet(text string, max int) string {
	if max <= 0 {
		max = MaxSnippetLen
	}

	clean := []rune(Normalize(text))
	if len(clean) <= max {
		return string(clean)
	}
	return string(clean[:max-1]) + truncationMarker
}
