package extract

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap readability tactics without changing callers.
type Extractor interface {
	// Extract converts raw HTML bytes into a simplified Document.
	// Implementations should be deterministic and avoid side effects.
	Extract(input []byte) Document
}

// HeuristicExtractor applies the prioritized candidate-selector search with
// paragraph noise filtering and the bounded whole-document fallback.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte) Document {
	return FromHTML(input)
}
