package interfaces

import "context"

// ContextService assembles the reference text fed to the section agents.
//
// FetchContext is best-effort by contract: an absent pitch deck URL yields
// empty text, and download/extraction failures degrade to empty text with a
// warning rather than an error. Report generation never fails because
// reference material could not be fetched.
type ContextService interface {
	// FetchContext downloads and extracts the pitch deck at the given URL
	// (PDF or HTML), truncates it to the configured character budget, and
	// augments it with top-k snippets from the local knowledge index scored
	// against the query hints.
	FetchContext(ctx context.Context, pitchDeckURL string, queryHints []string) string
}
