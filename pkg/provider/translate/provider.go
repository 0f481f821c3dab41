// Package translate defines the Provider interface for text
// translation backends. Translation is optional in the transcription
// pipeline: when no provider is configured, transcripts are posted
// verbatim.
package translate

import "context"

// Provider is the abstraction over any translation backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Translate renders text into the target language. targetLang is an
	// uppercase language code from the configured code table (e.g.
	// "DE", "FR"). It blocks until the backend responds or ctx is
	// cancelled; a single attempt, never retried by the caller.
	Translate(ctx context.Context, text, targetLang string) (string, error)
}
