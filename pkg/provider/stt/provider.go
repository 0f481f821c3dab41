// Package stt defines the Provider interface for batch speech-to-text
// backends.
//
// Voice messages are short clips, so the contract is a single blocking
// Transcribe call rather than a streaming session: the caller hands
// over the complete decoded audio and receives the full transcript (or
// an error) once. Implementations must be safe for concurrent use —
// multiple voice messages may be transcribed at the same time.
package stt

import (
	"context"

	"github.com/Frenzie/vmt/pkg/audio"
)

// Request carries one decoded voice message to a provider.
type Request struct {
	// Clip is the decoded audio, 16 kHz mono float32 PCM.
	Clip audio.Clip

	// WAVPath is the path of a staged 16-bit mono WAV copy of Clip.
	// Providers that upload files (e.g. the OpenAI API) read this;
	// providers that consume raw samples may ignore it. The caller owns
	// the file and deletes it after Transcribe returns.
	WAVPath string

	// Language is an optional BCP-47 language hint (e.g. "en", "de").
	// Empty lets the provider auto-detect where supported.
	Language string
}

// Result is the outcome of a successful Transcribe call. An empty Text
// with a nil error means the engine ran but produced no speech — the
// caller decides how to present that, it is not an error.
type Result struct {
	// Text is the transcript, whitespace-trimmed. May be empty.
	Text string

	// Language is the language the provider detected or was told to
	// use. May be empty when the provider does not report it.
	Language string
}

// Provider is the abstraction over any batch STT backend.
type Provider interface {
	// Transcribe converts one voice message to text. It blocks until
	// the engine finishes or ctx is cancelled. A Result with empty Text
	// and nil error means the engine produced no speech.
	Transcribe(ctx context.Context, req Request) (Result, error)
}
