// Package audio decodes voice-message attachments into the canonical
// format shared by all speech-to-text providers: 16 kHz mono float32
// PCM in the range [-1, 1].
//
// Discord voice messages are Ogg Opus, but generic audio attachments
// may also arrive as WAV, MP3, or Ogg Vorbis. [Decode] dispatches on
// file extension with a magic-byte fallback, downmixes interleaved
// channels to mono, and resamples to the target rate.
package audio

// TargetSampleRate is the sample rate every decoded clip is resampled
// to. whisper.cpp requires 16 kHz input.
const TargetSampleRate = 16000

// Clip is a decoded audio attachment, mono at [TargetSampleRate].
type Clip struct {
	// Samples are float32 PCM values in [-1, 1].
	Samples []float32
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	return float64(len(c.Samples)) / float64(TargetSampleRate)
}

// Empty reports whether the clip contains no samples.
func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}
