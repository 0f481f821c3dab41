package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeUnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("not audio at all"), "notes.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeInvalidWAV(t *testing.T) {
	t.Parallel()

	// RIFF magic without a valid WAVE body.
	_, err := Decode([]byte("RIFF0000garbage"), "voice.wav")
	if err == nil {
		t.Fatal("expected error for truncated wav payload")
	}
}

func TestWriteWAVRoundTrip(t *testing.T) {
	t.Parallel()

	clip := Clip{Samples: make([]float32, TargetSampleRate/10)} // 100 ms
	for i := range clip.Samples {
		clip.Samples[i] = 0.25
	}

	path := filepath.Join(t.TempDir(), "staged.wav")
	if err := WriteWAV(path, clip); err != nil {
		t.Fatalf("WriteWAV() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read staged file: %v", err)
	}

	decoded, err := Decode(data, "staged.wav")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(decoded.Samples) != len(clip.Samples) {
		t.Fatalf("round trip changed sample count: %d != %d", len(decoded.Samples), len(clip.Samples))
	}
	// 16-bit quantisation allows a small error.
	if diff := decoded.Samples[0] - 0.25; diff > 0.001 || diff < -0.001 {
		t.Errorf("sample 0 = %v, want ~0.25", decoded.Samples[0])
	}
}

func TestClipDuration(t *testing.T) {
	t.Parallel()

	clip := Clip{Samples: make([]float32, TargetSampleRate*2)}
	if d := clip.Duration(); d != 2 {
		t.Errorf("Duration() = %v, want 2", d)
	}
	if clip.Empty() {
		t.Error("Empty() = true for a populated clip")
	}
	if !(Clip{}).Empty() {
		t.Error("Empty() = false for the zero clip")
	}
}
