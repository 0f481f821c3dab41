package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const watcherBaseYAML = `
discord:
  token: tok
providers:
  stt:
    name: whisper
transcription:
  max_concurrent: 1
`

const watcherUpdatedYAML = `
discord:
  token: tok
providers:
  stt:
    name: whisper
transcription:
  max_concurrent: 8
`

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func TestWatcherInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, watcherBaseYAML)

	w, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Transcription.MaxConcurrent; got != 1 {
		t.Errorf("initial max_concurrent = %d, want 1", got)
	}
}

func TestWatcherInitialLoadFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, "discord: {token: ''}\n")

	if _, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond)); err == nil {
		t.Fatal("NewWatcher() succeeded on an invalid config")
	}
}

func TestWatcherDetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, watcherBaseYAML)

	var calls atomic.Int32
	w, err := NewWatcher(path, func(old, new *Config) {
		calls.Add(1)
		if old.Transcription.MaxConcurrent != 1 {
			t.Errorf("onChange old max_concurrent = %d, want 1", old.Transcription.MaxConcurrent)
		}
		if new.Transcription.MaxConcurrent != 8 {
			t.Errorf("onChange new max_concurrent = %d, want 8", new.Transcription.MaxConcurrent)
		}
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Stop()

	// Ensure the mtime moves even on coarse-grained filesystems.
	time.Sleep(20 * time.Millisecond)
	writeConfigFile(t, path, watcherUpdatedYAML)
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("onChange was not called within 3s")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if got := w.Current().Transcription.MaxConcurrent; got != 8 {
		t.Errorf("Current() max_concurrent = %d, want 8", got)
	}
}

func TestWatcherKeepsOldConfigOnInvalidUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, watcherBaseYAML)

	var calls atomic.Int32
	w, err := NewWatcher(path, func(_, _ *Config) { calls.Add(1) }, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Stop()

	time.Sleep(20 * time.Millisecond)
	writeConfigFile(t, path, "discord: {token: ''}\n")
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	// Give the poller a few cycles to notice the broken file.
	time.Sleep(100 * time.Millisecond)

	if calls.Load() != 0 {
		t.Error("onChange fired for an invalid config")
	}
	if got := w.Current().Transcription.MaxConcurrent; got != 1 {
		t.Errorf("Current() max_concurrent = %d, want previous value 1", got)
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfigFile(t, path, watcherBaseYAML)

	w, err := NewWatcher(path, nil, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	w.Stop()
	w.Stop()
}
