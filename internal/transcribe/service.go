// Package transcribe orchestrates one voice-message transcription:
// download the attachment, decode it, stage a temp WAV copy, run the
// STT provider, and optionally translate the transcript. It owns the
// temp-file lifecycle and bounds how many transcriptions run at once so
// gateway event handlers never stall behind engine work.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/semaphore"

	"github.com/Frenzie/vmt/internal/observe"
	"github.com/Frenzie/vmt/pkg/audio"
	"github.com/Frenzie/vmt/pkg/provider/stt"
	"github.com/Frenzie/vmt/pkg/provider/translate"
)

// maxAttachmentBytes caps attachment downloads. Discord caps voice
// messages well below this; the margin covers generic audio uploads.
const maxAttachmentBytes = 25 << 20 // 25 MiB

// defaultMaxConcurrent bounds simultaneous transcriptions.
const defaultMaxConcurrent = 4

// ErrNoAttachment is returned when the target message carries no
// attachment to transcribe.
var ErrNoAttachment = errors.New("transcribe: message has no attachment")

// OutcomeKind distinguishes the ways a transcription can succeed.
type OutcomeKind int

const (
	// OutcomeText means the engine produced a transcript.
	OutcomeText OutcomeKind = iota

	// OutcomeEmpty means the engine ran but heard no speech. Not an
	// error; the formatter renders a fixed placeholder.
	OutcomeEmpty
)

// Outcome is the result of a successful transcription attempt.
// Failures are reported as errors, not outcomes.
type Outcome struct {
	Kind OutcomeKind

	// Text is the transcript, possibly translated. Empty iff Kind is
	// OutcomeEmpty.
	Text string

	// Language is the target language the text was translated into, or
	// empty when no translation was applied.
	Language string
}

// Config carries the service dependencies.
type Config struct {
	// STT is the speech-to-text backend. Required.
	STT stt.Provider

	// Translator renders transcripts into a target language. Optional;
	// when nil, target-language requests degrade to plain transcripts.
	Translator translate.Provider

	// Metrics records instrumentation. Defaults to [observe.Default].
	Metrics *observe.Metrics

	// MaxConcurrent bounds simultaneous transcriptions. Zero means
	// defaultMaxConcurrent.
	MaxConcurrent int64

	// HTTPClient downloads attachments. Defaults to a 60 s-timeout client.
	HTTPClient *http.Client
}

// Service runs voice-message transcriptions. Safe for concurrent use.
type Service struct {
	stt        stt.Provider
	translator translate.Provider
	metrics    *observe.Metrics
	sem        *semaphore.Weighted
	httpClient *http.Client
}

// New creates a Service from cfg.
func New(cfg Config) (*Service, error) {
	if cfg.STT == nil {
		return nil, errors.New("transcribe: STT provider is required")
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.Default()
	}
	return &Service{
		stt:        cfg.STT,
		translator: cfg.Translator,
		metrics:    metrics,
		sem:        semaphore.NewWeighted(maxConcurrent),
		httpClient: client,
	}, nil
}

// Transcribe converts the first attachment of msg to text, translating
// into targetLang when set and a translator is configured. It blocks
// for the duration of the work; callers on gateway event goroutines
// must invoke it from a background goroutine. trigger labels the
// invocation path for metrics ("command", "slash", or "auto").
func (s *Service) Transcribe(ctx context.Context, msg *discordgo.Message, targetLang, trigger string) (Outcome, error) {
	if msg == nil || len(msg.Attachments) == 0 {
		return Outcome{}, ErrNoAttachment
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return Outcome{}, fmt.Errorf("transcribe: acquire worker slot: %w", err)
	}
	defer s.sem.Release(1)

	s.metrics.ActiveJobs.Add(ctx, 1)
	defer s.metrics.ActiveJobs.Add(ctx, -1)

	start := time.Now()
	outcome, err := s.run(ctx, msg, targetLang)
	s.metrics.RecordTranscription(ctx, trigger, statusLabel(outcome, err), time.Since(start).Seconds())
	return outcome, err
}

func (s *Service) run(ctx context.Context, msg *discordgo.Message, targetLang string) (Outcome, error) {
	attachment := msg.Attachments[0]

	data, err := s.download(ctx, attachment)
	if err != nil {
		return Outcome{}, err
	}

	clip, err := audio.Decode(data, attachment.Filename)
	if err != nil {
		return Outcome{}, fmt.Errorf("transcribe: decode %q: %w", attachment.Filename, err)
	}
	if clip.Empty() {
		return Outcome{Kind: OutcomeEmpty}, nil
	}

	// Stage a WAV copy for file-based providers. The file is removed on
	// every exit path so repeated invocations cannot leak disk.
	wavPath, cleanup, err := stageWAV(clip)
	if err != nil {
		return Outcome{}, err
	}
	defer cleanup()

	result, err := s.stt.Transcribe(ctx, stt.Request{
		Clip:    clip,
		WAVPath: wavPath,
	})
	if err != nil {
		s.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "stt")))
		return Outcome{}, fmt.Errorf("transcribe: engine: %w", err)
	}
	if result.Text == "" {
		return Outcome{Kind: OutcomeEmpty}, nil
	}

	text := result.Text
	lang := ""
	if targetLang != "" && s.translator != nil {
		translated, err := s.translator.Translate(ctx, text, targetLang)
		if err != nil {
			// Single attempt; degrade to the untranslated transcript.
			s.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "translate")))
			slog.Warn("transcribe: translation failed, posting untranslated text",
				"target_lang", targetLang, "err", err)
		} else {
			text = translated
			lang = targetLang
		}
	}

	return Outcome{Kind: OutcomeText, Text: text, Language: lang}, nil
}

// download fetches the attachment with a bounded reader.
func (s *Service) download(ctx context.Context, attachment *discordgo.MessageAttachment) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("transcribe: create download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcribe: download attachment: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("transcribe: read attachment body: %w", err)
	}
	if len(data) > maxAttachmentBytes {
		return nil, fmt.Errorf("transcribe: attachment exceeds %d byte limit", maxAttachmentBytes)
	}
	return data, nil
}

// stageWAV writes clip to a temp WAV file and returns its path plus a
// cleanup function that always removes the file.
func stageWAV(clip audio.Clip) (string, func(), error) {
	f, err := os.CreateTemp("", "vmt-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("transcribe: create temp wav: %w", err)
	}
	path := f.Name()
	f.Close()

	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("transcribe: remove temp wav", "path", path, "err", err)
		}
	}

	if err := audio.WriteWAV(path, clip); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("transcribe: stage wav: %w", err)
	}
	return path, cleanup, nil
}

func statusLabel(outcome Outcome, err error) string {
	switch {
	case err != nil:
		return "error"
	case outcome.Kind == OutcomeEmpty:
		return "empty"
	default:
		return "ok"
	}
}
