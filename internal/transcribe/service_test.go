package transcribe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Frenzie/vmt/internal/observe"
	"github.com/Frenzie/vmt/pkg/audio"
	"github.com/Frenzie/vmt/pkg/provider/stt"
	sttmock "github.com/Frenzie/vmt/pkg/provider/stt/mock"
	translatemock "github.com/Frenzie/vmt/pkg/provider/translate/mock"
)

// wavFixture renders a short tone as WAV bytes.
func wavFixture(t *testing.T) []byte {
	t.Helper()

	clip := audio.Clip{Samples: make([]float32, audio.TargetSampleRate/10)}
	for i := range clip.Samples {
		clip.Samples[i] = 0.25
	}

	path := filepath.Join(t.TempDir(), "fixture.wav")
	if err := audio.WriteWAV(path, clip); err != nil {
		t.Fatalf("WriteWAV() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// attachmentServer serves body for every request and returns a message
// carrying one attachment pointing at it.
func attachmentServer(t *testing.T, body []byte, filename string) *discordgo.Message {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return &discordgo.Message{
		ID: "msg-1",
		Attachments: []*discordgo.MessageAttachment{
			{URL: srv.URL + "/" + filename, Filename: filename},
		},
	}
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics() error: %v", err)
	}
	return m
}

func TestNewRequiresSTT(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("New() with nil STT provider succeeded, want error")
	}
}

func TestTranscribeNoAttachment(t *testing.T) {
	t.Parallel()

	svc, err := New(Config{STT: &sttmock.Provider{}, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	for _, msg := range []*discordgo.Message{nil, {ID: "bare"}} {
		if _, err := svc.Transcribe(context.Background(), msg, "", "auto"); !errors.Is(err, ErrNoAttachment) {
			t.Errorf("Transcribe(%v) error = %v, want ErrNoAttachment", msg, err)
		}
	}
}

func TestTranscribeSuccess(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{Result: stt.Result{Text: "hello from the booth"}}
	svc, err := New(Config{STT: engine, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, wavFixture(t), "voice-message.wav")
	outcome, err := svc.Transcribe(context.Background(), msg, "", "auto")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if outcome.Kind != OutcomeText {
		t.Fatalf("outcome kind = %v, want OutcomeText", outcome.Kind)
	}
	if outcome.Text != "hello from the booth" {
		t.Errorf("text = %q, want engine result", outcome.Text)
	}
	if outcome.Language != "" {
		t.Errorf("language = %q, want empty without translation", outcome.Language)
	}
	if engine.CallCount() != 1 {
		t.Errorf("engine calls = %d, want 1", engine.CallCount())
	}
}

func TestTranscribeStagesAndRemovesTempWAV(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{Result: stt.Result{Text: "ok"}}
	svc, err := New(Config{STT: engine, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, wavFixture(t), "note.wav")
	if _, err := svc.Transcribe(context.Background(), msg, "", "command"); err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}

	if len(engine.TranscribeCalls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(engine.TranscribeCalls))
	}
	path := engine.TranscribeCalls[0].WAVPath
	if path == "" {
		t.Fatal("engine saw empty WAV path")
	}
	if !strings.HasSuffix(path, ".wav") {
		t.Errorf("staged path %q missing .wav suffix", path)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp wav %q still exists after Transcribe (stat err = %v)", path, err)
	}
}

func TestTranscribeTempWAVRemovedOnEngineError(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{Err: errors.New("model exploded")}
	svc, err := New(Config{STT: engine, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, wavFixture(t), "note.wav")
	if _, err := svc.Transcribe(context.Background(), msg, "", "command"); err == nil {
		t.Fatal("Transcribe() succeeded, want engine error")
	}

	if len(engine.TranscribeCalls) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(engine.TranscribeCalls))
	}
	path := engine.TranscribeCalls[0].WAVPath
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp wav %q still exists after failed Transcribe", path)
	}
}

func TestTranscribeEmptyResult(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{Result: stt.Result{Text: ""}}
	svc, err := New(Config{STT: engine, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, wavFixture(t), "silence.wav")
	outcome, err := svc.Transcribe(context.Background(), msg, "", "auto")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if outcome.Kind != OutcomeEmpty {
		t.Errorf("outcome kind = %v, want OutcomeEmpty", outcome.Kind)
	}
	if outcome.Text != "" {
		t.Errorf("text = %q, want empty", outcome.Text)
	}
}

func TestTranscribeTranslates(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{Result: stt.Result{Text: "hallo welt"}}
	translator := &translatemock.Provider{Result: "hello world"}
	svc, err := New(Config{STT: engine, Translator: translator, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, wavFixture(t), "note.wav")
	outcome, err := svc.Transcribe(context.Background(), msg, "en", "slash")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if outcome.Text != "hello world" {
		t.Errorf("text = %q, want translated text", outcome.Text)
	}
	if outcome.Language != "en" {
		t.Errorf("language = %q, want \"en\"", outcome.Language)
	}
	if got := len(translator.TranslateCalls); got != 1 {
		t.Fatalf("translator calls = %d, want 1", got)
	}
	if translator.TranslateCalls[0].Text != "hallo welt" {
		t.Errorf("translator saw %q, want engine transcript", translator.TranslateCalls[0].Text)
	}
}

func TestTranscribeDegradesOnTranslationError(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{Result: stt.Result{Text: "hallo welt"}}
	translator := &translatemock.Provider{Err: errors.New("quota exceeded")}
	svc, err := New(Config{STT: engine, Translator: translator, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, wavFixture(t), "note.wav")
	outcome, err := svc.Transcribe(context.Background(), msg, "en", "slash")
	if err != nil {
		t.Fatalf("Transcribe() error: %v, want degraded success", err)
	}
	if outcome.Text != "hallo welt" {
		t.Errorf("text = %q, want untranslated transcript", outcome.Text)
	}
	if outcome.Language != "" {
		t.Errorf("language = %q, want empty after failed translation", outcome.Language)
	}
}

func TestTranscribeSkipsTranslatorWithoutTarget(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{Result: stt.Result{Text: "as spoken"}}
	translator := &translatemock.Provider{Result: "should not be used"}
	svc, err := New(Config{STT: engine, Translator: translator, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, wavFixture(t), "note.wav")
	outcome, err := svc.Transcribe(context.Background(), msg, "", "auto")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if outcome.Text != "as spoken" {
		t.Errorf("text = %q, want untranslated transcript", outcome.Text)
	}
	if len(translator.TranslateCalls) != 0 {
		t.Errorf("translator called %d times, want 0", len(translator.TranslateCalls))
	}
}

func TestTranscribeDownloadFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	engine := &sttmock.Provider{}
	svc, err := New(Config{STT: engine, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := &discordgo.Message{
		Attachments: []*discordgo.MessageAttachment{{URL: srv.URL + "/note.wav", Filename: "note.wav"}},
	}
	if _, err := svc.Transcribe(context.Background(), msg, "", "auto"); err == nil {
		t.Fatal("Transcribe() succeeded, want download error")
	}
	if engine.CallCount() != 0 {
		t.Errorf("engine called %d times after failed download, want 0", engine.CallCount())
	}
}

func TestTranscribeUnsupportedFormat(t *testing.T) {
	t.Parallel()

	engine := &sttmock.Provider{}
	svc, err := New(Config{STT: engine, Metrics: testMetrics(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	msg := attachmentServer(t, []byte("definitely not audio"), "notes.txt")
	if _, err := svc.Transcribe(context.Background(), msg, "", "auto"); !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Errorf("Transcribe() error = %v, want ErrUnsupportedFormat", err)
	}
}
