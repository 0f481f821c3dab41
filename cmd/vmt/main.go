// Command vmt is the Discord voice message transcription bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/spf13/pflag"

	"github.com/Frenzie/vmt/internal/config"
	discordbot "github.com/Frenzie/vmt/internal/discord"
	"github.com/Frenzie/vmt/internal/discord/commands"
	"github.com/Frenzie/vmt/internal/observe"
	"github.com/Frenzie/vmt/internal/transcribe"
	"github.com/Frenzie/vmt/internal/voicenote"
	"github.com/Frenzie/vmt/pkg/provider/stt"
	sttopenai "github.com/Frenzie/vmt/pkg/provider/stt/openai"
	"github.com/Frenzie/vmt/pkg/provider/stt/whisper"
	"github.com/Frenzie/vmt/pkg/provider/translate"
	"github.com/Frenzie/vmt/pkg/provider/translate/anyllm"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML configuration file")
	envFile := pflag.String("env-file", "", "optional .env file loaded before the config")
	pflag.Parse()

	// ── Environment file ──────────────────────────────────────────────────────
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "vmt: load env file %q: %v\n", *envFile, err)
			return 1
		}
	} else {
		// A .env next to the binary is picked up when present.
		_ = godotenv.Load()
	}

	// ── Load configuration (with hot reload) ──────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(_, _ *config.Config) {
		slog.Info("configuration reloaded")
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vmt: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vmt: %v\n", err)
		}
		return 1
	}
	defer watcher.Stop()
	cfg := watcher.Current()

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vmt starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName: "vmt",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	sttProvider, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		slog.Error("failed to create stt provider", "name", cfg.Providers.STT.Name, "err", err)
		return 1
	}
	if closer, ok := sttProvider.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	var translator translate.Provider
	if name := cfg.Providers.Translate.Name; name != "" {
		translator, err = reg.CreateTranslate(cfg.Providers.Translate)
		if err != nil {
			slog.Error("failed to create translate provider", "name", name, "err", err)
			return 1
		}
		slog.Info("provider created", "kind", "translate", "name", name)
	}

	// ── Transcription service ─────────────────────────────────────────────────
	svc, err := transcribe.New(transcribe.Config{
		STT:           sttProvider,
		Translator:    translator,
		MaxConcurrent: int64(cfg.Transcription.MaxConcurrent),
	})
	if err != nil {
		slog.Error("failed to create transcription service", "err", err)
		return 1
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Discord bot ───────────────────────────────────────────────────────────
	bot, err := discordbot.New(ctx, discordbot.Config{
		Token:   cfg.Discord.Token,
		GuildID: cfg.Discord.GuildID,
		Prefix:  func() string { return watcher.Current().Discord.Prefix },
	})
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}
	slog.Info("discord bot connected", "guild_id", cfg.Discord.GuildID)

	resolver := &voicenote.Resolver{
		BotUserID: bot.BotUserID(),
		History:   &discordbot.SessionHistory{Session: bot.Session()},
		ScanLimit: cfg.Transcription.HistoryScanLimit,
	}

	languages := func() map[string]string {
		if langs := watcher.Current().Languages; len(langs) > 0 {
			return langs
		}
		return commands.DefaultLanguages
	}

	commands.NewTranscribeCommands(commands.TranscribeConfig{
		Router:      bot.Router(),
		Service:     svc,
		Resolver:    resolver,
		Languages:   languages,
		AutoEnabled: func() bool { return watcher.Current().Transcription.AutoEnabled() },
		BotUserID:   bot.BotUserID,
	})
	commands.NewLanguagesCommands(commands.LanguagesConfig{
		Router:    bot.Router(),
		Languages: languages,
	})
	commands.NewHelpCommands(commands.HelpConfig{
		Router: bot.Router(),
		Prefix: func() string { return watcher.Current().Discord.Prefix },
	})

	// ── Metrics / health server ───────────────────────────────────────────────
	var obsServer *observe.Server
	if cfg.Server.ListenAddr != "" {
		obsServer = observe.NewServer(cfg.Server.ListenAddr, observe.Checker{
			Name: "discord",
			Check: func(context.Context) error {
				if bot.BotUserID() == "" {
					return errors.New("gateway session has no user")
				}
				return nil
			},
		})
		obsServer.Start()
	}

	slog.Info("bot ready — press Ctrl+C to shut down")

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("discord bot error", "err", err)
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := bot.Close(); err != nil {
		slog.Warn("discord bot close error", "err", err)
	}
	if obsServer != nil {
		if err := obsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("metrics server shutdown error", "err", err)
		}
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ───────────────────────────────────────────────────────────────────

	// whisper runs the bundled whisper.cpp engine on a local ggml model.
	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		modelPath := entry.Model
		if modelPath == "" {
			modelPath = optString(entry.Options, "model_path")
		}
		var opts []whisper.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		if optBool(entry.Options, "translate_to_english") {
			opts = append(opts, whisper.WithTranslateToEnglish(true))
		}
		return whisper.New(modelPath, opts...)
	})

	// openai uses the hosted transcription API.
	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []sttopenai.Option
		if entry.Model != "" {
			opts = append(opts, sttopenai.WithModel(entry.Model))
		}
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		return sttopenai.New(entry.APIKey, opts...)
	})

	// ── Translation ───────────────────────────────────────────────────────────
	// All chat-completion backends share the same pattern: optional APIKey
	// plus optional BaseURL.
	for _, providerName := range []string{"openai", "anthropic", "gemini", "mistral", "groq"} {
		reg.RegisterTranslate(providerName, func(entry config.ProviderEntry) (translate.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterTranslate("ollama", func(entry config.ProviderEntry) (translate.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// optString extracts a string value from a provider Options map.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}

// optBool extracts a bool value from a provider Options map.
func optBool(opts map[string]any, key string) bool {
	if opts == nil {
		return false
	}
	b, _ := opts[key].(bool)
	return b
}
