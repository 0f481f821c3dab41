package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":       {"whisper", "openai"},
	"translate": {"openai", "anthropic", "gemini", "ollama", "mistral", "groq"},
}

// Environment variables recognised by [ApplyEnv]. Values set in the
// environment override the corresponding config file fields.
const (
	EnvDiscordToken    = "VMT_DISCORD_TOKEN"
	EnvSTTAPIKey       = "VMT_STT_API_KEY"
	EnvTranslateAPIKey = "VMT_TRANSLATE_API_KEY"
	EnvListenAddr      = "VMT_LISTEN_ADDR"
)

// Load reads the YAML configuration file at path, applies environment
// overrides, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment
// overrides and defaults, and validates the result. Useful in tests
// where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from the process environment. Secrets
// are usually provided this way so the config file can be committed.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvDiscordToken); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv(EnvSTTAPIKey); v != "" {
		cfg.Providers.STT.APIKey = v
	}
	if v := os.Getenv(EnvTranslateAPIKey); v != "" {
		cfg.Providers.Translate.APIKey = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.Server.ListenAddr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Discord.Prefix == "" {
		cfg.Discord.Prefix = DefaultPrefix
	}
	if cfg.Transcription.HistoryScanLimit == 0 {
		cfg.Transcription.HistoryScanLimit = 50
	}
	if cfg.Transcription.MaxConcurrent == 0 {
		cfg.Transcription.MaxConcurrent = 4
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("discord.token is required (or set %s)", EnvDiscordToken))
	}
	if strings.TrimSpace(cfg.Discord.Prefix) == "" {
		errs = append(errs, errors.New("discord.prefix must contain a non-space character"))
	}

	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("translate", cfg.Providers.Translate.Name)

	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required"))
	}
	if cfg.Providers.Translate.Name == "" {
		slog.Warn("no translate provider configured; language arguments will be ignored")
	}

	if cfg.Transcription.HistoryScanLimit < 0 {
		errs = append(errs, fmt.Errorf("transcription.history_scan_limit %d must not be negative", cfg.Transcription.HistoryScanLimit))
	}
	if cfg.Transcription.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("transcription.max_concurrent %d must not be negative", cfg.Transcription.MaxConcurrent))
	}

	for code, name := range cfg.Languages {
		if strings.TrimSpace(code) == "" || strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("languages entry %q: %q has an empty code or display name", code, name))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
