// Package config provides the configuration schema, loader, and provider
// registry for the vmt voice-message transcription bot.
package config

// LogLevel controls log verbosity for the bot.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DefaultPrefix is the chat command prefix used when none is configured.
const DefaultPrefix = "vmt "

// Config is the root configuration structure for vmt.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Discord       DiscordConfig       `yaml:"discord"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Transcription TranscriptionConfig `yaml:"transcription"`

	// Languages maps translation target codes to display names shown by
	// the languages command (e.g. "de: German"). When empty, a built-in
	// set is used.
	Languages map[string]string `yaml:"languages"`
}

// ServerConfig holds network and logging settings for the operational
// HTTP endpoints (metrics and health probes).
type ServerConfig struct {
	// ListenAddr is the TCP address the metrics server listens on
	// (e.g., ":8080"). Empty disables the server.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DiscordConfig holds the gateway connection and command settings.
type DiscordConfig struct {
	// Token is the bot token. Required; may also be supplied via the
	// VMT_DISCORD_TOKEN environment variable.
	Token string `yaml:"token"`

	// Prefix is the chat command prefix, including any trailing space
	// (e.g. "vmt "). Defaults to [DefaultPrefix].
	Prefix string `yaml:"prefix"`

	// GuildID scopes slash command registration to one guild. Empty
	// registers commands globally.
	GuildID string `yaml:"guild_id"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	STT       ProviderEntry `yaml:"stt"`
	Translate ProviderEntry `yaml:"translate"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "whisper", "openai").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g.,
	// "whisper-1", or a ggml model path for the native engine).
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered
	// by the standard fields above.
	Options map[string]any `yaml:"options"`
}

// TranscriptionConfig tunes how voice messages are found and processed.
type TranscriptionConfig struct {
	// HistoryScanLimit is how many recent messages are inspected when a
	// transcription request names no target. Defaults to 50.
	HistoryScanLimit int `yaml:"history_scan_limit"`

	// MaxConcurrent bounds simultaneous transcriptions. Defaults to 4.
	MaxConcurrent int `yaml:"max_concurrent"`

	// Auto enables automatic transcription of every voice message the
	// bot sees. Defaults to true; set to false to transcribe only on
	// request.
	Auto *bool `yaml:"auto"`
}

// AutoEnabled reports whether automatic transcription is on. Unset
// means enabled.
func (t TranscriptionConfig) AutoEnabled() bool {
	return t.Auto == nil || *t.Auto
}
