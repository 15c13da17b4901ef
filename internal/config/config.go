// Package config provides the configuration schema, loader, and provider
// registry for the voxnote voice-note bot.
//
// Configuration is read once at startup from an optional YAML file plus
// environment-variable overrides, validated, and never mutated afterwards:
// exactly one transcription backend and one summarization backend are active
// for the lifetime of the process.
package config

// LogLevel controls log verbosity for the voxnote server.
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

// Backend names recognised per capability. Selection happens once at startup;
// anything outside these sets is a fatal configuration error.
const (
	TranscriberOpenAI   = "openai"
	TranscriberDeepgram = "deepgram"

	SummarizerOpenAI    = "openai"
	SummarizerAnthropic = "anthropic"
)

// ValidProviderNames lists known backend names per capability.
// Used by [Validate] to reject unrecognised backend selections.
var ValidProviderNames = map[string][]string{
	"transcription": {TranscriberOpenAI, TranscriberDeepgram},
	"summarization": {SummarizerOpenAI, SummarizerAnthropic},
}

// Config is the root configuration structure for voxnote.
// It is typically loaded with [Load], which layers environment overrides on
// top of the optional YAML file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Discord   DiscordConfig   `yaml:"discord"`
	Providers ProvidersConfig `yaml:"providers"`
	Summary   SummaryConfig   `yaml:"summary"`

	// WorkDir is the directory for temporary voice-note audio files.
	// Defaults to the OS temp directory.
	WorkDir string `yaml:"work_dir"`
}

// ServerConfig holds settings for the admin HTTP listener and logging.
type ServerConfig struct {
	// ListenAddr is the TCP address serving /healthz, /readyz, and /metrics
	// (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DiscordConfig holds the messaging-layer credentials.
type DiscordConfig struct {
	// Token is the Discord bot token.
	Token string `yaml:"token"`
}

// ProvidersConfig declares which backend implementation handles each
// capability. Each entry selects a named factory registered in the [Registry].
type ProvidersConfig struct {
	Transcription ProviderEntry `yaml:"transcription"`
	Summarization ProviderEntry `yaml:"summarization"`
}

// ProviderEntry is the common configuration block shared by both capabilities.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered backend implementation (e.g., "openai",
	// "deepgram", "anthropic").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the backend's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default API endpoint.
	// Leave empty to use the built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the backend (e.g., "whisper-1",
	// "nova-2", "gpt-4o-mini").
	Model string `yaml:"model"`
}

// SummaryConfig controls the optional summarization step.
type SummaryConfig struct {
	// Enabled turns summary generation on.
	Enabled bool `yaml:"enabled"`

	// Threshold is the transcript length, in characters, above which a
	// summary is generated.
	Threshold int `yaml:"threshold"`
}
