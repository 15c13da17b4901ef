package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty or the file does not exist), then
// environment-variable overrides, then validation. The result is read-only for
// the life of the process.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Environment-only deployments run without a config file.
		case err != nil:
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		default:
			defer f.Close()
			if err := decodeYAML(f, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %q: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of the defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals. Environment overrides are not applied.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := defaults()
	if err := decodeYAML(r, cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults returns a Config populated with built-in defaults.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Summary: SummaryConfig{
			Enabled:   false,
			Threshold: 1000,
		},
		WorkDir: os.TempDir(),
	}
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// applyEnv overlays recognised environment variables onto cfg. getenv is
// injectable for tests. Backend names are normalised to lower case so both
// "DEEPGRAM" and "deepgram" select the same factory.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = LogLevel(strings.ToLower(v))
	}
	if v := getenv("WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}

	if v := getenv("VOICE_TRANSCRIPTION_SERVICE"); v != "" {
		cfg.Providers.Transcription.Name = strings.ToLower(v)
	}
	if v := getenv("AI_SERVICE"); v != "" {
		cfg.Providers.Summarization.Name = strings.ToLower(v)
	}
	if v := getenv("TRANSCRIPTION_MODEL"); v != "" {
		cfg.Providers.Transcription.Model = v
	}
	if v := getenv("SUMMARY_MODEL"); v != "" {
		cfg.Providers.Summarization.Model = v
	}

	if v := getenv("GENERATE_SUMMARY"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: GENERATE_SUMMARY %q is not a boolean: %w", v, err)
		}
		cfg.Summary.Enabled = enabled
	}
	if v := getenv("SUMMARY_THRESHOLD"); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: SUMMARY_THRESHOLD %q is not an integer: %w", v, err)
		}
		cfg.Summary.Threshold = threshold
	}

	// API keys route to whichever capability selected the backend. Both
	// capabilities may share the OpenAI key.
	if v := getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Providers.Transcription.Name == TranscriberOpenAI {
			cfg.Providers.Transcription.APIKey = v
		}
		if cfg.Providers.Summarization.Name == SummarizerOpenAI {
			cfg.Providers.Summarization.APIKey = v
		}
	}
	if v := getenv("DEEPGRAM_API_KEY"); v != "" && cfg.Providers.Transcription.Name == TranscriberDeepgram {
		cfg.Providers.Transcription.APIKey = v
	}
	if v := getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Providers.Summarization.Name == SummarizerAnthropic {
		cfg.Providers.Summarization.APIKey = v
	}

	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found, so a broken
// deployment surfaces every problem at once instead of one per restart.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Discord.Token == "" {
		errs = append(errs, errors.New("discord.token is required (env DISCORD_TOKEN)"))
	}
	if cfg.WorkDir == "" {
		errs = append(errs, errors.New("work_dir must not be empty"))
	}
	if cfg.Summary.Threshold < 0 {
		errs = append(errs, fmt.Errorf("summary.threshold %d must not be negative", cfg.Summary.Threshold))
	}

	// Transcription backend is always required.
	if err := validateEntry("transcription", cfg.Providers.Transcription); err != nil {
		errs = append(errs, err)
	}

	// Summarization backend is required only when summaries are enabled.
	if cfg.Summary.Enabled || cfg.Providers.Summarization.Name != "" {
		if err := validateEntry("summarization", cfg.Providers.Summarization); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// validateEntry checks one provider selection: recognised name and a
// credential for it. Unrecognised backend names are a startup-time
// misconfiguration, never a runtime surprise.
func validateEntry(capability string, entry ProviderEntry) error {
	if entry.Name == "" {
		return fmt.Errorf("providers.%s.name is required", capability)
	}
	valid := ValidProviderNames[capability]
	if !slices.Contains(valid, entry.Name) {
		return fmt.Errorf("providers.%s.name %q is unsupported; valid values: %s",
			capability, entry.Name, strings.Join(valid, ", "))
	}
	if entry.APIKey == "" {
		return fmt.Errorf("providers.%s.api_key is required for backend %q", capability, entry.Name)
	}
	return nil
}
