package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Home returns the sable state directory: $SABLE_HOME or ~/.sable.
func Home() (string, error) {
	if dir := os.Getenv("SABLE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".sable"), nil
}

// Load reads config.yaml from path (or the sable home when path is empty),
// layers SABLE_* environment overrides on top, and validates the result.
// A missing config.yaml in the sable home is not an error; a missing
// explicit path is.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if home, err := Home(); err == nil {
			v.AddConfigPath(home)
		}
	}

	setDefaults(v, Default())

	v.SetEnvPrefix("SABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if dbPath := os.Getenv("SABLE_DB"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && cfg.LLM.AnthropicKey == "" {
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.AnthropicKey = key
	}

	if err := validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.bind", d.Server.Bind)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.ollama_url", d.LLM.OllamaURL)
	v.SetDefault("llm.ollama_model", d.LLM.OllamaModel)
	v.SetDefault("llm.anthropic_key", d.LLM.AnthropicKey)

	v.SetDefault("classifier.enabled", d.Classifier.Enabled)
	v.SetDefault("classifier.timeout", d.Classifier.Timeout)
	v.SetDefault("classifier.max_chars", d.Classifier.MaxChars)

	v.SetDefault("memory.significance_threshold", d.Memory.SignificanceThreshold)
	v.SetDefault("memory.expected_max_impact", d.Memory.ExpectedMaxImpact)
	v.SetDefault("memory.base_half_life", d.Memory.BaseHalfLife)
	v.SetDefault("memory.archive_after", d.Memory.ArchiveAfter)
	v.SetDefault("memory.archive_consolidation", d.Memory.ArchiveConsolidation)
	v.SetDefault("memory.consolidation_floor", d.Memory.ConsolidationFloor)

	v.SetDefault("markers.min_salience", d.Markers.MinSalience)
	v.SetDefault("markers.min_occurrences", d.Markers.MinOccurrences)
	v.SetDefault("markers.min_strength", d.Markers.MinStrength)
	v.SetDefault("markers.saturation", d.Markers.Saturation)

	v.SetDefault("logbook.dir", d.Logbook.Dir)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("hooks.enabled", d.Hooks.Enabled)
	v.SetDefault("hooks.timeout", d.Hooks.Timeout)
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.LLM.Provider {
	case "claude-cli", "anthropic", "ollama":
	default:
		return fmt.Errorf("llm.provider must be claude-cli, anthropic or ollama, got %q", cfg.LLM.Provider)
	}

	if cfg.Classifier.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be positive, got %s", cfg.Classifier.Timeout)
	}

	unit := map[string]float64{
		"memory.significance_threshold": cfg.Memory.SignificanceThreshold,
		"memory.archive_consolidation":  cfg.Memory.ArchiveConsolidation,
		"memory.consolidation_floor":    cfg.Memory.ConsolidationFloor,
		"markers.min_salience":          cfg.Markers.MinSalience,
		"markers.min_strength":          cfg.Markers.MinStrength,
	}
	for key, val := range unit {
		if val < 0 || val > 1 {
			return fmt.Errorf("%s must be within [0,1], got %g", key, val)
		}
	}
	if cfg.Memory.ExpectedMaxImpact <= 0 {
		return fmt.Errorf("memory.expected_max_impact must be positive, got %g", cfg.Memory.ExpectedMaxImpact)
	}
	if cfg.Memory.BaseHalfLife <= 0 || cfg.Memory.ArchiveAfter <= 0 {
		return fmt.Errorf("memory half-life and archive_after must be positive")
	}
	if cfg.Markers.MinOccurrences < 1 {
		return fmt.Errorf("markers.min_occurrences must be at least 1, got %d", cfg.Markers.MinOccurrences)
	}
	if cfg.Markers.Saturation <= 0 {
		return fmt.Errorf("markers.saturation must be positive, got %g", cfg.Markers.Saturation)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	return nil
}

// DatabasePath resolves the database location.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "sable.db"), nil
}

// LogbookDir resolves the logbook directory.
func (c *Config) LogbookDir() (string, error) {
	if c.Logbook.Dir != "" {
		return c.Logbook.Dir, nil
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "logbook"), nil
}

// WriteDefault writes the default configuration as YAML, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
