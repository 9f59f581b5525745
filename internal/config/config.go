package config

import (
	"fmt"
	"time"

	"github.com/lazypower/sable/internal/affect"
)

// Config holds all sable configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	LLM        LLMConfig        `mapstructure:"llm" yaml:"llm"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Memory     MemoryConfig     `mapstructure:"memory" yaml:"memory"`
	Markers    MarkerConfig     `mapstructure:"markers" yaml:"markers"`
	Logbook    LogbookConfig    `mapstructure:"logbook" yaml:"logbook"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Hooks      HooksConfig      `mapstructure:"hooks" yaml:"hooks"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind" yaml:"bind"`
	Port int    `mapstructure:"port" yaml:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // empty: ~/.sable/sable.db
}

type LLMConfig struct {
	Provider     string `mapstructure:"provider" yaml:"provider"` // "claude-cli", "anthropic", "ollama"
	Model        string `mapstructure:"model" yaml:"model"`
	OllamaURL    string `mapstructure:"ollama_url" yaml:"ollama_url"`
	OllamaModel  string `mapstructure:"ollama_model" yaml:"ollama_model"`
	AnthropicKey string `mapstructure:"anthropic_key" yaml:"anthropic_key"`
}

type ClassifierConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxChars int           `mapstructure:"max_chars" yaml:"max_chars"`
}

type MemoryConfig struct {
	SignificanceThreshold float64       `mapstructure:"significance_threshold" yaml:"significance_threshold"`
	ExpectedMaxImpact     float64       `mapstructure:"expected_max_impact" yaml:"expected_max_impact"`
	BaseHalfLife          time.Duration `mapstructure:"base_half_life" yaml:"base_half_life"`
	ArchiveAfter          time.Duration `mapstructure:"archive_after" yaml:"archive_after"`
	ArchiveConsolidation  float64       `mapstructure:"archive_consolidation" yaml:"archive_consolidation"`
	ConsolidationFloor    float64       `mapstructure:"consolidation_floor" yaml:"consolidation_floor"`
}

type MarkerConfig struct {
	MinSalience    float64 `mapstructure:"min_salience" yaml:"min_salience"`
	MinOccurrences int     `mapstructure:"min_occurrences" yaml:"min_occurrences"`
	MinStrength    float64 `mapstructure:"min_strength" yaml:"min_strength"`
	Saturation     float64 `mapstructure:"saturation" yaml:"saturation"`
}

type LogbookConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"` // empty: ~/.sable/logbook
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // console, json
}

type HooksConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	policy := affect.DefaultMemoryPolicy()
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		LLM: LLMConfig{
			Provider: "claude-cli",
			Model:    "haiku",
		},
		Classifier: ClassifierConfig{
			Enabled:  true,
			Timeout:  10 * time.Second,
			MaxChars: 4000,
		},
		Memory: MemoryConfig{
			SignificanceThreshold: policy.SignificanceThreshold,
			ExpectedMaxImpact:     policy.ExpectedMaxImpact,
			BaseHalfLife:          policy.BaseHalfLife,
			ArchiveAfter:          policy.ArchiveAfter,
			ArchiveConsolidation:  policy.ArchiveConsolidation,
			ConsolidationFloor:    policy.ConsolidationFloor,
		},
		Markers: MarkerConfig{
			MinSalience:    0.3,
			MinOccurrences: 2,
			MinStrength:    0.3,
			Saturation:     3.0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Hooks: HooksConfig{
			Enabled: true,
			Timeout: 5 * time.Second,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Policy converts the memory section into lifecycle settings.
func (m MemoryConfig) Policy() affect.MemoryPolicy {
	return affect.MemoryPolicy{
		SignificanceThreshold: m.SignificanceThreshold,
		ExpectedMaxImpact:     m.ExpectedMaxImpact,
		BaseHalfLife:          m.BaseHalfLife,
		ArchiveAfter:          m.ArchiveAfter,
		ArchiveConsolidation:  m.ArchiveConsolidation,
		ConsolidationFloor:    m.ConsolidationFloor,
	}
}
