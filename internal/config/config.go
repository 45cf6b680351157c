package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/thomas-vilte/commitlens/internal/errors"
)

type (
	Config struct {
		Language       string                `toml:"language" json:"language"`
		MaxLength      int                   `toml:"max_length" json:"max_length"`
		ActiveProvider AI                    `toml:"active_provider" json:"active_provider"`
		BudgetDaily    float64               `toml:"budget_daily" json:"budget_daily"`
		Providers      map[AI]ProviderConfig `toml:"providers" json:"providers"`
		Pipeline       PipelineConfig        `toml:"pipeline" json:"pipeline"`
		Diff           DiffConfig            `toml:"diff" json:"diff"`
		AST            ASTConfig             `toml:"ast" json:"ast"`
		History        HistoryConfig         `toml:"history" json:"history"`
		Cache          CacheConfig           `toml:"cache" json:"cache"`

		PathFile string `toml:"-" json:"path"`
	}

	ProviderConfig struct {
		APIKey      string  `toml:"api_key,omitempty" json:"api_key,omitempty"`
		Model       Model   `toml:"model" json:"model"`
		Temperature float32 `toml:"temperature" json:"temperature"`
		MaxTokens   int     `toml:"max_tokens" json:"max_tokens"`
		BaseURL     string  `toml:"base_url,omitempty" json:"base_url,omitempty"`
	}

	PipelineConfig struct {
		MaxIterations     int      `toml:"max_iterations" json:"max_iterations"`
		Debug             bool     `toml:"debug" json:"debug"`
		SimpleThreshold   int      `toml:"simple_threshold" json:"simple_threshold"`
		ModerateThreshold int      `toml:"moderate_threshold" json:"moderate_threshold"`
		ComplexThreshold  int      `toml:"complex_threshold" json:"complex_threshold"`
		ThresholdFloor    int      `toml:"threshold_floor" json:"threshold_floor"`
		IterationDecay    int      `toml:"iteration_decay" json:"iteration_decay"`
		MinCriteriaScore  int      `toml:"min_criteria_score" json:"min_criteria_score"`
		CallTimeout       Duration `toml:"call_timeout" json:"call_timeout"`
	}

	DiffConfig struct {
		MaxBytes int `toml:"max_bytes" json:"max_bytes"`
	}

	ASTConfig struct {
		Enabled     bool `toml:"enabled" json:"enabled"`
		Concurrency int  `toml:"concurrency" json:"concurrency"`
	}

	HistoryConfig struct {
		Enabled bool   `toml:"enabled" json:"enabled"`
		Path    string `toml:"path,omitempty" json:"path,omitempty"`
	}

	CacheConfig struct {
		Enabled bool     `toml:"enabled" json:"enabled"`
		TTL     Duration `toml:"ttl" json:"ttl"`
	}
)

// Duration is a time.Duration written as "60s" in the config file.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

const (
	defaultLang      = LangEN
	defaultMaxLength = 72
	configDirName    = ".commitlens"
	configFileName   = "config.toml"
)

// Dir returns ~/.commitlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.ErrConfigInvalid.WithError(err)
	}
	if home == "" {
		return "", errors.ErrConfigInvalid.WithError(fmt.Errorf("home directory is not set"))
	}
	return filepath.Join(home, configDirName), nil
}

// DefaultPath returns ~/.commitlens/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		Language:       defaultLang,
		MaxLength:      defaultMaxLength,
		ActiveProvider: AIGemini,
		Providers: map[AI]ProviderConfig{
			AIGemini: {Model: DefaultModelForAI(AIGemini), Temperature: 0.3, MaxTokens: 2048},
			AIOpenAI: {Model: DefaultModelForAI(AIOpenAI), Temperature: 0.3, MaxTokens: 2048},
		},
		Pipeline: PipelineConfig{
			MaxIterations:     2,
			SimpleThreshold:   75,
			ModerateThreshold: 80,
			ComplexThreshold:  85,
			ThresholdFloor:    70,
			IterationDecay:    10,
			MinCriteriaScore:  60,
			CallTimeout:       Duration{60 * time.Second},
		},
		Diff:    DiffConfig{MaxBytes: 120_000},
		AST:     ASTConfig{Enabled: true, Concurrency: 4},
		History: HistoryConfig{Enabled: true},
		Cache:   CacheConfig{Enabled: true, TTL: Duration{24 * time.Hour}},
	}
}

// LoadConfig reads the config file at path, creating it with defaults when
// missing. An empty path means DefaultPath. Keys absent from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefaultConfig(path)
	} else if err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithContext("path", path)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.ErrConfigInvalid.WithError(err).WithContext("path", path)
	}
	cfg.PathFile = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func createDefaultConfig(path string) (*Config, error) {
	cfg := Default()
	cfg.PathFile = path

	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig validates and writes cfg to cfg.PathFile.
func SaveConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.PathFile == "" {
		return errors.ErrConfigInvalid.WithError(fmt.Errorf("config file path is not set"))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.PathFile), 0755); err != nil {
		return errors.ErrConfigInvalid.WithError(err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.ErrConfigInvalid.WithError(err)
	}

	if err := os.WriteFile(cfg.PathFile, buf.Bytes(), 0600); err != nil {
		return errors.ErrConfigInvalid.WithError(err).WithContext("path", cfg.PathFile)
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.ErrConfigInvalid.WithError(fmt.Errorf(format, args...))
	}

	if !IsSupportedLanguage(c.Language) {
		return invalid("unsupported language %q", c.Language)
	}
	if c.MaxLength <= 0 {
		return invalid("max_length must be greater than 0")
	}
	if !IsSupportedAI(c.ActiveProvider) {
		return errors.ErrProviderNotSupported.WithContext("provider", string(c.ActiveProvider))
	}
	for name := range c.Providers {
		if !IsSupportedAI(name) {
			return errors.ErrProviderNotSupported.WithContext("provider", string(name))
		}
	}

	p := c.Pipeline
	if p.MaxIterations < 1 {
		return invalid("pipeline.max_iterations must be at least 1")
	}
	// A min_criteria_score of 0 turns the per-criterion floor off.
	thresholds := map[string]int{
		"simple_threshold":   p.SimpleThreshold,
		"moderate_threshold": p.ModerateThreshold,
		"complex_threshold":  p.ComplexThreshold,
		"threshold_floor":    p.ThresholdFloor,
		"min_criteria_score": p.MinCriteriaScore,
	}
	for name, v := range thresholds {
		if v < 0 || v > 100 {
			return invalid("pipeline.%s must be between 0 and 100", name)
		}
	}
	if p.ThresholdFloor > min(p.SimpleThreshold, p.ModerateThreshold, p.ComplexThreshold) {
		return invalid("pipeline.threshold_floor cannot exceed any base threshold")
	}
	if p.IterationDecay < 0 {
		return invalid("pipeline.iteration_decay cannot be negative")
	}
	if p.CallTimeout.Duration <= 0 {
		return invalid("pipeline.call_timeout must be positive")
	}

	if c.Diff.MaxBytes < 0 {
		return invalid("diff.max_bytes cannot be negative")
	}
	if c.AST.Concurrency < 1 {
		return invalid("ast.concurrency must be at least 1")
	}
	if c.BudgetDaily < 0 {
		return invalid("budget_daily cannot be negative")
	}
	return nil
}

// Provider returns the settings of the active provider, with the default
// model filled in.
func (c *Config) Provider() ProviderConfig {
	pc := c.Providers[c.ActiveProvider]
	if pc.Model == "" {
		pc.Model = DefaultModelForAI(c.ActiveProvider)
	}
	return pc
}

// HistoryPath returns the SQLite file for run history.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// CacheDir returns the response cache directory.
func (c *Config) CacheDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}
