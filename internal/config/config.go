// Package config loads runtime configuration from YAML with environment
// overrides. Missing files fall back to defaults so a fresh checkout works
// without any setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "RESPONDER_CONFIG"
	databasePathEnv = "RESPONDER_DB"
	logLevelEnv     = "RESPONDER_LOG_LEVEL"
	sourceURLEnv    = "RESPONDER_SOURCE_URL"
	classifierEnv   = "RESPONDER_CLASSIFIER_URL"
	rendererEnv     = "RESPONDER_RENDERER_URL"
	moderationEnv   = "RESPONDER_MODERATION_URL"
	notifyEnv       = "RESPONDER_NOTIFY_URL"
)

// Config holds the settings shared across the daemon and CLI.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Limits    LimitsConfig    `yaml:"limits"`
	Approvals ApprovalConfig  `yaml:"approvals"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Services  ServiceConfig   `yaml:"services"`
}

// DatabaseConfig names the SQLite file backing all state.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration so YAML files can use forms like "30s" or "5m".
// Bare numbers are read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("failed to parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	return fmt.Errorf("failed to parse duration %q", value.Value)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SchedulerConfig sets the background loop intervals.
type SchedulerConfig struct {
	PollInterval       Duration `yaml:"pollInterval"`
	AutomationInterval Duration `yaml:"automationInterval"`
	SweepInterval      Duration `yaml:"sweepInterval"`
}

// LimitsConfig sets the per-minute dispatch ceilings by action type.
type LimitsConfig struct {
	RespondPerMinute int `yaml:"respondPerMinute"`
	DeletePerMinute  int `yaml:"deletePerMinute"`
	FlagPerMinute    int `yaml:"flagPerMinute"`
}

// ApprovalConfig controls the human review queue.
type ApprovalConfig struct {
	AutoApproveAfter Duration `yaml:"autoApproveAfter"`
	UrgentPriority   int      `yaml:"urgentPriority"`
}

// AnalysisConfig tunes reporting and test evaluation.
type AnalysisConfig struct {
	MinSamples       int     `yaml:"minSamples"`
	AnomalyThreshold float64 `yaml:"anomalyThreshold"`
	SecondsPerManual float64 `yaml:"secondsPerManual"`
	HourlyRate       float64 `yaml:"hourlyRate"`
	CostPerResponse  float64 `yaml:"costPerResponse"`
}

// ServiceConfig holds the base URLs of the external collaborators.
type ServiceConfig struct {
	SourceURL     string `yaml:"sourceUrl"`
	ClassifierURL string `yaml:"classifierUrl"`
	RendererURL   string `yaml:"rendererUrl"`
	ModerationURL string `yaml:"moderationUrl"`
	NotifyURL     string `yaml:"notifyUrl"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A missing file is not an error; a present-but-broken file is.
func Load() (Config, error) {
	cfg := Default()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultPath()
	}

	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.fillZeroes()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(sourceURLEnv); v != "" {
		c.Services.SourceURL = v
	}
	if v := os.Getenv(classifierEnv); v != "" {
		c.Services.ClassifierURL = v
	}
	if v := os.Getenv(rendererEnv); v != "" {
		c.Services.RendererURL = v
	}
	if v := os.Getenv(moderationEnv); v != "" {
		c.Services.ModerationURL = v
	}
	if v := os.Getenv(notifyEnv); v != "" {
		c.Services.NotifyURL = v
	}
}

// fillZeroes restores defaults for fields the YAML file zeroed out or
// omitted. Partial config files are common; they should not disable loops.
func (c *Config) fillZeroes() {
	def := Default()
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Scheduler.PollInterval <= 0 {
		c.Scheduler.PollInterval = def.Scheduler.PollInterval
	}
	if c.Scheduler.AutomationInterval <= 0 {
		c.Scheduler.AutomationInterval = def.Scheduler.AutomationInterval
	}
	if c.Scheduler.SweepInterval <= 0 {
		c.Scheduler.SweepInterval = def.Scheduler.SweepInterval
	}
	if c.Limits.RespondPerMinute <= 0 {
		c.Limits.RespondPerMinute = def.Limits.RespondPerMinute
	}
	if c.Limits.DeletePerMinute <= 0 {
		c.Limits.DeletePerMinute = def.Limits.DeletePerMinute
	}
	if c.Limits.FlagPerMinute <= 0 {
		c.Limits.FlagPerMinute = def.Limits.FlagPerMinute
	}
	if c.Approvals.AutoApproveAfter <= 0 {
		c.Approvals.AutoApproveAfter = def.Approvals.AutoApproveAfter
	}
	if c.Approvals.UrgentPriority <= 0 {
		c.Approvals.UrgentPriority = def.Approvals.UrgentPriority
	}
	if c.Analysis.MinSamples <= 0 {
		c.Analysis.MinSamples = def.Analysis.MinSamples
	}
	if c.Analysis.AnomalyThreshold <= 0 {
		c.Analysis.AnomalyThreshold = def.Analysis.AnomalyThreshold
	}
	if c.Analysis.SecondsPerManual <= 0 {
		c.Analysis.SecondsPerManual = def.Analysis.SecondsPerManual
	}
	if c.Analysis.HourlyRate <= 0 {
		c.Analysis.HourlyRate = def.Analysis.HourlyRate
	}
	if c.Analysis.CostPerResponse <= 0 {
		c.Analysis.CostPerResponse = def.Analysis.CostPerResponse
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: ""},
		Logging:  LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{
			PollInterval:       Duration(60 * time.Second),
			AutomationInterval: Duration(5 * time.Minute),
			SweepInterval:      Duration(60 * time.Second),
		},
		Limits: LimitsConfig{
			RespondPerMinute: 30,
			DeletePerMinute:  15,
			FlagPerMinute:    60,
		},
		Approvals: ApprovalConfig{
			AutoApproveAfter: Duration(24 * time.Hour),
			UrgentPriority:   80,
		},
		Analysis: AnalysisConfig{
			MinSamples:       30,
			AnomalyThreshold: 0.3,
			SecondsPerManual: 180,
			HourlyRate:       30,
			CostPerResponse:  0.25,
		},
		Services: ServiceConfig{},
	}
}

// DefaultPath returns the config file location, honoring RESPONDER_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(configPathEnv); p != "" {
		return p
	}
	return defaultPath()
}

func defaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".responder", "config.yaml")
}
