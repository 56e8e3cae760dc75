// Package config handles loading of the analyzer configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/variflex_go/internal/analysis"
	"github.com/user/variflex_go/internal/export"
	"github.com/user/variflex_go/internal/parser"
)

// Config is the root configuration structure.
type Config struct {
	Parser   ParserConfig   `yaml:"parser"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ParserConfig holds report reading settings.
type ParserConfig struct {
	ColumnWidth int    `yaml:"column_width"`
	Encoding    string `yaml:"encoding"` // "", "latin1" or "windows-1252"
}

// AnalysisConfig holds analysis settings.
type AnalysisConfig struct {
	SignificanceThreshold float64 `yaml:"significance_threshold"`
}

// OutputConfig holds export and report settings. Empty paths disable that output.
type OutputConfig struct {
	PDF                string `yaml:"pdf"`
	CSV                string `yaml:"csv"`
	CSVDialect         string `yaml:"csv_dialect"`
	Precision          int    `yaml:"precision"`
	IncludePopulations bool   `yaml:"include_populations"`
	PopulationHeatmaps int    `yaml:"population_heatmaps"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Parser: ParserConfig{
			ColumnWidth: parser.DefaultColumnWidth,
		},
		Analysis: AnalysisConfig{
			SignificanceThreshold: analysis.DefaultSignificanceThreshold,
		},
		Output: OutputConfig{
			CSVDialect:         string(export.DialectStandard),
			Precision:          -1,
			PopulationHeatmaps: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a file on top of the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the default if path is
// empty or does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks all settings and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Parser.ColumnWidth <= 0 {
		errs = append(errs, fmt.Sprintf("parser.column_width (%d) must be positive", c.Parser.ColumnWidth))
	}
	if !parser.ValidEncoding(c.Parser.Encoding) {
		errs = append(errs, fmt.Sprintf("parser.encoding (%q) must be one of: utf-8, latin1, windows-1252", c.Parser.Encoding))
	}

	if c.Analysis.SignificanceThreshold <= 0 {
		errs = append(errs, "analysis.significance_threshold must be positive")
	}

	switch export.CSVDialect(strings.ToLower(c.Output.CSVDialect)) {
	case export.DialectStandard, export.DialectTSV:
	default:
		errs = append(errs, fmt.Sprintf("output.csv_dialect (%q) must be one of: standard, tsv", c.Output.CSVDialect))
	}
	if c.Output.Precision < -1 {
		errs = append(errs, "output.precision must be -1 (shortest) or non-negative")
	}
	if c.Output.PopulationHeatmaps < 0 {
		errs = append(errs, "output.population_heatmaps must be non-negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("logging.format (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ParserOptions returns the scanner options implied by the configuration.
func (c *Config) ParserOptions() []parser.Option {
	return []parser.Option{
		parser.WithColumnWidth(c.Parser.ColumnWidth),
		parser.WithEncoding(c.Parser.Encoding),
	}
}

// AnalysisOptions returns the analysis options implied by the configuration.
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{SignificanceThreshold: c.Analysis.SignificanceThreshold}
}

// CSVConfig returns the CSV export settings implied by the configuration.
func (c *Config) CSVConfig() *export.CSVConfig {
	cfg := export.DefaultCSVConfig()
	cfg.Dialect = export.CSVDialect(strings.ToLower(c.Output.CSVDialect))
	cfg.Precision = c.Output.Precision
	cfg.IncludePopulations = c.Output.IncludePopulations
	return cfg
}
