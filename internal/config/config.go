// =============================================================================
// Transaction Aggregator - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// SOURCES (in increasing precedence):
//   1. Built-in defaults (Default)
//   2. The YAML config file (config.yaml), if it exists
//   3. Environment variables prefixed with AGGREGATOR_, e.g.
//      AGGREGATOR_OUTPUT_DIR or AGGREGATOR_REPORTS_SUSPICIOUS_TRANSACTIONS
//
// A missing config file is not an error; the defaults apply. A config file
// that exists but cannot be parsed is.
//
// =============================================================================

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

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "AGGREGATOR"

// Supported values for the enumerated settings.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"

	ReportFormatCSV  = "csv"
	ReportFormatXLSX = "xlsx"
	ReportFormatBoth = "both"
)

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{LogFormatConsole, LogFormatJSON}
	validReportFormats = []string{ReportFormatCSV, ReportFormatXLSX, ReportFormatBoth}
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the global application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for .csv and .json files when no input is named
	// on the command line.
	// Default: "./input"
	InputDir string `yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir is where reports and the run summary log are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// InputArchiveDir receives processed input files when ArchiveInputs is set.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" mapstructure:"input_archive_dir"`

	// ArchiveInputs moves each successfully processed input into
	// InputArchiveDir.
	// Default: false
	ArchiveInputs bool `yaml:"archive_inputs" mapstructure:"archive_inputs"`

	// ArchiveDateSubdirs files archived inputs under YYYY/MM/DD
	// subdirectories of InputArchiveDir.
	// Default: false
	ArchiveDateSubdirs bool `yaml:"archive_date_subdirs" mapstructure:"archive_date_subdirs"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// LogFormat selects human-readable or JSON log lines.
	// Valid values: "console", "json"
	// Default: "console"
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// ReportFormat selects CSV files, an XLSX workbook, or both.
	// Valid values: "csv", "xlsx", "both"
	// Default: "csv"
	ReportFormat string `yaml:"report_format" mapstructure:"report_format"`

	// OutputNameFormat defines the base name of each output file, without
	// extension.
	// Placeholders:
	//   {source}    - Input file name without extension. When an earlier
	//                 file of the run already used the stem, the extension
	//                 is appended, e.g. march_json
	//   {report}    - Report name, e.g. account_summaries
	//   {run_id}    - The run's UUID
	//   {date}      - Current date (YYYYMMDD)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	// Default: "{source}_{report}"
	OutputNameFormat string `yaml:"output_name_format" mapstructure:"output_name_format"`

	// Reports selects which of the three reports are produced.
	Reports ReportSelection `yaml:"reports" mapstructure:"reports"`
}

// ReportSelection toggles the individual reports.
type ReportSelection struct {
	AccountSummaries       bool `yaml:"account_summaries" mapstructure:"account_summaries"`
	SuspiciousTransactions bool `yaml:"suspicious_transactions" mapstructure:"suspicious_transactions"`
	TransactionStatistics  bool `yaml:"transaction_statistics" mapstructure:"transaction_statistics"`
}

// Any reports whether at least one report is selected.
func (r ReportSelection) Any() bool {
	return r.AccountSummaries || r.SuspiciousTransactions || r.TransactionStatistics
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InputDir:           "./input",
		OutputDir:          "./output",
		InputArchiveDir:    "./input_archive",
		ArchiveInputs:      false,
		ArchiveDateSubdirs: false,
		LogLevel:           "info",
		LogFormat:          LogFormatConsole,
		ReportFormat:       ReportFormatCSV,
		OutputNameFormat:   "{source}_{report}",
		Reports: ReportSelection{
			AccountSummaries:       true,
			SuspiciousTransactions: true,
			TransactionStatistics:  true,
		},
	}
}

// setDefaults registers every key with viper. AutomaticEnv only resolves
// keys viper already knows about, so this also enables the env overrides.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("input_archive_dir", d.InputArchiveDir)
	v.SetDefault("archive_inputs", d.ArchiveInputs)
	v.SetDefault("archive_date_subdirs", d.ArchiveDateSubdirs)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("report_format", d.ReportFormat)
	v.SetDefault("output_name_format", d.OutputNameFormat)
	v.SetDefault("reports.account_summaries", d.Reports.AccountSummaries)
	v.SetDefault("reports.suspicious_transactions", d.Reports.SuspiciousTransactions)
	v.SetDefault("reports.transaction_statistics", d.Reports.TransactionStatistics)
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load builds the configuration from defaults, the YAML file at configPath
// and the environment.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. May not exist.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file exists but cannot be parsed, or a value is invalid.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" && fileExists(configPath) {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("log_level %q must be one of %s", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if !contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("log_format %q must be one of %s", c.LogFormat, strings.Join(validLogFormats, ", "))
	}
	if !contains(validReportFormats, c.ReportFormat) {
		return fmt.Errorf("report_format %q must be one of %s", c.ReportFormat, strings.Join(validReportFormats, ", "))
	}
	if strings.TrimSpace(c.OutputNameFormat) == "" {
		return errors.New("output_name_format must not be empty")
	}
	// Each CSV report is its own file, so names must differ per report.
	if c.WantsCSV() && !strings.Contains(c.OutputNameFormat, "{report}") {
		return errors.New("output_name_format must contain {report} when writing csv reports")
	}
	return nil
}

// WantsCSV reports whether CSV reports should be written.
func (c *Config) WantsCSV() bool {
	return c.ReportFormat == ReportFormatCSV || c.ReportFormat == ReportFormatBoth
}

// WantsXLSX reports whether the XLSX workbook should be written.
func (c *Config) WantsXLSX() bool {
	return c.ReportFormat == ReportFormatXLSX || c.ReportFormat == ReportFormatBoth
}

// =============================================================================
// CONFIGURATION OUTPUT
// =============================================================================

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Write saves cfg as YAML at path, creating the parent directory if needed.
func Write(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
