// =============================================================================
// CSV to XML Converter - Configuration Module
// =============================================================================
//
// This module loads and manages all configuration. It handles both the main
// application configuration and the conversion profiles.
//
// CONFIGURATION SOURCES:
//   1. Main Config (config.yaml): global settings, layered with koanf
//        defaults < config file < CSVXML_* environment < command-line flags
//   2. Profiles (profiles/*.yaml): one file per kind of input file, decoded
//      with yaml.v3. A profile says which files it applies to, how to read
//      them, which records to keep and how to name the XML elements.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read into MainConfig.
// CSVXML_OUTPUT_DIR overrides output_dir, and so on.
const EnvPrefix = "CSVXML_"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for files to convert.
	// Default: "./input"
	InputDir string `koanf:"input_dir"`

	// OutputDir receives the generated XML files and logs.
	// Default: "./output"
	OutputDir string `koanf:"output_dir"`

	// InputArchiveDir receives input files after a successful conversion.
	// Default: "./input_archive"
	InputArchiveDir string `koanf:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated XML file.
	// Default: "./output_archive"
	OutputArchiveDir string `koanf:"output_archive_dir"`

	// ProfilesDir holds the profile YAML files.
	// Default: "./profiles"
	ProfilesDir string `koanf:"profiles_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	// Default: "text"
	LogFormat string `koanf:"log_format"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat defines the output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {profile}   - Profile code
	//   {name}      - Input file name without extension
	// Default: "{name}_{uuid}.xml"
	OutputNameFormat string `koanf:"output_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files converted at once.
	// Default: 4
	MaxConcurrency int `koanf:"max_concurrency"`

	// ContinueOnError keeps the batch going when one file fails.
	// Default: true
	ContinueOnError bool `koanf:"continue_on_error"`

	// Archive moves converted inputs and copies outputs to the archives.
	// Default: true
	Archive bool `koanf:"archive"`

	// ArchiveDateSubdirs stores archives under YYYY/MM/DD subdirectories.
	// Default: false
	ArchiveDateSubdirs bool `koanf:"archive_date_subdirs"`
}

// defaults are loaded first, before the config file.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"input_dir":            "./input",
		"output_dir":           "./output",
		"input_archive_dir":    "./input_archive",
		"output_archive_dir":   "./output_archive",
		"profiles_dir":         "./profiles",
		"log_level":            "info",
		"log_format":           "text",
		"output_name_format":   "{name}_{uuid}.xml",
		"max_concurrency":      4,
		"continue_on_error":    true,
		"archive":              true,
		"archive_date_subdirs": false,
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML config file. A missing file is fine
//     unless the --config flag was set explicitly.
//   - flags: The command's flag set, or nil. Only flags that were changed
//     on the command line override the other sources.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if a source cannot be read or the result is invalid.
func LoadMainConfig(configPath string, flags *pflag.FlagSet) (*MainConfig, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else if flags != nil && flags.Changed("config") {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 3. Environment variables: CSVXML_OUTPUT_DIR -> output_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were set explicitly
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var config MainConfig
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for options blanked out by a
// config file or the environment.
func applyMainConfigDefaults(config *MainConfig) {
	d := defaults()
	if config.InputDir == "" {
		config.InputDir = d["input_dir"].(string)
	}
	if config.OutputDir == "" {
		config.OutputDir = d["output_dir"].(string)
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = d["input_archive_dir"].(string)
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = d["output_archive_dir"].(string)
	}
	if config.ProfilesDir == "" {
		config.ProfilesDir = d["profiles_dir"].(string)
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = d["output_name_format"].(string)
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = d["max_concurrency"].(int)
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	switch strings.ToLower(config.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be \"text\" or \"json\", got %q", config.LogFormat)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	return nil
}
