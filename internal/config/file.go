package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".gradscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .gradscan configuration file.
// Every section is optional; unset values fall back to the compiled-in
// defaults (and, for the scrape section, the environment overrides).
type File struct {
	// Scrape holds crawl settings.
	Scrape ScrapeFileConfig `yaml:"scrape,omitempty"`

	// Clean holds cleaning-stage settings.
	Clean CleanFileConfig `yaml:"clean,omitempty"`

	// Database holds storage settings.
	Database DatabaseFileConfig `yaml:"database,omitempty"`
}

// ScrapeFileConfig holds the crawl settings of the configuration file.
type ScrapeFileConfig struct {
	// Target is the unique-record count at which the crawl stops.
	Target int `yaml:"target,omitempty"`

	// Workers bounds concurrent in-flight page requests.
	Workers int `yaml:"workers,omitempty"`

	// TimeoutSeconds is the per-attempt HTTP timeout in seconds.
	TimeoutSeconds float64 `yaml:"timeoutSeconds,omitempty"`

	// Retries is the maximum retry count per page fetch.
	Retries int `yaml:"retries,omitempty"`

	// SaveEveryPages is the checkpoint interval in completed pages.
	SaveEveryPages int `yaml:"saveEveryPages,omitempty"`

	// Output is the checkpoint file path for raw scraped records.
	Output string `yaml:"output,omitempty"`

	// UserAgent overrides the User-Agent header for page requests.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// CleanFileConfig holds the cleaning-stage settings of the configuration file.
type CleanFileConfig struct {
	// APIURL is the local standardizer API endpoint.
	APIURL string `yaml:"apiUrl,omitempty"`

	// BatchSize is the number of rows per standardizer API call.
	BatchSize int `yaml:"batchSize,omitempty"`

	// TimeoutSeconds is the per-call API timeout in seconds.
	TimeoutSeconds float64 `yaml:"timeoutSeconds,omitempty"`

	// Output is the cleaned output file path.
	Output string `yaml:"output,omitempty"`
}

// DatabaseFileConfig holds the storage settings of the configuration file.
type DatabaseFileConfig struct {
	// Dir is the directory holding the SQLite database.
	Dir string `yaml:"dir,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .gradscan in the current directory
// 3. Look for .gradscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply overlays the file's settings onto a Config.
// Only set (non-zero) values override; everything else is left alone, so
// precedence stays defaults < environment < file < flags.
func (f *File) Apply(cfg *Config) {
	if f.Scrape.Target > 0 {
		cfg.TargetCount = f.Scrape.Target
	}
	if f.Scrape.Workers > 0 {
		cfg.Workers = f.Scrape.Workers
	}
	if f.Scrape.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(f.Scrape.TimeoutSeconds * float64(time.Second))
	}
	if f.Scrape.Retries > 0 {
		cfg.Retries = f.Scrape.Retries
	}
	if f.Scrape.SaveEveryPages > 0 {
		cfg.SaveInterval = f.Scrape.SaveEveryPages
	}
	if f.Scrape.Output != "" {
		cfg.OutputFile = f.Scrape.Output
	}
	if f.Scrape.UserAgent != "" {
		cfg.UserAgent = f.Scrape.UserAgent
	}

	if f.Clean.APIURL != "" {
		cfg.StandardizerURL = f.Clean.APIURL
	}
	if f.Clean.BatchSize > 0 {
		cfg.CleanBatchSize = f.Clean.BatchSize
	}
	if f.Clean.TimeoutSeconds > 0 {
		cfg.CleanTimeout = time.Duration(f.Clean.TimeoutSeconds * float64(time.Second))
	}
	if f.Clean.Output != "" {
		cfg.CleanedFile = f.Clean.Output
	}

	if f.Database.Dir != "" {
		cfg.DBDir = f.Database.Dir
	}
}
