package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultModulesDir   = "modules"
	defaultConcurrency  = 8
	defaultUpstreamRef  = "origin/main"
	defaultLocalRef     = "HEAD"
	defaultHistoryDepth = 500
	defaultManifestFile = "MODULE.bazel"
	defaultGitBinary    = "git"
	defaultHTTPTimeout  = 5 * time.Minute
)

// Settings is the configuration of a registrypatcher run.
type Settings struct {
	RegistryRoot string        `yaml:"registry_root"`
	ModulesDir   string        `yaml:"modules_dir"`
	Concurrency  int           `yaml:"concurrency"`
	UpstreamRef  string        `yaml:"upstream_ref"`
	LocalRef     string        `yaml:"local_ref"`
	HistoryDepth int           `yaml:"history_depth"`
	ManifestFile string        `yaml:"manifest_file"`
	IgnoredFiles []string      `yaml:"ignored_files"`
	GitBinary    string        `yaml:"git_binary"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// DefaultSettings returns the settings used when no config file exists.
func DefaultSettings() *Settings {
	settings := &Settings{}
	settings.ApplyDefaults()
	return settings
}

// NewSettings reads and parses a configuration file, expanding environment
// variables and filling defaults for everything left out.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.RegistryRoot = expandEnv(settings.RegistryRoot)
	settings.GitBinary = expandEnv(settings.GitBinary)
	settings.ApplyDefaults()

	if validateErr := settings.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return &settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".registrypatcher.yaml",
		".registrypatcher.yml",
		"registrypatcher.yaml",
		"registrypatcher.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ModulesRoot is the absolute folder holding one sub-folder per module.
func (s *Settings) ModulesRoot() string {
	return filepath.Join(s.RegistryRoot, s.ModulesDir)
}

// IsIgnored reports whether a status path is a housekeeping file that never
// counts as a local modification.
func (s *Settings) IsIgnored(path string) bool {
	base := filepath.Base(path)
	for _, ignored := range s.IgnoredFiles {
		if ignored == path || ignored == base {
			return true
		}
	}
	return false
}

// Validate checks for invalid configuration values.
func (s *Settings) Validate() error {
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", s.Concurrency)
	}
	if s.HistoryDepth < 1 {
		return fmt.Errorf("history_depth must be at least 1, got %d", s.HistoryDepth)
	}
	if filepath.IsAbs(s.ModulesDir) {
		return fmt.Errorf("modules_dir must be relative to registry_root, got %q", s.ModulesDir)
	}
	return nil
}

// ApplyDefaults fills every unset field and makes the registry root absolute.
func (s *Settings) ApplyDefaults() {
	if s.RegistryRoot == "" {
		s.RegistryRoot = "."
	}
	if abs, err := filepath.Abs(s.RegistryRoot); err == nil {
		s.RegistryRoot = abs
	}
	if s.ModulesDir == "" {
		s.ModulesDir = defaultModulesDir
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
	if s.UpstreamRef == "" {
		s.UpstreamRef = defaultUpstreamRef
	}
	if s.LocalRef == "" {
		s.LocalRef = defaultLocalRef
	}
	if s.HistoryDepth == 0 {
		s.HistoryDepth = defaultHistoryDepth
	}
	if s.ManifestFile == "" {
		s.ManifestFile = defaultManifestFile
	}
	if s.IgnoredFiles == nil {
		s.IgnoredFiles = []string{".DS_Store", s.ManifestFile + ".lock"}
	}
	if s.GitBinary == "" {
		s.GitBinary = defaultGitBinary
	}
	if s.HTTPTimeout == 0 {
		s.HTTPTimeout = defaultHTTPTimeout
	}
}

// expandEnv expands ${ENV_VAR} references, warning about unset variables.
func expandEnv(raw string) string {
	if raw == "" {
		return raw
	}
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}
