// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainsconfig provides configuration parsing and validation for qtgains.
//
// Configuration is stored at <dir>/qtgains.yaml, where <dir> is the base
// directory given by the --dir flag.
package qtgainsconfig

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsfetch"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainspath"
	"github.com/bufdev/qtgains/internal/standard/xos"
	"gopkg.in/yaml.v3"
)

const (
	// defaultCurrencyCode is the currency used when none is configured.
	defaultCurrencyCode = "CAD"
	// defaultMaxAttempts makes exactly one request per window.
	defaultMaxAttempts = 1
	// defaultParallelism requests windows one at a time.
	defaultParallelism = 1
)

// configTemplate is the default configuration file template with comments.
// yaml.v3 does not preserve comments, so we hardcode the template string.
const configTemplate = `# The configuration file version.
#
# Required. The only current valid version is v1.
version: v1
# Questrade account configuration.
#
# Required. Generate a refresh token at https://login.questrade.com under
# App Hub > Personal Apps, then set it via the QUESTRADE_REFRESH_TOKEN
# environment variable (or in a .env file next to this file) for the first
# run. Questrade refresh tokens are single-use: qtgains stores each new
# token under data/refresh_token and uses that one on later runs.
questrade:
  # The account number (visible on the Questrade accounts page).
  #
  # Required.
  account_id: ""
  # The time to start reading activities from, as an RFC3339 timestamp.
  # Use a time before the first trade in the account.
  #
  # Required.
  start_time: ""
  # The OAuth2 token endpoint.
  #
  # Optional. Defaults to https://login.questrade.com/oauth2/token.
  # login_url: https://practicelogin.questrade.com/oauth2/token
# The ISO currency code gains are reported in.
#
# Optional. Defaults to CAD.
currency: CAD
# Activity retrieval configuration.
#
# Optional.
# fetch:
#   # Days per activities request, between 1 and 31. Defaults to 30.
#   window_days: 30
#   # Number of concurrent activities requests. Defaults to 1.
#   parallelism: 1
#   # Attempts per request on rate limiting or server errors. Defaults to 1.
#   max_attempts: 1
`

// ExternalConfig is the YAML-serializable configuration file structure.
type ExternalConfig struct {
	// Version is the configuration file version (must be "v1").
	Version string `yaml:"version"`
	// Questrade holds the Questrade account configuration.
	Questrade ExternalQuestradeConfig `yaml:"questrade"`
	// Currency is the ISO currency code gains are reported in.
	Currency string `yaml:"currency"`
	// Fetch holds the optional activity retrieval configuration.
	Fetch ExternalFetchConfig `yaml:"fetch"`
}

// ExternalQuestradeConfig holds Questrade-specific configuration.
type ExternalQuestradeConfig struct {
	// AccountID is the Questrade account number.
	AccountID string `yaml:"account_id"`
	// StartTime is the RFC3339 time to start reading activities from.
	StartTime string `yaml:"start_time"`
	// LoginURL optionally overrides the OAuth2 token endpoint.
	LoginURL string `yaml:"login_url"`
}

// ExternalFetchConfig holds activity retrieval configuration.
type ExternalFetchConfig struct {
	// WindowDays is the number of days per activities request.
	WindowDays int `yaml:"window_days"`
	// Parallelism is the number of concurrent activities requests.
	Parallelism int `yaml:"parallelism"`
	// MaxAttempts is the number of attempts per request.
	MaxAttempts int `yaml:"max_attempts"`
}

// Config is the validated runtime configuration derived from the config file.
type Config struct {
	// DirPath is the base directory containing qtgains.yaml.
	DirPath string
	// AccountID is the Questrade account number.
	AccountID string
	// StartTime is the RFC3339 time to start reading activities from.
	//
	// It is kept as written so the fetcher reports the exact value on error.
	StartTime string
	// LoginURL is the OAuth2 token endpoint, empty for the default.
	LoginURL string
	// CurrencyCode is the ISO currency code gains are reported in.
	CurrencyCode string
	// WindowDays is the number of days per activities request.
	WindowDays int
	// Parallelism is the number of concurrent activities requests.
	Parallelism int
	// MaxAttempts is the number of attempts per activities request.
	MaxAttempts int
}

// NewConfig validates an ExternalConfig and returns a runtime Config.
func NewConfig(dirPath string, externalConfig ExternalConfig) (*Config, error) {
	if externalConfig.Version != "v1" {
		return nil, fmt.Errorf("unsupported config version %q, must be v1", externalConfig.Version)
	}
	if externalConfig.Questrade.AccountID == "" {
		return nil, errors.New("questrade.account_id is required")
	}
	if externalConfig.Questrade.StartTime == "" {
		return nil, errors.New("questrade.start_time is required")
	}
	if _, err := time.Parse(time.RFC3339, externalConfig.Questrade.StartTime); err != nil {
		return nil, fmt.Errorf("questrade.start_time %q is not an RFC3339 timestamp: %w", externalConfig.Questrade.StartTime, err)
	}
	currencyCode := defaultCurrencyCode
	if externalConfig.Currency != "" {
		currencyCode = strings.ToUpper(externalConfig.Currency)
	}
	if money.GetCurrency(currencyCode) == nil {
		return nil, fmt.Errorf("unknown currency %q", externalConfig.Currency)
	}
	windowDays := externalConfig.Fetch.WindowDays
	if windowDays == 0 {
		windowDays = qtgainsfetch.DefaultWindowDays
	}
	if windowDays < 1 || windowDays > qtgainsfetch.MaxWindowDays {
		return nil, fmt.Errorf("fetch.window_days must be between 1 and %d, got %d", qtgainsfetch.MaxWindowDays, windowDays)
	}
	parallelism := externalConfig.Fetch.Parallelism
	if parallelism == 0 {
		parallelism = defaultParallelism
	}
	if parallelism < 1 {
		return nil, fmt.Errorf("fetch.parallelism must be at least 1, got %d", parallelism)
	}
	maxAttempts := externalConfig.Fetch.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = defaultMaxAttempts
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("fetch.max_attempts must be at least 1, got %d", maxAttempts)
	}
	return &Config{
		DirPath:      dirPath,
		AccountID:    externalConfig.Questrade.AccountID,
		StartTime:    externalConfig.Questrade.StartTime,
		LoginURL:     externalConfig.Questrade.LoginURL,
		CurrencyCode: currencyCode,
		WindowDays:   windowDays,
		Parallelism:  parallelism,
		MaxAttempts:  maxAttempts,
	}, nil
}

// ReadConfig reads and validates the configuration file from the given base directory.
// Returns a clear error message directing users to run "qtgains config init" if the file is missing.
func ReadConfig(dirPath string) (*Config, error) {
	dirPath, err := xos.ExpandHome(dirPath)
	if err != nil {
		return nil, err
	}
	filePath := qtgainspath.ConfigFilePath(dirPath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found at %s, run \"qtgains config init\" to create one", filePath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var externalConfig ExternalConfig
	if err := unmarshalYAMLStrict(data, &externalConfig); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
	}
	return NewConfig(dirPath, externalConfig)
}

// InitConfig creates a new configuration file with a documented template.
// Creates the base directory if it does not exist.
// Returns the path to the created file, or an error if the file already exists.
func InitConfig(dirPath string) (string, error) {
	dirPath, err := xos.ExpandHome(dirPath)
	if err != nil {
		return "", err
	}
	filePath := qtgainspath.ConfigFilePath(dirPath)
	if _, err := os.Stat(filePath); err == nil {
		return "", fmt.Errorf("configuration file already exists: %s", filePath)
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(filePath, []byte(configTemplate), 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

// ValidateConfig reads and validates the configuration file from the given base directory.
func ValidateConfig(dirPath string) error {
	_, err := ReadConfig(dirPath)
	return err
}

// unmarshalYAMLStrict unmarshals the data as YAML with strict field checking.
// If the data length is 0, this is a no-op.
func unmarshalYAMLStrict(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	yamlDecoder := yaml.NewDecoder(bytes.NewReader(data))
	// Reject unknown fields.
	yamlDecoder.KnownFields(true)
	if err := yamlDecoder.Decode(v); err != nil {
		return fmt.Errorf("could not unmarshal as YAML: %w", err)
	}
	return nil
}
