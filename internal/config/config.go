// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatptq/internal/netclient"
	"github.com/jeranaias/chatptq/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// FastSendMode selects which key combination sends a message in the TUI.
type FastSendMode string

const (
	FastSendLongPressEnter FastSendMode = "LongPressEnter"
	FastSendShiftEnter     FastSendMode = "ShiftEnter"
	FastSendControlEnter   FastSendMode = "ControlEnter"
	FastSendNone           FastSendMode = "None"
)

// FastSendModes lists every mode in display order.
var FastSendModes = []FastSendMode{
	FastSendLongPressEnter,
	FastSendShiftEnter,
	FastSendControlEnter,
	FastSendNone,
}

// ParseFastSendMode converts a mode name, case-insensitively.
func ParseFastSendMode(s string) (FastSendMode, error) {
	s = strings.TrimSpace(s)
	for _, m := range FastSendModes {
		if strings.EqualFold(s, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown fast send mode %q", s)
}

// Valid reports whether m is a known mode.
func (m FastSendMode) Valid() bool {
	_, err := ParseFastSendMode(string(m))
	return err == nil
}

// AppConfig is the complete chatptq configuration. It is a comparable value
// type: edits build a new value, and two values can be compared with ==.
type AppConfig struct {
	EnableSystemProxy   bool            `toml:"enable_system_proxy" json:"enableSystemProxy"`
	UserProxy           netclient.Proxy `toml:"user_proxy" json:"userProxy"`
	APIKey              string          `toml:"api_key" json:"apiKey"`
	AutoStart           bool            `toml:"auto_start" json:"autoStart"`
	GPTName             string          `toml:"gpt_name" json:"gptName"`
	FastSendMode        FastSendMode    `toml:"fast_send_mode" json:"fastSendMode"`
	FastSendLongPressMS int             `toml:"fast_send_long_press_ms" json:"fastSendLongPressDuration"`
	BaseURL             string          `toml:"base_url" json:"baseUrl"`
	Model               string          `toml:"model" json:"model"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

const (
	// DefaultGPTName is the assistant display name.
	DefaultGPTName = "小彭"

	// DefaultLongPressMS is how long Enter must be held in LongPressEnter mode.
	DefaultLongPressMS = 300

	// MaxLongPressMS bounds the long press duration.
	MaxLongPressMS = 5000
)

// Default returns an AppConfig with default values.
func Default() AppConfig {
	return AppConfig{
		EnableSystemProxy:   false,
		UserProxy:           netclient.Proxy{Host: "0.0.0.0", Port: 0},
		APIKey:              "",
		AutoStart:           false,
		GPTName:             DefaultGPTName,
		FastSendMode:        FastSendShiftEnter,
		FastSendLongPressMS: DefaultLongPressMS,
		BaseURL:             netclient.DefaultBaseURL,
		Model:               netclient.DefaultModel,
	}
}

// fillDefaults fills in missing values with defaults.
func fillDefaults(cfg *AppConfig) {
	defaults := Default()

	if strings.TrimSpace(cfg.GPTName) == "" {
		cfg.GPTName = defaults.GPTName
	}
	if cfg.FastSendMode == "" {
		cfg.FastSendMode = defaults.FastSendMode
	} else if m, err := ParseFastSendMode(string(cfg.FastSendMode)); err == nil {
		cfg.FastSendMode = m
	}
	if cfg.FastSendLongPressMS <= 0 {
		cfg.FastSendLongPressMS = defaults.FastSendLongPressMS
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaults.Model
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the chatptq data directory. CHATPTQ_HOME overrides ~/.chatptq.
func Dir() (string, error) {
	if dir := os.Getenv("CHATPTQ_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatptq"), nil
}

// PathTOML returns the path to the TOML config file.
func PathTOML() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the path to the JSON config file.
func PathJSON() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultPath returns the config file to use: the TOML file, unless only the
// JSON file exists.
func DefaultPath() (string, error) {
	tomlPath, err := PathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := PathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file at path. The format is chosen by extension
// (.json is JSON, anything else TOML). Missing fields take default values.
// A missing file returns an error satisfying errors.Is(err, os.ErrNotExist).
func Load(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}

	cfg := Default()
	if isJSON(path) {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("failed to decode JSON file: %w", err)
		}
	} else {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("failed to decode TOML file: %w", err)
		}
	}
	fillDefaults(&cfg)
	return cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions, creating the
// directory if needed.
func Save(cfg AppConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), util.DefaultDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Encode(cfg, path)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Encode renders cfg in the format matching path.
func Encode(cfg AppConfig, path string) ([]byte, error) {
	if isJSON(path) {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode config: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	buf.WriteString("# chatptq configuration file\n")
	buf.WriteString("# Changes are picked up while chatptq is running.\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors if any field
// is unusable.
func (c AppConfig) Validate() error {
	var errs ValidateErrors

	if err := c.UserProxy.Validate(); err != nil {
		errs = append(errs, ValidationError{Field: "user_proxy", Message: err.Error()})
	}

	if !c.FastSendMode.Valid() {
		errs = append(errs, ValidationError{
			Field:   "fast_send_mode",
			Message: fmt.Sprintf("must be one of %v, got %q", FastSendModes, c.FastSendMode),
		})
	}

	if c.FastSendLongPressMS <= 0 || c.FastSendLongPressMS > MaxLongPressMS {
		errs = append(errs, ValidationError{
			Field:   "fast_send_long_press_ms",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxLongPressMS, c.FastSendLongPressMS),
		})
	}

	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "base_url",
				Message: fmt.Sprintf("must be an http(s) URL, got %q", c.BaseURL),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NetworkConfig derives the network client configuration for a direct
// (non system proxy) setup.
func (c AppConfig) NetworkConfig() netclient.Config {
	nc := netclient.Config{APIKey: c.APIKey, BaseURL: c.BaseURL, Model: c.Model}
	if !c.UserProxy.Direct() {
		p := c.UserProxy
		nc.Proxy = &p
	}
	return nc
}

// Redacted returns a copy safe to print or log.
func (c AppConfig) Redacted() AppConfig {
	if c.APIKey != "" {
		c.APIKey = redactKey(c.APIKey)
	}
	return c
}

// String returns a representation with the API key redacted.
func (c AppConfig) String() string {
	r := c.Redacted()
	return fmt.Sprintf("AppConfig{api_key=%s proxy=%s system_proxy=%t auto_start=%t gpt_name=%q mode=%s long_press=%dms base_url=%s model=%s}",
		r.APIKey, r.UserProxy, r.EnableSystemProxy, r.AutoStart, r.GPTName,
		r.FastSendMode, r.FastSendLongPressMS, r.BaseURL, r.Model)
}

func redactKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
