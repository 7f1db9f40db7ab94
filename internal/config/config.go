/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Card geometry (coordinates, fonts, cutoffs) is not stored here; it lives in the
// style file referenced by render.style_file.

type RenderConfig struct {
	StyleFile string `yaml:"style_file"` // empty means the built-in default style
	Template  string `yaml:"template"`   // background template used when a job names none
	OutputDir string `yaml:"output_dir"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty means <config dir>/history.sqlite
	Keep    int    `yaml:"keep"` // newest renders kept after each insert; negative keeps all
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Render        RenderConfig  `yaml:"render"`
	Server        ServerConfig  `yaml:"server"`
	History       HistoryConfig `yaml:"history"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Render:        RenderConfig{StyleFile: "", Template: "template.png", OutputDir: "."},
		Server:        ServerConfig{Addr: ":8080", MaxUploadMB: 8},
		History:       HistoryConfig{Enabled: false, Path: "", Keep: 500},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "VCARD_CONFIG"
	EnvStyleFile      = "VCARD_STYLE_FILE"
	EnvTemplate       = "VCARD_TEMPLATE"
	EnvOutputDir      = "VCARD_OUTPUT_DIR"
	EnvServerAddr     = "VCARD_SERVER_ADDR"
	EnvMaxUploadMB    = "VCARD_MAX_UPLOAD_MB"
	EnvHistoryEnabled = "VCARD_HISTORY"
	EnvHistoryPath    = "VCARD_HISTORY_PATH"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "VCARD_LOG_LEVEL"
	EnvLogFormat = "VCARD_LOG_FORMAT"
	EnvLogSource = "VCARD_LOG_SOURCE"
	EnvLogFile   = "VCARD_LOG_FILE"
)

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "VisitingCard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "VisitingCard")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "visitingcard")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "visitingcard")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path. VCARD_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A config file that exists but does not parse is reported; a missing one is not an error.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, err
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// HistoryPath resolves the history database location.
func (c AppConfig) HistoryPath() (string, error) {
	if p := strings.TrimSpace(c.History.Path); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.sqlite"), nil
}

// MaxUploadBytes returns the upload limit for the HTTP API.
func (s ServerConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return int64(Defaults().Server.MaxUploadMB) << 20
	}
	return int64(s.MaxUploadMB) << 20
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.Render.StyleFile); v != "" {
		dst.Render.StyleFile = v
	}
	if v := strings.TrimSpace(src.Render.Template); v != "" {
		dst.Render.Template = v
	}
	if v := strings.TrimSpace(src.Render.OutputDir); v != "" {
		dst.Render.OutputDir = v
	}
	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if src.Server.MaxUploadMB != 0 {
		dst.Server.MaxUploadMB = src.Server.MaxUploadMB
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.History.Enabled = src.History.Enabled
	if v := strings.TrimSpace(src.History.Path); v != "" {
		dst.History.Path = v
	}
	if src.History.Keep != 0 {
		dst.History.Keep = src.History.Keep
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvStyleFile)); v != "" {
		cfg.Render.StyleFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTemplate)); v != "" {
		cfg.Render.Template = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		cfg.Render.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxUploadMB)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxUploadMB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryEnabled)); v != "" {
		cfg.History.Enabled = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryPath)); v != "" {
		cfg.History.Path = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	envs := map[string]string{
		"render.style_file":    EnvStyleFile,
		"render.template":      EnvTemplate,
		"render.output_dir":    EnvOutputDir,
		"server.addr":          EnvServerAddr,
		"server.max_upload_mb": EnvMaxUploadMB,
		"history.enabled":      EnvHistoryEnabled,
		"history.path":         EnvHistoryPath,
		"logging.level":        EnvLogLevel,
		"logging.format":       EnvLogFormat,
		"logging.source":       EnvLogSource,
		"logging.file":         EnvLogFile,
	}
	name, ok := envs[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
