// Package config loads the CLI configuration from defaults, the user's global
// config file, the project's ionic.config.json and IONIC_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	ENV_PREFIX          = "IONIC_"
	PROJECT_CONFIG_FILE = "ionic.config.json"
)

// Configuration represents the settings the emulate flow reads.
type Configuration struct {
	CordovaCmd            string   `koanf:"cordova_cmd" validate:"required"`
	DefaultPort           int      `koanf:"default_port" validate:"min=1,max=65535"`
	DefaultLiveReloadPort int      `koanf:"default_livereload_port" validate:"min=1,max=65535"`
	DefaultAddress        string   `koanf:"default_address" validate:"required"`
	Plugins               []string `koanf:"plugins" validate:"dive,required"`
	ScriptPrefix          string   `koanf:"script_prefix"`
}

// Load loads configuration for the project in projectDir.
// Priority: Environment variables > Project config > Global config > Defaults
func Load(projectDir string) (*Configuration, error) {
	globalPath := ""
	if homeDir, err := os.UserHomeDir(); err == nil {
		globalPath = filepath.Join(homeDir, ".ionic", "config.json")
	}
	return LoadFrom(globalPath, projectDir)
}

// LoadFrom is Load with an explicit global config path. An empty path skips the global layer.
func LoadFrom(globalPath, projectDir string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply default %s: %w", key, err)
		}
	}

	if err := loadFileIfExists(k, globalPath); err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}

	if projectDir != "" {
		if err := loadFileIfExists(k, filepath.Join(projectDir, PROJECT_CONFIG_FILE)); err != nil {
			return nil, fmt.Errorf("failed to load project config: %w", err)
		}
	}

	if err := k.Load(env.Provider(ENV_PREFIX, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return k.Load(file.Provider(path), json.Parser())
}

// envTransform converts environment variable names to config keys
// Example: IONIC_DEFAULT_PORT -> default_port
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, ENV_PREFIX))
}
