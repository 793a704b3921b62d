// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads pandoc-live settings from a YAML file, a .env file,
// PANDOC_LIVE_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/pandoc"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

const (
	// AppName names the config file and the XDG subdirectories.
	AppName = "pandoc-live"

	// EnvPrefix prefixes environment overrides, e.g. PANDOC_LIVE_SAVE_DEBOUNCE.
	EnvPrefix = "PANDOC_LIVE"
)

// Defaults returns the built-in configuration.
func Defaults() types.Config {
	return types.Config{
		Pandoc: types.PandocConfig{
			Backend: types.BackendLocal,
			Binary:  "pandoc",
			Image:   "pandoc/core:latest",
			Timeout: 30 * time.Second,
		},
		Format: types.FormatConfig{
			ProseWrap: types.ProseWrapPreserve,
			Width:     80,
		},
		Save: types.SaveConfig{
			Debounce:   500 * time.Millisecond,
			MaxBackups: 5,
			LockFiles:  true,
			History:    true,
		},
		Log: types.LogConfig{
			Level: "info",
		},
		Server: types.ServerConfig{
			Addr: "127.0.0.1:8642",
		},
	}
}

// SetDefaults registers every key with its default so that environment
// variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("pandoc.backend", string(d.Pandoc.Backend))
	v.SetDefault("pandoc.binary", d.Pandoc.Binary)
	v.SetDefault("pandoc.image", d.Pandoc.Image)
	v.SetDefault("pandoc.extra_args", d.Pandoc.ExtraArgs)
	v.SetDefault("pandoc.timeout", d.Pandoc.Timeout)
	v.SetDefault("format.prose_wrap", string(d.Format.ProseWrap))
	v.SetDefault("format.width", d.Format.Width)
	v.SetDefault("save.debounce", d.Save.Debounce)
	v.SetDefault("save.max_backups", d.Save.MaxBackups)
	v.SetDefault("save.lock_files", d.Save.LockFiles)
	v.SetDefault("save.history", d.Save.History)
	v.SetDefault("save.data_dir", d.Save.DataDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("server.addr", d.Server.Addr)
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir returns the per-user data directory holding the save history.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Init prepares v: defaults, config file search path (or cfgFile when set)
// and environment binding. It reads the config file if one exists and
// returns the path used, or "" when none was found.
func Init(v *viper.Viper, cfgFile string) (string, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a validated Config. An empty save.data_dir is
// replaced by DataDir.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Save.DataDir == "" {
		cfg.Save.DataDir = DataDir()
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg and names the first offending key.
func Validate(cfg types.Config) error {
	switch cfg.Pandoc.Backend {
	case types.BackendLocal:
		if cfg.Pandoc.Binary == "" {
			return errors.New("pandoc.binary: must be set for the local backend")
		}
	case types.BackendContainer:
		if cfg.Pandoc.Image == "" {
			return errors.New("pandoc.image: must be set for the container backend")
		}
	default:
		return fmt.Errorf("pandoc.backend: unknown backend %q (want local or container)", cfg.Pandoc.Backend)
	}
	if _, err := pandoc.ParseArgs(cfg.Pandoc.ExtraArgs); err != nil {
		return fmt.Errorf("pandoc.extra_args: %w", err)
	}
	if cfg.Pandoc.Timeout < 0 {
		return fmt.Errorf("pandoc.timeout: must not be negative, got %s", cfg.Pandoc.Timeout)
	}

	switch cfg.Format.ProseWrap {
	case types.ProseWrapPreserve, types.ProseWrapAlways, types.ProseWrapNever:
	default:
		return fmt.Errorf("format.prose_wrap: unknown policy %q (want preserve, always or never)", cfg.Format.ProseWrap)
	}
	if cfg.Format.Width < 0 {
		return fmt.Errorf("format.width: must not be negative, got %d", cfg.Format.Width)
	}

	if cfg.Save.Debounce < 0 {
		return fmt.Errorf("save.debounce: must not be negative, got %s", cfg.Save.Debounce)
	}
	if cfg.Save.MaxBackups < 1 {
		return fmt.Errorf("save.max_backups: must be at least 1, got %d", cfg.Save.MaxBackups)
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Server.Addr == "" {
		return errors.New("server.addr: must be set")
	}
	return nil
}
