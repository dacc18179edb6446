package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/transcodarr/internal/paths"
	"github.com/spf13/viper"
)

// Config is the top-level transcodarr configuration.
type Config struct {
	Sources []string      `mapstructure:"sources"`
	Dest    string        `mapstructure:"dest"`
	Workdir string        `mapstructure:"workdir"`
	Quality QualityConfig `mapstructure:"quality"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// QualityConfig holds the effective encoder quality settings. One global
// pair applies to every entry; per-entry overrides are not configured here.
type QualityConfig struct {
	// CRF is the libx265 constant rate factor. Lower means higher quality
	// and a larger output.
	CRF int `mapstructure:"crf"`
	// ResCap is the maximum output height in pixels. Sources taller than
	// this are downscaled. 0 disables the cap.
	ResCap int `mapstructure:"res_cap"`
}

// ServerConfig holds HTTP control surface settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig mirrors logging.Config so the config file stays one document.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Sources: []string{},
		Dest:    "",
		Workdir: "/workdir",
		Quality: QualityConfig{
			CRF:    18,
			ResCap: 0,
		},
		Server: ServerConfig{
			Addr: ":8585",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Load loads configuration from the given file, falling back to the default
// location, then to defaults for anything unset.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile == "" {
		var err error
		configFile, err = paths.ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("unable to get config path: %w", err)
		}
	}
	v.SetConfigFile(configFile)

	if _, err := os.Stat(configFile); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration can actually drive a transcode run.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no source directories configured")
	}
	if c.Dest == "" {
		return fmt.Errorf("no destination directory configured")
	}
	if c.Quality.CRF < 0 || c.Quality.CRF > 51 {
		return fmt.Errorf("crf %d out of range 0-51", c.Quality.CRF)
	}
	if c.Quality.ResCap < 0 {
		return fmt.Errorf("res_cap must be >= 0")
	}
	return nil
}

// Save writes the configuration to the default config file location.
func (c *Config) Save() error {
	configFile, err := paths.ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	return os.WriteFile(configFile, []byte(c.ToTOML()), 0644)
}

func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# Transcodarr Configuration
# Generated by: transcodarr config init

# ============================================================================
# SOURCE DIRECTORIES
# Directories scanned at startup for media files to transcode
# ============================================================================
sources = %s

# ============================================================================
# DESTINATION
# The state database lives at <dest>/.transcoder/state.db
# ============================================================================
dest = "%s"

# Scratch directory for in-flight encodes
workdir = "%s"

# ============================================================================
# QUALITY
# ============================================================================
[quality]
# libx265 constant rate factor (lower = higher quality)
crf = %d

# Maximum output height in pixels; taller sources are downscaled (0 = off)
res_cap = %d

# ============================================================================
# HTTP CONTROL SURFACE
# ============================================================================
[server]
addr = "%s"

# ============================================================================
# LOGGING
# ============================================================================
[logging]
level = "%s"
file = "%s"
max_size_mb = %d
max_backups = %d
`,
		formatStringSlice(c.Sources),
		c.Dest,
		c.Workdir,
		c.Quality.CRF,
		c.Quality.ResCap,
		c.Server.Addr,
		c.Logging.Level,
		c.Logging.File,
		c.Logging.MaxSizeMB,
		c.Logging.MaxBackups,
	)
}

func formatStringSlice(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
