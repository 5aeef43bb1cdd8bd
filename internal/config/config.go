package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pointofvision/server/internal/vision"
)

type Config struct {
	Vision   VisionConfig   `toml:"vision"`
	Scene    SceneConfig    `toml:"scene"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

type VisionConfig struct {
	DefaultMode        int           `toml:"default_mode"` // 0, 5 or 10
	ExpandVisibility   bool          `toml:"expand_visibility"`
	CorrectBottomRight bool          `toml:"correct_bottom_right"`
	TickRate           time.Duration `toml:"tick_rate"`
}

type SceneConfig struct {
	Fixture  string `toml:"fixture"`
	Language string `toml:"language"` // BCP 47 tag for labels
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty keeps flags in memory
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the core cannot run with.
func (c *Config) Validate() error {
	if !vision.Mode(c.Vision.DefaultMode).WorldChoice() {
		return fmt.Errorf("vision.default_mode %d: must be 0, 5 or 10", c.Vision.DefaultMode)
	}
	if c.Vision.TickRate <= 0 {
		return fmt.Errorf("vision.tick_rate %s: must be positive", c.Vision.TickRate)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q: must be json or console", c.Logging.Format)
	}
	return nil
}

// VisionSettings is the core settings snapshot described by the config.
func (c *Config) VisionSettings() vision.Settings {
	return vision.Settings{
		DefaultMode:        vision.Mode(c.Vision.DefaultMode),
		ExpandVisibility:   c.Vision.ExpandVisibility,
		CorrectBottomRight: c.Vision.CorrectBottomRight,
	}
}

func defaults() *Config {
	return &Config{
		Vision: VisionConfig{
			DefaultMode:      int(vision.ModeAllCornersAndCenter),
			ExpandVisibility: true,
			TickRate:         100 * time.Millisecond,
		},
		Scene: SceneConfig{
			Fixture:  "data/yaml/scene.yaml",
			Language: "en",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
