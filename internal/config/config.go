package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "PHYTO_CONFIG"

// Config 应用配置
type Config struct {
	Port              string        `yaml:"port"`
	DBPath            string        `yaml:"db_path"`
	DatasetPath       string        `yaml:"dataset_path"`
	IconDir           string        `yaml:"icon_dir"`
	JWTSecret         string        `yaml:"jwt_secret"` // empty disables auth on write endpoints
	LogLevel          string        `yaml:"log_level"`
	RateLimit         int           `yaml:"rate_limit"` // write requests per minute per IP, 0 disables
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	WatchDataset      bool          `yaml:"watch_dataset"`
	BucketDeg         float64       `yaml:"bucket_deg"`
	MarkerLimit       int           `yaml:"marker_limit"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port:              ":8080",
		DBPath:            "./data/phyto.db",
		DatasetPath:       "./data-analytics/Phytoplankton_harmonized_database_revised.csv",
		IconDir:           "./public/heropytoplanktonimg",
		LogLevel:          "info",
		RateLimit:         120,
		HeartbeatInterval: 15 * time.Second,
		WatchDataset:      true,
		BucketDeg:         0.5,
		MarkerLimit:       200,
	}
}

// Load 加载配置: defaults, then the YAML file at path (or $PHYTO_CONFIG), then
// environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(payload, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Port = port
	}
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		c.DBPath = dbPath
	}
	if dataset := os.Getenv("DATASET_PATH"); dataset != "" {
		c.DatasetPath = dataset
	}
	if iconDir := os.Getenv("ICON_DIR"); iconDir != "" {
		c.IconDir = iconDir
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWTSecret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT: %w", err)
		}
		c.RateLimit = n
	}
	if v := os.Getenv("HEARTBEAT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HEARTBEAT_INTERVAL: %w", err)
		}
		c.HeartbeatInterval = d
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("heartbeat_interval must be positive"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("rate_limit must not be negative"))
	}
	if !(c.BucketDeg > 0) {
		errs = append(errs, errors.New("bucket_deg must be positive"))
	}
	if c.MarkerLimit <= 0 {
		errs = append(errs, errors.New("marker_limit must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
