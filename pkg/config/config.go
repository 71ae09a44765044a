package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracking TrackingConfig `yaml:"tracking"`
	Debug    DebugConfig    `yaml:"debug"`
}

type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	RateLimit     int           `yaml:"rate_limit"` // requests per minute
	BurstLimit    int           `yaml:"burst_limit"`
	RetryAttempts int           `yaml:"retry_attempts"`
	Timeout       time.Duration `yaml:"timeout"`
}

type CatalogConfig struct {
	PageSize      int           `yaml:"page_size"`
	PriceMin      int           `yaml:"price_min"`
	PriceMax      int           `yaml:"price_max"`
	PriceDebounce time.Duration `yaml:"price_debounce"`
	OptionsTTL    time.Duration `yaml:"options_ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TrackingConfig struct {
	RabbitURL string `yaml:"rabbit_url"`
	Country   string `yaml:"country"`
}

type DebugConfig struct {
	Address string `yaml:"address"`
}

func (c APIConfig) GetDefaults() APIConfig {
	result := c
	if result.BaseURL == "" {
		result.BaseURL = "http://localhost:8081/api/v1"
	}
	if result.RateLimit == 0 {
		result.RateLimit = 600
	}
	if result.BurstLimit == 0 {
		result.BurstLimit = 10
	}
	if result.RetryAttempts == 0 {
		result.RetryAttempts = 3
	}
	if result.Timeout == 0 {
		result.Timeout = 15 * time.Second
	}
	return result
}

func (c CatalogConfig) GetDefaults() CatalogConfig {
	result := c
	if result.PageSize == 0 {
		result.PageSize = 24
	}
	if result.PriceMax == 0 {
		result.PriceMax = 90000
	}
	if result.PriceDebounce == 0 {
		result.PriceDebounce = 500 * time.Millisecond
	}
	if result.OptionsTTL == 0 {
		result.OptionsTTL = 5 * time.Minute
	}
	return result
}

func (c Config) GetDefaults() Config {
	c.API = c.API.GetDefaults()
	c.Catalog = c.Catalog.GetDefaults()
	if c.Debug.Address == "" {
		c.Debug.Address = ":8082"
	}
	return c
}

// Load reads a yaml file. Values may reference the environment as ${VAR}.
// An empty path gives the defaults.
func Load(path string) (*Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg = cfg.GetDefaults()
	if cfg.Catalog.PriceMax <= cfg.Catalog.PriceMin {
		return nil, fmt.Errorf("catalog.price_max (%d) must be above catalog.price_min (%d)", cfg.Catalog.PriceMax, cfg.Catalog.PriceMin)
	}
	return &cfg, nil
}

// ApplyEnv overrides connection settings from the environment when set.
func (c *Config) ApplyEnv() {
	set := func(dst *string, env string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	set(&c.API.BaseURL, "CATALOG_API_URL")
	set(&c.Redis.Addr, "REDIS_URL")
	set(&c.Redis.Password, "REDIS_PASSWORD")
	set(&c.Tracking.RabbitURL, "RABBIT_URL")
	set(&c.Tracking.Country, "COUNTRY")
}
