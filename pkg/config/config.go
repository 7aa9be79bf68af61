package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the comparison tools
type Config struct {
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Amazon   AmazonConfig   `mapstructure:"amazon"`
	Grace    GraceConfig    `mapstructure:"grace"`
	Match    MatchConfig    `mapstructure:"match"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Web      WebConfig      `mapstructure:"web"`
}

// ScraperConfig holds settings shared by both retailer fetchers
type ScraperConfig struct {
	UserAgent         string        `mapstructure:"user_agent"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	CacheDir          string        `mapstructure:"cache_dir"` // empty disables the colly cache
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 = unlimited
}

// AmazonConfig holds the marketplace search settings
type AmazonConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Origin      string        `mapstructure:"origin"`
	Pages       int           `mapstructure:"pages"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	PageDelay   time.Duration `mapstructure:"page_delay"`
	ASINPrefix  string        `mapstructure:"asin_prefix"`
}

// GraceConfig holds the storefront search settings
type GraceConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Origin      string        `mapstructure:"origin"`
	MaxPages    int           `mapstructure:"max_pages"`
	PageDelay   time.Duration `mapstructure:"page_delay"`
	BrandPhrase string        `mapstructure:"brand_phrase"`
}

// MatchConfig selects how listings from both retailers are paired
type MatchConfig struct {
	Strategy       string  `mapstructure:"strategy"` // "cross_join" or "name_quantity"
	MinNameOverlap float64 `mapstructure:"min_name_overlap"`
}

// OutputConfig holds sink settings
type OutputConfig struct {
	Path    string `mapstructure:"path"`
	Format  string `mapstructure:"format"` // "xlsx", "csv", "sql" or "json"
	DataDir string `mapstructure:"data_dir"`
}

// DatabaseConfig is only used by the sql output format
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN    string `mapstructure:"dsn"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Env   string `mapstructure:"env"`   // "dev" or "prod"
	Level string `mapstructure:"level"` // overrides the env default when set
}

// WebConfig holds dev server settings
type WebConfig struct {
	Port string `mapstructure:"port"`
}

// Load loads configuration from environment variables and an optional config file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// GROCERY_AMAZON_PAGES -> amazon.pages
	v.SetEnvPrefix("GROCERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// defaults always decode
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.102 Safari/537.36")
	v.SetDefault("scraper.request_timeout", "30s")
	v.SetDefault("scraper.cache_dir", "")
	v.SetDefault("scraper.requests_per_second", 0)

	v.SetDefault("amazon.base_url", "https://www.amazon.in/s")
	v.SetDefault("amazon.origin", "https://www.amazon.in")
	v.SetDefault("amazon.pages", 1)
	v.SetDefault("amazon.max_attempts", 5)
	v.SetDefault("amazon.backoff_base", "1s")
	v.SetDefault("amazon.page_delay", "2s")
	v.SetDefault("amazon.asin_prefix", "B07")

	v.SetDefault("grace.base_url", "https://www.graceonline.in/ct/fruit-vegetables")
	v.SetDefault("grace.origin", "https://www.graceonline.in")
	v.SetDefault("grace.max_pages", 5)
	v.SetDefault("grace.page_delay", "1s")
	v.SetDefault("grace.brand_phrase", "grace fresh")

	v.SetDefault("match.strategy", "cross_join")
	v.SetDefault("match.min_name_overlap", 0.3)

	v.SetDefault("output.path", "product_comparison.xlsx")
	v.SetDefault("output.format", "")
	v.SetDefault("output.data_dir", "./data")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "product_comparison.sqlite")

	v.SetDefault("log.env", "dev")
	v.SetDefault("log.level", "")

	v.SetDefault("web.port", "8080")
}

var (
	validStrategies = map[string]bool{"cross_join": true, "name_quantity": true}
	validFormats    = map[string]bool{"": true, "xlsx": true, "csv": true, "sql": true, "json": true}
	validDrivers    = map[string]bool{"sqlite": true, "postgres": true}
)

func validate(config *Config) error {
	if config.Scraper.UserAgent == "" {
		return fmt.Errorf("scraper.user_agent must not be empty")
	}
	if config.Amazon.Pages < 1 {
		return fmt.Errorf("amazon.pages must be at least 1, got %d", config.Amazon.Pages)
	}
	if config.Amazon.MaxAttempts < 1 {
		return fmt.Errorf("amazon.max_attempts must be at least 1, got %d", config.Amazon.MaxAttempts)
	}
	if config.Grace.MaxPages < 1 {
		return fmt.Errorf("grace.max_pages must be at least 1, got %d", config.Grace.MaxPages)
	}
	if !validStrategies[config.Match.Strategy] {
		return fmt.Errorf("match.strategy must be 'cross_join' or 'name_quantity', got: %s", config.Match.Strategy)
	}
	if config.Match.MinNameOverlap < 0 || config.Match.MinNameOverlap > 1 {
		return fmt.Errorf("match.min_name_overlap must be between 0 and 1, got %v", config.Match.MinNameOverlap)
	}
	if !validFormats[config.Output.Format] {
		return fmt.Errorf("output.format must be one of xlsx, csv, sql, json, got: %s", config.Output.Format)
	}
	if config.Output.Format == "sql" && !validDrivers[config.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'postgres', got: %s", config.Database.Driver)
	}
	return nil
}
