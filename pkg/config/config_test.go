package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://www.amazon.in/s", cfg.Amazon.BaseURL)
		assert.Equal(t, "https://www.amazon.in", cfg.Amazon.Origin)
		assert.Equal(t, 1, cfg.Amazon.Pages)
		assert.Equal(t, 5, cfg.Amazon.MaxAttempts)
		assert.Equal(t, time.Second, cfg.Amazon.BackoffBase)
		assert.Equal(t, 2*time.Second, cfg.Amazon.PageDelay)
		assert.Equal(t, "B07", cfg.Amazon.ASINPrefix)
		assert.Equal(t, 5, cfg.Grace.MaxPages)
		assert.Equal(t, time.Second, cfg.Grace.PageDelay)
		assert.Equal(t, "grace fresh", cfg.Grace.BrandPhrase)
		assert.Equal(t, "cross_join", cfg.Match.Strategy)
		assert.Equal(t, "product_comparison.xlsx", cfg.Output.Path)
		assert.Equal(t, 30*time.Second, cfg.Scraper.RequestTimeout)
		assert.NotEmpty(t, cfg.Scraper.UserAgent)
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("GROCERY_AMAZON_PAGES", "3")
		t.Setenv("GROCERY_AMAZON_PAGE_DELAY", "500ms")
		t.Setenv("GROCERY_GRACE_BRAND_PHRASE", "organic tattva")
		t.Setenv("GROCERY_MATCH_STRATEGY", "name_quantity")
		t.Setenv("GROCERY_OUTPUT_FORMAT", "csv")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3, cfg.Amazon.Pages)
		assert.Equal(t, 500*time.Millisecond, cfg.Amazon.PageDelay)
		assert.Equal(t, "organic tattva", cfg.Grace.BrandPhrase)
		assert.Equal(t, "name_quantity", cfg.Match.Strategy)
		assert.Equal(t, "csv", cfg.Output.Format)
	})

	t.Run("reads config.yaml from the working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		yaml := "amazon:\n  asin_prefix: B08\ngrace:\n  max_pages: 2\n"
		require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0644))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "B08", cfg.Amazon.ASINPrefix)
		assert.Equal(t, 2, cfg.Grace.MaxPages)
		assert.Equal(t, 1, cfg.Amazon.Pages)
	})

	t.Run("fails validation for unknown strategy", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("GROCERY_MATCH_STRATEGY", "fuzzy")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "match.strategy")
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.Amazon.MaxAttempts)
	assert.Equal(t, "grace fresh", cfg.Grace.BrandPhrase)
	assert.NoError(t, validate(cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "zero amazon pages", mutate: func(c *Config) { c.Amazon.Pages = 0 }, wantErr: true},
		{name: "zero attempts", mutate: func(c *Config) { c.Amazon.MaxAttempts = 0 }, wantErr: true},
		{name: "zero grace pages", mutate: func(c *Config) { c.Grace.MaxPages = 0 }, wantErr: true},
		{name: "empty user agent", mutate: func(c *Config) { c.Scraper.UserAgent = "" }, wantErr: true},
		{name: "overlap above one", mutate: func(c *Config) { c.Match.MinNameOverlap = 1.5 }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Output.Format = "parquet" }, wantErr: true},
		{
			name: "sql format with unknown driver",
			mutate: func(c *Config) {
				c.Output.Format = "sql"
				c.Database.Driver = "mysql"
			},
			wantErr: true,
		},
		{
			name: "sql format with postgres",
			mutate: func(c *Config) {
				c.Output.Format = "sql"
				c.Database.Driver = "postgres"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
