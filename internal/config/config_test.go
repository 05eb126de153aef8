package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/competiscan/competiscan-go/internal/utils"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Trends.MinDataPoints)
	assert.Equal(t, 7, cfg.Trends.BucketDays)
	assert.Equal(t, 0.05, cfg.Trends.PValueCutoff)
	assert.Equal(t, 0.5, cfg.Trends.StrongSlope)
	assert.Equal(t, 0.1, cfg.Trends.ModerateSlope)
	assert.Equal(t, 1.96, cfg.Trends.ZValue)
	assert.Equal(t, 90, cfg.Forecast.DefaultHorizonDays)
	assert.Equal(t, 3, cfg.Forecast.SmoothingPeriod)
	assert.Equal(t, 300, cfg.Redis.CacheTTL)
	assert.Empty(t, cfg.Telegram.BotToken)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("COMPETISCAN_TRENDS_BUCKET_DAYS", "14")
	t.Setenv("COMPETISCAN_SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://scan:scan@db:5432/competiscan")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Trends.BucketDays)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://scan:scan@db:5432/competiscan", cfg.Database.DatabaseURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Trends: TrendsConfig{
				MinDataPoints: 5,
				BucketDays:    7,
				PValueCutoff:  0.05,
				StrongSlope:   0.5,
				ModerateSlope: 0.1,
			},
			Forecast: ForecastConfig{
				DefaultHorizonDays: 90,
				SmoothingPeriod:    3,
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min data points below 2", func(c *Config) { c.Trends.MinDataPoints = 1 }},
		{"zero bucket days", func(c *Config) { c.Trends.BucketDays = 0 }},
		{"p-value cutoff zero", func(c *Config) { c.Trends.PValueCutoff = 0 }},
		{"p-value cutoff above one", func(c *Config) { c.Trends.PValueCutoff = 1.5 }},
		{"negative moderate slope", func(c *Config) { c.Trends.ModerateSlope = -0.1 }},
		{"strong slope below moderate", func(c *Config) { c.Trends.StrongSlope = 0.05 }},
		{"zero horizon", func(c *Config) { c.Forecast.DefaultHorizonDays = 0 }},
		{"zero smoothing period", func(c *Config) { c.Forecast.SmoothingPeriod = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err))
		})
	}
}
