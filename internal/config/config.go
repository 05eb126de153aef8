package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/competiscan/competiscan-go/internal/utils"
)

// Config aggregates all configuration settings for the application.
type Config struct {
	// Environment indicates the running environment (e.g., "development", "production").
	Environment string `mapstructure:"environment"`
	// LogLevel sets the global logging verbosity.
	LogLevel string `mapstructure:"log_level"`
	// Server holds configuration for the HTTP server.
	Server ServerConfig `mapstructure:"server"`
	// Database holds configuration for the PostgreSQL event store.
	Database DatabaseConfig `mapstructure:"database"`
	// Redis holds configuration for the analysis result cache.
	Redis RedisConfig `mapstructure:"redis"`
	// Telegram holds configuration for breakout alert delivery.
	Telegram TelegramConfig `mapstructure:"telegram"`
	// Trends holds thresholds for the trend detection engine.
	Trends TrendsConfig `mapstructure:"trends"`
	// Forecast holds settings for market forecast generation.
	Forecast ForecastConfig `mapstructure:"forecast"`
}

// ServerConfig defines the HTTP server settings.
type ServerConfig struct {
	// Port is the TCP port the server listens on.
	Port int `mapstructure:"port"`
	// AdminAPIKey guards the admin endpoints (cache invalidation).
	AdminAPIKey string `mapstructure:"admin_api_key"`
}

// DatabaseConfig defines the PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// DatabaseURL is a connection string that overrides the individual fields.
	DatabaseURL string `mapstructure:"database_url"`
}

// RedisConfig defines the Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// CacheTTL is the result cache lifetime in seconds.
	CacheTTL int `mapstructure:"cache_ttl"`
}

// TelegramConfig defines settings for the breakout alert bot.
type TelegramConfig struct {
	// BotToken authenticates against the Telegram Bot API. Alerts are
	// disabled when empty.
	BotToken string `mapstructure:"bot_token"`
}

// TrendsConfig holds the thresholds the trend engine classifies against.
// It is loaded once, validated, and passed immutably into every component.
type TrendsConfig struct {
	// MinDataPoints is the minimum series length a label needs before any
	// trend is fitted.
	MinDataPoints int `mapstructure:"min_data_points"`
	// BucketDays is the aggregation period length in days.
	BucketDays int `mapstructure:"bucket_days"`
	// PValueCutoff gates which fits qualify as trends.
	PValueCutoff float64 `mapstructure:"p_value_cutoff"`
	// StrongSlope and ModerateSlope are the direction thresholds in
	// value/day. Fixed policy constants, not adaptive.
	StrongSlope   float64 `mapstructure:"strong_slope"`
	ModerateSlope float64 `mapstructure:"moderate_slope"`
	// ZValue scales the confidence interval width (1.96 ~ 95%).
	ZValue float64 `mapstructure:"z_value"`
	// BreakoutAcceleration and BreakoutStrength are the stricter breakout
	// filter thresholds.
	BreakoutAcceleration float64 `mapstructure:"breakout_acceleration"`
	BreakoutStrength     float64 `mapstructure:"breakout_strength"`
	// TechnologyStrength is the minimum strength for a technology-shift
	// trend to count as emerging or declining in forecasts.
	TechnologyStrength float64 `mapstructure:"technology_strength"`
}

// ForecastConfig holds lookbacks and horizon settings for forecasting.
type ForecastConfig struct {
	FeatureLookbackDays     int `mapstructure:"feature_lookback_days"`
	PricingLookbackDays     int `mapstructure:"pricing_lookback_days"`
	MarketShareLookbackDays int `mapstructure:"market_share_lookback_days"`
	TechnologyLookbackDays  int `mapstructure:"technology_lookback_days"`
	DefaultHorizonDays      int `mapstructure:"default_horizon_days"`
	// SmoothingPeriod is the SMA window applied to series before
	// extrapolation.
	SmoothingPeriod int `mapstructure:"smoothing_period"`
	// EstimatedAccuracy is a placeholder constant reported on forecasts
	// until a real backtesting harness exists.
	EstimatedAccuracy float64 `mapstructure:"estimated_accuracy"`
}

// Load reads the configuration from the config file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("competiscan")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("database.database_url", "DATABASE_URL")
	_ = viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	_ = viper.BindEnv("server.admin_api_key", "ADMIN_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults and env vars cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects engine settings the statistics cannot work with. This is
// the only hard error the engine surfaces; everything downstream degrades to
// "no signal" instead of failing.
func (c *Config) Validate() error {
	if c.Trends.MinDataPoints < 2 {
		return utils.NewValidationErrorf("trends.min_data_points must be at least 2, got %d", c.Trends.MinDataPoints)
	}
	if c.Trends.BucketDays <= 0 {
		return utils.NewValidationErrorf("trends.bucket_days must be positive, got %d", c.Trends.BucketDays)
	}
	if c.Trends.PValueCutoff <= 0 || c.Trends.PValueCutoff > 1 {
		return utils.NewValidationErrorf("trends.p_value_cutoff must be in (0, 1], got %v", c.Trends.PValueCutoff)
	}
	if c.Trends.ModerateSlope <= 0 || c.Trends.StrongSlope <= c.Trends.ModerateSlope {
		return utils.NewValidationErrorf("trends slope thresholds must satisfy 0 < moderate < strong, got %v and %v",
			c.Trends.ModerateSlope, c.Trends.StrongSlope)
	}
	if c.Forecast.DefaultHorizonDays <= 0 {
		return utils.NewValidationErrorf("forecast.default_horizon_days must be positive, got %d", c.Forecast.DefaultHorizonDays)
	}
	if c.Forecast.SmoothingPeriod < 1 {
		return utils.NewValidationErrorf("forecast.smoothing_period must be at least 1, got %d", c.Forecast.SmoothingPeriod)
	}
	return nil
}

// setDefaults initializes the default configuration values in Viper.
func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.admin_api_key", "")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "change-me-in-production")
	viper.SetDefault("database.dbname", "competiscan")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.cache_ttl", 300)

	// Telegram
	viper.SetDefault("telegram.bot_token", "")

	// Trend engine thresholds
	viper.SetDefault("trends.min_data_points", 5)
	viper.SetDefault("trends.bucket_days", 7)
	viper.SetDefault("trends.p_value_cutoff", 0.05)
	viper.SetDefault("trends.strong_slope", 0.5)
	viper.SetDefault("trends.moderate_slope", 0.1)
	viper.SetDefault("trends.z_value", 1.96)
	viper.SetDefault("trends.breakout_acceleration", 0.1)
	viper.SetDefault("trends.breakout_strength", 0.6)
	viper.SetDefault("trends.technology_strength", 0.3)

	// Forecasting
	viper.SetDefault("forecast.feature_lookback_days", 180)
	viper.SetDefault("forecast.pricing_lookback_days", 365)
	viper.SetDefault("forecast.market_share_lookback_days", 180)
	viper.SetDefault("forecast.technology_lookback_days", 365)
	viper.SetDefault("forecast.default_horizon_days", 90)
	viper.SetDefault("forecast.smoothing_period", 3)
	viper.SetDefault("forecast.estimated_accuracy", 0.75)
}
