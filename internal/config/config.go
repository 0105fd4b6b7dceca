package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Model       ModelConfig    `mapstructure:"model"`
	Auth        AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ModelConfig holds the anomaly model's training parameters. The defaults
// pin the production model: 100 trees over a 1000x5 standard-normal
// baseline, contamination 0.10, seed 42.
type ModelConfig struct {
	Trees           int     `mapstructure:"trees"`
	SampleSize      int     `mapstructure:"sample_size"`
	Contamination   float64 `mapstructure:"contamination"`
	Seed            int64   `mapstructure:"seed"`
	BaselineSamples int     `mapstructure:"baseline_samples"`
	FeatureDim      int     `mapstructure:"feature_dim"`
}

type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("auth.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Auth.Enabled && config.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required when auth is enabled")
	}

	if config.Model.Contamination <= 0 || config.Model.Contamination >= 1 {
		return nil, fmt.Errorf("model contamination must be in (0, 1), got %v", config.Model.Contamination)
	}
	if config.Model.FeatureDim <= 0 || config.Model.BaselineSamples <= 0 {
		return nil, fmt.Errorf("invalid model baseline shape %dx%d",
			config.Model.BaselineSamples, config.Model.FeatureDim)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8000)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "analytics")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("model.trees", 100)
	viper.SetDefault("model.sample_size", 256)
	viper.SetDefault("model.contamination", 0.10)
	viper.SetDefault("model.seed", 42)
	viper.SetDefault("model.baseline_samples", 1000)
	viper.SetDefault("model.feature_dim", 5)

	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.jwt_secret", "")
}
