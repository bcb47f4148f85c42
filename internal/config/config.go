package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"planrec/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Dataset        DatasetConfig
	Server         ServerConfig
	Ops            OpsConfig
	Recommendation RecommendationConfig
	Log            LogConfig
}

// DatasetConfig holds the workbook location and load settings
type DatasetConfig struct {
	File            string        `validate:"required"`
	LoadConcurrency int           `validate:"min=1,max=16"`
	LoadTimeout     time.Duration `validate:"gt=0"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	GinMode         string        `validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// OpsConfig holds the pprof/metrics/reload listener settings
type OpsConfig struct {
	Port    string `validate:"required,numeric"`
	Enabled bool
}

// RecommendationConfig holds engine tuning
type RecommendationConfig struct {
	Limit int `validate:"min=1,max=100"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

// DefaultDatasetFile is the workbook name the service looks for when DATASET_FILE is unset.
const DefaultDatasetFile = "SubscriptionUseCase_Dataset.xlsx"

var validate = validator.New()

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Dataset:        *loadDatasetConfig(),
		Server:         *loadServerConfig(),
		Ops:            *loadOpsConfig(),
		Recommendation: *loadRecommendationConfig(),
		Log:            *loadLogConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatasetConfig() *DatasetConfig {
	return &DatasetConfig{
		File:            getEnvOrDefault("DATASET_FILE", DefaultDatasetFile),
		LoadConcurrency: getEnvIntOrDefault("LOAD_CONCURRENCY", 5),
		LoadTimeout:     getEnvDurationOrDefault("LOAD_TIMEOUT", 30*time.Second),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadOpsConfig() *OpsConfig {
	return &OpsConfig{
		Port:    getEnvOrDefault("OPS_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
	}
}

func loadRecommendationConfig() *RecommendationConfig {
	return &RecommendationConfig{
		Limit: getEnvIntOrDefault("RECOMMENDATION_LIMIT", 3),
	}
}

func loadLogConfig() *LogConfig {
	return &LogConfig{
		Level: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
	}
}

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ConfigInvalid(fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return errors.Wrap(err, "invalid configuration")
	}
	if config.Ops.Enabled && config.Ops.Port == config.Server.Port {
		return errors.ConfigInvalid("OPS_PORT must differ from PORT")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
