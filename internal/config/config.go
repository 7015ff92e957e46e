package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	JWT       JWTConfig
	Retell    RetellConfig
	Benchmark BenchmarkConfig
	SMTP      SMTPConfig
	Report    ReportConfig
	Scheduler SchedulerConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// RetellConfig holds voice-call provider configuration
type RetellConfig struct {
	BaseURL       string
	APIKey        string
	FromNumber    string
	BatchSize     int
	PacingSeconds int
	MockAPI       bool
}

// BenchmarkConfig holds broker scheduling API configuration
type BenchmarkConfig struct {
	BaseURL string
	MockAPI bool
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ReportConfig holds campaign report configuration
type ReportConfig struct {
	Recipient string
}

// SchedulerConfig holds call scheduler configuration
type SchedulerConfig struct {
	Timezone string
	Enabled  bool
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Unmarshal configuration
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "ai-outbound")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("LogLevel", "info")
	viper.SetDefault("Retell.BaseURL", "https://api.retellai.com")
	viper.SetDefault("Retell.BatchSize", 15)
	viper.SetDefault("Retell.PacingSeconds", 1)
	viper.SetDefault("Retell.MockAPI", true)
	viper.SetDefault("Benchmark.BaseURL", "https://app.benchmarksales.io/api/v1")
	viper.SetDefault("Benchmark.MockAPI", true)
	viper.SetDefault("SMTP.Port", 587)
	viper.SetDefault("Report.Recipient", "reports@benchmarksales.io")
	viper.SetDefault("Scheduler.Timezone", "Australia/Brisbane")
	viper.SetDefault("Scheduler.Enabled", true)
}
