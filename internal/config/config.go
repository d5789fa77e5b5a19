// Package config loads brickpick configuration from config files,
// environment variables, and .env files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultHTTPTimeout bounds a single Rebrickable API request.
const DefaultHTTPTimeout = 10 * time.Second

// Config holds the application configuration loaded from various sources.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Storage
	CacheDir string
	DataDir  string

	// Rebrickable API
	APIKey      string
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.brickpick.yaml)
// 5. Defaults
func Load() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// The API key commonly lives in a .env file rather than the shell
	// environment, so bind it explicitly.
	_ = viper.BindEnv("REBRICKABLE_API_KEY")

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".brickpick")
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		CacheDir: viper.GetString("cache_dir"),
		DataDir:  viper.GetString("data_dir"),

		APIKey:      viper.GetString("REBRICKABLE_API_KEY"),
		APIBaseURL:  viper.GetString("api_base_url"),
		HTTPTimeout: viper.GetDuration("http_timeout"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if config.APIKey == "" {
		config.APIKey = viper.GetString("api_key")
	}
	config.applyDefaults()

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(home, ".brickpick")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.DataDir, "cache")
	}
}

// ManifestPath is the owned-sets manifest file location.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.DataDir, "sets.yaml")
}

// PlanPath is where the most recent pickup plan is persisted.
func (c *Config) PlanPath() string {
	return filepath.Join(c.DataDir, "plan.json")
}

// FoundStatePath is where found-part progress is persisted.
func (c *Config) FoundStatePath() string {
	return filepath.Join(c.DataDir, "found.json")
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overrides keys that are already set, so the more specific file loads first:
// a key in .env.local wins over the same key in .env.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if
// not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
