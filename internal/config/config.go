package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Request timeout for calls to the service
	// Default: 30s
	Timeout time.Duration

	// Column width for the track id in stream output (0 = no padding)
	OutputWidth int

	// Service endpoints; empty values use the library defaults
	Endpoints EndpointsConfig

	// Stream URL cache settings
	Cache CacheConfig

	// Maximum number of concurrent stream lookups
	Concurrency int

	// Account credentials. Read from the environment or flags on every run
	// and never written back by Save.
	Account AccountConfig
}

// EndpointsConfig holds overrides for the service URLs
type EndpointsConfig struct {
	Auth   string
	Web    string
	Mobile string
	API    string
}

// CacheConfig holds stream URL cache configuration
type CacheConfig struct {
	Enabled bool
	Path    string
	// TTL applies to URLs that carry no expire parameter
	TTL time.Duration
}

// AccountConfig holds the credentials used to log in
type AccountConfig struct {
	Email    string
	Password string
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	setDefaults(v)

	// Read config file (optional - don't fail if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Read from environment variables, e.g. PLAYMUSIC_ACCOUNT_EMAIL
	v.SetEnvPrefix("PLAYMUSIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v), nil
}

// setDefaults registers the default value of every key
func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("output_width", 0)
	v.SetDefault("concurrency", 4)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", filepath.Join(getDataDir(), "streams.db"))
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("endpoints.auth", "")
	v.SetDefault("endpoints.web", "")
	v.SetDefault("endpoints.mobile", "")
	v.SetDefault("endpoints.api", "")
	v.SetDefault("account.email", "")
	v.SetDefault("account.password", "")
}

// fromViper maps viper keys to a Config
func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Timeout:     v.GetDuration("timeout"),
		OutputWidth: v.GetInt("output_width"),
		Concurrency: v.GetInt("concurrency"),
		Endpoints: EndpointsConfig{
			Auth:   v.GetString("endpoints.auth"),
			Web:    v.GetString("endpoints.web"),
			Mobile: v.GetString("endpoints.mobile"),
			API:    v.GetString("endpoints.api"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			Path:    expandHome(v.GetString("cache.path")),
			TTL:     v.GetDuration("cache.ttl"),
		},
		Account: AccountConfig{
			Email:    v.GetString("account.email"),
			Password: v.GetString("account.password"),
		},
	}

	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "playmusic")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// getDataDir returns the directory for the stream cache
func getDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".local", "share", "playmusic")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Save writes configuration to file. Credentials are never written.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(getConfigDir(), "config.yaml"))
}

// SaveTo writes configuration to the given file. Credentials are never
// written.
func (c *Config) SaveTo(configFile string) error {
	v := viper.New()

	// Set values in viper
	v.Set("timeout", c.Timeout.String())
	v.Set("output_width", c.OutputWidth)
	v.Set("concurrency", c.Concurrency)
	v.Set("cache.enabled", c.Cache.Enabled)
	v.Set("cache.path", c.Cache.Path)
	v.Set("cache.ttl", c.Cache.TTL.String())
	v.Set("endpoints.auth", c.Endpoints.Auth)
	v.Set("endpoints.web", c.Endpoints.Web)
	v.Set("endpoints.mobile", c.Endpoints.Mobile)
	v.Set("endpoints.api", c.Endpoints.API)

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return err
	}

	// Write to file
	return v.WriteConfigAs(configFile)
}
