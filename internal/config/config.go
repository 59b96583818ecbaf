// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Library  LibraryConfig
	Server   ServerConfig
	ChartHub ChartHubConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"required,oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `validate:"required,oneof=debug info warn error"`
	Format string `validate:"required,oneof=json pretty"`
}

// DataConfig holds server-managed storage configuration. The catalog
// database, metadata cache, search index, and cover art all live under
// BasePath.
type DataConfig struct {
	BasePath string `validate:"required"`
}

// CatalogPath returns the location of the catalog database.
func (d DataConfig) CatalogPath() string { return filepath.Join(d.BasePath, "catalog.db") }

// CachePath returns the directory for the metadata cache.
func (d DataConfig) CachePath() string { return filepath.Join(d.BasePath, "cache") }

// IndexPath returns the directory for the search index.
func (d DataConfig) IndexPath() string { return filepath.Join(d.BasePath, "index") }

// LibraryConfig holds chart library configuration.
type LibraryConfig struct {
	// ChartsPath is the root of the chart library on disk. May be empty
	// at startup; scanning is skipped until one is configured.
	ChartsPath string
	// Watch enables filesystem watching for incremental rescans.
	Watch bool
	// ScanWorkers bounds concurrent checksum computation during scans.
	ScanWorkers int `validate:"gte=0,lte=64"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name          string        `validate:"required"`
	Port          string        `validate:"required"`
	ReadTimeout   time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout  time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout   time.Duration // HTTP idle timeout (default: 60s)
	AdvertiseMDNS bool          // Advertise via mDNS/Zeroconf (default: true)
}

// ChartHubConfig holds ChartHub API configuration.
type ChartHubConfig struct {
	// BaseURL of the ChartHub API. Empty disables online lookups entirely.
	BaseURL string `validate:"omitempty,url"`
	// RequestsPerSecond caps outbound lookup traffic per endpoint.
	RequestsPerSecond float64 `validate:"gt=0"`
	// Burst allows short spikes above the sustained rate.
	Burst int `validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	flags, err := parseFlags(args)
	if err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(flags.envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(flags.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(flags.logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(flags.logFormat, "LOG_FORMAT", ""),
		},
		Data: DataConfig{
			BasePath: getConfigValue(flags.dataPath, "DATA_PATH", ""),
		},
		Library: LibraryConfig{
			ChartsPath:  getConfigValue(flags.chartsPath, "LIBRARY_PATH", ""),
			Watch:       getBoolConfigValue(flags.watch, "WATCH_LIBRARY", true),
			ScanWorkers: getIntConfigValue(flags.scanWorkers, "SCAN_WORKERS", 0),
		},
		Server: ServerConfig{
			Name:          getConfigValue(flags.serverName, "SERVER_NAME", "ChartStash Server"),
			Port:          getConfigValue(flags.port, "SERVER_PORT", "8080"),
			AdvertiseMDNS: getBoolConfigValue(flags.advertiseMDNS, "ADVERTISE_MDNS", true),
		},
		ChartHub: ChartHubConfig{
			BaseURL:           getConfigValue(flags.chartHubURL, "CHARTHUB_URL", "https://api.charthub.gg"),
			RequestsPerSecond: getFloatConfigValue(flags.chartHubRPS, "CHARTHUB_RPS", 2),
			Burst:             getIntConfigValue(flags.chartHubBurst, "CHARTHUB_BURST", 4),
		},
	}

	// The JSON format is the safer default outside development.
	if cfg.Logger.Format == "" {
		if cfg.App.Environment == "development" {
			cfg.Logger.Format = "pretty"
		} else {
			cfg.Logger.Format = "json"
		}
	}

	// Parse server timeouts.
	if cfg.Server.ReadTimeout, err = parseDurationValue(flags.readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDurationValue(flags.writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = parseDurationValue(flags.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}

	// Expand and validate storage paths.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.expandChartsPath(); err != nil {
		return nil, fmt.Errorf("invalid library path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and well-formed.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			e := fieldErrs[0]
			return fmt.Errorf("%s failed %q validation (value %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	return nil
}

type flagValues struct {
	env           string
	logLevel      string
	logFormat     string
	dataPath      string
	chartsPath    string
	watch         string
	scanWorkers   string
	serverName    string
	port          string
	readTimeout   string
	writeTimeout  string
	idleTimeout   string
	advertiseMDNS string
	chartHubURL   string
	chartHubRPS   string
	chartHubBurst string
	envFile       string
}

// parseFlags parses command-line flags from args (without the program
// name). A dedicated FlagSet keeps LoadConfig testable.
func parseFlags(args []string) (*flagValues, error) {
	fv := &flagValues{}
	fs := newFlagSet(fv)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	return fv, nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ChartStash", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandChartsPath expands ~ and makes the path absolute.
// If empty, leaves it empty; scanning is skipped until configured.
func (c *Config) expandChartsPath() error {
	if c.Library.ChartsPath == "" {
		return nil
	}

	expanded, err := expandPath(c.Library.ChartsPath, "")
	if err != nil {
		return err
	}
	c.Library.ChartsPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves a duration with the usual precedence and
// parses it.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	str := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", str, err)
	}
	return d, nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
