package config

import (
	"os"
	"strconv"

	"orbitviz/internal/diagnostics"
	"orbitviz/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Render   diagnostics.Config
	Server   ServerConfig
	Database DatabaseConfig
	Paths    PathConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port       string
	GinMode    string
	MaxRenders int64 // concurrent figure renders
}

// DatabaseConfig holds the fit-run store connection
type DatabaseConfig struct {
	URL string
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	render, err := loadRenderConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load render configuration")
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load server configuration")
	}

	config := &Config{
		Render: *render,
		Server: *server,
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", "file:orbitviz.db"),
		},
		Paths: PathConfig{
			OutputDir: getEnvOrDefault("OUTPUT_DIR", "."),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadRenderConfig() (*diagnostics.Config, error) {
	c := diagnostics.DefaultConfig()
	var err error
	if c.Samples, err = getEnvInt("ORBITVIZ_SAMPLES", c.Samples); err != nil {
		return nil, err
	}
	if c.PhaseExtension, err = getEnvFloat("ORBITVIZ_PHASE_EXTENSION", c.PhaseExtension); err != nil {
		return nil, err
	}
	if c.BoundsMargin, err = getEnvFloat("ORBITVIZ_BOUNDS_MARGIN", c.BoundsMargin); err != nil {
		return nil, err
	}
	if c.FontSize, err = getEnvFloat("ORBITVIZ_FONT_SIZE", c.FontSize); err != nil {
		return nil, err
	}
	if c.UseTeX, err = getEnvBool("ORBITVIZ_USETEX", c.UseTeX); err != nil {
		return nil, err
	}
	if c.FigureWidth, err = getEnvFloat("ORBITVIZ_FIGURE_WIDTH", c.FigureWidth); err != nil {
		return nil, err
	}
	if c.FigureHeight, err = getEnvFloat("ORBITVIZ_FIGURE_HEIGHT", c.FigureHeight); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadServerConfig() (*ServerConfig, error) {
	maxRenders, err := getEnvInt("ORBITVIZ_MAX_RENDERS", 4)
	if err != nil {
		return nil, err
	}
	return &ServerConfig{
		Port:       getEnvOrDefault("PORT", "8080"),
		GinMode:    getEnvOrDefault("GIN_MODE", "debug"),
		MaxRenders: int64(maxRenders),
	}, nil
}

func validateConfig(config *Config) error {
	if err := config.Render.Validate(); err != nil {
		return err
	}
	if config.Server.MaxRenders < 1 {
		return errors.ConfigInvalidf("ORBITVIZ_MAX_RENDERS must be at least 1, got %d", config.Server.MaxRenders)
	}
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
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

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalidf("%s=%q is not an integer", key, value)
	}
	return intValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalidf("%s=%q is not a number", key, value)
	}
	return floatValue, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.ConfigInvalidf("%s=%q is not a boolean", key, value)
	}
	return boolValue, nil
}
