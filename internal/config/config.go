package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"chatpush/internal/constants"
	"chatpush/internal/models"
	"chatpush/internal/security"
	"chatpush/internal/validation"
)

var (
	ErrMissingDBPath    = models.ConfigError{Message: "missing database path"}
	ErrMissingDBDSN     = models.ConfigError{Message: "missing database DSN for postgres driver"}
	ErrMissingAppOrigin = models.ConfigError{Message: "missing push app origin"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	// Environment wins over the file and may supply required values
	if err := applyEnvironmentOverrides(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	// Perform security validation after environment overrides
	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	switch c.Database.Driver {
	case "":
		c.Database.Driver = "sqlite3"
		fallthrough
	case "sqlite3":
		if c.Database.Path == "" {
			return ErrMissingDBPath
		}
	case "postgres":
		if c.Database.DSN == "" {
			return ErrMissingDBDSN
		}
	default:
		return models.ConfigError{Message: fmt.Sprintf("unsupported database driver: %s", c.Database.Driver)}
	}

	if c.Push.AppOrigin == "" {
		return ErrMissingAppOrigin
	}
	origin, err := url.Parse(c.Push.AppOrigin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return models.ConfigError{Message: fmt.Sprintf("invalid push app origin: %s", c.Push.AppOrigin)}
	}

	for i, id := range c.Purge.UserIDs {
		if id == "" {
			return models.ConfigError{Message: fmt.Sprintf("empty purge user id at index %d", i)}
		}
	}
	if c.Purge.Location == "" {
		c.Purge.Location = constants.DefaultPurgeLocation
	}
	if len(c.Purge.UserIDs) == 0 {
		c.Purge.UserIDs = append([]string(nil), constants.DefaultPurgeUserIDs...)
	}
	if c.Purge.DefaultSinceMinutes <= 0 {
		c.Purge.DefaultSinceMinutes = constants.DefaultPurgeSinceMinutes
	}

	if c.Server.Port == 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if err := validation.ValidateNumericRange(c.Server.Port, "server port", 1, 65535); err != nil {
		return models.ConfigError{Message: err.Error()}
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Server.ConfigPollIntervalSec <= 0 {
		c.Server.ConfigPollIntervalSec = constants.DefaultConfigPollIntervalSec
	}

	if c.Assistant.Model == "" {
		c.Assistant.Model = constants.DefaultAssistantModel
	}
	if c.Assistant.TimeoutSec <= 0 {
		c.Assistant.TimeoutSec = constants.DefaultAssistantTimeoutSec
	}
	if err := validation.ValidateTimeout(c.Assistant.TimeoutSec, "assistant timeout"); err != nil {
		return models.ConfigError{Message: err.Error()}
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultDatabaseRetryAttempts
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

func applyEnvironmentOverrides(c *models.Config) error {
	// SECURITY: the admin secret should be set via environment variables
	if secret := os.Getenv("CHATPUSH_ADMIN_SECRET"); secret != "" {
		c.Admin.Secret = secret
	}
	if key := os.Getenv("CHATPUSH_ASSISTANT_API_KEY"); key != "" {
		c.Assistant.APIKey = key
	}

	if driver := os.Getenv("CHATPUSH_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("CHATPUSH_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}

	if origin := os.Getenv("CHATPUSH_APP_ORIGIN"); origin != "" {
		c.Push.AppOrigin = origin
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return models.ConfigError{Message: fmt.Sprintf("invalid PORT: %s", port)}
		}
		c.Server.Port = p
	}
	return nil
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	// Check if we're in production mode
	isProduction := os.Getenv("CHATPUSH_ENV") == "production"

	if isProduction {
		// In production, the admin secret is mandatory
		if c.Admin.Secret == "" {
			return models.ConfigError{Message: "admin secret is required in production (set CHATPUSH_ADMIN_SECRET environment variable)"}
		}

		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else if c.Admin.Secret == "" {
		fmt.Fprintf(os.Stderr, "WARNING: admin secret not set, the recent-messages purge will reject every request. Set CHATPUSH_ADMIN_SECRET.\n")
	}

	return nil
}
