package config

import (
	"context"
	"os"
	"slices"
	"sync"
	"time"

	"chatpush/internal/constants"
	"chatpush/internal/models"
	"chatpush/internal/privacy"

	"github.com/sirupsen/logrus"
)

// ConfigWatcher watches for configuration file changes and reloads configuration
type ConfigWatcher struct {
	configPath   string
	logger       *logrus.Logger
	pollInterval time.Duration
	mu           sync.RWMutex
	config       *models.Config
	callbacks    []func(*models.Config)
}

// NewConfigWatcher creates a new configuration watcher
func NewConfigWatcher(configPath string, logger *logrus.Logger) *ConfigWatcher {
	return &ConfigWatcher{
		configPath:   configPath,
		logger:       logger,
		pollInterval: time.Duration(constants.DefaultConfigPollIntervalSec) * time.Second,
		callbacks:    make([]func(*models.Config), 0),
	}
}

// WithPollInterval sets how often the file is checked
func (cw *ConfigWatcher) WithPollInterval(d time.Duration) *ConfigWatcher {
	if d > 0 {
		cw.pollInterval = d
	}
	return cw
}

// Start begins watching the configuration file for changes using polling
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	// Load initial configuration
	config, err := LoadConfig(cw.configPath)
	if err != nil {
		return err
	}

	cw.mu.Lock()
	cw.config = config
	cw.mu.Unlock()

	// Get initial file modification time
	stat, err := os.Stat(cw.configPath)
	if err != nil {
		return err
	}
	lastModTime := stat.ModTime()

	cw.logger.WithField("path", cw.configPath).Info("Configuration watcher started")

	ticker := time.NewTicker(cw.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cw.logger.Info("Configuration watcher stopping")
			return nil

		case <-ticker.C:
			stat, err := os.Stat(cw.configPath)
			if err != nil {
				cw.logger.WithError(err).Error("Failed to stat configuration file")
				continue
			}

			if stat.ModTime().After(lastModTime) {
				cw.logger.Debug("Configuration file changed")
				lastModTime = stat.ModTime()

				// Small delay to ensure file write is complete
				time.Sleep(100 * time.Millisecond)
				cw.reloadConfig()
			}
		}
	}
}

// GetConfig returns the current configuration (thread-safe)
func (cw *ConfigWatcher) GetConfig() *models.Config {
	cw.mu.RLock()
	defer cw.mu.RUnlock()
	return cw.config
}

// OnConfigChange registers a callback to be called when configuration changes
func (cw *ConfigWatcher) OnConfigChange(callback func(*models.Config)) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

// reloadConfig reloads the configuration from file
func (cw *ConfigWatcher) reloadConfig() {
	newConfig, err := LoadConfig(cw.configPath)
	if err != nil {
		cw.logger.WithError(err).Error("Failed to reload configuration")
		return
	}

	cw.mu.Lock()
	oldConfig := cw.config
	cw.config = newConfig
	callbacks := make([]func(*models.Config), len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.Unlock()

	cw.logger.Info("Configuration reloaded successfully")

	// Notify all registered callbacks
	for _, callback := range callbacks {
		go func(cb func(*models.Config)) {
			defer func() {
				if r := recover(); r != nil {
					cw.logger.WithField("panic", r).Error("Config change callback panicked")
				}
			}()
			cb(newConfig)
		}(callback)
	}

	cw.logConfigChanges(oldConfig, newConfig)
}

// logConfigChanges logs notable configuration changes
func (cw *ConfigWatcher) logConfigChanges(old, new *models.Config) {
	if old == nil {
		return
	}

	if old.Purge.Location != new.Purge.Location {
		cw.logger.WithFields(logrus.Fields{
			"old": old.Purge.Location,
			"new": new.Purge.Location,
		}).Info("Purge location changed")
	}

	if !slices.Equal(old.Purge.UserIDs, new.Purge.UserIDs) {
		cw.logger.WithFields(logrus.Fields{
			"old": privacy.MaskUserIDs(old.Purge.UserIDs),
			"new": privacy.MaskUserIDs(new.Purge.UserIDs),
		}).Info("Purge users changed")
	}

	if old.Purge.DefaultSinceMinutes != new.Purge.DefaultSinceMinutes {
		cw.logger.WithFields(logrus.Fields{
			"old": old.Purge.DefaultSinceMinutes,
			"new": new.Purge.DefaultSinceMinutes,
		}).Info("Purge default window changed")
	}

	if old.Admin.Secret != new.Admin.Secret {
		cw.logger.Warn("Admin secret changed in configuration file; restart to apply")
	}
}
