package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.InboxDir == c.Paths.OutboxDir {
		return errors.New("paths.inbox_dir and paths.outbox_dir must differ: writing CSVs into the watched directory would re-trigger the watcher")
	}
	return nil
}

func (c *Config) validateConversion() error {
	if c.Conversion.InputExtension == "." {
		return errors.New("conversion.input_extension must name an extension")
	}
	if strings.ContainsAny(c.Conversion.InputExtension, "/\\") {
		return fmt.Errorf("conversion.input_extension %q must not contain path separators", c.Conversion.InputExtension)
	}
	return nil
}

func (c *Config) validateWatcher() error {
	if err := ensurePositiveMap(map[string]int{
		"watcher.max_attempts":   c.Watcher.MaxAttempts,
		"watcher.queue_capacity": c.Watcher.QueueCapacity,
	}); err != nil {
		return err
	}
	if c.Watcher.DebounceSeconds <= 0 {
		return errors.New("watcher.debounce_seconds must be positive")
	}
	if c.Watcher.PollIntervalSeconds <= 0 {
		return errors.New("watcher.poll_interval_seconds must be positive")
	}
	if c.Watcher.StabilityTimeoutSeconds <= 0 {
		return errors.New("watcher.stability_timeout_seconds must be positive")
	}
	if c.Watcher.StabilityTimeoutSeconds < c.Watcher.PollIntervalSeconds {
		return errors.New("watcher.stability_timeout_seconds must be at least the poll interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
