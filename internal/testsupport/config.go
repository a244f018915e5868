package testsupport

import (
	"path/filepath"
	"testing"

	"fitflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.OutboxDir = filepath.Join(base, "outbox")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	// Fast timings so watcher tests do not sleep for production intervals.
	cfg.Watcher.DebounceSeconds = 0.2
	cfg.Watcher.PollIntervalSeconds = 0.02
	cfg.Watcher.StabilityTimeoutSeconds = 2

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithTransform toggles readability transforms on the test config.
func WithTransform(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Conversion.Transform = enabled
	}
}

// WithMaxAttempts overrides the retry attempt limit on the test config.
func WithMaxAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watcher.MaxAttempts = attempts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InboxDir)
}
