package config

const (
	defaultInboxDir         = "~/.local/share/fitflow/inbox"
	defaultOutboxDir        = "~/.local/share/fitflow/outbox"
	defaultLogDir           = "~/.local/share/fitflow/logs"
	defaultInputExtension   = ".fit"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultDebounceSeconds  = 2.0
	defaultPollSeconds      = 0.5
	defaultStabilityTimeout = 30
	defaultMaxAttempts      = 3
	defaultQueueCapacity    = 1024
	defaultNotifyTimeout    = 10
	defaultRetentionDays    = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:  defaultInboxDir,
			OutboxDir: defaultOutboxDir,
			LogDir:    defaultLogDir,
		},
		Conversion: Conversion{
			Transform:      true,
			InputExtension: defaultInputExtension,
		},
		Watcher: Watcher{
			DebounceSeconds:         defaultDebounceSeconds,
			PollIntervalSeconds:     defaultPollSeconds,
			StabilityTimeoutSeconds: defaultStabilityTimeout,
			MaxAttempts:             defaultMaxAttempts,
			QueueCapacity:           defaultQueueCapacity,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Conversions:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			RetentionDays: defaultRetentionDays,
		},
	}
}
