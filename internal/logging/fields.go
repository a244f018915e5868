package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPath is the standardized structured logging key for input file paths.
	FieldPath = "path"
	// FieldOutput is the standardized structured logging key for output file paths.
	FieldOutput = "output"
	// FieldEventType is the standardized structured logging key for pipeline event names.
	FieldEventType = "event_type"
	// FieldAttempt is the standardized structured logging key for 1-based retry attempt numbers.
	FieldAttempt = "attempt"
	// FieldMaxAttempts is the standardized structured logging key for the configured attempt limit.
	FieldMaxAttempts = "max_attempts"
	// FieldRows is the standardized structured logging key for CSV row counts.
	FieldRows = "rows"
	// FieldElapsed is the standardized structured logging key for conversion wall time.
	FieldElapsed = "elapsed"
	// FieldSession is the standardized structured logging key for daemon session identifiers.
	FieldSession = "session"
)

// Pipeline event_type values emitted by the watcher core.
const (
	EventEnqueued         = "enqueued"
	EventDebounceDrop     = "debounce_drop"
	EventQueueSaturated   = "queue_saturated"
	EventStabilityTimeout = "stability_timeout"
	EventConverted        = "converted"
	EventRetry            = "retry"
	EventPermanentFailure = "permanent_failure"
)
