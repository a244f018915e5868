// Package pipeline connects filesystem events to the converter. It owns the
// debounce and dedup tracker, a bounded FIFO work queue served by a single
// worker, and the retry policy that separates unrecoverable input problems
// from transient failures worth another attempt.
package pipeline
