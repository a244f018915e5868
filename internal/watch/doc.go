// Package watch turns filesystem notifications on the inbox directory into
// candidate file paths. It filters on extension, drops directory and
// metadata-only events, and guarantees the notification goroutine is never
// blocked by a slow consumer.
package watch
