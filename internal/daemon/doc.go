// Package daemon supervises the long-running conversion service. It owns the
// single-instance lock, startup history pruning, the sweep of files that
// arrived while the daemon was down, and orderly shutdown: the watcher stops
// first, queued work drains, and only then is the lock released.
package daemon
