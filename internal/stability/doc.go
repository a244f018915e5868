// Package stability waits for a file's size to stop changing before it is
// read. This is a best-effort heuristic, not a lock: it cannot prove the
// writer is done, and the pipeline deliberately proceeds after a timeout
// rather than stalling on a file that never settles.
package stability
