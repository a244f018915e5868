package stability

import (
	"context"
	"os"
	"time"
)

// WaitStable blocks until two consecutive size samples of path, taken
// poll apart, are equal. It returns false when timeout elapses first or the
// context is cancelled. A file that vanishes mid-poll counts as not yet
// stable, not as an error: sync tools create, remove, and re-create files
// while settling.
//
// A true result does not mean the writer has closed the file, only that no
// size change was observed in the sampling window. Callers treat a false
// result as a warning and proceed anyway.
func WaitStable(ctx context.Context, path string, timeout, poll time.Duration) bool {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	lastSize := int64(-1)

	for time.Now().Before(deadline) {
		info, err := os.Stat(path)
		if err == nil {
			size := info.Size()
			if size == lastSize {
				return true
			}
			lastSize = size
		} else {
			lastSize = -1
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(poll):
		}
	}
	return false
}
