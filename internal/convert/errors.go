package convert

import (
	"errors"
	"fmt"

	"fitflow/internal/fit"
)

// ErrPermanent marks failures tied to this specific file: missing or
// irregular inputs, corrupt or undecodable streams, zero records, and output
// writes that would fail identically on a repeat. The retry controller stops
// at the first error carrying this marker; system errors reading the input
// (I/O hiccups, resource exhaustion) stay unmarked and are retried.
var ErrPermanent = errors.New("permanent conversion failure")

// IsPermanent reports whether err should end processing of a file without
// further attempts.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

func permanent(operation string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPermanent, operation, err)
	}
	return fmt.Errorf("%w: %s", ErrPermanent, operation)
}

// classifyOpen sorts opener failures: parse failures carry the decode marker
// and are permanent, anything else is a system error worth retrying.
func classifyOpen(operation string, err error) error {
	if errors.Is(err, fit.ErrDecode) {
		return permanent(operation, err)
	}
	return fmt.Errorf("%s: %w", operation, err)
}
