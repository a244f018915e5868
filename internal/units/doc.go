// Package units converts raw wearable-device record values into
// human-readable forms: semicircle positions to degrees, per-leg cadence to
// steps per minute, and meters-per-second speeds to pace per mile.
//
// Every function propagates missing or non-numeric input as a not-ok result
// instead of an error so row-level conversion can emit empty CSV cells
// without branching on failure causes.
package units
