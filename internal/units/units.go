package units

import (
	"fmt"
	"math"
	"strconv"
)

// MetersPerMile is the exact statute mile in meters.
const MetersPerMile = 1609.344

const semicircleDegrees = 180.0 / 2147483648.0 // 180 / 2^31

// SemicirclesToDegrees converts a raw device position value to degrees.
// The ok result is false when the value is missing or not numeric.
func SemicirclesToDegrees(value any) (float64, bool) {
	v, ok := ToFloat(value)
	if !ok {
		return 0, false
	}
	return v * semicircleDegrees, true
}

// StepsPerMinute converts per-leg running cadence to steps per minute.
// The ok result is false when the value is missing or not numeric.
func StepsPerMinute(value any) (float64, bool) {
	v, ok := ToFloat(value)
	if !ok {
		return 0, false
	}
	return v * 2.0, true
}

// PaceMMSS converts a speed in meters per second to a zero-padded "MM:SS"
// pace per mile. The ok result is false when the speed is missing,
// non-numeric, or not positive.
func PaceMMSS(value any) (string, bool) {
	v, ok := ToFloat(value)
	if !ok || v <= 0 {
		return "", false
	}
	secPerMile := MetersPerMile / v
	minutes := int(secPerMile / 60)
	seconds := int(math.Round(secPerMile - float64(minutes)*60))
	if seconds == 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds), true
}

// ToFloat coerces the numeric types a FIT decoder produces into float64.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case float32:
		return ToFloat(float64(v))
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return ToFloat(parsed)
	default:
		return 0, false
	}
}
