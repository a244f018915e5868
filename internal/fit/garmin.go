package fit

import (
	"fmt"
	"os"

	gofit "github.com/tormoder/fit"
)

// Device invalid-value sentinels from the FIT base types. Fields carrying
// these values are absent from the flattened record.
const (
	invalidUint8  = 0xFF
	invalidUint16 = 0xFFFF
	invalidUint32 = 0xFFFFFFFF
	invalidInt8   = 0x7F
)

// GarminOpener decodes FIT activity files using the tormoder/fit library.
// The whole file is decoded on Open so repeated Records passes replay the
// same samples without touching the file again.
type GarminOpener struct{}

func (GarminOpener) Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, err := gofit.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode fit stream: %w", ErrDecode, err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("%w: not an activity file: %w", ErrDecode, err)
	}

	records := make([]Record, 0, len(activity.Records))
	for _, msg := range activity.Records {
		if msg == nil {
			continue
		}
		records = append(records, flattenRecord(msg))
	}
	return &garminFile{records: records}, nil
}

type garminFile struct {
	records []Record
}

func (g *garminFile) Records() (RecordReader, error) {
	return NewSliceReader(g.records), nil
}

func (g *garminFile) Close() error { return nil }

func flattenRecord(msg *gofit.RecordMsg) Record {
	rec := make(Record, 8)
	if !msg.Timestamp.IsZero() {
		rec["timestamp"] = msg.Timestamp
	}
	if !msg.PositionLat.Invalid() {
		rec["position_lat"] = msg.PositionLat.Semicircles()
	}
	if !msg.PositionLong.Invalid() {
		rec["position_long"] = msg.PositionLong.Semicircles()
	}
	if msg.Distance != invalidUint32 {
		rec["distance"] = msg.GetDistanceScaled()
	}
	if msg.Speed != invalidUint16 {
		rec["speed"] = msg.GetSpeedScaled()
	}
	if msg.EnhancedSpeed != invalidUint32 {
		rec["enhanced_speed"] = msg.GetEnhancedSpeedScaled()
	}
	if msg.HeartRate != invalidUint8 {
		rec["heart_rate"] = msg.HeartRate
	}
	if msg.Cadence != invalidUint8 {
		rec["cadence"] = msg.Cadence
	}
	if msg.Temperature != invalidInt8 {
		rec["temperature"] = msg.Temperature
	}
	if msg.Altitude != invalidUint16 {
		rec["altitude"] = msg.GetAltitudeScaled()
	}
	if msg.EnhancedAltitude != invalidUint32 {
		rec["enhanced_altitude"] = msg.GetEnhancedAltitudeScaled()
	}
	if msg.Power != invalidUint16 {
		rec["power"] = msg.Power
	}
	return rec
}
