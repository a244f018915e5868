package convert

import "sort"

// preferredColumns lead the header, in this fixed order, when present in the
// input. All remaining keys follow lexicographically.
var preferredColumns = []string{
	"timestamp",
	"position_lat",
	"position_long",
	"distance",
	"speed",
	"heart_rate",
	"cadence",
	"temperature",
}

// Transformed column names.
const (
	colCadenceSPM = "cadence_spm"
	colPace       = "pace_mm_ss_per_mile"
	colLatitude   = "latitude_deg"
	colLongitude  = "longitude_deg"
)

func buildHeader(keys map[string]struct{}) []string {
	header := make([]string, 0, len(keys))
	taken := make(map[string]struct{}, len(keys))
	for _, name := range preferredColumns {
		if _, ok := keys[name]; ok {
			header = append(header, name)
			taken[name] = struct{}{}
		}
	}
	rest := make([]string, 0, len(keys)-len(taken))
	for name := range keys {
		if _, ok := taken[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(header, rest...)
}

// transformHeader renames columns in place per the readability rules. Both
// speed columns collapse into a single pace column at the position of the
// first occurrence.
func transformHeader(raw []string) []string {
	out := make([]string, 0, len(raw))
	paceAdded := false
	for _, name := range raw {
		switch name {
		case "cadence":
			out = append(out, colCadenceSPM)
		case "speed", "enhanced_speed":
			if !paceAdded {
				out = append(out, colPace)
				paceAdded = true
			}
		case "position_lat":
			out = append(out, colLatitude)
		case "position_long":
			out = append(out, colLongitude)
		default:
			out = append(out, name)
		}
	}
	return out
}
