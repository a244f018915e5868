package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"fitflow/internal/fileutil"
	"fitflow/internal/fit"
	"fitflow/internal/units"
)

// Convert decodes inputPath and writes one CSV row per record to outputPath,
// returning the number of data rows written. The header is the union of keys
// across all records, preferred columns first, remaining keys sorted; when
// transform is true, columns are renamed and values rewritten into
// human-friendly units. Errors bound to the file itself carry the
// ErrPermanent marker: missing or irregular inputs, decode failures, zero
// records, and output writes that would fail identically on a repeat. System
// errors reading the input are returned unmarked so the caller can retry
// them.
func Convert(opener fit.Opener, inputPath, outputPath string, transform bool) (int, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, permanent("stat input", err)
		}
		return 0, fmt.Errorf("stat input: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, permanent(fmt.Sprintf("input %q is not a regular file", inputPath), nil)
	}

	// First pass: discover the key union. Records vary in shape row to row,
	// so the header cannot be taken from any single record.
	keys, err := collectKeys(opener, inputPath)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, permanent(fmt.Sprintf("no records in %q", inputPath), nil)
	}

	header := buildHeader(keys)
	if transform {
		header = transformHeader(header)
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := fileutil.EnsureDir(dir); err != nil {
			return 0, permanent("create output directory", err)
		}
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, permanent("create output file", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write(header); err != nil {
		return 0, permanent("write header", err)
	}

	// Second pass: a fresh decode; the first pass is not assumed rewindable.
	rows, err := writeRows(opener, inputPath, writer, header, transform)
	if err != nil {
		return 0, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, permanent("flush output", err)
	}
	if err := out.Close(); err != nil {
		return 0, permanent("close output", err)
	}
	return rows, nil
}

func collectKeys(opener fit.Opener, inputPath string) (map[string]struct{}, error) {
	file, err := opener.Open(inputPath)
	if err != nil {
		return nil, classifyOpen("open input", err)
	}
	defer file.Close()

	reader, err := file.Records()
	if err != nil {
		return nil, permanent("read records", err)
	}

	keys := make(map[string]struct{})
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, permanent("decode record", err)
		}
		for key := range rec {
			keys[key] = struct{}{}
		}
	}
	return keys, nil
}

func writeRows(opener fit.Opener, inputPath string, writer *csv.Writer, header []string, transform bool) (int, error) {
	file, err := opener.Open(inputPath)
	if err != nil {
		return 0, classifyOpen("reopen input", err)
	}
	defer file.Close()

	reader, err := file.Records()
	if err != nil {
		return 0, permanent("reread records", err)
	}

	row := make([]string, len(header))
	rows := 0
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, permanent("decode record", err)
		}
		fillRow(row, header, rec, transform)
		if err := writer.Write(row); err != nil {
			return 0, permanent("write row", err)
		}
		rows++
	}
	return rows, nil
}

// fillRow aligns one record to the header. Record keys absent from the
// header are ignored; header columns absent from the record yield empty
// cells.
func fillRow(row []string, header []string, rec fit.Record, transform bool) {
	for i, name := range header {
		if transform {
			switch name {
			case colCadenceSPM:
				row[i] = formatFloatCell(units.StepsPerMinute(rec["cadence"]))
				continue
			case colPace:
				speed, present := rec["enhanced_speed"]
				if !present {
					speed = rec["speed"]
				}
				pace, ok := units.PaceMMSS(speed)
				if !ok {
					pace = ""
				}
				row[i] = pace
				continue
			case colLatitude:
				row[i] = formatFloatCell(units.SemicirclesToDegrees(rec["position_lat"]))
				continue
			case colLongitude:
				row[i] = formatFloatCell(units.SemicirclesToDegrees(rec["position_long"]))
				continue
			}
		}
		row[i] = formatCell(rec[name])
	}
}

func formatFloatCell(value float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.UTC().Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
