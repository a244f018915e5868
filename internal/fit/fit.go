package fit

import (
	"errors"
	"io"
)

// ErrDecode marks input that could not be parsed as a FIT activity. Openers
// wrap parse failures with it so callers can tell corrupt data apart from
// system errors on the open itself.
var ErrDecode = errors.New("fit decode failure")

// Record is one decoded flat key/value sample. Values keep their raw device
// units: positions in semicircles, speeds in m/s, cadence per leg.
type Record map[string]any

// RecordReader iterates decoded records. Next returns io.EOF after the last
// record.
type RecordReader interface {
	Next() (Record, error)
}

// File is one opened activity file. Records may be called more than once;
// each call yields an independent pass over the samples.
type File interface {
	Records() (RecordReader, error)
	Close() error
}

// Opener is the decoding collaborator boundary. Implementations translate a
// path into decoded records; the rest of the pipeline never touches FIT bytes.
type Opener interface {
	Open(path string) (File, error)
}

// SliceReader adapts an in-memory record slice to RecordReader.
type SliceReader struct {
	records []Record
	next    int
}

// NewSliceReader returns a reader over the provided records.
func NewSliceReader(records []Record) *SliceReader {
	return &SliceReader{records: records}
}

func (r *SliceReader) Next() (Record, error) {
	if r.next >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.next]
	r.next++
	return rec, nil
}
