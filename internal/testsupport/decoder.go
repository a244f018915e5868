package testsupport

import (
	"sync"

	"fitflow/internal/fit"
)

// FakeOpener is a scripted fit.Opener for converter and pipeline tests. It
// serves the configured records for every path, or the configured error, and
// counts Open calls so retry behavior can be asserted.
type FakeOpener struct {
	mu      sync.Mutex
	records []fit.Record
	err     error
	errOnce []error
	opens   int
}

// NewFakeOpener returns an opener serving the given records on every open.
func NewFakeOpener(records ...fit.Record) *FakeOpener {
	return &FakeOpener{records: records}
}

// FailWith makes every subsequent Open return err.
func (f *FakeOpener) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// FailNextWith queues errors returned by the next Open calls, one each, before
// the opener reverts to serving records.
func (f *FakeOpener) FailNextWith(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errOnce = append(f.errOnce, errs...)
}

// Opens returns how many times Open was called.
func (f *FakeOpener) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func (f *FakeOpener) Open(string) (fit.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if len(f.errOnce) > 0 {
		err := f.errOnce[0]
		f.errOnce = f.errOnce[1:]
		if err != nil {
			return nil, err
		}
	} else if f.err != nil {
		return nil, f.err
	}
	records := make([]fit.Record, len(f.records))
	copy(records, f.records)
	return fakeFile{records: records}, nil
}

type fakeFile struct {
	records []fit.Record
}

func (f fakeFile) Records() (fit.RecordReader, error) {
	return fit.NewSliceReader(f.records), nil
}

func (f fakeFile) Close() error { return nil }
