package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"fitflow/internal/convert"
	"fitflow/internal/fit"
	"fitflow/internal/history"
	"fitflow/internal/logging"
	"fitflow/internal/pipeline"
	"fitflow/internal/testsupport"
)

type memorySink struct {
	mu      sync.Mutex
	reports []history.Report
}

func (m *memorySink) Record(_ context.Context, report history.Report) (history.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report.ID = int64(len(m.reports) + 1)
	m.reports = append(m.reports, report)
	return report, nil
}

func (m *memorySink) all() []history.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Report(nil), m.reports...)
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fit payload"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestPipelineConvertsQueuedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sink := &memorySink{}

	var calls atomic.Int32
	converter := func(inputPath, outputPath string) (int, error) {
		calls.Add(1)
		return 42, nil
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	input := writeInput(t, cfg.Paths.InboxDir, "ride.fit")
	if !p.Enqueue(input) {
		t.Fatal("expected enqueue to succeed")
	}
	p.Stop()

	if got := calls.Load(); got != 1 {
		t.Fatalf("converter called %d times", got)
	}
	reports := sink.all()
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	report := reports[0]
	if !report.Success || report.Rows != 42 || report.Attempts != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.OutputPath != filepath.Join(cfg.Paths.OutboxDir, "ride.csv") {
		t.Fatalf("output path = %s", report.OutputPath)
	}
	if report.SessionID != p.SessionID() {
		t.Fatalf("session = %q, want %q", report.SessionID, p.SessionID())
	}
}

func TestPipelineRetriesTransientErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(3))
	sink := &memorySink{}

	var calls atomic.Int32
	converter := func(inputPath, outputPath string) (int, error) {
		if calls.Add(1) < 3 {
			return 0, errors.New("write csv row: disk hiccup")
		}
		return 7, nil
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	input := writeInput(t, cfg.Paths.InboxDir, "run.fit")
	p.Enqueue(input)
	p.Stop()

	if got := calls.Load(); got != 3 {
		t.Fatalf("converter called %d times, want 3", got)
	}
	reports := sink.all()
	if len(reports) != 1 || !reports[0].Success || reports[0].Attempts != 3 {
		t.Fatalf("unexpected reports: %+v", reports)
	}
}

func TestPipelineRetriesTransientOpenErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(3))
	sink := &memorySink{}

	// An opener whose first two opens fail with an I/O error exercises the
	// retry path through the real converter, not a stub.
	opener := testsupport.NewFakeOpener(fit.Record{"timestamp": 1, "heart_rate": uint8(133)})
	opener.FailNextWith(syscall.EIO, syscall.EIO)
	converter := func(inputPath, outputPath string) (int, error) {
		return convert.Convert(opener, inputPath, outputPath, false)
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	input := writeInput(t, cfg.Paths.InboxDir, "shaky.fit")
	p.Enqueue(input)
	p.Stop()

	// Attempts one and two each stop at the failed open; attempt three opens
	// twice, once per decode pass.
	if got := opener.Opens(); got != 4 {
		t.Fatalf("opener.Open called %d times, want 4", got)
	}
	reports := sink.all()
	if len(reports) != 1 || !reports[0].Success {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if reports[0].Attempts != 3 || reports[0].Rows != 1 {
		t.Fatalf("unexpected success report: %+v", reports[0])
	}
}

func TestPipelineDoesNotRetryPermanentErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(3))
	sink := &memorySink{}

	var calls atomic.Int32
	converter := func(inputPath, outputPath string) (int, error) {
		calls.Add(1)
		return 0, fmt.Errorf("%w: decode activity: bad header", convert.ErrPermanent)
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	input := writeInput(t, cfg.Paths.InboxDir, "bad.fit")
	p.Enqueue(input)
	p.Stop()

	if got := calls.Load(); got != 1 {
		t.Fatalf("converter called %d times, want 1", got)
	}
	reports := sink.all()
	if len(reports) != 1 || reports[0].Success {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if reports[0].Attempts != 1 {
		t.Fatalf("attempts = %d", reports[0].Attempts)
	}
}

func TestPipelineRecordsFailureWhenAttemptsExhausted(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(2))
	sink := &memorySink{}

	var calls atomic.Int32
	converter := func(inputPath, outputPath string) (int, error) {
		calls.Add(1)
		return 0, errors.New("transient failure")
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	input := writeInput(t, cfg.Paths.InboxDir, "flaky.fit")
	p.Enqueue(input)
	p.Stop()

	if got := calls.Load(); got != 2 {
		t.Fatalf("converter called %d times, want 2", got)
	}
	reports := sink.all()
	if len(reports) != 1 || reports[0].Success {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if reports[0].Attempts != 2 || reports[0].Message != "transient failure" {
		t.Fatalf("unexpected failure report: %+v", reports[0])
	}
}

func TestPipelineEnqueueDeduplicatesBursts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	converter := func(inputPath, outputPath string) (int, error) { return 1, nil }

	p := pipeline.New(cfg, logging.NewNop(), converter, nil, nil)
	input := writeInput(t, cfg.Paths.InboxDir, "burst.fit")

	if !p.Enqueue(input) {
		t.Fatal("first enqueue should succeed")
	}
	if p.Enqueue(input) {
		t.Fatal("second enqueue during the debounce window should be dropped")
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Stop()
}

func TestPipelineReleasesPathAfterProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sink := &memorySink{}

	var calls atomic.Int32
	converter := func(inputPath, outputPath string) (int, error) {
		calls.Add(1)
		return 5, nil
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(p.Stop)

	input := writeInput(t, cfg.Paths.InboxDir, "repeat.fit")
	if !p.Enqueue(input) {
		t.Fatal("first enqueue should succeed")
	}

	// Wait out processing plus the debounce window, then the same path must
	// be accepted again.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if calls.Load() >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(cfg.Debounce() + 50*time.Millisecond)

	if !p.Enqueue(input) {
		t.Fatal("path should be accepted again after release and debounce")
	}

	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if calls.Load() == 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("converter called %d times, want 2", calls.Load())
}

func TestPipelineConvertsDespiteStabilityTimeout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watcher.StabilityTimeoutSeconds = 0.1
	sink := &memorySink{}

	var calls atomic.Int32
	converter := func(inputPath, outputPath string) (int, error) {
		calls.Add(1)
		return 0, fmt.Errorf("%w: stat input: file does not exist", convert.ErrPermanent)
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The input never appears on disk: the stability probe times out, but the
	// conversion is still attempted and fails through the normal error path.
	p.Enqueue(filepath.Join(cfg.Paths.InboxDir, "ghost.fit"))
	p.Stop()

	if got := calls.Load(); got != 1 {
		t.Fatalf("converter should run despite the unsettled file, ran %d times", got)
	}
	reports := sink.all()
	if len(reports) != 1 || reports[0].Success {
		t.Fatalf("unexpected reports: %+v", reports)
	}
}

func TestPipelineSurvivesConverterPanic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sink := &memorySink{}

	var calls atomic.Int32
	converter := func(inputPath, outputPath string) (int, error) {
		if calls.Add(1) == 1 {
			panic("index out of range decoding record 17")
		}
		return 3, nil
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, sink, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	p.Enqueue(writeInput(t, cfg.Paths.InboxDir, "hostile.fit"))
	p.Enqueue(writeInput(t, cfg.Paths.InboxDir, "normal.fit"))
	p.Stop()

	// The panic becomes a permanent failure for its file and the worker keeps
	// going.
	reports := sink.all()
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d: %+v", len(reports), reports)
	}
	if reports[0].Success || !strings.Contains(reports[0].Message, "converter panic") {
		t.Fatalf("unexpected first report: %+v", reports[0])
	}
	if reports[0].Attempts != 1 {
		t.Fatalf("panic should not be retried, attempts = %d", reports[0].Attempts)
	}
	if !reports[1].Success || reports[1].Rows != 3 {
		t.Fatalf("unexpected second report: %+v", reports[1])
	}
}

func TestPipelineProcessesInArrivalOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var (
		mu    sync.Mutex
		order []string
	)
	converter := func(inputPath, outputPath string) (int, error) {
		mu.Lock()
		order = append(order, filepath.Base(inputPath))
		mu.Unlock()
		return 1, nil
	}

	p := pipeline.New(cfg, logging.NewNop(), converter, nil, nil)

	names := []string{"first.fit", "second.fit", "third.fit"}
	for _, name := range names {
		if !p.Enqueue(writeInput(t, cfg.Paths.InboxDir, name)) {
			t.Fatalf("enqueue %s failed", name)
		}
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("processed %d files, want 3", len(order))
	}
	for i, name := range names {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, names)
		}
	}
}
