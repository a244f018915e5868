package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitflow/internal/config"
	"fitflow/internal/convert"
	"fitflow/internal/fileutil"
	"fitflow/internal/history"
	"fitflow/internal/logging"
	"fitflow/internal/notifications"
	"fitflow/internal/stability"
)

// outputExtension is the extension given to converted files.
const outputExtension = ".csv"

const (
	retryBackoffStep = 250 * time.Millisecond
	retryBackoffMax  = time.Second
)

// ConvertFunc performs one conversion attempt and returns the number of data
// rows written.
type ConvertFunc func(inputPath, outputPath string) (int, error)

// ReportSink receives conversion outcome reports. The history store satisfies
// this interface.
type ReportSink interface {
	Record(ctx context.Context, report history.Report) (history.Report, error)
}

type task struct {
	stop bool
	path string
}

// Pipeline owns the work queue and the single conversion worker. Events flow
// in through Enqueue, survive debounce and dedup in the tracker, and are
// processed strictly in arrival order.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	converter ConvertFunc
	sink      ReportSink
	notifier  notifications.Service
	tracker   *Tracker
	sessionID string

	tasks chan task
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// New assembles a pipeline. The sink and notifier may be nil.
func New(cfg *config.Config, logger *slog.Logger, converter ConvertFunc, sink ReportSink, notifier notifications.Service) *Pipeline {
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	return &Pipeline{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		converter: converter,
		sink:      sink,
		notifier:  notifier,
		tracker:   NewTracker(cfg.Debounce()),
		sessionID: uuid.NewString(),
		tasks:     make(chan task, cfg.Watcher.QueueCapacity),
	}
}

// SessionID identifies this pipeline instance in history reports.
func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// Pending returns how many files are queued or being converted.
func (p *Pipeline) Pending() int {
	return p.tracker.Pending()
}

// Start launches the worker goroutine. The context bounds stability probing
// and retry backoff for all tasks.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("pipeline already started")
	}
	p.started = true
	p.wg.Add(1)
	go p.worker(ctx)
	return nil
}

// Enqueue offers a path to the queue. It returns false when the path was
// dropped by debounce or dedup, or when the queue is full. Enqueue never
// blocks the caller.
func (p *Pipeline) Enqueue(path string) bool {
	path = filepath.Clean(path)
	if !p.tracker.Accept(path, time.Now()) {
		p.logger.Debug("event dropped by debounce",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldEventType, logging.EventDebounceDrop),
		)
		return false
	}

	select {
	case p.tasks <- task{path: path}:
		p.logger.Info("file queued for conversion",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldEventType, logging.EventEnqueued),
		)
		return true
	default:
		p.tracker.Release(path)
		p.logger.Warn("work queue full, dropping file",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldEventType, logging.EventQueueSaturated),
		)
		return false
	}
}

// Stop tells the worker to finish queued work and exit, then waits for it.
// Safe to call once; later calls are no-ops.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.tasks <- task{stop: true}
	p.wg.Wait()
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	for item := range p.tasks {
		if item.stop {
			return
		}
		p.process(ctx, item.path)
	}
}

func (p *Pipeline) process(ctx context.Context, path string) {
	defer p.tracker.Release(path)

	started := time.Now()
	outputPath := fileutil.OutputPath(p.cfg.Paths.OutboxDir, path, outputExtension)

	maxAttempts := p.cfg.Watcher.MaxAttempts
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Best effort: a timeout means the file was still growing (or had
		// vanished) for the whole window. Conversion proceeds anyway; a
		// truncated file fails decode and is reported through the normal
		// error path.
		if !stability.WaitStable(ctx, path, p.cfg.StabilityTimeout(), p.cfg.PollInterval()) {
			p.logger.Warn("file size never settled, converting anyway",
				logging.String(logging.FieldPath, path),
				logging.Int(logging.FieldAttempt, attempt),
				logging.String(logging.FieldEventType, logging.EventStabilityTimeout),
			)
		}

		rows, err := p.runConvert(path, outputPath)
		if err == nil {
			elapsed := time.Since(started)
			p.logger.Info("conversion complete",
				logging.String(logging.FieldPath, path),
				logging.String(logging.FieldOutput, outputPath),
				logging.Int(logging.FieldRows, rows),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Duration(logging.FieldElapsed, elapsed),
				logging.String(logging.FieldEventType, logging.EventConverted),
			)
			p.record(ctx, history.Report{
				InputPath:  path,
				OutputPath: outputPath,
				Success:    true,
				Rows:       rows,
				Attempts:   attempt,
				Elapsed:    elapsed,
			})
			if notifyErr := p.notifier.NotifyConversionCompleted(ctx, filepath.Base(path), rows, elapsed); notifyErr != nil {
				p.logger.Warn("completion notification failed", logging.Error(notifyErr))
			}
			return
		}

		lastErr = err
		if convert.IsPermanent(err) {
			p.failed(ctx, path, attempt, started, err)
			return
		}

		if attempt < maxAttempts {
			p.logger.Warn("conversion failed, will retry",
				logging.String(logging.FieldPath, path),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Int(logging.FieldMaxAttempts, maxAttempts),
				logging.Error(err),
				logging.String(logging.FieldEventType, logging.EventRetry),
			)
			if !sleepBackoff(ctx, attempt) {
				p.failed(ctx, path, attempt, started, ctx.Err())
				return
			}
		}
	}

	p.failed(ctx, path, maxAttempts, started, lastErr)
}

// runConvert performs one conversion attempt, turning a converter panic into
// a permanent error. A malformed file must not kill the worker.
func (p *Pipeline) runConvert(inputPath, outputPath string) (rows int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: converter panic: %v", convert.ErrPermanent, r)
		}
	}()
	return p.converter(inputPath, outputPath)
}

func (p *Pipeline) failed(ctx context.Context, path string, attempts int, started time.Time, cause error) {
	p.logger.Error("conversion failed permanently",
		logging.String(logging.FieldPath, path),
		logging.Int(logging.FieldAttempt, attempts),
		logging.Error(cause),
		logging.String(logging.FieldEventType, logging.EventPermanentFailure),
	)
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	p.record(ctx, history.Report{
		InputPath: path,
		Attempts:  attempts,
		Elapsed:   time.Since(started),
		Message:   message,
	})
	if notifyErr := p.notifier.NotifyConversionFailed(ctx, filepath.Base(path), attempts, cause); notifyErr != nil {
		p.logger.Warn("failure notification failed", logging.Error(notifyErr))
	}
}

func (p *Pipeline) record(ctx context.Context, report history.Report) {
	if p.sink == nil {
		return
	}
	report.SessionID = p.sessionID
	if _, err := p.sink.Record(ctx, report); err != nil {
		p.logger.Warn("failed to record history report", logging.Error(err))
	}
}

// sleepBackoff waits before the next attempt, growing linearly and capped at
// retryBackoffMax. It returns false when ctx was cancelled while waiting.
func sleepBackoff(ctx context.Context, attempt int) bool {
	delay := time.Duration(attempt) * retryBackoffStep
	if delay > retryBackoffMax {
		delay = retryBackoffMax
	}
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}
