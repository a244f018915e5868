package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"fitflow/internal/config"
	"fitflow/internal/convert"
	"fitflow/internal/fileutil"
	"fitflow/internal/fit"
	"fitflow/internal/history"
	"fitflow/internal/logging"
	"fitflow/internal/notifications"
	"fitflow/internal/pipeline"
	"fitflow/internal/watch"
)

// Daemon wires the watcher, pipeline, history store, and notifier together
// and enforces single-instance execution via a lock file in the log
// directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *history.Store
	notifier notifications.Service
	pipe     *pipeline.Pipeline
	source   *watch.Source

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	cancel    context.CancelFunc
	forwarder sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	SessionID     string
	InboxDir      string
	OutboxDir     string
	PendingFiles  int
	HistoryDBPath string
	LockFilePath  string
}

// New constructs a daemon with initialized dependencies. The caller owns the
// store and must close it after Stop.
func New(cfg *config.Config, logger *slog.Logger, store *history.Store) (*Daemon, error) {
	if cfg == nil || logger == nil || store == nil {
		return nil, errors.New("daemon requires config, logger, and history store")
	}

	notifier := notifications.NewService(cfg)

	opener := fit.GarminOpener{}
	converter := func(inputPath, outputPath string) (int, error) {
		return convert.Convert(opener, inputPath, outputPath, cfg.Conversion.Transform)
	}
	pipe := pipeline.New(cfg, logger, converter, store, notifier)

	source, err := watch.NewSource(cfg.Paths.InboxDir, cfg.Conversion.InputExtension, logger)
	if err != nil {
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "fitflowd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		notifier: notifier,
		pipe:     pipe,
		source:   source,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, prunes old history, and begins watching.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fitflow daemon instance is already running")
	}

	d.pruneHistory(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.pipe.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start pipeline: %w", err)
	}
	if err := d.source.Start(); err != nil {
		d.pipe.Stop()
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start watcher: %w", err)
	}

	d.forwarder.Add(1)
	go func() {
		defer d.forwarder.Done()
		for candidate := range d.source.Candidates() {
			d.pipe.Enqueue(candidate.Path)
		}
	}()

	d.sweepInbox()

	d.running.Store(true)
	d.logger.Info("fitflow daemon started",
		logging.String(logging.FieldSession, d.pipe.SessionID()),
		logging.String(logging.FieldPath, d.cfg.Paths.InboxDir),
		logging.String("lock", d.lockPath),
	)
	if err := d.notifier.NotifyDaemonStarted(ctx, d.cfg.Paths.InboxDir); err != nil {
		d.logger.Warn("startup notification failed", logging.Error(err))
	}
	return nil
}

// Stop halts the watcher, drains queued work, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.source.Stop()
	d.forwarder.Wait()
	d.pipe.Stop()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("fitflow daemon stopped")
}

// Close stops the daemon and closes the history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Enqueue offers a path directly to the pipeline, bypassing the filesystem
// watcher. Used by the initial inbox sweep and by tests.
func (d *Daemon) Enqueue(path string) bool {
	return d.pipe.Enqueue(path)
}

// Status reports runtime information for diagnostics.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		SessionID:     d.pipe.SessionID(),
		InboxDir:      d.cfg.Paths.InboxDir,
		OutboxDir:     d.cfg.Paths.OutboxDir,
		PendingFiles:  d.pipe.Pending(),
		HistoryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
	}
}

// sweepInbox enqueues files that arrived while the daemon was not running.
func (d *Daemon) sweepInbox() {
	entries, err := os.ReadDir(d.cfg.Paths.InboxDir)
	if err != nil {
		d.logger.Warn("inbox sweep failed", logging.Error(err))
		return
	}
	ext := strings.ToLower(d.cfg.Conversion.InputExtension)
	for _, entry := range entries {
		name := entry.Name()
		if strings.ToLower(filepath.Ext(name)) != ext {
			continue
		}
		path := filepath.Join(d.cfg.Paths.InboxDir, name)
		if !fileutil.IsRegular(path) {
			continue
		}
		d.pipe.Enqueue(path)
	}
}

func (d *Daemon) pruneHistory(ctx context.Context) {
	retention := d.cfg.History.RetentionDays
	if retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retention)
	removed, err := d.store.Prune(ctx, cutoff)
	if err != nil {
		d.logger.Warn("history prune failed", logging.Error(err))
		return
	}
	if removed > 0 {
		d.logger.Info("pruned old history reports", logging.Int64("removed", removed))
	}
}
