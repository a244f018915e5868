package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"fitflow/internal/logging"
)

// Candidate is a path believed to be a newly arrived or changed input file.
type Candidate struct {
	Path string
	Seen time.Time
}

// Source watches exactly one directory, non-recursively, and emits candidate
// paths for files matching the configured extension. It never blocks the
// fsnotify goroutine on downstream work: when the candidates channel is
// saturated the event is dropped with a warning, trusting a later modify
// event or a manual enqueue to pick the file up.
type Source struct {
	dir        string
	ext        string
	watcher    *fsnotify.Watcher
	candidates chan Candidate
	logger     *slog.Logger
	done       chan struct{}
	wg         sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewSource creates a watcher for dir emitting files whose extension matches
// ext (case-insensitive, including the dot).
func NewSource(dir, ext string, logger *slog.Logger) (*Source, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("watch directory is required")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Source{
		dir:        dir,
		ext:        strings.ToLower(ext),
		watcher:    watcher,
		candidates: make(chan Candidate, 256),
		logger:     logging.NewComponentLogger(logger, "watch"),
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching. It fails when the directory cannot be watched.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("watcher already running")
	}
	if err := s.watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", s.dir, err)
	}
	s.running = true
	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop stops watching and closes the candidates channel. It blocks until the
// event loop has exited.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.done)
	_ = s.watcher.Close()
	s.wg.Wait()
	close(s.candidates)
}

// Candidates returns the channel of surviving paths. Closed by Stop.
func (s *Source) Candidates() <-chan Candidate {
	return s.candidates
}

// Dir returns the watched directory.
func (s *Source) Dir() string {
	return s.dir
}

func (s *Source) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			path, accepted := s.normalize(event)
			if !accepted {
				continue
			}
			select {
			case s.candidates <- Candidate{Path: path, Seen: time.Now()}:
			case <-s.done:
				return
			default:
				s.logger.Warn("candidate channel full, dropping event",
					logging.String(logging.FieldPath, path),
					logging.String(logging.FieldEventType, logging.EventQueueSaturated),
				)
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("filesystem notification error", logging.Error(err))
		}
	}
}

// normalize filters one fsnotify event down to a candidate path. Directory
// events, non-matching extensions, and removal/rename/chmod notifications are
// discarded; a file moved into the watched directory arrives as a create.
func (s *Source) normalize(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := event.Name
	if name == "" {
		return "", false
	}
	if strings.ToLower(filepath.Ext(name)) != s.ext {
		return "", false
	}
	// Directories can match the extension filter by name alone.
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return "", false
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	return abs, true
}
