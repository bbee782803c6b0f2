// Package autosave persists the open drill shortly after it stops changing.
package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/courtlab/drillboard/internal/config"
	"github.com/courtlab/drillboard/internal/export/snapshot"
	"github.com/courtlab/drillboard/internal/session"
	"github.com/courtlab/drillboard/internal/storage"
)

// Defaults used when the config leaves them empty.
const (
	DefaultDelay = 500 * time.Millisecond
	DefaultKey   = "vball_drill_state"
)

// Saver debounces session changes and saves the latest snapshot under a
// fixed key. A burst of changes results in a single save.
type Saver struct {
	session *session.Context
	backend storage.Backend
	key     string
	delay   time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	started bool
	closed  bool

	// serializes saves between the timer and Flush
	saveMu    sync.Mutex
	savedRev  uint64
	saveCount int
}

// New creates a saver. It does nothing until Start.
func New(sess *session.Context, backend storage.Backend, cfg config.AutosaveConfig, log *slog.Logger) *Saver {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &Saver{
		session: sess,
		backend: backend,
		key:     cfg.Key,
		delay:   cfg.Delay,
		log:     log,
	}
}

// Key returns the storage name autosaves are written to.
func (s *Saver) Key() string {
	return s.key
}

// Start subscribes to session changes. Calling it twice is a no-op.
func (s *Saver) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.session.OnChange(s.notify)
}

// notify runs on the mutating goroutine, possibly under the session write
// lock, so it only arms the timer.
func (s *Saver) notify(uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = true
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
		return
	}
	s.timer.Reset(s.delay)
}

func (s *Saver) fire() {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.mu.Unlock()

	if err := s.save(context.Background()); err != nil {
		s.log.Error("Autosave failed", "key", s.key, "error", err)
	}
}

// Flush saves immediately if a change is waiting.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	pending := s.pending
	s.pending = false
	s.mu.Unlock()

	if !pending {
		return nil
	}
	return s.save(ctx)
}

// Close flushes pending changes and ignores later ones.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Flush(ctx)
}

// Saves returns how many snapshots were written.
func (s *Saver) Saves() int {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.saveCount
}

func (s *Saver) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	rev := s.session.Revision()
	if rev == s.savedRev {
		return nil
	}
	data, err := s.session.Snapshot()
	if err != nil {
		return fmt.Errorf("encode drill: %w", err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		return err
	}
	s.savedRev = rev
	s.saveCount++
	s.log.Debug("Autosaved drill", "key", s.key, "revision", rev, "bytes", len(data))
	return nil
}

// Restore loads the last autosave into the session. It reports false when
// there is none. A corrupt autosave is logged and skipped, leaving the
// session untouched.
func (s *Saver) Restore(ctx context.Context) (bool, error) {
	data, err := s.backend.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	doc, err := snapshot.Decode(data)
	if err != nil {
		s.log.Warn("Discarding unreadable autosave", "key", s.key, "error", err)
		return false, nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.session.Load(doc, "")
	// what was just restored is already on disk
	s.savedRev = s.session.Revision()
	return true, nil
}
