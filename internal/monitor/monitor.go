// Package monitor periodically reports the state of the editor session to a
// status file.
package monitor

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/courtlab/drillboard/internal/dispatcher"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/logging"
	"github.com/courtlab/drillboard/internal/session"
	"github.com/courtlab/drillboard/internal/storage"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = time.Second

// SaveCounter reports completed autosaves.
type SaveCounter interface {
	Saves() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session    *session.Context
	Dispatcher *dispatcher.Dispatcher
	Backend    storage.Backend // optional
	Autosave   SaveCounter     // optional
	LogManager *logging.SlogManager
	StatusFile string // empty disables the file
	Interval   time.Duration
}

// Status is one report of the session.
type Status struct {
	Time      time.Time                   `json:"time"`
	Drill     string                      `json:"drill"`
	Title     string                      `json:"title"`
	Revision  uint64                      `json:"revision"`
	Entities  int                         `json:"entities"`
	Relations int                         `json:"relations"`
	Commands  map[string]dispatcher.Stats `json:"commands"`
	Autosaves int                         `json:"autosaves"`
	Stored    int                         `json:"stored"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus collects the current status. A failing backend leaves Stored
// at -1.
func (s *Service) GetStatus(ctx context.Context) Status {
	st := Status{
		Time:     time.Now().UTC(),
		Drill:    s.deps.Session.Name(),
		Revision: s.deps.Session.Revision(),
		Stored:   -1,
	}
	_ = s.deps.Session.View(func(e *engine.Engine) error {
		st.Title = e.Document().Title
		st.Entities, st.Relations = e.Document().Len()
		return nil
	})
	if s.deps.Dispatcher != nil {
		st.Commands = s.deps.Dispatcher.Stats()
	}
	if s.deps.Autosave != nil {
		st.Autosaves = s.deps.Autosave.Saves()
	}
	if s.deps.Backend != nil {
		if list, err := s.deps.Backend.List(ctx); err == nil {
			st.Stored = len(list)
		}
	}
	return st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		logger := s.deps.LogManager.Component("monitor")
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		var statusFile *os.File
		if s.deps.StatusFile != "" {
			f, err := os.Create(s.deps.StatusFile)
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			} else {
				statusFile = f
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var lastRev uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st := s.GetStatus(context.Background())
				if st.Revision != lastRev {
					logger.Debug("Session status", "entities", st.Entities, "relations", st.Relations, "autosaves", st.Autosaves)
					lastRev = st.Revision
				}
				if statusFile == nil {
					continue
				}
				if err := writeStatus(statusFile, st); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

func writeStatus(f *os.File, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
