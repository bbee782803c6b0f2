// Package session guards the open drill for multi-goroutine adapters such as
// the HTTP API and autosave.
package session

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/export/snapshot"
)

// Context holds the engine of the open drill. Every access goes through
// View or Update; the engine itself is never shared across goroutines.
type Context struct {
	mu     sync.RWMutex
	engine *engine.Engine
	name   string

	// readable without the lock, for log context
	revision atomic.Uint64
	title    atomic.Value // string

	lmu       sync.Mutex
	listeners []func(rev uint64)
}

// NewContext wraps eng. A nil engine starts an empty drill with defaults.
func NewContext(eng *engine.Engine) *Context {
	if eng == nil {
		eng = engine.New(nil, engine.DefaultOptions())
	}
	c := &Context{engine: eng}
	c.title.Store(eng.Document().Title)
	c.watch(eng.Document())
	return c
}

// View runs fn under the read lock. fn must not mutate the engine.
func (c *Context) View(fn func(e *engine.Engine) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.engine)
}

// Update runs fn under the write lock.
func (c *Context) Update(fn func(e *engine.Engine) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.engine)
}

// Load replaces the open drill and regenerates its geometry.
func (c *Context) Load(doc *document.Document, name string) engine.Changes {
	c.mu.Lock()
	ch := c.engine.Load(doc)
	c.name = name
	doc = c.engine.Document()
	c.watch(doc)
	c.mu.Unlock()

	c.changed(doc.Title)
	return ch
}

// Name returns the storage name the drill was loaded from or saved as.
func (c *Context) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName records the storage name of the drill.
func (c *Context) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Revision counts changes across every drill loaded in this session.
func (c *Context) Revision() uint64 {
	return c.revision.Load()
}

// OnChange registers fn to be called after every change. fn runs on the
// mutating goroutine, possibly with the write lock held, so it must not call
// back into the Context synchronously.
func (c *Context) OnChange(fn func(rev uint64)) {
	c.lmu.Lock()
	defer c.lmu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Snapshot encodes the open drill.
func (c *Context) Snapshot() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return snapshot.Encode(c.engine.Document())
}

// LogAttrs describes the session for log records. It never blocks on the
// drill lock.
func (c *Context) LogAttrs() []slog.Attr {
	title, _ := c.title.Load().(string)
	return []slog.Attr{
		slog.String("drill", title),
		slog.Uint64("revision", c.revision.Load()),
	}
}

func (c *Context) watch(doc *document.Document) {
	doc.OnChange(func(uint64) {
		// a replaced document may still be referenced by a stale caller
		if c.engine.Document() != doc {
			return
		}
		c.changed(doc.Title)
	})
}

func (c *Context) changed(title string) {
	c.title.Store(title)
	rev := c.revision.Add(1)

	c.lmu.Lock()
	listeners := append([]func(uint64){}, c.listeners...)
	c.lmu.Unlock()
	for _, fn := range listeners {
		fn(rev)
	}
}
