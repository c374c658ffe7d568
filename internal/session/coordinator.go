// Package session caches generated context per agent session.
//
// The first request for a session starts exactly one generation run; every
// other request for that session, concurrent or later, waits on the same
// Handle. Child sessions created while their parent already has a slot share
// the parent's Handle. Generation never fails from the caller's point of
// view: errors resolve the Handle to absent and are logged for the operator.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/logging"
)

// Generator produces the context text for a session. ok is false when there
// is nothing to inject.
type Generator interface {
	Generate(ctx context.Context) (text string, ok bool)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context) (string, bool)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context) (string, bool) {
	return f(ctx)
}

// Handle is a deferred generation result shared by every caller of a session.
type Handle struct {
	done chan struct{}
	text string
	ok   bool
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

func (h *Handle) resolve(text string, ok bool) {
	h.text, h.ok = text, ok
	close(h.done)
}

// Done is closed once the result is available.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the result is available or ctx ends. A cancelled wait
// reports absent without affecting the generation or other waiters.
func (h *Handle) Wait(ctx context.Context) (string, bool) {
	select {
	case <-h.done:
		return h.text, h.ok
	case <-ctx.Done():
		return "", false
	}
}

// Cache maps session ids to handles.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Handle
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Handle)}
}

// Len returns the number of session slots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats describes coordinator activity.
type Stats struct {
	Entries     int   `json:"entries"`
	Generations int64 `json:"generations"`
}

// Coordinator owns a Cache and starts generations on demand.
type Coordinator struct {
	base        context.Context
	cache       *Cache
	gen         Generator
	log         *zap.Logger
	generations atomic.Int64
	inflight    sync.WaitGroup
}

// NewCoordinator returns a Coordinator. Generations run on base, not on the
// context of whichever request started them.
func NewCoordinator(base context.Context, cache *Cache, gen Generator, log *zap.Logger) *Coordinator {
	if cache == nil {
		cache = NewCache()
	}
	return &Coordinator{base: base, cache: cache, gen: gen, log: logging.OrNop(log)}
}

// Ensure returns the handle for sessionID, starting a generation if the
// session has no slot yet.
func (c *Coordinator) Ensure(sessionID string) *Handle {
	c.cache.mu.Lock()
	if h, ok := c.cache.entries[sessionID]; ok {
		c.cache.mu.Unlock()
		return h
	}
	h := newHandle()
	c.cache.entries[sessionID] = h
	c.cache.mu.Unlock()

	c.generations.Add(1)
	c.inflight.Add(1)
	go c.generate(sessionID, h)
	return h
}

func (c *Coordinator) generate(sessionID string, h *Handle) {
	defer c.inflight.Done()
	var (
		text string
		ok   bool
	)
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("context generation panicked",
				zap.String("session", sessionID), zap.String("panic", fmt.Sprint(r)))
			text, ok = "", false
		}
		h.resolve(text, ok)
	}()

	c.log.Debug("generating session context", zap.String("session", sessionID))
	text, ok = c.gen.Generate(c.base)
	if ok && text == "" {
		ok = false
	}
}

// Context returns the cached or freshly generated context for sessionID.
func (c *Coordinator) Context(ctx context.Context, sessionID string) (string, bool) {
	return c.Ensure(sessionID).Wait(ctx)
}

// SessionCreated aliases a child session to its parent's slot when the
// parent has one and the child does not.
func (c *Coordinator) SessionCreated(sessionID string, parentID *string) {
	if parentID == nil || *parentID == "" || sessionID == "" {
		return
	}
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	parent, ok := c.cache.entries[*parentID]
	if !ok {
		return
	}
	if _, exists := c.cache.entries[sessionID]; exists {
		return
	}
	c.cache.entries[sessionID] = parent
	c.log.Debug("child session shares parent context",
		zap.String("session", sessionID), zap.String("parent", *parentID))
}

// SessionDeleted drops the slot for sessionID. Aliases held by other ids
// are untouched.
func (c *Coordinator) SessionDeleted(sessionID string) {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	delete(c.cache.entries, sessionID)
}

// Stats reports the current slot count and total generations started.
func (c *Coordinator) Stats() Stats {
	return Stats{Entries: c.cache.Len(), Generations: c.generations.Load()}
}

// Wait blocks until every started generation has resolved.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}
