// package tasks implements the batched, rate-limited aggregation pipeline.
//
// The core abstraction is Engine, which enumerates playlists and aggregates
// one playlist's tracks through four dependent enrichment waves. Operations
// emit progress updates via channels for non-blocking status reporting to the
// CLI layer.
package tasks

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/visheshvs/nexportify/internal/services"
	"github.com/visheshvs/nexportify/internal/shared"
)

const (
	// staggerStep is the fixed pacing step: request i of a wave waits i×step
	// before issuing, spreading the burst across the rate-limit window.
	staggerStep = 100 * time.Millisecond

	// labelStep paces the album-label wave more aggressively since it runs
	// right after the genre wave.
	labelStep = 200 * time.Millisecond
)

// SessionDiscarder ends the stored session so a future run re-authenticates.
// Satisfied by session.Store; nil is tolerated.
type SessionDiscarder interface {
	Discard() error
}

// Engine orchestrates playlist enumeration and track aggregation against a
// [services.Catalog].
type Engine struct {
	catalog  services.Catalog
	sessions SessionDiscarder
	logger   *log.Logger

	stagger func(index int) time.Duration
	throttl func(index int) time.Duration
}

// NewEngine creates an Engine. sessions may be nil when there is no persistent
// session to discard (e.g. in tests).
func NewEngine(catalog services.Catalog, sessions SessionDiscarder, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		catalog:  catalog,
		sessions: sessions,
		logger:   logger,
		stagger:  func(i int) time.Duration { return time.Duration(i) * staggerStep },
		throttl:  func(i int) time.Duration { return time.Duration(i) * labelStep },
	}
}

// SetPacing overrides the per-index pacing steps, usually from configuration.
// Non-positive values keep the defaults.
func (e *Engine) SetPacing(stagger, label time.Duration) {
	if stagger > 0 {
		e.stagger = func(i int) time.Duration { return time.Duration(i) * stagger }
	}
	if label > 0 {
		e.throttl = func(i int) time.Duration { return time.Duration(i) * label }
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks a wave.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// fanOut runs fn for indices [0, count) concurrently and returns the first
// error. Each invocation writes into its own pre-sized slot, so no result
// ordering depends on completion order; in-flight siblings of a failed request
// are not aborted, their results are simply discarded by the caller.
func fanOut(count int, fn func(index int) error) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			if err := fn(index); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	return firstErr
}

// idSet accumulates deduplicated ids in first-seen order. The union is
// additive, so interleaved completion order across a wave's requests cannot
// corrupt it.
type idSet struct {
	mu   sync.Mutex
	seen map[string]bool
	ids  []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]bool)}
}

func (s *idSet) add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if id == "" || s.seen[id] {
			continue
		}
		s.seen[id] = true
		s.ids = append(s.ids, id)
	}
}

func (s *idSet) values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids
}

// mapCollector merges per-chunk maps into one result map under a lock.
type mapCollector struct {
	mu     sync.Mutex
	target map[string]string
}

func newMapCollector(target map[string]string) *mapCollector {
	return &mapCollector{target: target}
}

func (c *mapCollector) merge(part map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range part {
		c.target[k] = v
	}
}

// chunk splits ids into groups of at most size, preserving order.
func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// discardSession drops the stored credentials after a permission failure on a
// non-critical resource, so the next run re-authenticates with fresh scopes.
func (e *Engine) discardSession() {
	if e.sessions == nil {
		return
	}
	if err := e.sessions.Discard(); err != nil {
		e.logger.Warnf("failed to discard session: %v", err)
	}
}
