// Package cache provides ModelCache, a bounded memoizing store that derives
// one artifact per document and keeps it while the document version holds.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"mosaic/internal/document"
	"mosaic/internal/scheduler"

	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

var log = commonlog.GetLogger("mosaic.cache")

// ErrDisposed is returned by Get after Dispose.
var ErrDisposed = errors.New("model cache disposed")

// DeriveFunc computes the artifact for one document version.
type DeriveFunc[T any] func(ctx context.Context, doc *document.Document) (T, error)

// Clock supplies the time used for access stamps and sweep scheduling.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type entry[T any] struct {
	version    int32
	languageID string
	lastAccess atomic.Int64
	value      T
}

// tracker records the newest version observed for a uri. A removal drops
// the tracker, which invalidates every derivation started before it.
type tracker struct {
	latest int32
}

type options struct {
	clock     Clock
	scheduler *scheduler.Scheduler
	provider  metric.MeterProvider
}

type Option func(*options)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithScheduler runs the sweep as a periodic task on s in addition to the
// amortized sweep inside Get.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithMeterProvider records metrics on provider instead of the global one.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(o *options) { o.provider = provider }
}

// ModelCache maps document uris to artifacts derived from one version of
// the document. It is safe for concurrent use.
type ModelCache[T any] struct {
	name       string
	maxEntries int
	interval   time.Duration
	derive     DeriveFunc[T]
	clock      Clock
	metrics    *metrics

	mu        sync.RWMutex
	entries   map[string]*entry[T]
	trackers  map[string]*tracker
	lastSweep time.Time
	disposed  bool

	flight      singleflight.Group
	cancelSweep func()
}

// New creates a ModelCache holding at most maxEntries entries once a sweep
// has run. A sweep runs whenever interval has elapsed since the last one.
func New[T any](
	name string,
	maxEntries int,
	interval time.Duration,
	derive DeriveFunc[T],
	opts ...Option,
) *ModelCache[T] {
	o := options{clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	m, err := newMetrics(o.provider, name)
	if err != nil {
		log.Warningf("cache %s: metrics disabled: %v", name, err)
	}

	c := &ModelCache[T]{
		name:       name,
		maxEntries: maxEntries,
		interval:   interval,
		derive:     derive,
		clock:      o.clock,
		metrics:    m,
		entries:    make(map[string]*entry[T]),
		trackers:   make(map[string]*tracker),
		lastSweep:  o.clock.Now(),
	}

	if o.scheduler != nil && interval > 0 {
		c.cancelSweep = o.scheduler.Every(interval, scheduler.Task{
			Name: "sweep " + name,
			Execute: func() error {
				c.Sweep()
				return nil
			},
		})
	}
	return c
}

// Name returns the name given at construction.
func (c *ModelCache[T]) Name() string {
	return c.name
}

// Get returns the artifact for doc, deriving it when no entry exists for
// doc.URI at doc.Version. Concurrent calls for the same version share one
// derivation, which runs under the context of the caller that started it.
// Failed derivations are not cached.
func (c *ModelCache[T]) Get(ctx context.Context, doc *document.Document) (T, error) {
	var zero T
	c.maybeSweep(ctx)

	value, ok, err := c.lookup(doc)
	if err != nil {
		return zero, err
	}
	if ok {
		c.metrics.hit(ctx)
		return value, nil
	}
	c.metrics.miss(ctx)

	t := c.observe(doc)
	key := fmt.Sprintf("%s\x00%s\x00%d", doc.URI, doc.LanguageID, doc.Version)
	for attempt := 1; ; attempt++ {
		ch := c.flight.DoChan(key, func() (any, error) {
			return c.deriveAndStore(ctx, doc, t)
		})
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				// the caller that started the flight went away; ours is live
				if ctx.Err() == nil && isCancellation(res.Err) && attempt < maxAttempts {
					log.Debugf("cache %s: retrying %s@%d after a cancelled derivation", c.name, doc.URI, doc.Version)
					continue
				}
				return zero, res.Err
			}
			value, _ := res.Val.(T)
			return value, nil
		}
	}
}

// maxAttempts bounds how often Get joins a new flight after the previous
// one failed with another caller's cancellation.
const maxAttempts = 3

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// lookup returns the entry stored for doc's version and language.
func (c *ModelCache[T]) lookup(doc *document.Document) (T, bool, error) {
	var zero T
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.disposed {
		return zero, false, ErrDisposed
	}
	if e, ok := c.entries[doc.URI]; ok && e.version == doc.Version && e.languageID == doc.LanguageID {
		e.lastAccess.Store(c.clock.Now().UnixNano())
		return e.value, true, nil
	}
	return zero, false, nil
}

// deriveAndStore is the body of a flight. A flight that finished between
// the caller's lookup and the start of this one has already stored the
// value, which is returned instead of deriving again.
func (c *ModelCache[T]) deriveAndStore(ctx context.Context, doc *document.Document, t *tracker) (any, error) {
	if value, ok, err := c.lookup(doc); err != nil {
		return nil, err
	} else if ok {
		return value, nil
	}

	spanCtx, span := startDeriveSpan(ctx, c.name, doc.URI, doc.Version)
	defer span.End()

	value, err := c.derive(spanCtx, doc)
	c.metrics.derived(ctx, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.store(doc, t, value)
	return value, nil
}

// observe registers doc.Version as seen and returns the uri's tracker.
func (c *ModelCache[T]) observe(doc *document.Document) *tracker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.trackers[doc.URI]
	if !ok {
		t = &tracker{latest: doc.Version}
		c.trackers[doc.URI] = t
	} else if doc.Version > t.latest {
		t.latest = doc.Version
	}
	return t
}

// store saves a derived value unless the uri was removed in the meantime
// or a newer version has been requested since.
func (c *ModelCache[T]) store(doc *document.Document, t *tracker, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || c.trackers[doc.URI] != t || doc.Version < t.latest {
		log.Debugf("cache %s: discarding stale result for %s@%d", c.name, doc.URI, doc.Version)
		return
	}
	e := &entry[T]{
		version:    doc.Version,
		languageID: doc.LanguageID,
		value:      value,
	}
	e.lastAccess.Store(c.clock.Now().UnixNano())
	c.entries[doc.URI] = e
}

// Peek returns the current value stored for uri, whatever its version.
func (c *ModelCache[T]) Peek(uri string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[uri]; ok {
		return e.value, true
	}
	var zero T
	return zero, false
}

// OnDocumentRemoved drops the entry for uri.
func (c *ModelCache[T]) OnDocumentRemoved(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uri)
	delete(c.trackers, uri)
}

// Len returns the number of entries.
func (c *ModelCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ModelCache[T]) maybeSweep(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	c.mu.RLock()
	due := c.clock.Now().Sub(c.lastSweep) >= c.interval
	c.mu.RUnlock()
	if due {
		c.sweep(ctx)
	}
}

// Sweep evicts the least recently accessed entries until at most
// maxEntries remain. It returns the number of evicted entries.
func (c *ModelCache[T]) Sweep() int {
	return c.sweep(context.Background())
}

func (c *ModelCache[T]) sweep(ctx context.Context) int {
	c.mu.Lock()
	c.lastSweep = c.clock.Now()
	excess := len(c.entries) - c.maxEntries
	if excess <= 0 {
		c.mu.Unlock()
		return 0
	}

	type aged struct {
		uri        string
		lastAccess int64
	}
	all := make([]aged, 0, len(c.entries))
	for uri, e := range c.entries {
		all = append(all, aged{uri: uri, lastAccess: e.lastAccess.Load()})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].lastAccess < all[j].lastAccess })
	for _, a := range all[:excess] {
		delete(c.entries, a.uri)
		delete(c.trackers, a.uri)
	}
	c.mu.Unlock()

	c.metrics.evicted(ctx, excess)
	log.Debugf("cache %s: evicted %d entries", c.name, excess)
	return excess
}

// Dispose clears the cache and stops its periodic sweep. Get fails with
// ErrDisposed afterwards.
func (c *ModelCache[T]) Dispose() {
	c.mu.Lock()
	c.disposed = true
	c.entries = make(map[string]*entry[T])
	c.trackers = make(map[string]*tracker)
	cancel := c.cancelSweep
	c.cancelSweep = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
