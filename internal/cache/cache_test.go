package cache_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mosaic/internal/cache"
	"mosaic/internal/document"
	"mosaic/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	reads atomic.Int32
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.reads.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type artifact struct {
	text string
}

// countingDerive returns a derive function that counts its invocations.
func countingDerive(calls *atomic.Int32) cache.DeriveFunc[*artifact] {
	return func(ctx context.Context, doc *document.Document) (*artifact, error) {
		calls.Add(1)
		return &artifact{text: doc.Text}, nil
	}
}

func TestGetMemoizesPerVersion(t *testing.T) {
	var calls atomic.Int32
	c := cache.New("test", 10, time.Minute, countingDerive(&calls), cache.WithClock(newFakeClock()))
	ctx := context.Background()

	doc := document.New("file:///a.html", "html", 1, "one")
	first, err := c.Get(ctx, doc)
	require.NoError(t, err)
	second, err := c.Get(ctx, doc)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	bumped := document.New("file:///a.html", "html", 2, "two")
	third, err := c.Get(ctx, bumped)
	require.NoError(t, err)
	assert.Equal(t, "two", third.text)
	assert.Equal(t, int32(2), calls.Load())

	again, err := c.Get(ctx, bumped)
	require.NoError(t, err)
	assert.Same(t, third, again)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	c := cache.New("test", 10, time.Minute, func(ctx context.Context, doc *document.Document) (*artifact, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return &artifact{text: doc.Text}, nil
	})
	doc := document.New("file:///a.html", "html", 1, "x")

	_, err := c.Get(context.Background(), doc)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	value, err := c.Get(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "x", value.text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSweepEvictsLeastRecentlyUsed(t *testing.T) {
	var calls atomic.Int32
	clock := newFakeClock()
	c := cache.New("test", 10, time.Minute, countingDerive(&calls), cache.WithClock(clock))
	ctx := context.Background()

	docs := make([]*document.Document, 11)
	for i := range docs {
		docs[i] = document.New(fmt.Sprintf("file:///%d.html", i), "html", 1, "x")
		_, err := c.Get(ctx, docs[i])
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	// touch the oldest so the second oldest becomes the victim
	_, err := c.Get(ctx, docs[0])
	require.NoError(t, err)
	assert.Equal(t, 11, c.Len())

	clock.Advance(time.Minute)
	_, err = c.Get(ctx, docs[10])
	require.NoError(t, err)

	assert.Equal(t, 10, c.Len())
	_, ok := c.Peek(docs[1].URI)
	assert.False(t, ok, "least recently used entry survived the sweep")
	_, ok = c.Peek(docs[0].URI)
	assert.True(t, ok)
	assert.Equal(t, int32(11), calls.Load())
}

func TestSweepBeforeIntervalKeepsEntries(t *testing.T) {
	var calls atomic.Int32
	clock := newFakeClock()
	c := cache.New("test", 1, time.Minute, countingDerive(&calls), cache.WithClock(clock))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, document.New(fmt.Sprintf("file:///%d.html", i), "html", 1, "x"))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestOnDocumentRemoved(t *testing.T) {
	var calls atomic.Int32
	c := cache.New("test", 10, time.Minute, countingDerive(&calls))
	doc := document.New("file:///a.html", "html", 1, "x")

	_, err := c.Get(context.Background(), doc)
	require.NoError(t, err)
	c.OnDocumentRemoved(doc.URI)
	assert.Equal(t, 0, c.Len())

	_, err = c.Get(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestConcurrentGetDerivesOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := cache.New("test", 10, time.Minute, func(ctx context.Context, doc *document.Document) (*artifact, error) {
		calls.Add(1)
		<-release
		return &artifact{text: doc.Text}, nil
	})
	doc := document.New("file:///a.html", "html", 1, "x")

	const workers = 16
	results := make([]*artifact, workers)
	var started, wg sync.WaitGroup
	started.Add(workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			started.Done()
			value, err := c.Get(context.Background(), doc)
			assert.NoError(t, err)
			results[i] = value
		}(i)
	}
	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancelledCallerDoesNotFailSharedFlight(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	c := cache.New("test", 10, time.Minute, func(ctx context.Context, doc *document.Document) (*artifact, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &artifact{text: doc.Text}, nil
	})
	doc := document.New("file:///a.html", "html", 1, "x")

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, doc)
		first <- err
	}()
	<-started

	second := make(chan *artifact, 1)
	go func() {
		value, err := c.Get(context.Background(), doc)
		assert.NoError(t, err)
		second <- value
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-first, context.Canceled)
	select {
	case value := <-second:
		require.NotNil(t, value)
		assert.Equal(t, "x", value.text)
	case <-time.After(2 * time.Second):
		t.Fatal("live caller never got a value")
	}
	assert.Equal(t, int32(2), calls.Load())

	stored, ok := c.Peek(doc.URI)
	require.True(t, ok)
	assert.Equal(t, "x", stored.text)
}

func TestScheduledSweep(t *testing.T) {
	s := scheduler.NewScheduler(4)
	defer s.Stop()

	var calls atomic.Int32
	clock := newFakeClock()
	const interval = 10 * time.Millisecond
	c := cache.New("test", 2, interval, countingDerive(&calls), cache.WithClock(clock), cache.WithScheduler(s))
	ctx := context.Background()

	docs := make([]*document.Document, 3)
	for i := range docs {
		docs[i] = document.New(fmt.Sprintf("file:///%d.html", i), "html", 1, "x")
		_, err := c.Get(ctx, docs[i])
		require.NoError(t, err)
		// stays below the interval, so Get itself never sweeps
		clock.Advance(time.Millisecond)
	}

	require.Eventually(t, func() bool { return c.Len() == 2 }, 2*time.Second, time.Millisecond)
	_, ok := c.Peek(docs[0].URI)
	assert.False(t, ok, "oldest entry survived the scheduled sweep")
	_, ok = c.Peek(docs[2].URI)
	assert.True(t, ok)

	c.Dispose()
	// let a tick queued before Dispose finish
	time.Sleep(5 * interval)
	reads := clock.reads.Load()
	time.Sleep(10 * interval)
	assert.Equal(t, reads, clock.reads.Load(), "sweep kept running after Dispose")
}

func TestStaleDerivationIsNotStored(t *testing.T) {
	slow := make(chan struct{})
	c := cache.New("test", 10, time.Minute, func(ctx context.Context, doc *document.Document) (*artifact, error) {
		if doc.Version == 1 {
			<-slow
		}
		return &artifact{text: doc.Text}, nil
	})
	ctx := context.Background()
	v1 := document.New("file:///a.html", "html", 1, "old")
	v2 := document.New("file:///a.html", "html", 2, "new")

	done := make(chan *artifact)
	go func() {
		value, _ := c.Get(ctx, v1)
		done <- value
	}()
	time.Sleep(10 * time.Millisecond)

	_, err := c.Get(ctx, v2)
	require.NoError(t, err)
	close(slow)
	old := <-done

	assert.Equal(t, "old", old.text, "stale caller still receives its value")
	current, ok := c.Peek(v1.URI)
	require.True(t, ok)
	assert.Equal(t, "new", current.text)
}

func TestRemovalDuringDerivationDiscardsResult(t *testing.T) {
	slow := make(chan struct{})
	c := cache.New("test", 10, time.Minute, func(ctx context.Context, doc *document.Document) (*artifact, error) {
		<-slow
		return &artifact{text: doc.Text}, nil
	})
	doc := document.New("file:///a.html", "html", 1, "x")

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Get(context.Background(), doc)
	}()
	time.Sleep(10 * time.Millisecond)
	c.OnDocumentRemoved(doc.URI)
	close(slow)
	<-done

	assert.Equal(t, 0, c.Len())
}

func TestDispose(t *testing.T) {
	var calls atomic.Int32
	c := cache.New("test", 10, time.Minute, countingDerive(&calls))
	doc := document.New("file:///a.html", "html", 1, "x")
	_, err := c.Get(context.Background(), doc)
	require.NoError(t, err)

	c.Dispose()
	assert.Equal(t, 0, c.Len())
	_, err = c.Get(context.Background(), doc)
	assert.ErrorIs(t, err, cache.ErrDisposed)
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	var calls atomic.Int32
	c := cache.New("metered", 10, time.Minute, countingDerive(&calls), cache.WithMeterProvider(provider))
	ctx := context.Background()
	doc := document.New("file:///a.html", "html", 1, "x")
	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, doc)
		require.NoError(t, err)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), totals["model_cache_hits_total"])
	assert.Equal(t, int64(1), totals["model_cache_misses_total"])
	assert.Equal(t, int64(1), totals["model_cache_derivations_total"])
}
