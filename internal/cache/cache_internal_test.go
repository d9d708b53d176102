package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mosaic/internal/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A caller that missed the entry just before another flight stored it must
// not derive the same version again.
func TestFlightAfterStoredEntryReusesIt(t *testing.T) {
	var calls atomic.Int32
	block := make(chan struct{})
	defer close(block)
	c := New("test", 10, time.Minute, func(ctx context.Context, doc *document.Document) (*string, error) {
		if calls.Add(1) > 1 {
			select {
			case <-block:
			case <-time.After(2 * time.Second):
			}
			return nil, errors.New("derived twice")
		}
		text := doc.Text
		return &text, nil
	})
	doc := document.New("file:///a.html", "html", 1, "x")

	first, err := c.Get(context.Background(), doc)
	require.NoError(t, err)

	// what a late caller runs once its own lookup has missed
	value, err := c.deriveAndStore(context.Background(), doc, c.observe(doc))
	require.NoError(t, err)
	assert.Same(t, first, value.(*string))
	assert.Equal(t, int32(1), calls.Load())

	current, ok := c.Peek(doc.URI)
	require.True(t, ok)
	assert.Same(t, first, current)
}
