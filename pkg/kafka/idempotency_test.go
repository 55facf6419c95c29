package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- MemoryIdempotencyStore ---

func TestMemoryStore_AddAndContains(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	ctx := context.Background()

	exists, err := store.Contains(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Add(ctx, "evt_1"))

	exists, err = store.Contains(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStore_ExpiredEntryEvicted(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Nanosecond)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "evt_old"))
	time.Sleep(time.Millisecond)

	exists, err := store.Contains(ctx, "evt_old")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, store.Len(), "expired entry should be removed on access")
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("evt_%d", n)
			_ = store.Add(ctx, id)
			_, _ = store.Contains(ctx, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}

// --- IdempotentHandler ---

func TestIdempotentHandler_SkipsDuplicate(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, e *Event) error {
		calls++
		return nil
	}, discardLogger())

	event := &Event{EventID: "evt_dup", EventType: "orders.order.completed"}

	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))

	assert.Equal(t, 1, calls)
}

func TestIdempotentHandler_FailedHandlerNotRecorded(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, e *Event) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}, discardLogger())

	event := &Event{EventID: "evt_retry", EventType: "orders.order.completed"}

	require.Error(t, handler(context.Background(), event))
	// The retry must reach the inner handler; failures are not deduplicated.
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 2, calls)
}

func TestIdempotentHandler_NoEventIDPassesThrough(t *testing.T) {
	store := NewMemoryIdempotencyStore(time.Hour)
	calls := 0
	handler := IdempotentHandler(store, func(ctx context.Context, e *Event) error {
		calls++
		return nil
	}, discardLogger())

	event := &Event{EventType: "orders.order.completed"}

	require.NoError(t, handler(context.Background(), event))
	require.NoError(t, handler(context.Background(), event))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, store.Len())
}
