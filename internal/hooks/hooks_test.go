package hooks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/soyeahso/somc/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func TestManager_OnAndEmit(t *testing.T) {
	m := testManager()

	var got Payload
	m.On(EventCatalogLoaded, "test", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), EventCatalogLoaded, map[string]any{"count": 3})
	assert.Equal(t, EventCatalogLoaded, got.Event)
	assert.Equal(t, 3, got.Data["count"])
}

func TestManager_EmitOrder(t *testing.T) {
	m := testManager()

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		m.On(EventSelectionChanged, name, func(_ context.Context, _ Payload) error {
			order = append(order, name)
			return nil
		})
	}

	m.Emit(context.Background(), EventSelectionChanged, nil)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestManager_EmitHandlerErrorContinues(t *testing.T) {
	m := testManager()

	var reached bool
	m.On(EventTransportFailed, "broken", func(_ context.Context, _ Payload) error {
		return errors.New("boom")
	})
	m.On(EventTransportFailed, "after", func(_ context.Context, _ Payload) error {
		reached = true
		return nil
	})

	m.Emit(context.Background(), EventTransportFailed, nil)
	assert.True(t, reached)
}

func TestManager_EmitNoHandlers(t *testing.T) {
	m := testManager()
	assert.NotPanics(t, func() {
		m.Emit(context.Background(), EventAnalysisResolved, nil)
		m.EmitAsync(context.Background(), EventAnalysisResolved, nil)
	})
}

func TestManager_Off(t *testing.T) {
	m := testManager()
	noop := func(_ context.Context, _ Payload) error { return nil }

	m.On(EventAnalysisSubmitted, "a", noop)
	m.On(EventAnalysisSubmitted, "b", noop)
	m.On(EventAnalysisSubmitted, "a", noop)
	require.Equal(t, 3, m.Count(EventAnalysisSubmitted))

	m.Off(EventAnalysisSubmitted, "a")
	assert.Equal(t, 1, m.Count(EventAnalysisSubmitted))
}

func TestManager_OffAll(t *testing.T) {
	m := testManager()
	noop := func(_ context.Context, _ Payload) error { return nil }

	m.On(EventAnalysisSubmitted, "conn-1", noop)
	m.On(EventAnalysisResolved, "conn-1", noop)
	m.On(EventAnalysisResolved, "conn-2", noop)

	m.OffAll("conn-1")
	assert.Equal(t, 0, m.Count(EventAnalysisSubmitted))
	assert.Equal(t, 1, m.Count(EventAnalysisResolved))
	assert.Equal(t, []string{EventAnalysisResolved}, m.Events())
}

func TestManager_EmitAsyncAndWait(t *testing.T) {
	m := testManager()

	var calls atomic.Int32
	for _, name := range []string{"x", "y"} {
		m.On(EventAnalysisResolved, name, func(_ context.Context, _ Payload) error {
			calls.Add(1)
			return nil
		})
	}

	m.EmitAsync(context.Background(), EventAnalysisResolved, nil)
	m.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestManager_Events(t *testing.T) {
	m := testManager()
	noop := func(_ context.Context, _ Payload) error { return nil }

	assert.Empty(t, m.Events())
	m.On(EventTransportFailed, "n", noop)
	m.On(EventCatalogFailed, "n", noop)
	assert.Equal(t, []string{EventCatalogFailed, EventTransportFailed}, m.Events())
}

func TestAllEvents(t *testing.T) {
	assert.Len(t, AllEvents, 6)
	seen := map[string]bool{}
	for _, e := range AllEvents {
		assert.False(t, seen[e], "duplicate %s", e)
		seen[e] = true
	}
}
