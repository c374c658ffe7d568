package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingGenerator blocks until release is closed and returns text.
type countingGenerator struct {
	calls   atomic.Int32
	release chan struct{}
	text    string
	ok      bool
}

func newCountingGenerator(text string, ok bool) *countingGenerator {
	return &countingGenerator{release: make(chan struct{}), text: text, ok: ok}
}

func (g *countingGenerator) Generate(ctx context.Context) (string, bool) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", false
	}
	return g.text, g.ok
}

func ptr(s string) *string { return &s }

func TestEnsure_AtMostOnceUnderConcurrency(t *testing.T) {
	gen := newCountingGenerator("ctx", true)
	c := NewCoordinator(context.Background(), NewCache(), gen, nil)

	const callers = 64
	handles := make([]*Handle, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i] = c.Ensure("s1")
		}()
	}
	wg.Wait()
	close(gen.release)

	for _, h := range handles {
		require.Same(t, handles[0], h)
		text, ok := h.Wait(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "ctx", text)
	}
	c.Wait()
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, Stats{Entries: 1, Generations: 1}, c.Stats())
}

func TestEnsure_DistinctSessionsGenerateSeparately(t *testing.T) {
	var calls atomic.Int32
	c := NewCoordinator(context.Background(), nil, GeneratorFunc(func(context.Context) (string, bool) {
		calls.Add(1)
		return "x", true
	}), nil)

	_, _ = c.Context(context.Background(), "a")
	_, _ = c.Context(context.Background(), "b")
	_, _ = c.Context(context.Background(), "a")
	assert.Equal(t, int32(2), calls.Load())
}

func TestSessionCreated_ChildSharesParent(t *testing.T) {
	gen := newCountingGenerator("parent ctx", true)
	close(gen.release)
	c := NewCoordinator(context.Background(), nil, gen, nil)

	parent := c.Ensure("parent")
	c.SessionCreated("child", ptr("parent"))

	require.Same(t, parent, c.Ensure("child"))
	text, ok := c.Context(context.Background(), "child")
	assert.True(t, ok)
	assert.Equal(t, "parent ctx", text)
	c.Wait()
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, 2, c.Stats().Entries)
}

func TestSessionCreated_NoParentSlotComputesIndependently(t *testing.T) {
	gen := newCountingGenerator("x", true)
	close(gen.release)
	c := NewCoordinator(context.Background(), nil, gen, nil)

	c.SessionCreated("child", ptr("parent"))
	assert.Equal(t, 0, c.Stats().Entries)

	_, _ = c.Context(context.Background(), "child")
	_, _ = c.Context(context.Background(), "parent")
	c.Wait()
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestSessionCreated_ExistingChildSlotKept(t *testing.T) {
	gen := newCountingGenerator("x", true)
	close(gen.release)
	c := NewCoordinator(context.Background(), nil, gen, nil)

	child := c.Ensure("child")
	c.Ensure("parent")
	c.SessionCreated("child", ptr("parent"))
	assert.Same(t, child, c.Ensure("child"))
}

func TestSessionCreated_NilParentIgnored(t *testing.T) {
	c := NewCoordinator(context.Background(), nil, GeneratorFunc(func(context.Context) (string, bool) { return "", false }), nil)
	c.SessionCreated("child", nil)
	c.SessionCreated("child", ptr(""))
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestSessionDeleted_CleanupThenRecompute(t *testing.T) {
	var calls atomic.Int32
	c := NewCoordinator(context.Background(), nil, GeneratorFunc(func(context.Context) (string, bool) {
		calls.Add(1)
		return "v", true
	}), nil)

	_, _ = c.Context(context.Background(), "s")
	c.SessionDeleted("s")
	assert.Equal(t, 0, c.Stats().Entries)
	_, _ = c.Context(context.Background(), "s")

	assert.Equal(t, int32(2), calls.Load())
	c.SessionDeleted("never-existed")
}

func TestSessionDeleted_ParentDeletionKeepsChildAlias(t *testing.T) {
	gen := newCountingGenerator("shared", true)
	close(gen.release)
	c := NewCoordinator(context.Background(), nil, gen, nil)

	parent := c.Ensure("parent")
	c.SessionCreated("child", ptr("parent"))
	c.SessionDeleted("parent")

	assert.Same(t, parent, c.Ensure("child"))
	assert.Equal(t, 1, c.Stats().Entries)
}

func TestEnsure_FailureIsCachedNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := NewCoordinator(context.Background(), nil, GeneratorFunc(func(context.Context) (string, bool) {
		calls.Add(1)
		return "", false
	}), nil)

	for range 3 {
		text, ok := c.Context(context.Background(), "s")
		assert.False(t, ok)
		assert.Empty(t, text)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnsure_EmptyTextIsAbsent(t *testing.T) {
	c := NewCoordinator(context.Background(), nil, GeneratorFunc(func(context.Context) (string, bool) {
		return "", true
	}), nil)
	_, ok := c.Context(context.Background(), "s")
	assert.False(t, ok)
}

func TestEnsure_PanicResolvesAbsent(t *testing.T) {
	c := NewCoordinator(context.Background(), nil, GeneratorFunc(func(context.Context) (string, bool) {
		panic("boom")
	}), nil)
	_, ok := c.Context(context.Background(), "s")
	assert.False(t, ok)
}

func TestWait_CancelledWaiterDoesNotCancelGeneration(t *testing.T) {
	gen := newCountingGenerator("late", true)
	c := NewCoordinator(context.Background(), nil, gen, nil)

	ctx, cancel := context.WithCancel(context.Background())
	h := c.Ensure("s")
	cancel()
	_, ok := h.Wait(ctx)
	assert.False(t, ok)

	close(gen.release)
	text, ok := h.Wait(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "late", text)
}

func TestWait_BaseContextCancelsGeneration(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	gen := newCountingGenerator("never", true)
	c := NewCoordinator(base, nil, gen, nil)

	h := c.Ensure("s")
	cancel()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("handle did not resolve after base context cancelled")
	}
	_, ok := h.Wait(context.Background())
	assert.False(t, ok)
}
