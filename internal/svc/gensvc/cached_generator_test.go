package gensvc_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/bestiary/internal/repo/cache"
	"github.com/mkrupp/bestiary/internal/svc/gensvc"
)

func newTestCache(t *testing.T) (*cache.RedisTextCache, *miniredis.Miniredis) {
	t.Helper()

	mini := miniredis.RunT(t)
	textCache := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mini.Addr()}), cache.Config{
		TTL:       time.Hour,
		KeyPrefix: "test",
	})
	t.Cleanup(func() { _ = textCache.Close() })

	return textCache, mini
}

func TestCachedGenerator_HitAvoidsUpstream(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	textCache, _ := newTestCache(t)
	upstream := &stubGenerator{text: "Ignivore"}
	gen := gensvc.NewCachedGenerator(upstream, textCache, time.Second)

	for range 3 {
		text, err := gen.Generate(ctx, "a fire dragon")
		require.NoError(t, err)
		assert.Equal(t, "Ignivore", text)
	}

	assert.Len(t, upstream.calls(), 1)

	_, err := gen.Generate(ctx, "a water dragon")
	require.NoError(t, err)
	assert.Len(t, upstream.calls(), 2)
}

func TestCachedGenerator_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	textCache, mini := newTestCache(t)
	upstream := &stubGenerator{err: errUpstream}
	gen := gensvc.NewCachedGenerator(upstream, textCache, time.Second)

	_, err := gen.Generate(ctx, "a fire dragon")
	require.ErrorIs(t, err, errUpstream)
	_, err = gen.Generate(ctx, "a fire dragon")
	require.ErrorIs(t, err, errUpstream)

	assert.Len(t, upstream.calls(), 2)
	assert.Empty(t, mini.Keys())
}

func TestCachedGenerator_CollapsesConcurrentPrompts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	textCache, _ := newTestCache(t)
	upstream := &stubGenerator{text: "Ignivore", delay: 100 * time.Millisecond}
	gen := gensvc.NewCachedGenerator(upstream, textCache, time.Second)

	var wg sync.WaitGroup

	for range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			text, err := gen.Generate(ctx, "a fire dragon")
			assert.NoError(t, err)
			assert.Equal(t, "Ignivore", text)
		}()
	}

	wg.Wait()

	assert.Len(t, upstream.calls(), 1)
}

func TestCachedGenerator_EmptyAnswersAreNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	textCache, mini := newTestCache(t)
	upstream := &stubGenerator{err: gensvc.ErrEmptyText}
	gen := gensvc.NewCachedGenerator(upstream, textCache, time.Second)

	for range 2 {
		_, err := gen.Generate(ctx, "a fire dragon")
		require.ErrorIs(t, err, gensvc.ErrEmptyText)
	}

	assert.Len(t, upstream.calls(), 2)
	assert.Empty(t, mini.Keys())
}

func TestCachedGenerator_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	textCache, _ := newTestCache(t)
	upstream := &stubGenerator{text: "Ignivore", delay: 300 * time.Millisecond}
	gen := gensvc.NewCachedGenerator(upstream, textCache, time.Second)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)

	go func() {
		_, err := gen.Generate(firstCtx, "a fire dragon")
		firstErr <- err
	}()

	require.Eventually(t, func() bool { return len(upstream.calls()) == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan string, 1)

	go func() {
		text, err := gen.Generate(context.Background(), "a fire dragon")
		assert.NoError(t, err)
		second <- text
	}()

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	assert.Equal(t, "Ignivore", <-second)
	assert.Len(t, upstream.calls(), 1)

	text, ok, err := textCache.Get(context.Background(), "a fire dragon")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Ignivore", text)
}

func TestCachedGenerator_CacheDownStillGenerates(t *testing.T) {
	t.Parallel()

	textCache, mini := newTestCache(t)
	mini.Close()

	upstream := &stubGenerator{text: "Ignivore"}
	gen := gensvc.NewCachedGenerator(upstream, textCache, time.Second)

	text, err := gen.Generate(context.Background(), "a fire dragon")
	require.NoError(t, err)
	assert.Equal(t, "Ignivore", text)
}

func TestNewGenService(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	textCache, _ := newTestCache(t)

	svc, err := gensvc.NewGenService(ctx, testConfig(), textCache)
	require.NoError(t, err)
	assert.IsType(t, &gensvc.CachedGenerator{}, svc.Text)

	svc, err = gensvc.NewGenService(ctx, testConfig(), nil)
	require.NoError(t, err)
	assert.IsType(t, &gensvc.PollinationsGenerator{}, svc.Text)

	cfg := testConfig()
	cfg.TemplatesFile = "/nonexistent/templates.yaml"
	_, err = gensvc.NewGenService(ctx, cfg, nil)
	require.Error(t, err)
}
