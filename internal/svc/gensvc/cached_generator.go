package gensvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/cache"
)

// CachedGenerator serves repeated prompts from a cache and collapses
// concurrent identical prompts into one upstream call.
type CachedGenerator struct {
	next    TextGenerator
	cache   cache.TextCache
	timeout time.Duration
	group   singleflight.Group
	log     logging.Logger
}

var _ TextGenerator = (*CachedGenerator)(nil)

// NewCachedGenerator wraps next with c. The shared upstream call is bounded
// by timeout rather than by any single caller's context; 0 means no bound.
func NewCachedGenerator(next TextGenerator, c cache.TextCache, timeout time.Duration) *CachedGenerator {
	return &CachedGenerator{
		next:    next,
		cache:   c,
		timeout: timeout,
		log:     logging.GetLogger("svc.gensvc.cached_generator"),
	}
}

// Generate implements TextGenerator. Cache failures are logged and ignored.
// A caller that gives up only stops waiting; callers joined on the same
// prompt still receive the answer.
func (g *CachedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if text, ok, err := g.cache.Get(ctx, prompt); err != nil {
		g.log.WarnContext(ctx, "text cache lookup failed", "error", err)
	} else if ok {
		g.log.DebugContext(ctx, "text cache hit")

		return text, nil
	}

	ch := g.group.DoChan(prompt, func() (any, error) {
		return g.generate(ctx, prompt)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("generate: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("generate: %w", res.Err)
		}

		if res.Shared {
			g.log.DebugContext(ctx, "text generation shared")
		}

		return res.Val.(string), nil //nolint:forcetypeassert
	}
}

// generate calls upstream on a context detached from the first caller and
// stores a non-empty answer.
func (g *CachedGenerator) generate(ctx context.Context, prompt string) (string, error) {
	ctx = context.WithoutCancel(ctx)

	if g.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.next.Generate(ctx, prompt)
	if errors.Is(err, ErrEmptyText) {
		g.log.DebugContext(ctx, "empty answer not cached")

		return "", err
	} else if err != nil {
		return "", err
	}

	if text != "" {
		if err := g.cache.Set(ctx, prompt, text); err != nil {
			g.log.WarnContext(ctx, "text cache store failed", "error", err)
		}
	}

	return text, nil
}
