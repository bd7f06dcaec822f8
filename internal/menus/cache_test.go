package menus

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

func newTestGateway(t *testing.T, cache Cache, finder MenuFinder) *Gateway {
	t.Helper()
	gateway, err := NewGateway(GatewayDeps{Cache: cache, Menus: finder})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	return gateway
}

func TestGatewayComputesOncePerKey(t *testing.T) {
	finder := &stubMenuFinder{menus: map[string]domain.NamedMenu{
		"footer": {Name: "Footer", Pages: []domain.MenuItem{{ID: 1}}},
	}}
	gateway := newTestGateway(t, NewMemoryCache(time.Hour, 10), finder)

	calls := 0
	compute := func(_ context.Context, menu domain.NamedMenu) ([]domain.NavigationNode, error) {
		calls++
		if menu.Name != "Footer" {
			t.Fatalf("unexpected menu %q", menu.Name)
		}
		return []domain.NavigationNode{node(1, "")}, nil
	}

	first, err := gateway.GetOrCompute(context.Background(), "footer", "en", compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	second, err := gateway.GetOrCompute(context.Background(), "Footer", "en", compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected compute once, got %d", calls)
	}
	if finder.calls != 1 {
		t.Fatalf("expected one menu lookup, got %d", finder.calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected equal results, got %v and %v", first, second)
	}
}

func TestGatewayKeysByLanguage(t *testing.T) {
	finder := &stubMenuFinder{menus: map[string]domain.NamedMenu{"main": {Name: "main"}}}
	gateway := newTestGateway(t, NewMemoryCache(time.Hour, 10), finder)

	calls := 0
	compute := func(context.Context, domain.NamedMenu) ([]domain.NavigationNode, error) {
		calls++
		return nil, nil
	}
	for _, lang := range []string{"ja", "en", "ja"} {
		if _, err := gateway.GetOrCompute(context.Background(), "main", lang, compute); err != nil {
			t.Fatalf("GetOrCompute(%s): %v", lang, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected one compute per language, got %d", calls)
	}
}

func TestGatewayMissingMenuCachesEmptyResult(t *testing.T) {
	logger, logs := observedLogger()
	finder := &stubMenuFinder{}
	cache := NewMemoryCache(time.Hour, 10)
	gateway, err := NewGateway(GatewayDeps{Cache: cache, Menus: finder, Logger: logger})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	compute := func(context.Context, domain.NamedMenu) ([]domain.NavigationNode, error) {
		t.Fatalf("compute must not be invoked for a missing menu")
		return nil, nil
	}

	for i := 0; i < 2; i++ {
		nodes, err := gateway.GetOrCompute(context.Background(), "nonexistent", "en", compute)
		if err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
		if nodes == nil || len(nodes) != 0 {
			t.Fatalf("expected empty non-nil result, got %#v", nodes)
		}
	}

	if finder.calls != 1 {
		t.Fatalf("expected the empty result to be cached, got %d lookups", finder.calls)
	}
	entries := logs.FilterMessage("named menu not found").All()
	if len(entries) != 1 || entries[0].Level.String() != "warn" {
		t.Fatalf("expected one warning, got %v", entries)
	}
	if _, ok := cache.Get(context.Background(), CacheKey("nonexistent", "en")); !ok {
		t.Fatalf("expected key to be populated")
	}
}

func TestGatewayDoesNotCacheFailures(t *testing.T) {
	cache := NewMemoryCache(time.Hour, 10)

	t.Run("lookup failure", func(t *testing.T) {
		finder := &stubMenuFinder{err: stubUnavailableError{}}
		gateway := newTestGateway(t, cache, finder)
		_, err := gateway.GetOrCompute(context.Background(), "main", "ja", func(context.Context, domain.NamedMenu) ([]domain.NavigationNode, error) {
			t.Fatalf("compute must not be invoked")
			return nil, nil
		})
		if err == nil {
			t.Fatalf("expected lookup error")
		}
		if _, ok := cache.Get(context.Background(), CacheKey("main", "ja")); ok {
			t.Fatalf("failure must not populate the cache")
		}
	})

	t.Run("compute failure", func(t *testing.T) {
		finder := &stubMenuFinder{menus: map[string]domain.NamedMenu{"main": {Name: "main"}}}
		gateway := newTestGateway(t, cache, finder)
		calls := 0
		compute := func(context.Context, domain.NamedMenu) ([]domain.NavigationNode, error) {
			calls++
			if calls == 1 {
				return nil, errBoom
			}
			return []domain.NavigationNode{node(1, "")}, nil
		}
		if _, err := gateway.GetOrCompute(context.Background(), "main", "ja", compute); !errors.Is(err, errBoom) {
			t.Fatalf("expected compute error, got %v", err)
		}
		nodes, err := gateway.GetOrCompute(context.Background(), "main", "ja", compute)
		if err != nil || len(nodes) != 1 {
			t.Fatalf("expected recomputation after failure, got %v, %v", nodes, err)
		}
	})
}

func TestGatewayEvict(t *testing.T) {
	finder := &stubMenuFinder{menus: map[string]domain.NamedMenu{"main": {Name: "main"}}}
	gateway := newTestGateway(t, NewMemoryCache(time.Hour, 10), finder)
	calls := 0
	compute := func(context.Context, domain.NamedMenu) ([]domain.NavigationNode, error) {
		calls++
		return []domain.NavigationNode{}, nil
	}

	ctx := context.Background()
	_, _ = gateway.GetOrCompute(ctx, "main", "ja", compute)
	_, _ = gateway.GetOrCompute(ctx, "main", "en", compute)
	gateway.Evict(ctx, "MAIN", "ja", "en")
	_, _ = gateway.GetOrCompute(ctx, "main", "ja", compute)
	_, _ = gateway.GetOrCompute(ctx, "main", "en", compute)

	if calls != 4 {
		t.Fatalf("expected recomputation after eviction, got %d computes", calls)
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey(" Footer ", "en"); got != "named_menu:footer:en" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewGatewayValidatesDeps(t *testing.T) {
	if _, err := NewGateway(GatewayDeps{Menus: &stubMenuFinder{}}); !errors.Is(err, ErrGatewayCacheMissing) {
		t.Fatalf("expected ErrGatewayCacheMissing, got %v", err)
	}
	if _, err := NewGateway(GatewayDeps{Cache: NewMemoryCache(0, 0)}); !errors.Is(err, ErrGatewayMenusMissing) {
		t.Fatalf("expected ErrGatewayMenusMissing, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Minute, 10, WithMemoryCacheClock(func() time.Time { return now }))
	ctx := context.Background()

	cache.Set(ctx, "k", []domain.NavigationNode{node(1, "")})
	if _, ok := cache.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	now = now.Add(time.Minute)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatalf("expected miss at expiry")
	}
	if cache.Len() != 0 {
		t.Fatalf("expected expired entry to be dropped, got %d", cache.Len())
	}
}

func TestMemoryCacheBoundsEntries(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Hour, 2, WithMemoryCacheClock(func() time.Time { return now }))
	ctx := context.Background()

	cache.Set(ctx, "a", nil)
	now = now.Add(time.Second)
	cache.Set(ctx, "b", nil)
	now = now.Add(time.Second)
	cache.Set(ctx, "c", nil)

	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}
	if _, ok := cache.Get(ctx, "a"); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, ok := cache.Get(ctx, "c"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}

	cache.Delete(ctx, "c")
	if _, ok := cache.Get(ctx, "c"); ok {
		t.Fatalf("expected deleted entry to be gone")
	}
}
