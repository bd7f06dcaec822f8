package menus

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/repositories"
)

// Cache stores arranged node lists by string key. Get reports a hit with ok,
// including hits on an empty list.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.NavigationNode, bool)
	Set(ctx context.Context, key string, nodes []domain.NavigationNode)
	Delete(ctx context.Context, key string)
}

// MenuFinder looks up a named menu case-insensitively.
type MenuFinder interface {
	FindByName(ctx context.Context, name string) (domain.NamedMenu, error)
}

// ComputeFunc produces the arranged nodes for a found menu definition.
type ComputeFunc func(ctx context.Context, menu domain.NamedMenu) ([]domain.NavigationNode, error)

// GatewayDeps groups constructor parameters for the cache gateway.
type GatewayDeps struct {
	Cache  Cache
	Menus  MenuFinder
	Logger *zap.Logger
}

// Gateway is a read-through cache of arranged menus keyed by menu name and language.
type Gateway struct {
	cache  Cache
	menus  MenuFinder
	logger *zap.Logger
}

var (
	// ErrGatewayCacheMissing signals that the cache backend is absent.
	ErrGatewayCacheMissing = errors.New("menus: cache backend is not configured")
	// ErrGatewayMenusMissing signals that the named menu store is absent.
	ErrGatewayMenusMissing = errors.New("menus: named menu store is not configured")
)

// NewGateway constructs the cache gateway.
func NewGateway(deps GatewayDeps) (*Gateway, error) {
	if deps.Cache == nil {
		return nil, ErrGatewayCacheMissing
	}
	if deps.Menus == nil {
		return nil, ErrGatewayMenusMissing
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{cache: deps.Cache, menus: deps.Menus, logger: logger}, nil
}

// CacheKey returns the composite key for a menu name and language. Names are
// folded so every spelling of a menu shares one entry.
func CacheKey(menuName, language string) string {
	return fmt.Sprintf("named_menu:%s:%s", domain.NormalizeMenuName(menuName), language)
}

// GetOrCompute returns the cached nodes for (menuName, language). On a miss the
// menu definition is loaded and compute is invoked with it. A missing menu is
// logged and cached as an empty list without calling compute. Lookup and
// compute errors are returned and leave the key absent.
//
// The returned slice is shared with the cache; callers must not mutate it.
func (g *Gateway) GetOrCompute(ctx context.Context, menuName, language string, compute ComputeFunc) ([]domain.NavigationNode, error) {
	ctx, span := tracer.Start(ctx, "menus.GetOrCompute")
	defer span.End()

	key := CacheKey(menuName, language)
	if nodes, ok := g.cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("menus.cache_hit", true))
		return nodes, nil
	}
	span.SetAttributes(attribute.Bool("menus.cache_hit", false))

	menu, err := g.menus.FindByName(ctx, menuName)
	if err != nil {
		if !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("menus: load named menu %q: %w", menuName, err)
		}
		g.logger.Warn("named menu not found",
			zap.String("menuName", menuName),
			zap.String("language", language),
		)
		nodes := []domain.NavigationNode{}
		g.cache.Set(ctx, key, nodes)
		return nodes, nil
	}

	nodes, err := compute(ctx, menu)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []domain.NavigationNode{}
	}
	g.cache.Set(ctx, key, nodes)
	return nodes, nil
}

// Evict removes the cached entries of menuName for each language.
func (g *Gateway) Evict(ctx context.Context, menuName string, languages ...string) {
	for _, lang := range languages {
		g.cache.Delete(ctx, CacheKey(menuName, lang))
	}
}
