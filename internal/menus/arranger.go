package menus

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/repositories"
)

var tracer = otel.Tracer("github.com/hanko-field/namedmenus/internal/menus")

// PageStore loads the draft revision of a page.
type PageStore interface {
	FindDraft(ctx context.Context, pageID int64) (domain.Page, error)
}

// PageConverter synthesises a navigation node from a page.
type PageConverter interface {
	PageToNode(ctx context.Context, page, home domain.Page, depth int) (domain.NavigationNode, error)
}

// ArrangerDeps groups constructor parameters for the arranger.
type ArrangerDeps struct {
	Pages     PageStore
	Converter PageConverter
	Logger    *zap.Logger
}

// Arranger selects and re-nests candidate nodes according to a named menu configuration.
type Arranger struct {
	pages     PageStore
	converter PageConverter
	logger    *zap.Logger
}

var (
	// ErrArrangerPagesMissing signals that the page store dependency is absent.
	ErrArrangerPagesMissing = errors.New("menus: page store is not configured")
	// ErrArrangerConverterMissing signals that the page converter dependency is absent.
	ErrArrangerConverterMissing = errors.New("menus: page converter is not configured")
)

// NewArranger constructs an arranger with the supplied dependencies.
func NewArranger(deps ArrangerDeps) (*Arranger, error) {
	if deps.Pages == nil {
		return nil, ErrArrangerPagesMissing
	}
	if deps.Converter == nil {
		return nil, ErrArrangerConverterMissing
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arranger{
		pages:     deps.Pages,
		converter: deps.Converter,
		logger:    logger,
	}, nil
}

// Arrange returns one node per resolvable configuration entry, in configuration
// order, each carrying its resolvable children. Entries that fail to resolve
// are logged and omitted together with their children. The returned nodes never
// share children slices, parents or attribute maps with candidates.
func (a *Arranger) Arrange(ctx context.Context, candidates []domain.NavigationNode, config []domain.MenuItem, namespace string) []domain.NavigationNode {
	ctx, span := tracer.Start(ctx, "menus.Arrange")
	defer span.End()

	out := make([]domain.NavigationNode, 0, len(config))
	for _, item := range config {
		node, err := a.resolve(ctx, item.ID, candidates, namespace)
		if err != nil {
			a.logOmitted(item.ID, 0, namespace, err)
			continue
		}
		for _, child := range item.Children {
			childNode, err := a.resolve(ctx, child.ID, candidates, namespace)
			if err != nil {
				a.logOmitted(child.ID, item.ID, namespace, err)
				continue
			}
			node.Children = append(node.Children, childNode)
		}
		out = append(out, node)
	}

	span.SetAttributes(
		attribute.Int("menus.config_entries", len(config)),
		attribute.Int("menus.candidates", len(candidates)),
		attribute.Int("menus.arranged", len(out)),
	)
	return out
}

// resolve finds the node for id. With a namespace only a candidate in that
// namespace matches; without one the first candidate with the id matches
// whatever its namespace. Unmatched ids fall back to the draft page.
func (a *Arranger) resolve(ctx context.Context, id int64, candidates []domain.NavigationNode, namespace string) (domain.NavigationNode, error) {
	for _, candidate := range candidates {
		if candidate.ID != id {
			continue
		}
		if namespace != "" && candidate.Namespace != namespace {
			continue
		}
		return candidate.Detached(), nil
	}

	page, err := a.pages.FindDraft(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.NavigationNode{}, fmt.Errorf("%w: page %d: %w", ErrNodeNotFound, id, err)
		}
		return domain.NavigationNode{}, &LookupError{PageID: id, Err: err}
	}
	node, err := a.converter.PageToNode(ctx, page, page, 0)
	if err != nil {
		return domain.NavigationNode{}, &ConversionError{PageID: id, Err: err}
	}
	return node.Detached(), nil
}

func (a *Arranger) logOmitted(id, parentID int64, namespace string, err error) {
	fields := []zap.Field{
		zap.Int64("pageId", id),
		zap.String("namespace", namespace),
		zap.String("reason", failureKind(err)),
		zap.Error(err),
	}
	if parentID != 0 {
		fields = append(fields, zap.Int64("parentId", parentID))
	}
	a.logger.Error("named menu node omitted", fields...)
}

func failureKind(err error) string {
	var conversion *ConversionError
	var lookup *LookupError
	switch {
	case errors.Is(err, ErrNodeNotFound):
		return "not_found"
	case errors.As(err, &conversion):
		return "conversion"
	case errors.As(err, &lookup):
		return "lookup"
	default:
		return "unknown"
	}
}
