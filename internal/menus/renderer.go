package menus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

// NodeRenderer produces the candidate node pool for a request.
type NodeRenderer interface {
	GetNodes(ctx context.Context, namespace, rootID string) ([]domain.NavigationNode, error)
}

// RendererProvider yields the renderer used for every request. It is resolved
// once when the Tag is constructed.
type RendererProvider interface {
	Renderer() NodeRenderer
}

// StaticRenderer is a RendererProvider for an already constructed renderer.
type StaticRenderer struct {
	NodeRenderer NodeRenderer
}

// Renderer implements RendererProvider.
func (s StaticRenderer) Renderer() NodeRenderer { return s.NodeRenderer }

// NavigationPages lists the public pages flagged for navigation in tree order.
type NavigationPages interface {
	ListNavigation(ctx context.Context) ([]domain.Page, error)
}

// PageTreeRenderer builds the candidate pool from the page tree. Every page is
// returned flat in depth-first order with its children and parent linked.
type PageTreeRenderer struct {
	pages     NavigationPages
	converter PageConverter
}

// NewPageTreeRenderer constructs a page tree renderer.
func NewPageTreeRenderer(pages NavigationPages, converter PageConverter) (*PageTreeRenderer, error) {
	if pages == nil {
		return nil, errors.New("menus: navigation pages are not configured")
	}
	if converter == nil {
		return nil, ErrArrangerConverterMissing
	}
	return &PageTreeRenderer{pages: pages, converter: converter}, nil
}

// Renderer implements RendererProvider.
func (r *PageTreeRenderer) Renderer() NodeRenderer { return r }

// GetNodes implements NodeRenderer. A namespace keeps only pages of that
// namespace. A rootID, matched against reverse ids then numeric ids, keeps only
// the descendants of that page; an unknown root yields no nodes. A page that
// cannot be converted is logged and left out together with its subtree.
func (r *PageTreeRenderer) GetNodes(ctx context.Context, namespace, rootID string) ([]domain.NavigationNode, error) {
	ctx, span := tracer.Start(ctx, "menus.PageTreeRenderer.GetNodes")
	defer span.End()

	pages, err := r.pages.ListNavigation(ctx)
	if err != nil {
		return nil, fmt.Errorf("menus: list navigation pages: %w", err)
	}

	byID := make(map[int64]domain.Page, len(pages))
	children := make(map[int64][]int64, len(pages))
	for _, page := range pages {
		if namespace != "" && page.Namespace != namespace {
			continue
		}
		byID[page.ID] = page
	}
	var roots []int64
	home := domain.Page{}
	for _, page := range pages {
		if _, ok := byID[page.ID]; !ok {
			continue
		}
		if _, hasParent := byID[page.ParentID]; page.ParentID != 0 && hasParent {
			children[page.ParentID] = append(children[page.ParentID], page.ID)
			continue
		}
		if home.ID == 0 {
			home = page
		}
		roots = append(roots, page.ID)
	}

	rootID = strings.TrimSpace(rootID)
	if rootID != "" {
		root, ok := findRoot(byID, rootID)
		if !ok {
			return []domain.NavigationNode{}, nil
		}
		roots = children[root]
	}

	b := treeBuilder{
		ctx:       ctx,
		converter: r.converter,
		logger:    requestctx.Logger(ctx),
		pages:     byID,
		children:  children,
		home:      home,
		flat:      []domain.NavigationNode{},
	}
	for _, id := range roots {
		b.build(id, nil, 0)
	}
	return b.flat, nil
}

type treeBuilder struct {
	ctx       context.Context
	converter PageConverter
	logger    *zap.Logger
	pages     map[int64]domain.Page
	children  map[int64][]int64
	home      domain.Page
	flat      []domain.NavigationNode
}

// build converts the page and its subtree. The node keeps its preorder slot in
// the flat pool and is rewritten once its children are linked.
func (b *treeBuilder) build(id int64, parent *domain.NavigationNode, depth int) (domain.NavigationNode, bool) {
	node, err := b.converter.PageToNode(b.ctx, b.pages[id], b.home, depth)
	if err != nil {
		b.logger.Error("navigation page skipped",
			zap.Int64("pageId", id),
			zap.Int("depth", depth),
			zap.Int("descendants", b.descendants(id)),
			zap.Error(err),
		)
		return domain.NavigationNode{}, false
	}
	node.Parent = parent

	index := len(b.flat)
	b.flat = append(b.flat, node)

	self := node.Detached()
	node.Children = make([]domain.NavigationNode, 0, len(b.children[id]))
	for _, childID := range b.children[id] {
		if child, ok := b.build(childID, &self, depth+1); ok {
			node.Children = append(node.Children, child)
		}
	}
	b.flat[index] = node
	return node, true
}

func (b *treeBuilder) descendants(id int64) int {
	count := 0
	for _, childID := range b.children[id] {
		count += 1 + b.descendants(childID)
	}
	return count
}

func findRoot(pages map[int64]domain.Page, rootID string) (int64, bool) {
	for id, page := range pages {
		if page.ReverseID != "" && page.ReverseID == rootID {
			return id, true
		}
	}
	if id, err := strconv.ParseInt(rootID, 10, 64); err == nil {
		if _, ok := pages[id]; ok {
			return id, true
		}
	}
	return 0, false
}
