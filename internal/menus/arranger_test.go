package menus

import (
	"context"
	"errors"
	"reflect"
	"testing"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

func TestArrangeKeepsConfigOrderAndResetsNesting(t *testing.T) {
	parent := node(1, "")
	parent.Children = []domain.NavigationNode{node(3, "")}
	child := node(2, "")
	child.Parent = &parent
	pool := []domain.NavigationNode{parent, child, node(3, "")}

	config := []domain.MenuItem{
		{ID: 3},
		{ID: 1, Children: []domain.MenuItem{{ID: 2}}},
	}

	got := newTestArranger(t, nil, nil).Arrange(context.Background(), pool, config, "")

	if want := []int64{3, 1}; !equalIDs(ids(got), want) {
		t.Fatalf("expected ids %v, got %v", want, ids(got))
	}
	if len(got[0].Children) != 0 {
		t.Fatalf("expected node 3 to have no children, got %v", ids(got[0].Children))
	}
	if want := []int64{2}; !equalIDs(ids(got[1].Children), want) {
		t.Fatalf("expected node 1 children %v, got %v", want, ids(got[1].Children))
	}
	for _, n := range got {
		if n.Parent != nil {
			t.Fatalf("expected node %d parent to be reset", n.ID)
		}
	}
	if got[1].Children[0].Parent != nil {
		t.Fatalf("expected child parent to be reset")
	}
}

func TestArrangeDoesNotAliasCandidates(t *testing.T) {
	source := node(1, "")
	source.Children = []domain.NavigationNode{node(9, "")}
	pool := []domain.NavigationNode{source, node(2, "")}

	got := newTestArranger(t, nil, nil).Arrange(context.Background(), pool, []domain.MenuItem{{ID: 1, Children: []domain.MenuItem{{ID: 2}}}}, "")

	got[0].Attributes["source"] = "mutated"
	got[0].Children[0].Title = "mutated"

	if pool[0].Attributes["source"] != "renderer" {
		t.Fatalf("candidate attributes were mutated: %v", pool[0].Attributes)
	}
	if len(pool[0].Children) != 1 || pool[0].Children[0].ID != 9 {
		t.Fatalf("candidate children were replaced: %v", ids(pool[0].Children))
	}
	if pool[1].Title != "node" {
		t.Fatalf("candidate child was mutated: %q", pool[1].Title)
	}
}

func TestArrangeSynthesisesDraftPages(t *testing.T) {
	store := &stubPageStore{pages: map[int64]domain.Page{5: titledPage(5, "draft")}}
	arranger := newTestArranger(t, store, nil)
	config := []domain.MenuItem{{ID: 5}}

	first := arranger.Arrange(context.Background(), nil, config, "")
	second := arranger.Arrange(context.Background(), nil, config, "")

	if len(first) != 1 || first[0].ID != 5 || first[0].Title != "draft" {
		t.Fatalf("expected synthesised node 5, got %#v", first)
	}
	if first[0].URL != "/draft/" {
		t.Fatalf("expected url /draft/, got %q", first[0].URL)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output across calls:\n%#v\n%#v", first, second)
	}
}

func TestArrangeOmitsEntryWithoutDraftPage(t *testing.T) {
	logger, logs := observedLogger()
	store := &stubPageStore{pages: map[int64]domain.Page{50: titledPage(50, "fifty")}}
	arranger := newTestArranger(t, store, logger)
	pool := []domain.NavigationNode{node(1, "")}

	resolved := arranger.Arrange(context.Background(), pool, []domain.MenuItem{{ID: 1}, {ID: 50}}, "")
	missing := arranger.Arrange(context.Background(), pool, []domain.MenuItem{{ID: 1}, {ID: 99, Children: []domain.MenuItem{{ID: 1}}}}, "")

	if len(resolved)-len(missing) != 1 {
		t.Fatalf("expected exactly one fewer node, got %d and %d", len(resolved), len(missing))
	}
	if !equalIDs(ids(missing), []int64{1}) {
		t.Fatalf("expected only node 1, got %v", ids(missing))
	}

	entries := logs.FilterMessage("named menu node omitted").All()
	if len(entries) != 1 {
		t.Fatalf("expected one omission log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["pageId"] != int64(99) || fields["reason"] != "not_found" {
		t.Fatalf("unexpected log fields %v", fields)
	}
	if entries[0].Level.String() != "error" {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
}

func TestArrangeSkipsChildrenOfUnresolvedEntry(t *testing.T) {
	store := &stubPageStore{}
	arranger := newTestArranger(t, store, nil)

	got := arranger.Arrange(context.Background(), nil, []domain.MenuItem{{ID: 99, Children: []domain.MenuItem{{ID: 100}, {ID: 101}}}}, "")

	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", ids(got))
	}
	if !equalIDs(store.calls, []int64{99}) {
		t.Fatalf("expected only the parent to be looked up, got %v", store.calls)
	}
}

func TestArrangeOmitsFailedChildren(t *testing.T) {
	logger, logs := observedLogger()
	arranger := newTestArranger(t, &stubPageStore{}, logger)
	pool := []domain.NavigationNode{node(1, ""), node(2, ""), node(4, "")}

	got := arranger.Arrange(context.Background(), pool, []domain.MenuItem{{ID: 1, Children: []domain.MenuItem{{ID: 2}, {ID: 3}, {ID: 4}}}}, "")

	if len(got) != 1 || !equalIDs(ids(got[0].Children), []int64{2, 4}) {
		t.Fatalf("expected node 1 with children [2 4], got %#v", got)
	}
	entries := logs.FilterMessage("named menu node omitted").All()
	if len(entries) != 1 || entries[0].ContextMap()["parentId"] != int64(1) {
		t.Fatalf("expected one child omission log with parent id, got %v", entries)
	}
}

func TestArrangeNamespaceFiltering(t *testing.T) {
	first := node(7, "blog")
	first.Title = "blog"
	second := node(7, "shop")
	second.Title = "shop"
	pool := []domain.NavigationNode{first, second}
	config := []domain.MenuItem{{ID: 7}}
	arranger := newTestArranger(t, &stubPageStore{}, nil)

	cases := []struct {
		name      string
		namespace string
		want      string
	}{
		{name: "exact namespace", namespace: "shop", want: "shop"},
		{name: "other namespace", namespace: "blog", want: "blog"},
		{name: "no namespace matches first", namespace: "", want: "blog"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := arranger.Arrange(context.Background(), pool, config, tc.namespace)
			if len(got) != 1 || got[0].Title != tc.want {
				t.Fatalf("expected %q, got %#v", tc.want, got)
			}
		})
	}

	if got := arranger.Arrange(context.Background(), pool, config, "news"); len(got) != 0 {
		t.Fatalf("expected no match for unknown namespace, got %v", ids(got))
	}
}

func TestArrangeScenarioUnspecifiedNamespaceMatchesAny(t *testing.T) {
	pool := []domain.NavigationNode{node(1, ""), node(2, "shop")}
	config := []domain.MenuItem{{ID: 1, Children: []domain.MenuItem{{ID: 2}}}}

	got := newTestArranger(t, nil, nil).Arrange(context.Background(), pool, config, "")

	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected [1], got %v", ids(got))
	}
	if len(got[0].Children) != 1 || got[0].Children[0].ID != 2 || got[0].Children[0].Namespace != "shop" {
		t.Fatalf("expected child 2 from namespace shop, got %#v", got[0].Children)
	}
}

func TestArrangeScenarioMissingDraftDropsEntry(t *testing.T) {
	pool := []domain.NavigationNode{node(1, "")}
	config := []domain.MenuItem{{ID: 1}, {ID: 99}}

	got := newTestArranger(t, nil, nil).Arrange(context.Background(), pool, config, "")

	if !equalIDs(ids(got), []int64{1}) {
		t.Fatalf("expected [1], got %v", ids(got))
	}
}

func TestResolveFailureKinds(t *testing.T) {
	store := &stubPageStore{
		pages: map[int64]domain.Page{
			2: {ID: 2, IsDraft: true},
		},
		errs: map[int64]error{
			3: stubUnavailableError{},
		},
	}
	arranger := newTestArranger(t, store, nil)
	ctx := context.Background()

	if _, err := arranger.resolve(ctx, 1, nil, ""); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}

	_, err := arranger.resolve(ctx, 2, nil, "")
	var conversion *ConversionError
	if !errors.As(err, &conversion) || conversion.PageID != 2 || !errors.Is(err, ErrUntitledPage) {
		t.Fatalf("expected ConversionError for untitled page, got %v", err)
	}

	_, err = arranger.resolve(ctx, 3, nil, "")
	var lookup *LookupError
	if !errors.As(err, &lookup) || lookup.PageID != 3 {
		t.Fatalf("expected LookupError, got %v", err)
	}
	if errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("lookup failure must not be reported as not found")
	}
}

func TestNewArrangerValidatesDeps(t *testing.T) {
	if _, err := NewArranger(ArrangerDeps{Converter: NewLocalizedConverter("ja")}); !errors.Is(err, ErrArrangerPagesMissing) {
		t.Fatalf("expected ErrArrangerPagesMissing, got %v", err)
	}
	if _, err := NewArranger(ArrangerDeps{Pages: &stubPageStore{}}); !errors.Is(err, ErrArrangerConverterMissing) {
		t.Fatalf("expected ErrArrangerConverterMissing, got %v", err)
	}
}
