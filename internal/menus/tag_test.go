package menus

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"
	"time"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

type tagFixture struct {
	tag      *Tag
	renderer *stubRenderer
	provider *countingProvider
	store    *stubPageStore
}

func newTagFixture(t *testing.T) tagFixture {
	t.Helper()
	home := node(1, "")
	home.Title = "Home"
	home.URL = "/"
	about := node(2, "")
	about.Title = "About"
	about.URL = "/about/"
	shop := node(3, "shop")
	shop.Title = "Shop & Co"
	shop.URL = "/shop/"

	renderer := &stubRenderer{nodes: []domain.NavigationNode{home, about, shop}}
	provider := &countingProvider{renderer: renderer}
	store := &stubPageStore{}
	finder := &stubMenuFinder{menus: map[string]domain.NamedMenu{
		"footer": {Name: "footer", Pages: []domain.MenuItem{
			{ID: 1, Children: []domain.MenuItem{{ID: 2}}},
			{ID: 3},
			{ID: 99},
		}},
	}}

	arranger, err := NewArranger(ArrangerDeps{Pages: store, Converter: NewLocalizedConverter("ja")})
	if err != nil {
		t.Fatalf("NewArranger: %v", err)
	}
	gateway, err := NewGateway(GatewayDeps{Cache: NewMemoryCache(time.Hour, 10), Menus: finder})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	tag, err := NewTag(TagDeps{Gateway: gateway, Arranger: arranger, Renderers: provider, DefaultLanguage: "ja"})
	if err != nil {
		t.Fatalf("NewTag: %v", err)
	}
	return tagFixture{tag: tag, renderer: renderer, provider: provider, store: store}
}

func TestTagContextArrangesAndEchoesOptions(t *testing.T) {
	f := newTagFixture(t)
	opts, err := ParseOptions("footer", "to_level", 2, "root_id", "home", "next_page", 3)
	if err != nil {
		t.Fatalf("ParseOptions: %v", err)
	}

	got, err := f.tag.Context(requestctx.WithLanguage(context.Background(), "en"), opts)
	if err != nil {
		t.Fatalf("Context: %v", err)
	}

	if !equalIDs(ids(got.Children), []int64{1, 3}) {
		t.Fatalf("expected children [1 3], got %v", ids(got.Children))
	}
	if !equalIDs(ids(got.Children[0].Children), []int64{2}) {
		t.Fatalf("expected nested [2], got %v", ids(got.Children[0].Children))
	}
	if got.Language != "en" || got.ToLevel != 2 || got.FromLevel != 0 || got.ExtraActive != 1000 {
		t.Fatalf("unexpected echoed options %#v", got)
	}
	if got.Template != DefaultTemplate || got.RootID != "home" || got.NextPage != 3 {
		t.Fatalf("unexpected echoed options %#v", got)
	}
	if len(f.renderer.args) != 1 || f.renderer.args[0] != [2]string{"", "home"} {
		t.Fatalf("unexpected renderer arguments %v", f.renderer.args)
	}
}

func TestTagContextUsesCacheAndResolvesRendererOnce(t *testing.T) {
	f := newTagFixture(t)
	opts, _ := ParseOptions("footer")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := f.tag.Context(ctx, opts)
		if err != nil {
			t.Fatalf("Context: %v", err)
		}
		if got.Language != "ja" {
			t.Fatalf("expected default language, got %q", got.Language)
		}
	}

	if f.renderer.calls != 1 {
		t.Fatalf("expected renderer to run once, got %d", f.renderer.calls)
	}
	if f.provider.calls != 1 {
		t.Fatalf("expected provider to be consulted once, got %d", f.provider.calls)
	}
	if !equalIDs(f.store.calls, []int64{99}) {
		t.Fatalf("expected one fallback lookup, got %v", f.store.calls)
	}
}

func TestTagContextPropagatesRendererErrors(t *testing.T) {
	f := newTagFixture(t)
	f.renderer.err = errBoom
	opts, _ := ParseOptions("footer")

	if _, err := f.tag.Context(context.Background(), opts); !errors.Is(err, errBoom) {
		t.Fatalf("expected renderer error, got %v", err)
	}
	f.renderer.err = nil
	got, err := f.tag.Context(context.Background(), opts)
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if len(got.Children) != 2 {
		t.Fatalf("expected failure not to be cached, got %v", ids(got.Children))
	}
}

func TestTagContextMissingMenuIsEmpty(t *testing.T) {
	f := newTagFixture(t)
	opts, _ := ParseOptions("nonexistent")

	got, err := f.tag.Context(context.Background(), opts)
	if err != nil {
		t.Fatalf("Context: %v", err)
	}
	if len(got.Children) != 0 {
		t.Fatalf("expected empty children, got %v", ids(got.Children))
	}
	if f.renderer.calls != 0 {
		t.Fatalf("expected renderer not to run for a missing menu")
	}
}

func TestTagRenderDefaultTemplate(t *testing.T) {
	f := newTagFixture(t)
	set, err := ParseTemplates("", nil)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	f.tag.UseTemplates(set)

	var buf bytes.Buffer
	opts, _ := ParseOptions("footer")
	if err := f.tag.Render(context.Background(), &buf, opts); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`<ul class="named-menu">`, `<a href="/">Home</a>`, `<a href="/about/">About</a>`, `Shop &amp; Co`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Index(out, "Home") > strings.Index(out, "Shop") {
		t.Fatalf("expected configuration order in output:\n%s", out)
	}

	buf.Reset()
	shallow, _ := ParseOptions("footer", "to_level", 0)
	if err := f.tag.Render(context.Background(), &buf, shallow); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "About") {
		t.Fatalf("expected children beyond to_level to be hidden:\n%s", buf.String())
	}
}

func TestTagRenderErrors(t *testing.T) {
	f := newTagFixture(t)
	opts, _ := ParseOptions("footer", "template", "menu/missing.html")

	if err := f.tag.Render(context.Background(), &bytes.Buffer{}, opts); !errors.Is(err, ErrTemplatesMissing) {
		t.Fatalf("expected ErrTemplatesMissing, got %v", err)
	}
	set, err := ParseTemplates("", nil)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	f.tag.UseTemplates(set)
	if err := f.tag.Render(context.Background(), &bytes.Buffer{}, opts); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}

	opts.Template = "menu/nodes"
	var optErr *OptionError
	if err := f.tag.Render(context.Background(), &bytes.Buffer{}, opts); !errors.As(err, &optErr) || optErr.Option != OptionTemplate {
		t.Fatalf("expected template OptionError for partial, got %v", err)
	}
}

func TestRegisterInstallsTemplateFunction(t *testing.T) {
	f := newTagFixture(t)
	funcs := template.FuncMap{}
	Register(funcs, f.tag)
	if _, ok := funcs[FuncName]; !ok {
		t.Fatalf("expected %s to be registered", FuncName)
	}

	set, err := ParseTemplates("", funcs)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	set, err = set.New("layout.html").Parse(`<nav>{{ show_named_menu .Ctx "footer" "namespace" "shop" }}</nav>`)
	if err != nil {
		t.Fatalf("parse layout: %v", err)
	}
	f.tag.UseTemplates(set)

	var buf bytes.Buffer
	data := map[string]any{"Ctx": requestctx.WithLanguage(context.Background(), "en")}
	if err := set.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		t.Fatalf("ExecuteTemplate: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, `<nav><ul class="named-menu">`) {
		t.Fatalf("expected unescaped menu markup, got:\n%s", out)
	}
	if !strings.Contains(out, "Shop &amp; Co") || strings.Contains(out, "About") {
		t.Fatalf("expected only the shop namespace entry, got:\n%s", out)
	}
}

func TestNewTagRequiresRenderer(t *testing.T) {
	f := newTagFixture(t)
	_, err := NewTag(TagDeps{Gateway: f.tag.gateway, Arranger: f.tag.arranger, Renderers: &countingProvider{}})
	if err == nil {
		t.Fatalf("expected error when provider yields no renderer")
	}
}
