package menus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

// FuncName is the template function installed by Register.
const FuncName = "show_named_menu"

// Context is the rendering context handed to the inclusion template.
type Context struct {
	Template      string                  `json:"template"`
	Language      string                  `json:"language"`
	FromLevel     int                     `json:"from_level"`
	ToLevel       int                     `json:"to_level"`
	ExtraInactive int                     `json:"extra_inactive"`
	ExtraActive   int                     `json:"extra_active"`
	Namespace     string                  `json:"namespace,omitempty"`
	RootID        string                  `json:"root_id,omitempty"`
	NextPage      any                     `json:"next_page,omitempty"`
	Children      []domain.NavigationNode `json:"children"`
}

// TagDeps groups constructor parameters for the show_named_menu operation.
type TagDeps struct {
	Gateway         *Gateway
	Arranger        *Arranger
	Renderers       RendererProvider
	DefaultLanguage string
	Logger          *zap.Logger
}

// Tag implements the show_named_menu operation.
type Tag struct {
	gateway         *Gateway
	arranger        *Arranger
	renderer        NodeRenderer
	defaultLanguage string
	logger          *zap.Logger
	templates       *template.Template
}

// NewTag constructs the operation and resolves the renderer once.
func NewTag(deps TagDeps) (*Tag, error) {
	if deps.Gateway == nil {
		return nil, errors.New("menus: gateway is not configured")
	}
	if deps.Arranger == nil {
		return nil, errors.New("menus: arranger is not configured")
	}
	if deps.Renderers == nil {
		return nil, errors.New("menus: renderer provider is not configured")
	}
	renderer := deps.Renderers.Renderer()
	if renderer == nil {
		return nil, errors.New("menus: renderer provider returned no renderer")
	}
	lang := strings.ToLower(strings.TrimSpace(deps.DefaultLanguage))
	if lang == "" {
		lang = "ja"
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tag{
		gateway:         deps.Gateway,
		arranger:        deps.Arranger,
		renderer:        renderer,
		defaultLanguage: lang,
		logger:          logger,
	}, nil
}

// UseTemplates binds the parsed inclusion templates. It must be called before
// the first Render, typically right after ParseTemplates.
func (t *Tag) UseTemplates(set *template.Template) {
	t.templates = set
}

// Context builds the rendering context for opts in the request language.
func (t *Tag) Context(ctx context.Context, opts Options) (Context, error) {
	ctx, span := tracer.Start(ctx, "menus.ShowNamedMenu")
	defer span.End()

	lang := requestctx.Language(ctx)
	if lang == "" {
		lang = t.defaultLanguage
	}
	span.SetAttributes(
		attribute.String("menus.name", opts.MenuName),
		attribute.String("menus.language", lang),
	)

	nodes, err := t.gateway.GetOrCompute(ctx, opts.MenuName, lang, func(ctx context.Context, menu domain.NamedMenu) ([]domain.NavigationNode, error) {
		pool, err := t.renderer.GetNodes(ctx, opts.Namespace, opts.RootID)
		if err != nil {
			return nil, fmt.Errorf("menus: fetch candidate nodes: %w", err)
		}
		return t.arranger.Arrange(ctx, pool, menu.Pages, opts.Namespace), nil
	})
	if err != nil {
		return Context{}, err
	}

	return Context{
		Template:      opts.Template,
		Language:      lang,
		FromLevel:     opts.FromLevel,
		ToLevel:       opts.ToLevel,
		ExtraInactive: opts.ExtraInactive,
		ExtraActive:   opts.ExtraActive,
		Namespace:     opts.Namespace,
		RootID:        opts.RootID,
		NextPage:      opts.NextPage,
		Children:      nodes,
	}, nil
}

// Render executes the selected inclusion template with the rendering context.
func (t *Tag) Render(ctx context.Context, w io.Writer, opts Options) error {
	if t.templates == nil {
		return ErrTemplatesMissing
	}
	if err := checkTemplate(opts.Template); err != nil {
		return err
	}
	tmpl := t.templates.Lookup(opts.Template)
	if tmpl == nil {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, opts.Template)
	}
	data, err := t.Context(ctx, opts)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, data)
}

// Register installs show_named_menu into funcs. Templates call it as
// `{{ show_named_menu .Ctx "footer" "namespace" "shop" }}` where .Ctx is the
// request context.
func Register(funcs template.FuncMap, tag *Tag) {
	funcs[FuncName] = func(ctx context.Context, menuName string, args ...any) (template.HTML, error) {
		opts, err := ParseOptions(menuName, args...)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := tag.Render(ctx, &buf, opts); err != nil {
			tag.logger.Error("render named menu", zap.String("menuName", menuName), zap.Error(err))
			return "", err
		}
		return template.HTML(buf.String()), nil
	}
}
