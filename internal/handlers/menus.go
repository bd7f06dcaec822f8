package handlers

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/menus"
	"github.com/hanko-field/namedmenus/internal/platform/httpx"
	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

const pageTemplate = menus.PageTemplate

// MenuRenderer is the show_named_menu operation consumed by the handlers.
type MenuRenderer interface {
	Context(ctx context.Context, opts menus.Options) (menus.Context, error)
	Render(ctx context.Context, w io.Writer, opts menus.Options) error
}

// MenuHandlers serves arranged named menus as JSON and as HTML.
type MenuHandlers struct {
	tag    MenuRenderer
	layout *template.Template
}

// NewMenuHandlers constructs the handlers. layout provides menu/page.html; when
// nil the HTML endpoint writes the bare menu fragment.
func NewMenuHandlers(tag MenuRenderer, layout *template.Template) *MenuHandlers {
	return &MenuHandlers{tag: tag, layout: layout}
}

// APIRoutes registers the JSON endpoints.
func (h *MenuHandlers) APIRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{menuName}", h.getMenu)
}

// PageRoutes registers the HTML endpoints.
func (h *MenuHandlers) PageRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{menuName}", h.renderMenu)
}

type menuNodeResponse struct {
	ID         int64              `json:"id"`
	Namespace  string             `json:"namespace,omitempty"`
	Title      string             `json:"title"`
	URL        string             `json:"url"`
	Visible    bool               `json:"visible"`
	Selected   bool               `json:"selected"`
	Attributes map[string]any     `json:"attributes,omitempty"`
	Children   []menuNodeResponse `json:"children"`
}

type menuContextResponse struct {
	Name string `json:"name"`
	menus.Context
	Children []menuNodeResponse `json:"children"`
}

func (h *MenuHandlers) getMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts, ok := h.options(w, r)
	if !ok {
		return
	}
	result, err := h.tag.Context(ctx, opts)
	if err != nil {
		writeMenuError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, menuContextResponse{
		Name:     opts.MenuName,
		Context:  result,
		Children: newMenuNodeResponses(result.Children),
	})
}

func (h *MenuHandlers) renderMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opts, ok := h.options(w, r)
	if !ok {
		return
	}

	var fragment bytes.Buffer
	if err := h.tag.Render(ctx, &fragment, opts); err != nil {
		writeMenuError(ctx, w, err)
		return
	}

	var body bytes.Buffer
	if h.layout != nil && h.layout.Lookup(pageTemplate) != nil {
		data := map[string]any{
			"Title":    opts.MenuName,
			"Language": requestctx.Language(ctx),
			"Menu":     template.HTML(fragment.String()),
		}
		if err := h.layout.ExecuteTemplate(&body, pageTemplate, data); err != nil {
			writeMenuError(ctx, w, err)
			return
		}
	} else {
		body = fragment
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

func (h *MenuHandlers) options(w http.ResponseWriter, r *http.Request) (menus.Options, bool) {
	ctx := r.Context()
	if h.tag == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "menu service unavailable", http.StatusServiceUnavailable))
		return menus.Options{}, false
	}
	name := strings.TrimSpace(chi.URLParam(r, "menuName"))
	opts, err := menus.OptionsFromQuery(name, r.URL.Query())
	if err != nil {
		writeMenuError(ctx, w, err)
		return menus.Options{}, false
	}
	return opts, true
}

func writeMenuError(ctx context.Context, w http.ResponseWriter, err error) {
	var optErr *menus.OptionError
	switch {
	case errors.As(err, &optErr):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_option", optErr.Error(), http.StatusBadRequest).
			WithDetails(map[string]any{"option": optErr.Option}))
	case errors.Is(err, menus.ErrTemplateNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("template_not_found", err.Error(), http.StatusBadRequest))
	default:
		requestctx.Logger(ctx).Error("named menu request failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("menu_unavailable", "named menu could not be rendered", http.StatusServiceUnavailable))
	}
}

func newMenuNodeResponses(nodes []domain.NavigationNode) []menuNodeResponse {
	out := make([]menuNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, menuNodeResponse{
			ID:         n.ID,
			Namespace:  n.Namespace,
			Title:      n.Title,
			URL:        n.URL,
			Visible:    n.Visible,
			Selected:   n.Selected,
			Attributes: n.Attributes,
			Children:   newMenuNodeResponses(n.Children),
		})
	}
	return out
}
