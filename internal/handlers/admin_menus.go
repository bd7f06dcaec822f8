package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/platform/auth"
	"github.com/hanko-field/namedmenus/internal/platform/httpx"
	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
	"github.com/hanko-field/namedmenus/internal/services"
)

const maxMenuRequestBody = 64 * 1024

// AdminMenuHandlers exposes named menu administration endpoints.
type AdminMenuHandlers struct {
	authn *auth.AdminAuthenticator
	menus services.MenuService
}

// NewAdminMenuHandlers constructs admin menu handlers.
func NewAdminMenuHandlers(authn *auth.AdminAuthenticator, menus services.MenuService) *AdminMenuHandlers {
	return &AdminMenuHandlers{authn: authn, menus: menus}
}

// Routes registers admin menu endpoints.
func (h *AdminMenuHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireRoles(auth.RoleEditor, auth.RoleAdmin))
	}
	r.Route("/menus", func(rt chi.Router) {
		rt.Get("/", h.listMenus)
		rt.Get("/{menuName}", h.getMenu)
		rt.Put("/{menuName}", h.putMenu)
		rt.Delete("/{menuName}", h.deleteMenu)
	})
}

type adminMenuItem struct {
	ID       int64           `json:"id"`
	Children []adminMenuItem `json:"children,omitempty"`
}

type adminMenuRequest struct {
	Pages []adminMenuItem `json:"pages"`
}

type adminMenuResponse struct {
	Name      string          `json:"name"`
	Pages     []adminMenuItem `json:"pages"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

func (h *AdminMenuHandlers) listMenus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}
	items, err := h.menus.ListMenus(ctx)
	if err != nil {
		writeAdminMenuError(ctx, w, err)
		return
	}
	out := make([]adminMenuResponse, 0, len(items))
	for _, menu := range items {
		out = append(out, newAdminMenuResponse(menu))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *AdminMenuHandlers) getMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}
	menu, err := h.menus.GetMenu(ctx, chi.URLParam(r, "menuName"))
	if err != nil {
		writeAdminMenuError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newAdminMenuResponse(menu))
}

func (h *AdminMenuHandlers) putMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	pages, err := decodeAdminMenuRequest(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	menu, err := h.menus.UpsertMenu(ctx, services.UpsertMenuCommand{
		Name:    chi.URLParam(r, "menuName"),
		Pages:   pages,
		ActorID: identity.Subject,
	})
	if err != nil {
		writeAdminMenuError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newAdminMenuResponse(menu))
}

func (h *AdminMenuHandlers) deleteMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.ready(ctx, w) {
		return
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if err := h.menus.DeleteMenu(ctx, services.DeleteMenuCommand{
		Name:    chi.URLParam(r, "menuName"),
		ActorID: identity.Subject,
	}); err != nil {
		writeAdminMenuError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminMenuHandlers) ready(ctx context.Context, w http.ResponseWriter) bool {
	if h.menus == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "menu service unavailable", http.StatusServiceUnavailable))
		return false
	}
	return true
}

func decodeAdminMenuRequest(r *http.Request) ([]domain.MenuItem, error) {
	limited := io.LimitReader(r.Body, maxMenuRequestBody)
	defer r.Body.Close()
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()

	var req adminMenuRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body required")
		}
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return toMenuItems(req.Pages), nil
}

func toMenuItems(items []adminMenuItem) []domain.MenuItem {
	out := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		entry := domain.MenuItem{ID: item.ID}
		if len(item.Children) > 0 {
			entry.Children = toMenuItems(item.Children)
		}
		out = append(out, entry)
	}
	return out
}

func fromMenuItems(items []domain.MenuItem) []adminMenuItem {
	out := make([]adminMenuItem, 0, len(items))
	for _, item := range items {
		entry := adminMenuItem{ID: item.ID}
		if len(item.Children) > 0 {
			entry.Children = fromMenuItems(item.Children)
		}
		out = append(out, entry)
	}
	return out
}

func newAdminMenuResponse(menu domain.NamedMenu) adminMenuResponse {
	resp := adminMenuResponse{Name: menu.Name, Pages: fromMenuItems(menu.Pages)}
	if !menu.CreatedAt.IsZero() {
		resp.CreatedAt = menu.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !menu.UpdatedAt.IsZero() {
		resp.UpdatedAt = menu.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func writeAdminMenuError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMenuInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrMenuNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("menu_not_found", "named menu not found", http.StatusNotFound))
	case errors.Is(err, services.ErrMenuRepositoryUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("menu_store_unavailable", "named menu store unavailable", http.StatusServiceUnavailable))
	default:
		requestctx.Logger(ctx).Error("named menu admin request failed", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to process named menu request", http.StatusInternalServerError))
	}
}
