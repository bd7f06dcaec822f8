package services

import (
	"context"
	"time"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

// MenuService manages administrator-curated named menus.
type MenuService interface {
	ListMenus(ctx context.Context) ([]domain.NamedMenu, error)
	GetMenu(ctx context.Context, name string) (domain.NamedMenu, error)
	UpsertMenu(ctx context.Context, cmd UpsertMenuCommand) (domain.NamedMenu, error)
	DeleteMenu(ctx context.Context, cmd DeleteMenuCommand) error
}

// UpsertMenuCommand creates or replaces a named menu definition.
type UpsertMenuCommand struct {
	Name    string
	Pages   []domain.MenuItem
	ActorID string
}

// DeleteMenuCommand removes a named menu definition.
type DeleteMenuCommand struct {
	Name    string
	ActorID string
}

// CacheEvicter drops cached arranged menus for the given languages.
type CacheEvicter interface {
	Evict(ctx context.Context, menuName string, languages ...string)
}

// Menu change actions.
const (
	MenuActionUpserted = "upserted"
	MenuActionDeleted  = "deleted"
)

// MenuChangeEvent notifies other instances that a named menu changed so they
// can drop their cached copies.
type MenuChangeEvent struct {
	MenuName   string    `json:"menuName"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	Languages  []string  `json:"languages"`
	OccurredAt time.Time `json:"occurredAt"`
}

// MenuChangePublisher delivers MenuChangeEvent messages.
type MenuChangePublisher interface {
	PublishMenuChanged(ctx context.Context, event MenuChangeEvent) (string, error)
}
