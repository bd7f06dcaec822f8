package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/repositories"
)

const maxMenuNameLength = 64

var (
	// ErrMenuRepositoryMissing signals that the named menu repository dependency is absent.
	ErrMenuRepositoryMissing = errors.New("menu service: repository is not configured")
	// ErrMenuInvalidInput reports a malformed menu definition.
	ErrMenuInvalidInput = errors.New("menu service: invalid input")
	// ErrMenuNotFound reports that the named menu does not exist.
	ErrMenuNotFound = errors.New("menu service: not found")
	// ErrMenuRepositoryUnavailable reports a transient backend failure.
	ErrMenuRepositoryUnavailable = errors.New("menu service: repository unavailable")
)

// MenuServiceDeps groups constructor parameters for the menu service.
type MenuServiceDeps struct {
	Repository repositories.NamedMenuRepository
	Cache      CacheEvicter
	Publisher  MenuChangePublisher
	Languages  []string
	Clock      func() time.Time
	Logger     *zap.Logger
}

type menuService struct {
	repo      repositories.NamedMenuRepository
	cache     CacheEvicter
	publisher MenuChangePublisher
	languages []string
	clock     func() time.Time
	logger    *zap.Logger
}

// NewMenuService constructs the named menu administration service. Cache and
// Publisher are optional.
func NewMenuService(deps MenuServiceDeps) (MenuService, error) {
	if deps.Repository == nil {
		return nil, ErrMenuRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	langs := make([]string, 0, len(deps.Languages))
	for _, l := range deps.Languages {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			langs = append(langs, l)
		}
	}
	return &menuService{
		repo:      deps.Repository,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		languages: langs,
		clock:     func() time.Time { return clock().UTC() },
		logger:    logger,
	}, nil
}

func (s *menuService) ListMenus(ctx context.Context) ([]domain.NamedMenu, error) {
	menus, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return menus, nil
}

func (s *menuService) GetMenu(ctx context.Context, name string) (domain.NamedMenu, error) {
	if strings.TrimSpace(name) == "" {
		return domain.NamedMenu{}, fmt.Errorf("%w: name is required", ErrMenuInvalidInput)
	}
	menu, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return domain.NamedMenu{}, s.mapRepositoryError(err)
	}
	return menu, nil
}

func (s *menuService) UpsertMenu(ctx context.Context, cmd UpsertMenuCommand) (domain.NamedMenu, error) {
	name := strings.TrimSpace(cmd.Name)
	if err := validateMenuName(name); err != nil {
		return domain.NamedMenu{}, err
	}
	pages, err := normalizeMenuItems(cmd.Pages)
	if err != nil {
		return domain.NamedMenu{}, err
	}

	now := s.clock()
	menu := domain.NamedMenu{Name: name, Pages: pages, CreatedAt: now, UpdatedAt: now}
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		menu.CreatedAt = existing.CreatedAt
	case !repositories.IsNotFound(err):
		return domain.NamedMenu{}, s.mapRepositoryError(err)
	}

	if err := s.repo.Save(ctx, menu); err != nil {
		return domain.NamedMenu{}, s.mapRepositoryError(err)
	}
	s.changed(ctx, name, MenuActionUpserted, cmd.ActorID)
	return menu, nil
}

func (s *menuService) DeleteMenu(ctx context.Context, cmd DeleteMenuCommand) error {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrMenuInvalidInput)
	}
	if _, err := s.repo.FindByName(ctx, name); err != nil {
		return s.mapRepositoryError(err)
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return s.mapRepositoryError(err)
	}
	s.changed(ctx, name, MenuActionDeleted, cmd.ActorID)
	return nil
}

// changed evicts local cache entries and notifies other instances. Publish
// failures are logged because the definition is already persisted.
func (s *menuService) changed(ctx context.Context, name, action, actor string) {
	if s.cache != nil {
		s.cache.Evict(ctx, name, s.languages...)
	}
	if s.publisher == nil {
		return
	}
	event := MenuChangeEvent{
		MenuName:   domain.NormalizeMenuName(name),
		Action:     action,
		Actor:      strings.TrimSpace(actor),
		Languages:  append([]string(nil), s.languages...),
		OccurredAt: s.clock(),
	}
	if _, err := s.publisher.PublishMenuChanged(ctx, event); err != nil {
		s.logger.Warn("publish named menu change failed",
			zap.String("menuName", event.MenuName),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *menuService) mapRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrMenuNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrMenuRepositoryUnavailable, err)
		}
	}
	return err
}

func validateMenuName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrMenuInvalidInput)
	}
	if len(name) > maxMenuNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrMenuInvalidInput, maxMenuNameLength)
	}
	if strings.ContainsAny(name, "/:") {
		return fmt.Errorf("%w: name must not contain '/' or ':'", ErrMenuInvalidInput)
	}
	return nil
}

// normalizeMenuItems checks ids and drops nested grandchildren, which are never read.
func normalizeMenuItems(items []domain.MenuItem) ([]domain.MenuItem, error) {
	out := make([]domain.MenuItem, 0, len(items))
	for i, item := range items {
		if item.ID <= 0 {
			return nil, fmt.Errorf("%w: pages[%d].id must be positive", ErrMenuInvalidInput, i)
		}
		entry := domain.MenuItem{ID: item.ID}
		for j, child := range item.Children {
			if child.ID <= 0 {
				return nil, fmt.Errorf("%w: pages[%d].children[%d].id must be positive", ErrMenuInvalidInput, i, j)
			}
			entry.Children = append(entry.Children, domain.MenuItem{ID: child.ID})
		}
		out = append(out, entry)
	}
	return out, nil
}
