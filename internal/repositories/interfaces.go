package repositories

import (
	"context"
	"errors"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsUnavailable() bool
}

// PageRepository reads host CMS pages.
type PageRepository interface {
	FindByID(ctx context.Context, pageID int64) (domain.Page, error)
	ListNavigation(ctx context.Context) ([]domain.Page, error)
}

// NamedMenuRepository persists administrator-curated named menus.
type NamedMenuRepository interface {
	// FindByName matches names case-insensitively.
	FindByName(ctx context.Context, name string) (domain.NamedMenu, error)
	List(ctx context.Context) ([]domain.NamedMenu, error)
	Save(ctx context.Context, menu domain.NamedMenu) error
	Delete(ctx context.Context, name string) error
}

// IsNotFound reports whether err is a repository not-found failure.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
