package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	pfirestore "github.com/hanko-field/namedmenus/internal/platform/firestore"
)

const namedMenusCollection = "namedMenus"

// NamedMenuRepository stores one document per menu. Document ids are the
// folded menu name, so FindByName is a direct case-insensitive lookup while
// the display name is kept in the document.
type NamedMenuRepository struct {
	menus *pfirestore.Collection[domain.NamedMenu]
}

type namedMenuDocument struct {
	Name      string            `firestore:"name"`
	Pages     []domain.MenuItem `firestore:"pages"`
	CreatedAt time.Time         `firestore:"createdAt"`
	UpdatedAt time.Time         `firestore:"updatedAt"`
}

// NewNamedMenuRepository constructs a Firestore-backed named menu repository.
func NewNamedMenuRepository(provider *pfirestore.Provider) (*NamedMenuRepository, error) {
	if provider == nil {
		return nil, errors.New("named menu repository: firestore provider is required")
	}
	codec := pfirestore.Codec[domain.NamedMenu]{
		Encode: encodeNamedMenu,
		Decode: decodeNamedMenu,
	}
	return &NamedMenuRepository{
		menus: pfirestore.NewCollection(provider, namedMenusCollection, codec),
	}, nil
}

func encodeNamedMenu(menu domain.NamedMenu) (any, error) {
	pages := menu.Pages
	if pages == nil {
		pages = []domain.MenuItem{}
	}
	return namedMenuDocument{
		Name:      strings.TrimSpace(menu.Name),
		Pages:     pages,
		CreatedAt: menu.CreatedAt,
		UpdatedAt: menu.UpdatedAt,
	}, nil
}

func decodeNamedMenu(snap *firestore.DocumentSnapshot) (domain.NamedMenu, error) {
	var doc namedMenuDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.NamedMenu{}, err
	}
	menu := domain.NamedMenu{
		Name:      doc.Name,
		Pages:     doc.Pages,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	// Documents written by hand may only carry pages.
	if menu.Name == "" {
		menu.Name = snap.Ref.ID
	}
	if menu.CreatedAt.IsZero() {
		menu.CreatedAt = snap.CreateTime
	}
	if menu.UpdatedAt.IsZero() {
		menu.UpdatedAt = snap.UpdateTime
	}
	return menu, nil
}

// FindByName loads a menu by case-insensitive name.
func (r *NamedMenuRepository) FindByName(ctx context.Context, name string) (domain.NamedMenu, error) {
	key := domain.NormalizeMenuName(name)
	if key == "" {
		return domain.NamedMenu{}, pfirestore.NotFound("namedMenus.get", "menu name is required")
	}
	return r.menus.Get(ctx, key)
}

// List returns every named menu ordered by name.
func (r *NamedMenuRepository) List(ctx context.Context) ([]domain.NamedMenu, error) {
	return r.menus.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
}

// Save upserts the menu document.
func (r *NamedMenuRepository) Save(ctx context.Context, menu domain.NamedMenu) error {
	key := domain.NormalizeMenuName(menu.Name)
	if key == "" {
		return errors.New("named menu repository: name is required")
	}
	return r.menus.Put(ctx, key, menu)
}

// Delete removes the menu document.
func (r *NamedMenuRepository) Delete(ctx context.Context, name string) error {
	key := domain.NormalizeMenuName(name)
	if key == "" {
		return errors.New("named menu repository: name is required")
	}
	return r.menus.Delete(ctx, key)
}

// Ping reports whether the named menu collection is reachable.
func (r *NamedMenuRepository) Ping(ctx context.Context) error {
	return r.menus.Ping(ctx)
}
