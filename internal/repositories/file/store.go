// Package file provides YAML-backed page and named menu repositories for local
// development and tests against fixture data.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

// Error implements repositories.RepositoryError for the file backend.
type Error struct {
	op       string
	err      error
	notFound bool
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.err }

// IsNotFound reports whether the record was missing.
func (e *Error) IsNotFound() bool { return e.notFound }

// IsUnavailable is always false; files are either readable or not.
func (e *Error) IsUnavailable() bool { return false }

func notFound(op, format string, args ...any) error {
	return &Error{op: op, err: fmt.Errorf(format, args...), notFound: true}
}

type pageRecord struct {
	ID           int64             `yaml:"id"`
	ParentID     int64             `yaml:"parent_id,omitempty"`
	DraftID      int64             `yaml:"draft_id,omitempty"`
	IsDraft      bool              `yaml:"is_draft,omitempty"`
	Published    bool              `yaml:"published"`
	InNavigation bool              `yaml:"in_navigation"`
	ReverseID    string            `yaml:"reverse_id,omitempty"`
	Namespace    string            `yaml:"namespace,omitempty"`
	Path         string            `yaml:"path"`
	Order        int               `yaml:"order,omitempty"`
	Titles       map[string]string `yaml:"titles"`
	MenuTitles   map[string]string `yaml:"menu_titles,omitempty"`
}

type menuRecord struct {
	Name      string            `yaml:"name"`
	Pages     []domain.MenuItem `yaml:"pages"`
	CreatedAt time.Time         `yaml:"created_at,omitempty"`
	UpdatedAt time.Time         `yaml:"updated_at,omitempty"`
}

type pagesFile struct {
	Pages []pageRecord `yaml:"pages"`
}

type menusFile struct {
	Menus []menuRecord `yaml:"menus"`
}

// PageRepository serves pages decoded from a YAML file at construction time.
type PageRepository struct {
	pages []domain.Page
	byID  map[int64]domain.Page
}

// LoadPages reads the page fixture at path.
func LoadPages(path string) (*PageRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("file store: read pages %s: %w", path, err)
	}
	var doc pagesFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("file store: decode pages %s: %w", path, err)
	}
	return NewPageRepository(decodePages(doc.Pages))
}

// NewPageRepository builds a repository over an in-memory page list.
func NewPageRepository(pages []domain.Page) (*PageRepository, error) {
	repo := &PageRepository{byID: make(map[int64]domain.Page, len(pages))}
	for _, page := range pages {
		if page.ID <= 0 {
			return nil, fmt.Errorf("file store: page id must be positive, got %d", page.ID)
		}
		if _, dup := repo.byID[page.ID]; dup {
			return nil, fmt.Errorf("file store: duplicate page id %d", page.ID)
		}
		repo.byID[page.ID] = page
		repo.pages = append(repo.pages, page)
	}
	sort.SliceStable(repo.pages, func(i, j int) bool { return repo.pages[i].Order < repo.pages[j].Order })
	return repo, nil
}

// FindByID implements repositories.PageRepository.
func (r *PageRepository) FindByID(_ context.Context, pageID int64) (domain.Page, error) {
	page, ok := r.byID[pageID]
	if !ok {
		return domain.Page{}, notFound("pages.get", "page %d not found", pageID)
	}
	return page, nil
}

// ListNavigation implements repositories.PageRepository.
func (r *PageRepository) ListNavigation(_ context.Context) ([]domain.Page, error) {
	out := make([]domain.Page, 0, len(r.pages))
	for _, page := range r.pages {
		if page.IsDraft || !page.Published || !page.InNavigation {
			continue
		}
		out = append(out, page)
	}
	return out, nil
}

// NamedMenuRepository keeps named menus in memory and writes changes back to
// the YAML file when one is configured.
type NamedMenuRepository struct {
	path string

	mu    sync.RWMutex
	menus map[string]domain.NamedMenu
}

// LoadNamedMenus reads the menu fixture at path. A missing file yields an empty store.
func LoadNamedMenus(path string) (*NamedMenuRepository, error) {
	repo := &NamedMenuRepository{path: path, menus: map[string]domain.NamedMenu{}}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return repo, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read menus %s: %w", path, err)
	}
	var doc menusFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("file store: decode menus %s: %w", path, err)
	}
	for _, rec := range doc.Menus {
		key := domain.NormalizeMenuName(rec.Name)
		if key == "" {
			return nil, fmt.Errorf("file store: menu without name in %s", path)
		}
		repo.menus[key] = domain.NamedMenu{
			Name:      strings.TrimSpace(rec.Name),
			Pages:     rec.Pages,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}
	}
	return repo, nil
}

// NewNamedMenuRepository builds a memory-only repository seeded with menus.
func NewNamedMenuRepository(menus ...domain.NamedMenu) *NamedMenuRepository {
	repo := &NamedMenuRepository{menus: make(map[string]domain.NamedMenu, len(menus))}
	for _, menu := range menus {
		repo.menus[domain.NormalizeMenuName(menu.Name)] = menu
	}
	return repo
}

// FindByName implements repositories.NamedMenuRepository.
func (r *NamedMenuRepository) FindByName(_ context.Context, name string) (domain.NamedMenu, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	menu, ok := r.menus[domain.NormalizeMenuName(name)]
	if !ok {
		return domain.NamedMenu{}, notFound("named_menus.get", "named menu %q not found", name)
	}
	return menu, nil
}

// List implements repositories.NamedMenuRepository.
func (r *NamedMenuRepository) List(_ context.Context) ([]domain.NamedMenu, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.NamedMenu, 0, len(r.menus))
	for _, menu := range r.menus {
		out = append(out, menu)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save implements repositories.NamedMenuRepository.
func (r *NamedMenuRepository) Save(_ context.Context, menu domain.NamedMenu) error {
	key := domain.NormalizeMenuName(menu.Name)
	if key == "" {
		return errors.New("file store: menu name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menus[key] = menu
	return r.flushLocked()
}

// Delete implements repositories.NamedMenuRepository.
func (r *NamedMenuRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.menus, domain.NormalizeMenuName(name))
	return r.flushLocked()
}

func (r *NamedMenuRepository) flushLocked() error {
	if r.path == "" {
		return nil
	}
	doc := menusFile{Menus: make([]menuRecord, 0, len(r.menus))}
	for _, menu := range r.menus {
		doc.Menus = append(doc.Menus, menuRecord{
			Name:      menu.Name,
			Pages:     menu.Pages,
			CreatedAt: menu.CreatedAt,
			UpdatedAt: menu.UpdatedAt,
		})
	}
	sort.Slice(doc.Menus, func(i, j int) bool { return doc.Menus[i].Name < doc.Menus[j].Name })

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("file store: encode menus: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".menus-*.yaml")
	if err != nil {
		return fmt.Errorf("file store: write menus: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: write menus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: write menus: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("file store: write menus: %w", err)
	}
	return nil
}

func decodePages(records []pageRecord) []domain.Page {
	pages := make([]domain.Page, 0, len(records))
	for _, rec := range records {
		pages = append(pages, domain.Page{
			ID:           rec.ID,
			ParentID:     rec.ParentID,
			DraftID:      rec.DraftID,
			IsDraft:      rec.IsDraft,
			Published:    rec.Published,
			InNavigation: rec.InNavigation,
			ReverseID:    rec.ReverseID,
			Namespace:    rec.Namespace,
			Path:         rec.Path,
			Order:        rec.Order,
			Titles:       rec.Titles,
			MenuTitles:   rec.MenuTitles,
		})
	}
	return pages
}
