package menus

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

// ErrUntitledPage reports a page without a title in the request or fallback language.
var ErrUntitledPage = errors.New("menus: page has no title")

// LocalizedConverter turns pages into navigation nodes titled in the request language.
type LocalizedConverter struct {
	fallback string
	policy   *bluemonday.Policy
}

// NewLocalizedConverter constructs a converter that falls back to fallbackLanguage.
func NewLocalizedConverter(fallbackLanguage string) *LocalizedConverter {
	return &LocalizedConverter{
		fallback: strings.ToLower(strings.TrimSpace(fallbackLanguage)),
		policy:   bluemonday.StrictPolicy(),
	}
}

// PageToNode implements PageConverter. Titles are stripped of markup.
func (c *LocalizedConverter) PageToNode(ctx context.Context, page, home domain.Page, depth int) (domain.NavigationNode, error) {
	if page.ID <= 0 {
		return domain.NavigationNode{}, fmt.Errorf("menus: invalid page id %d", page.ID)
	}
	lang := requestctx.Language(ctx)
	if lang == "" {
		lang = c.fallback
	}
	title := strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(page.Title(lang, c.fallback))))
	if title == "" {
		return domain.NavigationNode{}, fmt.Errorf("%w: page %d", ErrUntitledPage, page.ID)
	}

	attrs := map[string]any{
		"depth":   depth,
		"is_home": page.ID == home.ID,
		"draft":   page.IsDraft,
	}
	if page.ReverseID != "" {
		attrs["reverse_id"] = page.ReverseID
	}
	return domain.NavigationNode{
		ID:         page.ID,
		Namespace:  page.Namespace,
		Title:      title,
		URL:        pageURL(page.Path),
		Visible:    page.InNavigation,
		Attributes: attrs,
		Children:   []domain.NavigationNode{},
	}, nil
}

func pageURL(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "/"
	}
	return "/" + path + "/"
}
