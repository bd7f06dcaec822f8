package domain

import (
	"strings"
	"time"
)

// NavigationNode is one renderable menu entry. Children are owned by the node;
// Parent is a back-reference and may be nil.
type NavigationNode struct {
	ID         int64
	Namespace  string
	Title      string
	URL        string
	Visible    bool
	Selected   bool
	Attributes map[string]any
	Children   []NavigationNode
	Parent     *NavigationNode
}

// Detached returns a copy of the node with no children and no parent. The
// attribute map is cloned so the copy never aliases the source node.
func (n NavigationNode) Detached() NavigationNode {
	out := n
	out.Children = []NavigationNode{}
	out.Parent = nil
	if n.Attributes != nil {
		attrs := make(map[string]any, len(n.Attributes))
		for k, v := range n.Attributes {
			attrs[k] = v
		}
		out.Attributes = attrs
	}
	return out
}

// MenuItem is one administrator-curated entry of a named menu. Only the ID of
// each child entry is consulted.
type MenuItem struct {
	ID       int64      `yaml:"id" json:"id" firestore:"id"`
	Children []MenuItem `yaml:"children,omitempty" json:"children,omitempty" firestore:"children,omitempty"`
}

// NamedMenu is a named, ordered sequence of menu items.
type NamedMenu struct {
	Name      string
	Pages     []MenuItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeMenuName folds a menu name for case-insensitive lookups.
func NormalizeMenuName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Page is the host CMS page record consulted when a node has to be synthesised.
type Page struct {
	ID           int64
	ParentID     int64
	DraftID      int64
	IsDraft      bool
	Published    bool
	InNavigation bool
	ReverseID    string
	Namespace    string
	Path         string
	Order        int
	Titles       map[string]string
	MenuTitles   map[string]string
	UpdatedAt    time.Time
}

// Title returns the localized title, preferring the menu title, then falling
// back to the fallback language.
func (p Page) Title(lang, fallback string) string {
	for _, source := range []map[string]string{p.MenuTitles, p.Titles} {
		if v := strings.TrimSpace(source[lang]); v != "" {
			return v
		}
	}
	for _, source := range []map[string]string{p.MenuTitles, p.Titles} {
		if v := strings.TrimSpace(source[fallback]); v != "" {
			return v
		}
	}
	return ""
}
