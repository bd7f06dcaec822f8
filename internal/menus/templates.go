package menus

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

//go:embed templates
var embeddedTemplates embed.FS

// Level walks the arranged tree inside the inclusion template.
type Level struct {
	Context Context
	Nodes   []domain.NavigationNode
	Depth   int
}

// Rendered reports whether nodes at this depth are drawn.
func (l Level) Rendered() bool {
	return l.Depth >= l.Context.FromLevel && l.Depth <= l.Context.ToLevel
}

// Descend reports whether children one level down are inside the depth bound.
func (l Level) Descend() bool {
	return l.Depth+1 <= l.Context.ToLevel
}

// Next returns the level for children.
func (l Level) Next(children []domain.NavigationNode) Level {
	return Level{Context: l.Context, Nodes: children, Depth: l.Depth + 1}
}

func rootLevel(c Context) Level {
	return Level{Context: c, Nodes: c.Children}
}

// ParseTemplates parses the embedded menu templates, then every *.html file
// under dir (when set) so deployments can override or add templates. funcs is
// typically populated by Register first.
func ParseTemplates(dir string, funcs template.FuncMap) (*template.Template, error) {
	set := template.New("menus").Funcs(template.FuncMap{"menu_root": rootLevel})
	if len(funcs) > 0 {
		set = set.Funcs(funcs)
	}
	set, err := set.ParseFS(embeddedTemplates, "templates/menu/*.html")
	if err != nil {
		return nil, fmt.Errorf("menus: parse embedded templates: %w", err)
	}
	if dir == "" {
		return set, nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("menus: templates dir %s is not readable", dir)
	}
	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".html" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("menus: scan templates dir %s: %w", dir, err)
	}
	if len(files) == 0 {
		return set, nil
	}
	if set, err = set.ParseFiles(files...); err != nil {
		return nil, fmt.Errorf("menus: parse templates in %s: %w", dir, err)
	}
	return set, nil
}
