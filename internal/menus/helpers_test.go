package menus

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/hanko-field/namedmenus/internal/domain"
)

type stubNotFoundError struct{ msg string }

func (e stubNotFoundError) Error() string       { return e.msg }
func (e stubNotFoundError) IsNotFound() bool    { return true }
func (e stubNotFoundError) IsUnavailable() bool { return false }

type stubUnavailableError struct{}

func (stubUnavailableError) Error() string       { return "backend unavailable" }
func (stubUnavailableError) IsNotFound() bool    { return false }
func (stubUnavailableError) IsUnavailable() bool { return true }

type stubPageStore struct {
	pages map[int64]domain.Page
	errs  map[int64]error
	calls []int64
}

func (s *stubPageStore) FindDraft(_ context.Context, pageID int64) (domain.Page, error) {
	s.calls = append(s.calls, pageID)
	if err, ok := s.errs[pageID]; ok {
		return domain.Page{}, err
	}
	page, ok := s.pages[pageID]
	if !ok {
		return domain.Page{}, stubNotFoundError{msg: "page not found"}
	}
	return page, nil
}

type stubRenderer struct {
	nodes []domain.NavigationNode
	err   error
	calls int
	args  [][2]string
}

func (s *stubRenderer) GetNodes(_ context.Context, namespace, rootID string) ([]domain.NavigationNode, error) {
	s.calls++
	s.args = append(s.args, [2]string{namespace, rootID})
	if s.err != nil {
		return nil, s.err
	}
	return s.nodes, nil
}

type countingProvider struct {
	renderer NodeRenderer
	calls    int
}

func (p *countingProvider) Renderer() NodeRenderer {
	p.calls++
	return p.renderer
}

type stubMenuFinder struct {
	menus map[string]domain.NamedMenu
	err   error
	calls int
}

func (s *stubMenuFinder) FindByName(_ context.Context, name string) (domain.NamedMenu, error) {
	s.calls++
	if s.err != nil {
		return domain.NamedMenu{}, s.err
	}
	menu, ok := s.menus[domain.NormalizeMenuName(name)]
	if !ok {
		return domain.NamedMenu{}, stubNotFoundError{msg: "named menu not found"}
	}
	return menu, nil
}

func node(id int64, namespace string) domain.NavigationNode {
	return domain.NavigationNode{
		ID:         id,
		Namespace:  namespace,
		Title:      "node",
		URL:        "/",
		Visible:    true,
		Attributes: map[string]any{"source": "renderer"},
	}
}

func titledPage(id int64, title string) domain.Page {
	return domain.Page{
		ID:           id,
		IsDraft:      true,
		InNavigation: true,
		Path:         title,
		Titles:       map[string]string{"ja": title, "en": title},
	}
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func newTestArranger(t *testing.T, store *stubPageStore, logger *zap.Logger) *Arranger {
	t.Helper()
	if store == nil {
		store = &stubPageStore{}
	}
	arranger, err := NewArranger(ArrangerDeps{Pages: store, Converter: NewLocalizedConverter("ja"), Logger: logger})
	if err != nil {
		t.Fatalf("NewArranger: %v", err)
	}
	return arranger
}

func ids(nodes []domain.NavigationNode) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var errBoom = errors.New("boom")
