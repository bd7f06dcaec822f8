package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	"github.com/hanko-field/namedmenus/internal/repositories"
)

// ErrDraftPagesRepositoryMissing signals that the page repository dependency is absent.
var ErrDraftPagesRepositoryMissing = errors.New("draft pages: page repository is not configured")

// DraftPageStore resolves the editable draft revision of a page.
type DraftPageStore struct {
	pages repositories.PageRepository
}

// NewDraftPageStore constructs the store.
func NewDraftPageStore(pages repositories.PageRepository) (*DraftPageStore, error) {
	if pages == nil {
		return nil, ErrDraftPagesRepositoryMissing
	}
	return &DraftPageStore{pages: pages}, nil
}

type draftNotFoundError struct {
	pageID int64
}

func (e draftNotFoundError) Error() string {
	return fmt.Sprintf("draft pages: page %d has no draft revision", e.pageID)
}

func (draftNotFoundError) IsNotFound() bool    { return true }
func (draftNotFoundError) IsUnavailable() bool { return false }

// FindDraft returns the page itself when it is a draft, otherwise the draft it
// points to. Repository not-found errors pass through unchanged.
func (s *DraftPageStore) FindDraft(ctx context.Context, pageID int64) (domain.Page, error) {
	page, err := s.pages.FindByID(ctx, pageID)
	if err != nil {
		return domain.Page{}, err
	}
	if page.IsDraft {
		return page, nil
	}
	if page.DraftID == 0 || page.DraftID == page.ID {
		return domain.Page{}, draftNotFoundError{pageID: pageID}
	}
	draft, err := s.pages.FindByID(ctx, page.DraftID)
	if err != nil {
		return domain.Page{}, err
	}
	if !draft.IsDraft {
		return domain.Page{}, draftNotFoundError{pageID: pageID}
	}
	return draft, nil
}
