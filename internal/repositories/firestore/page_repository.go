package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/hanko-field/namedmenus/internal/domain"
	pfirestore "github.com/hanko-field/namedmenus/internal/platform/firestore"
)

const pagesCollection = "pages"

// PageRepository reads CMS pages from Firestore. Document IDs are decimal page IDs.
type PageRepository struct {
	pages *pfirestore.Collection[domain.Page]
}

type pageDocument struct {
	ParentID     int64             `firestore:"parentId"`
	DraftID      int64             `firestore:"draftId"`
	IsDraft      bool              `firestore:"isDraft"`
	Published    bool              `firestore:"published"`
	InNavigation bool              `firestore:"inNavigation"`
	ReverseID    string            `firestore:"reverseId,omitempty"`
	Namespace    string            `firestore:"namespace,omitempty"`
	Path         string            `firestore:"path"`
	Order        int               `firestore:"order"`
	Titles       map[string]string `firestore:"titles"`
	MenuTitles   map[string]string `firestore:"menuTitles,omitempty"`
	UpdatedAt    time.Time         `firestore:"updatedAt"`
}

// NewPageRepository constructs a Firestore-backed page repository.
func NewPageRepository(provider *pfirestore.Provider) (*PageRepository, error) {
	if provider == nil {
		return nil, errors.New("page repository: firestore provider is required")
	}
	decode := func(snap *firestore.DocumentSnapshot) (domain.Page, error) {
		var doc pageDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Page{}, err
		}
		id, err := strconv.ParseInt(snap.Ref.ID, 10, 64)
		if err != nil {
			return domain.Page{}, fmt.Errorf("page repository: document id %q is not numeric", snap.Ref.ID)
		}
		page := decodePageDocument(id, doc)
		if page.UpdatedAt.IsZero() {
			page.UpdatedAt = snap.UpdateTime
		}
		return page, nil
	}
	return &PageRepository{
		pages: pfirestore.NewCollection(provider, pagesCollection, pfirestore.Codec[domain.Page]{Decode: decode}),
	}, nil
}

// FindByID loads a single page.
func (r *PageRepository) FindByID(ctx context.Context, pageID int64) (domain.Page, error) {
	if pageID <= 0 {
		return domain.Page{}, pfirestore.NotFound("pages.get", "page id %d is not positive", pageID)
	}
	return r.pages.Get(ctx, strconv.FormatInt(pageID, 10))
}

// ListNavigation returns the public pages flagged for navigation ordered by tree order.
func (r *PageRepository) ListNavigation(ctx context.Context) ([]domain.Page, error) {
	return r.pages.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("isDraft", "==", false).
			Where("published", "==", true).
			Where("inNavigation", "==", true).
			OrderBy("order", firestore.Asc)
	})
}

func decodePageDocument(id int64, doc pageDocument) domain.Page {
	return domain.Page{
		ID:           id,
		ParentID:     doc.ParentID,
		DraftID:      doc.DraftID,
		IsDraft:      doc.IsDraft,
		Published:    doc.Published,
		InNavigation: doc.InNavigation,
		ReverseID:    doc.ReverseID,
		Namespace:    doc.Namespace,
		Path:         doc.Path,
		Order:        doc.Order,
		Titles:       doc.Titles,
		MenuTitles:   doc.MenuTitles,
		UpdatedAt:    doc.UpdatedAt,
	}
}
