package icon

import (
	"context"

	"github.com/valmatch-sync/internal/domain"
)

// Store is the persistence the icon service needs.
type Store interface {
	Load(ctx context.Context) (*domain.IconDocument, error)
	Save(ctx context.Context, doc *domain.IconDocument) error
}

// Service manages the tournament-icon document.
type Service interface {
	List(ctx context.Context) (*domain.IconDocument, error)
	Merge(ctx context.Context, icons []domain.TournamentIcon) error
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context) (*domain.IconDocument, error) {
	return s.store.Load(ctx)
}

// Merge adds unknown icon names to the document. Existing names win, so
// repeated submissions from many installations stay idempotent.
func (s *service) Merge(ctx context.Context, icons []domain.TournamentIcon) error {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	if doc.Merge(icons) == 0 {
		return nil
	}
	return s.store.Save(ctx, doc)
}
