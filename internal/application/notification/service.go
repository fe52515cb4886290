package notification

import (
	"context"

	"github.com/valmatch-sync/internal/domain"
)

// Repo is the minimal persistence surface the service requires: whole
// documents in, whole documents out.
type Repo interface {
	Get(ctx context.Context, userID string) (domain.NotificationSet, error)
	Put(ctx context.Context, userID string, set domain.NotificationSet) error
}

// Service exposes the notification-set document operations the HTTP
// surface promises: whole-document fetch and replace, plus a
// read-modify-write single-key delete.
type Service interface {
	Fetch(ctx context.Context, userID string) (domain.NotificationSet, error)
	Replace(ctx context.Context, userID string, set domain.NotificationSet) error
	DeleteOne(ctx context.Context, userID, matchID string) error
}

type service struct {
	repo Repo
}

func NewService(repo Repo) Service {
	return &service{repo: repo}
}

func (s *service) Fetch(ctx context.Context, userID string) (domain.NotificationSet, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Replace(ctx context.Context, userID string, set domain.NotificationSet) error {
	if set == nil {
		set = domain.NotificationSet{}
	}
	return s.repo.Put(ctx, userID, set)
}

// DeleteOne removes one match from the user's document. Absence is a
// no-op, not an error — cancels and fired-trigger cleanups race freely
// across devices and both must succeed.
func (s *service) DeleteOne(ctx context.Context, userID, matchID string) error {
	set, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if _, ok := set[matchID]; !ok {
		return nil
	}
	delete(set, matchID)
	return s.repo.Put(ctx, userID, set)
}
