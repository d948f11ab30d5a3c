package services

import (
	"context"

	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// FavoriteService manages the signed-in user's favourite theses.
type FavoriteService interface {
	Add(ctx context.Context, thesisID int64) error
	Remove(ctx context.Context, thesisID int64) error
	List(ctx context.Context) ([]models.Thesis, error)
}

type favoriteService struct {
	Deps
}

func NewFavoriteService(d Deps) FavoriteService {
	return &favoriteService{Deps: d}
}

func (s *favoriteService) Add(ctx context.Context, thesisID int64) error {
	p, err := s.principal()
	if err != nil {
		return err
	}
	return s.withDB(ctx, func(ctx context.Context) error {
		return s.Records.Favorites(s.DB).Add(ctx, p.UserID, thesisID)
	})
}

func (s *favoriteService) Remove(ctx context.Context, thesisID int64) error {
	p, err := s.principal()
	if err != nil {
		return err
	}
	return s.withDB(ctx, func(ctx context.Context) error {
		return s.Records.Favorites(s.DB).Remove(ctx, p.UserID, thesisID)
	})
}

func (s *favoriteService) List(ctx context.Context) ([]models.Thesis, error) {
	p, err := s.principal()
	if err != nil {
		return nil, err
	}
	var list []models.Thesis
	err = s.withDB(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.Records.Favorites(s.DB).ListByUser(ctx, p.UserID)
		return err
	})
	return list, err
}
