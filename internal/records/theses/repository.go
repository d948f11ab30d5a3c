package theses

import (
	"context"

	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

type Repository interface {
	Create(ctx context.Context, thesis *models.Thesis) (*models.Thesis, error)
	GetByID(ctx context.Context, id int64) (*models.Thesis, error)
	List(ctx context.Context, limit, offset int) ([]models.Thesis, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Thesis, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
