package users

import (
	"context"

	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetBySubjectID(ctx context.Context, subjectID string) (*models.User, error)
	UpdateProfilePicRef(ctx context.Context, id int64, ref string) error
	// List returns every user ordered by id.
	List(ctx context.Context) ([]models.User, error)
	// Update writes name, email and role of u.ID.
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}
