package favorites

import (
	"context"

	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// Repository keeps the per-user list of favourite theses.
type Repository interface {
	Add(ctx context.Context, userID, thesisID int64) error
	Remove(ctx context.Context, userID, thesisID int64) error
	ListByUser(ctx context.Context, userID int64) ([]models.Thesis, error)
	// RemoveByThesis drops thesisID from every user's list.
	RemoveByThesis(ctx context.Context, thesisID int64) error
}
