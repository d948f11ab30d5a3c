package messages

import (
	"context"

	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// Repository stores messages sent to thesis authors.
type Repository interface {
	Create(ctx context.Context, m *models.Message) (*models.Message, error)
	// ListByRecipient returns the inbox of userID, newest first.
	ListByRecipient(ctx context.Context, userID int64) ([]models.Message, error)
	RemoveByThesis(ctx context.Context, thesisID int64) error
}
