package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// MessageService sends notes to thesis authors and reads the signed-in
// user's inbox.
type MessageService interface {
	// Send writes body to the author of thesis thesisID.
	Send(ctx context.Context, thesisID int64, body string) (*models.Message, error)
	Inbox(ctx context.Context) ([]models.Message, error)
}

type messageService struct {
	Deps
}

func NewMessageService(d Deps) MessageService {
	return &messageService{Deps: d}
}

func (s *messageService) Send(ctx context.Context, thesisID int64, body string) (*models.Message, error) {
	p, err := s.principal()
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message is empty", common.ErrBadRequest)
	}

	var msg *models.Message
	err = s.withDB(ctx, func(ctx context.Context) error {
		thesis, err := s.Records.Theses(s.DB).GetByID(ctx, thesisID)
		if err != nil {
			return err
		}
		msg, err = s.Records.Messages(s.DB).Create(ctx, &models.Message{
			SenderID:    p.UserID,
			RecipientID: thesis.UserID,
			ThesisID:    thesisID,
			Body:        body,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info(ctx, "message sent", "id", msg.ID, "thesis_id", thesisID)
	return msg, nil
}

func (s *messageService) Inbox(ctx context.Context) ([]models.Message, error) {
	p, err := s.principal()
	if err != nil {
		return nil, err
	}
	var list []models.Message
	err = s.withDB(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.Records.Messages(s.DB).ListByRecipient(ctx, p.UserID)
		return err
	})
	return list, err
}
