package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if strings.TrimSpace(m.Body) == "" {
		return nil, fmt.Errorf("%w: message body is required", common.ErrBadRequest)
	}

	query :=
		`INSERT INTO messages (sender_id, recipient_id, thesis_id, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, sent_at
		 `

	err := r.db.QueryRowContext(ctx, query, m.SenderID, m.RecipientID, m.ThesisID, m.Body).
		Scan(&m.ID, &m.SentAt)

	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: thesis %d or its author", common.ErrNotFound, m.ThesisID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListByRecipient(ctx context.Context, userID int64) ([]models.Message, error) {
	query :=
		`SELECT m.id, m.sender_id, u.name, m.recipient_id, m.thesis_id, t.title, m.body, m.sent_at
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 JOIN theses t ON t.id = m.thesis_id
		 WHERE m.recipient_id = $1
		 ORDER BY m.sent_at DESC, m.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID,
			&m.ThesisID, &m.ThesisTitle, &m.Body, &m.SentAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) RemoveByThesis(ctx context.Context, thesisID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE thesis_id = $1`, thesisID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
