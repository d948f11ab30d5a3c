package favorites

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
	"github.com/dmitrijs2005/thesisvault/internal/records/theses"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add is idempotent: adding a thesis twice is not an error.
func (r *PostgresRepository) Add(ctx context.Context, userID, thesisID int64) error {
	query :=
		`INSERT INTO favorites (user_id, thesis_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, thesis_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, thesisID); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: thesis %d", common.ErrNotFound, thesisID)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, thesisID int64) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND thesis_id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, thesisID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.Thesis, error) {
	query := `SELECT ` + prefixed("t.", theses.Columns) + `
		 FROM favorites f JOIN theses t ON t.id = f.thesis_id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return theses.CollectRows(rows)
}

func (r *PostgresRepository) RemoveByThesis(ctx context.Context, thesisID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE thesis_id = $1`, thesisID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = prefix + p
	}
	return strings.Join(parts, ", ")
}
