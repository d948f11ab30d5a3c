package theses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// Columns is the select list ScanRow expects, in order.
const Columns = "id, title, author, speciality, kind, keywords, year, abstract, file_ref, user_id, created_at"

// DefaultLimit applies when List is called with a non-positive limit.
const DefaultLimit = 50

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Thesis) (*models.Thesis, error) {
	if strings.TrimSpace(t.Title) == "" || t.FileRef == "" {
		return nil, fmt.Errorf("%w: title and file reference are required", common.ErrBadRequest)
	}
	if err := models.CheckObjectRef(t.FileRef); err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO theses (title, author, speciality, kind, keywords, year, abstract, file_ref, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Author, t.Speciality, string(t.Kind), t.Keywords, t.Year, t.Abstract, t.FileRef, t.UserID).
		Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: owner %d", common.ErrNotFound, t.UserID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Thesis, error) {
	query := `SELECT ` + Columns + ` FROM theses WHERE id = $1`

	t, err := ScanRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]models.Thesis, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + Columns + ` FROM theses ORDER BY id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return CollectRows(rows)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.Thesis, error) {
	query := `SELECT ` + Columns + ` FROM theses WHERE user_id = $1 ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return CollectRows(rows)
}

// Delete removes the row only. The stored document is not touched.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM theses WHERE id = $1`, id)
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

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM theses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// ScanRow reads one row selected with Columns.
func ScanRow(s scanner) (*models.Thesis, error) {
	var (
		t    models.Thesis
		kind string
	)
	err := s.Scan(&t.ID, &t.Title, &t.Author, &t.Speciality, &kind, &t.Keywords,
		&t.Year, &t.Abstract, &t.FileRef, &t.UserID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Kind = models.ThesisKind(kind)
	return &t, nil
}

// CollectRows drains and closes rows selected with Columns.
func CollectRows(rows *sql.Rows) ([]models.Thesis, error) {
	defer rows.Close()

	result := make([]models.Thesis, 0)
	for rows.Next() {
		t, err := ScanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
