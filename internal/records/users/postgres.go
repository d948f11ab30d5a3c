package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := models.CheckObjectRef(user.ProfilePicRef); err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO users (name, email, role, subject_id, profile_pic_ref)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, string(user.Role), user.SubjectID, nullable(user.ProfilePicRef)).
		Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with this email or subject", common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, name, email, role, subject_id, profile_pic_ref, created_at FROM users
		 WHERE id = $1
		 `
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetBySubjectID(ctx context.Context, subjectID string) (*models.User, error) {
	query :=
		`SELECT id, name, email, role, subject_id, profile_pic_ref, created_at FROM users
		 WHERE subject_id = $1
		 `
	return r.getOne(ctx, query, subjectID)
}

func (r *PostgresRepository) UpdateProfilePicRef(ctx context.Context, id int64, ref string) error {
	if err := models.CheckObjectRef(ref); err != nil {
		return err
	}

	query := `UPDATE users SET profile_pic_ref = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, nullable(ref))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT id, name, email, role, subject_id, profile_pic_ref, created_at FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, u *models.User) error {
	query := `UPDATE users SET name = $2, email = $3, role = $4 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, string(u.Role))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: user with this email", common.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

// Delete removes the user; theses, favourites and messages go with it.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		user models.User
		role string
		pic  sql.NullString
	)
	if err := s.Scan(&user.ID, &user.Name, &user.Email, &role, &user.SubjectID, &pic, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	user.ProfilePicRef = pic.String
	return &user, nil
}

// expectOne maps zero affected rows to common.ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
