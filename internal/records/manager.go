// Package records is the logical record store: users, theses, favourites
// and messages kept in PostgreSQL. File bytes live in object storage; rows only carry
// object names.
package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/records/favorites"
	"github.com/dmitrijs2005/thesisvault/internal/records/messages"
	"github.com/dmitrijs2005/thesisvault/internal/records/migrations"
	"github.com/dmitrijs2005/thesisvault/internal/records/theses"
	"github.com/dmitrijs2005/thesisvault/internal/records/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Driver is the database/sql driver name registered by pgx.
const Driver = "pgx"

type Manager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Theses(db dbx.DBTX) theses.Repository
	Favorites(db dbx.DBTX) favorites.Repository
	Messages(db dbx.DBTX) messages.Repository
}

// PostgresManager vends PostgreSQL repositories bound to a DBTX, so the same
// code runs against a *sql.DB or inside a transaction.
type PostgresManager struct{}

func NewPostgresManager() *PostgresManager {
	return &PostgresManager{}
}

func (m *PostgresManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresManager) Theses(db dbx.DBTX) theses.Repository {
	return theses.NewPostgresRepository(db)
}

func (m *PostgresManager) Favorites(db dbx.DBTX) favorites.Repository {
	return favorites.NewPostgresRepository(db)
}

func (m *PostgresManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
