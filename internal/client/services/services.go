// Package services contains the application flows of the thesisvault client:
// signing in, adding and opening theses, profile pictures, favourites,
// messages to thesis authors and the administrator's member management.
// Services talk to the identity provider, the record store and object
// storage; they never persist signed URLs.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/thesisvault/internal/client/identity"
	"github.com/dmitrijs2005/thesisvault/internal/client/session"
	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/dmitrijs2005/thesisvault/internal/records"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// IdentityProvider is the part of identity.Client the services use.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (*identity.Credentials, error)
	SignIn(ctx context.Context, email, password string) (*identity.Credentials, error)
}

// ObjectStore is the part of access.Client the services use.
type ObjectStore interface {
	UploadViaGrant(ctx context.Context, localPath, objectName string) (string, error)
	UploadProfilePicture(ctx context.Context, localPath, subjectID string) (string, error)
	Download(ctx context.Context, objectName string, w io.Writer) (int64, error)
}

// Deps is shared by every service constructor.
type Deps struct {
	DB      *sql.DB
	Records records.Manager
	Session *session.Session
	Retry   dbx.RetryPolicy
	Logger  logging.Logger
}

func (d Deps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.NopLogger{}
	}
	return d.Logger
}

// withDB runs fn against the database, retrying transient failures.
func (d Deps) withDB(ctx context.Context, fn func(ctx context.Context) error) error {
	return dbx.WithRetry(ctx, d.Retry, d.logger(), fn)
}

// principal returns the signed-in principal or common.ErrNotLoggedIn.
func (d Deps) principal() (session.Principal, error) {
	p, ok := d.Session.Snapshot()
	if !ok {
		return session.Principal{}, common.ErrNotLoggedIn
	}
	return p, nil
}

// inTx runs fn in one transaction. A transient failure retries the whole
// transaction.
func (d Deps) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return d.withDB(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, d.DB, nil, fn)
	})
}

// requireAdmin returns the signed-in principal if it holds the admin role.
func (d Deps) requireAdmin() (session.Principal, error) {
	p, err := d.principal()
	if err != nil {
		return p, err
	}
	if !models.Role(p.Role).IsAdmin() {
		return session.Principal{}, fmt.Errorf("%w: administrator role required", common.ErrForbidden)
	}
	return p, nil
}

func principalOf(u *models.User) session.Principal {
	return session.Principal{
		UserID:    u.ID,
		SubjectID: u.SubjectID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
	}
}
