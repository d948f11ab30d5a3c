package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// AuthService signs users up, in and out.
//
// SignUp creates the identity provider account first and the user row
// second. Only the first account may pick the admin role. SignIn requires
// both to exist. A successful call starts the session; SignOut clears it.
type AuthService interface {
	SignUp(ctx context.Context, name, email string, password []byte, role models.Role) (*models.User, error)
	SignIn(ctx context.Context, email string, password []byte) (*models.User, error)
	SignOut(ctx context.Context) error
}

type authService struct {
	Deps
	idp IdentityProvider
}

func NewAuthService(d Deps, idp IdentityProvider) AuthService {
	return &authService{Deps: d, idp: idp}
}

// ErrProfileMissing means the identity provider knows the user but the
// record store does not.
var ErrProfileMissing = fmt.Errorf("%w: signed in, but no user profile exists in the application database", common.ErrNotFound)

func (s *authService) SignUp(ctx context.Context, name, email string, password []byte, role models.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: name, email and password are required", common.ErrBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrBadRequest)
	}
	if role == "" {
		role = models.RoleSimpleUser
	}
	if role.IsAdmin() {
		if err := s.checkAdminBootstrap(ctx); err != nil {
			return nil, err
		}
	}

	creds, err := s.idp.SignUp(ctx, email, string(password))
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.withDB(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.Records.Users(s.DB).Create(ctx, &models.User{
			Name: name, Email: email, Role: role, SubjectID: creds.SubjectID,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", common.ErrConflict)
		}
		s.logger().Error(ctx, "user row not created after identity sign-up", "subject", creds.SubjectID, "error", err)
		return nil, err
	}

	s.start(user, creds.Token)
	s.logger().Info(ctx, "signed up", "user_id", user.ID, "token", common.TokenHint(creds.Token))
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, email string, password []byte) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(password) == 0 {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrBadRequest)
	}

	creds, err := s.idp.SignIn(ctx, email, string(password))
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.withDB(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.Records.Users(s.DB).GetBySubjectID(ctx, creds.SubjectID)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, err
	}

	s.start(user, creds.Token)
	s.logger().Info(ctx, "signed in", "user_id", user.ID, "token", common.TokenHint(creds.Token))
	return user, nil
}

func (s *authService) SignOut(ctx context.Context) error {
	s.Session.Clear()
	s.logger().Info(ctx, "signed out")
	return nil
}

// checkAdminBootstrap allows self-registration as admin only while no
// administrator exists.
func (s *authService) checkAdminBootstrap(ctx context.Context) error {
	var admins int64
	err := s.withDB(ctx, func(ctx context.Context) error {
		var err error
		admins, err = s.Records.Users(s.DB).CountByRole(ctx, models.RoleAdmin)
		return err
	})
	if err != nil {
		return err
	}
	if admins > 0 {
		return fmt.Errorf("%w: an administrator already exists; ask them to grant the admin role", common.ErrForbidden)
	}
	return nil
}

func (s *authService) start(u *models.User, token string) {
	s.Session.Start(principalOf(u), token)
}
