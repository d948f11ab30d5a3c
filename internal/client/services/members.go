package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// Stats are the administrator dashboard counters.
type Stats struct {
	Users  int64
	Theses int64
}

// MemberService is the administrator's view of registered users. Every call
// requires the admin role. Edits change the record store only; the account
// at the identity provider keeps its sign-in email.
type MemberService interface {
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, name, email string, role models.Role) (*models.User, error)
	// Delete refuses administrator accounts.
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (Stats, error)
}

type memberService struct {
	Deps
}

func NewMemberService(d Deps) MemberService {
	return &memberService{Deps: d}
}

func (s *memberService) List(ctx context.Context) ([]models.User, error) {
	if _, err := s.requireAdmin(); err != nil {
		return nil, err
	}
	var list []models.User
	err := s.withDB(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.Records.Users(s.DB).List(ctx)
		return err
	})
	return list, err
}

func (s *memberService) Update(ctx context.Context, id int64, name, email string, role models.Role) (*models.User, error) {
	p, err := s.requireAdmin()
	if err != nil {
		return nil, err
	}
	name, email, err = checkDetails(name, email)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, fmt.Errorf("%w: role is required", common.ErrBadRequest)
	}

	var user *models.User
	err = s.withDB(ctx, func(ctx context.Context) error {
		repo := s.Records.Users(s.DB)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current.Role.IsAdmin() && !role.IsAdmin() {
			admins, err := repo.CountByRole(ctx, models.RoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return fmt.Errorf("%w: the last administrator cannot be demoted", common.ErrForbidden)
			}
		}
		updated := *current
		updated.Name, updated.Email, updated.Role = name, email, role
		if err := repo.Update(ctx, &updated); err != nil {
			return err
		}
		user = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	if user.ID == p.UserID {
		s.Session.Start(principalOf(user), s.Session.Token())
	}
	s.logger().Info(ctx, "member updated", "id", user.ID, "role", user.Role)
	return user, nil
}

func (s *memberService) Delete(ctx context.Context, id int64) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	err := s.withDB(ctx, func(ctx context.Context) error {
		repo := s.Records.Users(s.DB)
		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Role.IsAdmin() {
			return fmt.Errorf("%w: cannot delete an administrator account", common.ErrForbidden)
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger().Info(ctx, "member deleted", "id", id)
	return nil
}

func (s *memberService) Stats(ctx context.Context) (Stats, error) {
	if _, err := s.requireAdmin(); err != nil {
		return Stats{}, err
	}
	var st Stats
	err := s.withDB(ctx, func(ctx context.Context) error {
		var err error
		if st.Users, err = s.Records.Users(s.DB).Count(ctx); err != nil {
			return err
		}
		st.Theses, err = s.Records.Theses(s.DB).Count(ctx)
		return err
	})
	return st, err
}

// checkDetails trims and validates a display name and contact email.
func checkDetails(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return "", "", fmt.Errorf("%w: name is required", common.ErrBadRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", fmt.Errorf("%w: invalid email", common.ErrBadRequest)
	}
	return name, email, nil
}
