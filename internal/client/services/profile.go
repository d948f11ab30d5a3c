package services

import (
	"context"
	"fmt"
	"path"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

type ProfileService interface {
	// UpdatePicture uploads a new profile picture and records its object name.
	UpdatePicture(ctx context.Context, localPath string) (string, error)
	// Picture downloads the current profile picture into destDir.
	Picture(ctx context.Context, destDir string) (string, error)
	// UpdateDetails changes the display name and contact email. The
	// identity provider keeps the sign-in email.
	UpdateDetails(ctx context.Context, name, email string) (*models.User, error)
}

type profileService struct {
	Deps
	store ObjectStore
}

func NewProfileService(d Deps, store ObjectStore) ProfileService {
	return &profileService{Deps: d, store: store}
}

func (s *profileService) UpdatePicture(ctx context.Context, localPath string) (string, error) {
	p, err := s.principal()
	if err != nil {
		return "", err
	}

	ref, err := s.store.UploadProfilePicture(ctx, localPath, p.SubjectID)
	if err != nil {
		return "", err
	}

	err = s.withDB(ctx, func(ctx context.Context) error {
		return s.Records.Users(s.DB).UpdateProfilePicRef(ctx, p.UserID, ref)
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (s *profileService) Picture(ctx context.Context, destDir string) (string, error) {
	p, err := s.principal()
	if err != nil {
		return "", err
	}

	var user *models.User
	err = s.withDB(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.Records.Users(s.DB).GetByID(ctx, p.UserID)
		return err
	})
	if err != nil {
		return "", err
	}
	if user.ProfilePicRef == "" {
		return "", fmt.Errorf("%w: no profile picture", common.ErrNotFound)
	}

	return download(ctx, s.store, user.ProfilePicRef, destDir, path.Base(user.ProfilePicRef))
}

func (s *profileService) UpdateDetails(ctx context.Context, name, email string) (*models.User, error) {
	p, err := s.principal()
	if err != nil {
		return nil, err
	}
	name, email, err = checkDetails(name, email)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.withDB(ctx, func(ctx context.Context) error {
		repo := s.Records.Users(s.DB)
		current, err := repo.GetByID(ctx, p.UserID)
		if err != nil {
			return err
		}
		updated := *current
		updated.Name, updated.Email = name, email
		if err := repo.Update(ctx, &updated); err != nil {
			return err
		}
		user = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Session.Start(principalOf(user), s.Session.Token())
	return user, nil
}
