package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/client/access"
	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/filex"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// ThesisMeta is what the user types in when adding a thesis.
type ThesisMeta struct {
	Title      string
	Author     string
	Speciality string
	Kind       models.ThesisKind
	Keywords   string
	Year       int
	Abstract   string
}

type ThesisService interface {
	// Add uploads the document and records the thesis. No row is written
	// unless the upload succeeded.
	Add(ctx context.Context, localPath string, meta ThesisMeta) (*models.Thesis, error)
	List(ctx context.Context, limit, offset int) ([]models.Thesis, error)
	ListMine(ctx context.Context) ([]models.Thesis, error)
	// Open downloads the document of thesis id into destDir and returns
	// the local path.
	Open(ctx context.Context, id int64, destDir string) (string, error)
	// Delete removes thesis id together with its favourites and messages.
	// Administrators only. The stored document is not removed.
	Delete(ctx context.Context, id int64) error
}

type thesisService struct {
	Deps
	store ObjectStore
}

func NewThesisService(d Deps, store ObjectStore) ThesisService {
	return &thesisService{Deps: d, store: store}
}

func (s *thesisService) Add(ctx context.Context, localPath string, meta ThesisMeta) (*models.Thesis, error) {
	p, err := s.principal()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrBadRequest)
	}

	ref, err := s.store.UploadViaGrant(ctx, localPath, access.ThesisObjectName(localPath))
	if err != nil {
		return nil, err
	}

	row := models.Thesis{
		Title:      meta.Title,
		Author:     meta.Author,
		Speciality: meta.Speciality,
		Kind:       meta.Kind,
		Keywords:   meta.Keywords,
		Year:       meta.Year,
		Abstract:   meta.Abstract,
		FileRef:    ref,
		UserID:     p.UserID,
	}
	if row.Kind == "" {
		row.Kind = models.KindMaster
	}

	var thesis *models.Thesis
	err = s.withDB(ctx, func(ctx context.Context) error {
		attempt := row
		var err error
		thesis, err = s.Records.Theses(s.DB).Create(ctx, &attempt)
		return err
	})
	if err != nil {
		s.logger().Error(ctx, "thesis uploaded but not recorded", "object", ref, "error", err)
		return nil, err
	}

	s.logger().Info(ctx, "thesis added", "id", thesis.ID, "object", ref)
	return thesis, nil
}

func (s *thesisService) List(ctx context.Context, limit, offset int) ([]models.Thesis, error) {
	if _, err := s.principal(); err != nil {
		return nil, err
	}
	var list []models.Thesis
	err := s.withDB(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.Records.Theses(s.DB).List(ctx, limit, offset)
		return err
	})
	return list, err
}

func (s *thesisService) ListMine(ctx context.Context) ([]models.Thesis, error) {
	p, err := s.principal()
	if err != nil {
		return nil, err
	}
	var list []models.Thesis
	err = s.withDB(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.Records.Theses(s.DB).ListByUser(ctx, p.UserID)
		return err
	})
	return list, err
}

func (s *thesisService) Open(ctx context.Context, id int64, destDir string) (string, error) {
	if _, err := s.principal(); err != nil {
		return "", err
	}

	var thesis *models.Thesis
	err := s.withDB(ctx, func(ctx context.Context) error {
		var err error
		thesis, err = s.Records.Theses(s.DB).GetByID(ctx, id)
		return err
	})
	if err != nil {
		return "", err
	}

	return download(ctx, s.store, thesis.FileRef, destDir, thesisFileName(thesis))
}

func (s *thesisService) Delete(ctx context.Context, id int64) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}

	var ref string
	err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		thesis, err := s.Records.Theses(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.Records.Favorites(tx).RemoveByThesis(ctx, id); err != nil {
			return err
		}
		if err := s.Records.Messages(tx).RemoveByThesis(ctx, id); err != nil {
			return err
		}
		if err := s.Records.Theses(tx).Delete(ctx, id); err != nil {
			return err
		}
		ref = thesis.FileRef
		return nil
	})
	if err != nil {
		return err
	}

	// Grants only cover reads and writes, so the object stays in the bucket.
	s.logger().Info(ctx, "thesis deleted", "id", id, "object", ref)
	return nil
}

// download fetches objectName into destDir as fileName. The file only
// appears once the transfer completed; a failed download leaves any earlier
// file of the same name untouched.
func download(ctx context.Context, store ObjectStore, objectName, destDir, fileName string) (string, error) {
	dir, err := filex.EnsureDir(destDir)
	if err != nil {
		return "", err
	}
	return filex.WriteIn(dir, fileName, func(w io.Writer) error {
		_, err := store.Download(ctx, objectName, w)
		return err
	})
}

// thesisFileName keeps downloads of same-named documents apart.
func thesisFileName(t *models.Thesis) string {
	return fmt.Sprintf("%d_%s", t.ID, path.Base(t.FileRef))
}
