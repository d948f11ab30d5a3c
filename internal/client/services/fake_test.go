package services

import (
	"context"
	"database/sql"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/client/access"
	"github.com/dmitrijs2005/thesisvault/internal/client/identity"
	"github.com/dmitrijs2005/thesisvault/internal/client/session"
	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/dbx"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/dmitrijs2005/thesisvault/internal/records/favorites"
	"github.com/dmitrijs2005/thesisvault/internal/records/messages"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
	"github.com/dmitrijs2005/thesisvault/internal/records/theses"
	"github.com/dmitrijs2005/thesisvault/internal/records/users"
)

// memRecords is an in-memory records.Manager.
type memRecords struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	theses    map[int64]*models.Thesis
	favs      map[[2]int64]bool
	msgs      map[int64]*models.Message
	seq       int64
	createErr error
	deleteErr error
}

func newMemRecords() *memRecords {
	return &memRecords{
		users:  map[int64]*models.User{},
		theses: map[int64]*models.Thesis{},
		favs:   map[[2]int64]bool{},
		msgs:   map[int64]*models.Message{},
	}
}

func (m *memRecords) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRecords) Users(dbx.DBTX) users.Repository             { return memUsers{m} }
func (m *memRecords) Theses(dbx.DBTX) theses.Repository           { return memTheses{m} }
func (m *memRecords) Favorites(dbx.DBTX) favorites.Repository     { return memFavs{m} }
func (m *memRecords) Messages(dbx.DBTX) messages.Repository       { return memMessages{m} }

type memUsers struct{ m *memRecords }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.createErr != nil {
		return nil, r.m.createErr
	}
	for _, x := range r.m.users {
		if x.Email == u.Email || x.SubjectID == u.SubjectID {
			return nil, common.ErrConflict
		}
	}
	r.m.seq++
	c := *u
	c.ID = r.m.seq
	c.CreatedAt = time.Now()
	r.m.users[c.ID] = &c
	return &c, nil
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetBySubjectID(_ context.Context, sub string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.SubjectID == sub {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) UpdateProfilePicRef(_ context.Context, id int64, ref string) error {
	if err := models.CheckObjectRef(ref); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.ProfilePicRef = ref
	return nil
}

func (r memUsers) List(_ context.Context) ([]models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.User, 0, len(r.m.users))
	for _, u := range r.m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.users[u.ID]
	if !ok {
		return common.ErrNotFound
	}
	for _, x := range r.m.users {
		if x.ID != u.ID && x.Email == u.Email {
			return common.ErrConflict
		}
	}
	cur.Name, cur.Email, cur.Role = u.Name, u.Email, u.Role
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.m.users, id)
	return nil
}

func (r memUsers) Count(_ context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.users)), nil
}

func (r memUsers) CountByRole(_ context.Context, role models.Role) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, u := range r.m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memTheses struct{ m *memRecords }

func (r memTheses) Create(_ context.Context, t *models.Thesis) (*models.Thesis, error) {
	if err := models.CheckObjectRef(t.FileRef); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.createErr != nil {
		return nil, r.m.createErr
	}
	r.m.seq++
	c := *t
	c.ID = r.m.seq
	r.m.theses[c.ID] = &c
	return &c, nil
}

func (r memTheses) GetByID(_ context.Context, id int64) (*models.Thesis, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.theses[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r memTheses) List(_ context.Context, limit, offset int) ([]models.Thesis, error) {
	all := r.all(func(*models.Thesis) bool { return true })
	if offset > len(all) {
		return []models.Thesis{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r memTheses) ListByUser(_ context.Context, userID int64) ([]models.Thesis, error) {
	return r.all(func(t *models.Thesis) bool { return t.UserID == userID }), nil
}

func (r memTheses) all(keep func(*models.Thesis) bool) []models.Thesis {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Thesis, 0)
	for _, t := range r.m.theses {
		if keep(t) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memTheses) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.deleteErr != nil {
		return r.m.deleteErr
	}
	if _, ok := r.m.theses[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.m.theses, id)
	return nil
}

func (r memTheses) Count(_ context.Context) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return int64(len(r.m.theses)), nil
}

type memFavs struct{ m *memRecords }

func (r memFavs) Add(_ context.Context, userID, thesisID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.theses[thesisID]; !ok {
		return common.ErrNotFound
	}
	r.m.favs[[2]int64{userID, thesisID}] = true
	return nil
}

func (r memFavs) Remove(_ context.Context, userID, thesisID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	k := [2]int64{userID, thesisID}
	if !r.m.favs[k] {
		return common.ErrNotFound
	}
	delete(r.m.favs, k)
	return nil
}

func (r memFavs) ListByUser(_ context.Context, userID int64) ([]models.Thesis, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Thesis, 0)
	for k := range r.m.favs {
		if k[0] == userID {
			out = append(out, *r.m.theses[k[1]])
		}
	}
	return out, nil
}

func (r memFavs) RemoveByThesis(_ context.Context, thesisID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k := range r.m.favs {
		if k[1] == thesisID {
			delete(r.m.favs, k)
		}
	}
	return nil
}

type memMessages struct{ m *memRecords }

func (r memMessages) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.theses[msg.ThesisID]; !ok {
		return nil, common.ErrNotFound
	}
	r.m.seq++
	c := *msg
	c.ID = r.m.seq
	c.SentAt = time.Now()
	r.m.msgs[c.ID] = &c
	return &c, nil
}

func (r memMessages) ListByRecipient(_ context.Context, userID int64) ([]models.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Message, 0)
	for _, msg := range r.m.msgs {
		if msg.RecipientID != userID {
			continue
		}
		c := *msg
		if u, ok := r.m.users[c.SenderID]; ok {
			c.SenderName = u.Name
		}
		if t, ok := r.m.theses[c.ThesisID]; ok {
			c.ThesisTitle = t.Title
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memMessages) RemoveByThesis(_ context.Context, thesisID int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, msg := range r.m.msgs {
		if msg.ThesisID == thesisID {
			delete(r.m.msgs, id)
		}
	}
	return nil
}

// fakeIdP keeps accounts in memory.
type fakeIdP struct {
	accounts map[string]string
	err      error
}

func (f *fakeIdP) SignUp(_ context.Context, email, password string) (*identity.Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.accounts[email]; ok {
		return nil, &identity.Error{Code: 400, Message: "EMAIL_EXISTS"}
	}
	f.accounts[email] = password
	return &identity.Credentials{SubjectID: "sub-" + email, Token: "token-" + email, Email: email}, nil
}

func (f *fakeIdP) SignIn(_ context.Context, email, password string) (*identity.Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	pw, ok := f.accounts[email]
	if !ok {
		return nil, &identity.Error{Code: 400, Message: "EMAIL_NOT_FOUND"}
	}
	if pw != password {
		return nil, &identity.Error{Code: 400, Message: "INVALID_PASSWORD"}
	}
	return &identity.Credentials{SubjectID: "sub-" + email, Token: "token-" + email, Email: email}, nil
}

// fakeStore keeps objects in memory and mirrors access.Client naming.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	downErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) UploadViaGrant(_ context.Context, localPath, objectName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[objectName] = []byte("content of " + localPath)
	return objectName, nil
}

func (f *fakeStore) UploadProfilePicture(ctx context.Context, localPath, subjectID string) (string, error) {
	return f.UploadViaGrant(ctx, localPath, access.ProfilePictureObjectName(subjectID, localPath))
}

func (f *fakeStore) Download(_ context.Context, objectName string, w io.Writer) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.downErr != nil {
		return 0, f.downErr
	}
	b, ok := f.objects[objectName]
	if !ok {
		return 0, &access.Failure{Category: access.CategoryNotFound, Message: "The requested file was not found in storage."}
	}
	n, err := io.Copy(w, strings.NewReader(string(b)))
	return n, err
}

func newDeps(rec *memRecords) Deps {
	return Deps{Records: rec, Session: session.New(), Retry: dbx.RetryPolicy{Attempts: 1}, Logger: logging.NopLogger{}}
}
