package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/dbx"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/files"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/users"
)

// --- in-memory repositories ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User

	findErr   error
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[int64]*models.User{}}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.UserName == u.UserName || existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return u, nil
}

func (f *fakeUsersRepo) FindByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		if u.UserName == userName || u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeNotesRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Note
	clock  time.Time

	err error
}

func newFakeNotesRepo() *fakeNotesRepo {
	return &fakeNotesRepo{byID: map[int64]*models.Note{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeNotesRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func copyNote(n *models.Note) *models.Note {
	cp := *n
	if n.Content != nil {
		c := *n.Content
		cp.Content = &c
	}
	if n.ImageURL != nil {
		u := *n.ImageURL
		cp.ImageURL = &u
	}
	return &cp
}

func (f *fakeNotesRepo) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	n.ID = f.nextID
	n.CreatedAt = f.tick()
	n.UpdatedAt = n.CreatedAt
	f.byID[n.ID] = copyNote(n)
	return copyNote(n), nil
}

func (f *fakeNotesRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Note, 0)
	for _, n := range f.byID {
		if n.UserID == userID {
			out = append(out, copyNote(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeNotesRepo) GetByID(ctx context.Context, userID, id int64) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n, ok := f.byID[id]
	if !ok || n.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return copyNote(n), nil
}

func (f *fakeNotesRepo) Update(ctx context.Context, n *models.Note) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[n.ID]
	if !ok || stored.UserID != n.UserID {
		return nil, common.ErrorNotFound
	}
	n.CreatedAt = stored.CreatedAt
	n.UpdatedAt = f.tick()
	f.byID[n.ID] = copyNote(n)
	return copyNote(n), nil
}

func (f *fakeNotesRepo) Delete(ctx context.Context, userID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok || n.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeFilesRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.File
	calls  int

	createErr error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{byID: map[int64]*models.File{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	file.ID = f.nextID
	file.CreatedAt = time.Now()
	cp := *file
	f.byID[file.ID] = &cp
	return file, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, userID, id int64) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.byID[id]
	if !ok || file.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *file
	return &cp, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	n *fakeNotesRepo
	f *fakeFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), n: newFakeNotesRepo(), f: newFakeFilesRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Notes(db dbx.DBTX) notes.Repository           { return m.n }
func (m *fakeRepoManager) Files(db dbx.DBTX) files.Repository           { return m.f }
