package httpapi

import (
	"context"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/logging"
	"github.com/dmitrijs2005/cloudnotes/internal/server/auth"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
	"github.com/dmitrijs2005/cloudnotes/internal/server/services"
)

var testSecret = []byte("test-secret")

// fakeUsers issues real tokens so requests go through the real verifier.
type fakeUsers struct {
	mu       sync.Mutex
	tokens   *auth.TokenService
	byID     map[int64]*models.User
	password map[int64]string
	lookups  int
	getErr   error
}

func newFakeUsers(tokens *auth.TokenService) *fakeUsers {
	return &fakeUsers{tokens: tokens, byID: map[int64]*models.User{}, password: map[int64]string{}}
}

func (f *fakeUsers) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.UserName == "" {
		return nil, common.ValidationError("Validation failed",
			common.FieldError{Field: "username", Message: "Username is required"})
	}
	for _, u := range f.byID {
		if u.Email == in.Email || u.UserName == in.UserName {
			return nil, common.NewError(common.KindConflict, "User with this email or username already exists")
		}
	}
	u := &models.User{ID: int64(len(f.byID) + 1), UserName: in.UserName, Email: in.Email, CreatedAt: time.Now()}
	f.byID[u.ID] = u
	f.password[u.ID] = in.Password
	token, err := f.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &services.AuthResult{User: u, Token: token}, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.byID {
		if u.Email == email && f.password[id] == password {
			token, err := f.tokens.Issue(id)
			if err != nil {
				return nil, err
			}
			return &services.AuthResult{User: u, Token: token}, nil
		}
	}
	return nil, common.NewError(common.KindUnauthorized, "Invalid email or password")
}

func (f *fakeUsers) GetIdentity(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.NewError(common.KindNotFound, "User not found")
	}
	return u, nil
}

func (f *fakeUsers) add(id int64, name string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{ID: id, UserName: name, Email: name + "@example.com"}
	f.byID[id] = u
	return u
}

type fakeNotes struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Note
	err    error
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{byID: map[int64]*models.Note{}}
}

func (f *fakeNotes) Create(ctx context.Context, ownerID int64, in services.NoteInput) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if in.Title == "" {
		return nil, common.ValidationError("Title is required",
			common.FieldError{Field: "title", Message: "Title is required"})
	}
	f.nextID++
	ts := time.Date(2024, 6, 1, 12, 0, int(f.nextID), 0, time.UTC)
	n := &models.Note{ID: f.nextID, UserID: ownerID, Title: in.Title, Content: in.Content, ImageURL: in.ImageURL, CreatedAt: ts, UpdatedAt: ts}
	f.byID[n.ID] = n
	return n, nil
}

func (f *fakeNotes) List(ctx context.Context, ownerID int64) ([]*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Note{}
	for _, n := range f.byID {
		if n.UserID == ownerID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeNotes) Get(ctx context.Context, ownerID, noteID int64) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[noteID]
	if !ok || n.UserID != ownerID {
		return nil, common.NewError(common.KindNotFound, "Note not found")
	}
	return n, nil
}

func (f *fakeNotes) Update(ctx context.Context, ownerID, noteID int64, patch services.NotePatch) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[noteID]
	if !ok || n.UserID != ownerID {
		return nil, common.NewError(common.KindNotFound, "Note not found")
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = patch.Content
	}
	if patch.ImageURL != nil {
		n.ImageURL = patch.ImageURL
	}
	return n, nil
}

func (f *fakeNotes) Delete(ctx context.Context, ownerID, noteID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[noteID]
	if !ok || n.UserID != ownerID {
		return common.NewError(common.KindNotFound, "Note not found")
	}
	delete(f.byID, noteID)
	return nil
}

type fakeUploads struct {
	mu       sync.Mutex
	record   bool
	err      error
	got      []services.UploadInput
	bodies   []string
	signs    int
	filesErr error
}

func (f *fakeUploads) Upload(ctx context.Context, ownerID int64, in services.UploadInput) (*services.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.got = append(f.got, in)
	f.bodies = append(f.bodies, string(b))

	key := services.ObjectKey(ownerID, in.FileName, in.IsPublic, time.UnixMilli(1717243200000))
	res := &services.UploadResult{FileName: in.FileName, FileKey: key, IsPublic: in.IsPublic, URL: "https://bucket.example/" + key}
	if f.record {
		res.File = &models.File{ID: 7, UserID: ownerID, FileKey: key, FileName: in.FileName, IsPublic: in.IsPublic}
	}
	return res, nil
}

func (f *fakeUploads) FileURL(ctx context.Context, ownerID, fileID int64) (*services.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filesErr != nil {
		return nil, f.filesErr
	}
	if fileID != 7 || ownerID != 1 {
		return nil, common.NewError(common.KindNotFound, "File not found")
	}
	f.signs++
	file := &models.File{ID: 7, UserID: 1, FileKey: "private/user-uploads/1/1-a.txt", FileName: "a.txt"}
	return &services.UploadResult{
		File:     file,
		FileName: file.FileName,
		FileKey:  file.FileKey,
		URL:      "https://signed.example/" + file.FileKey + "?n=" + string(rune('0'+f.signs)),
	}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }

// --- harness ---

type testEnv struct {
	handler http.Handler
	tokens  *auth.TokenService
	users   *fakeUsers
	notes   *fakeNotes
	uploads *fakeUploads
	deps    *RouterDeps
}

func newTestEnv(t *testing.T, opts ...func(*RouterDeps)) *testEnv {
	t.Helper()
	tokens := auth.NewTokenService(testSecret, time.Hour)
	env := &testEnv{
		tokens:  tokens,
		users:   newFakeUsers(tokens),
		notes:   newFakeNotes(),
		uploads: &fakeUploads{record: true},
	}
	env.deps = &RouterDeps{
		Users:             env.users,
		Notes:             env.notes,
		Uploads:           env.uploads,
		Tokens:            tokens,
		DB:                fakePinger{},
		Logger:            logging.Discard(),
		CORSAllowedOrigin: "http://localhost:5173",
		UploadMaxBytes:    1 << 20,
		Now:               func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	for _, o := range opts {
		o(env.deps)
	}
	env.handler = NewRouter(env.deps)
	return env
}

func (e *testEnv) tokenFor(t *testing.T, id int64) string {
	t.Helper()
	tok, err := e.tokens.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}
