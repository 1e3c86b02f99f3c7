package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/server/metrics"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
	"github.com/dmitrijs2005/cloudnotes/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const (
	msgInvalidJSON = "Invalid JSON body"
	msgInvalidID   = "Note ID must be a positive integer"
	msgInvalidFile = "File ID must be a positive integer"
)

// UserService is the subset of services.UserService used by the handlers.
type UserService interface {
	IdentityResolver
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
}

// NoteService is the subset of services.NoteService used by the handlers.
type NoteService interface {
	Create(ctx context.Context, ownerID int64, in services.NoteInput) (*models.Note, error)
	List(ctx context.Context, ownerID int64) ([]*models.Note, error)
	Get(ctx context.Context, ownerID, noteID int64) (*models.Note, error)
	Update(ctx context.Context, ownerID, noteID int64, patch services.NotePatch) (*models.Note, error)
	Delete(ctx context.Context, ownerID, noteID int64) error
}

// UploadService is the subset of services.UploadService used by the handlers.
type UploadService interface {
	Upload(ctx context.Context, ownerID int64, in services.UploadInput) (*services.UploadResult, error)
	FileURL(ctx context.Context, ownerID, fileID int64) (*services.UploadResult, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type handler struct {
	users          UserService
	notes          NoteService
	uploads        UploadService
	db             Pinger
	rs             *responder
	metrics        *metrics.Collector
	uploadMaxBytes int64
	now            func() time.Time
}

type userJSON struct {
	ID       int64  `json:"id"`
	UserName string `json:"username"`
	Email    string `json:"email"`
}

func toUserJSON(u *models.User) userJSON {
	return userJSON{ID: u.ID, UserName: u.UserName, Email: u.Email}
}

type noteJSON struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	ImageURL  *string   `json:"imageUrl"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      userJSON  `json:"user"`
}

func toNoteJSON(n *models.Note, owner *models.User) noteJSON {
	return noteJSON{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		ImageURL:  n.ImageURL,
		UserID:    n.UserID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		User:      toUserJSON(owner),
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	return dec.Decode(dst)
}

// positiveID parses the {name} URL parameter as an id greater than zero.
func positiveID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// identity returns the authenticated user. Routes using it sit behind the
// auth gate, so a missing identity is a wiring bug.
func identity(r *http.Request) *models.User {
	u, ok := IdentityFromContext(r.Context())
	if !ok {
		panic("httpapi: identity missing from authenticated route")
	}
	return u
}

// --- auth ---

type registerRequest struct {
	UserName string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authJSON struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.badRequest(r.Context(), w, msgInvalidJSON)
		return
	}

	res, err := h.users.Register(r.Context(), services.RegisterInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User registered successfully",
		authJSON{User: toUserJSON(res.User), Token: res.Token})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.badRequest(r.Context(), w, msgInvalidJSON)
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful",
		authJSON{User: toUserJSON(res.User), Token: res.Token})
}

// --- notes ---

type noteRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
}

type noteEnvelope struct {
	Note noteJSON `json:"note"`
}

type notesEnvelope struct {
	Notes []noteJSON `json:"notes"`
	Count int        `json:"count"`
}

func (h *handler) listNotes(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	list, err := h.notes.List(r.Context(), owner.ID)
	if err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}

	out := make([]noteJSON, 0, len(list))
	for _, n := range list {
		out = append(out, toNoteJSON(n, owner))
	}
	writeSuccess(w, http.StatusOK, "Notes retrieved successfully", notesEnvelope{Notes: out, Count: len(out)})
}

func (h *handler) createNote(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.badRequest(r.Context(), w, msgInvalidJSON)
		return
	}

	in := services.NoteInput{Content: req.Content, ImageURL: req.ImageURL}
	if req.Title != nil {
		in.Title = *req.Title
	}

	n, err := h.notes.Create(r.Context(), owner.ID, in)
	if err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Note created successfully", noteEnvelope{Note: toNoteJSON(n, owner)})
}

func (h *handler) getNote(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	id, ok := positiveID(r, "id")
	if !ok {
		h.rs.badRequest(r.Context(), w, msgInvalidID)
		return
	}

	n, err := h.notes.Get(r.Context(), owner.ID, id)
	if err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Note retrieved successfully", noteEnvelope{Note: toNoteJSON(n, owner)})
}

func (h *handler) updateNote(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	id, ok := positiveID(r, "id")
	if !ok {
		h.rs.badRequest(r.Context(), w, msgInvalidID)
		return
	}

	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.rs.badRequest(r.Context(), w, msgInvalidJSON)
		return
	}

	n, err := h.notes.Update(r.Context(), owner.ID, id, services.NotePatch{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Note updated successfully", noteEnvelope{Note: toNoteJSON(n, owner)})
}

func (h *handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	id, ok := positiveID(r, "id")
	if !ok {
		h.rs.badRequest(r.Context(), w, msgInvalidID)
		return
	}

	if err := h.notes.Delete(r.Context(), owner.ID, id); err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Note deleted successfully", nil)
}

// --- uploads ---

type fileJSON struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	FileKey  string `json:"file_key"`
	IsPublic bool   `json:"is_public"`
	URL      string `json:"url"`
}

type unrecordedFileJSON struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

func toFileJSON(res *services.UploadResult) fileJSON {
	return fileJSON{
		ID:       res.File.ID,
		FileName: res.FileName,
		FileKey:  res.FileKey,
		IsPublic: res.IsPublic,
		URL:      res.URL,
	}
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)

	if err := r.ParseMultipartForm(h.uploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rs.badRequest(r.Context(), w, "File too large")
			return
		}
		h.rs.badRequest(r.Context(), w, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		h.rs.badRequest(r.Context(), w, "No file provided")
		return
	}
	defer f.Close()

	public, _ := strconv.ParseBool(r.FormValue("isPublic"))

	res, err := h.uploads.Upload(r.Context(), owner.ID, services.UploadInput{
		Body:        f,
		Size:        hdr.Size,
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		IsPublic:    public,
	})
	if err != nil {
		h.recordUpload(public, err)
		h.rs.writeError(r.Context(), w, err)
		return
	}
	h.recordUpload(public, nil)

	if res.File == nil {
		writeSuccess(w, http.StatusOK, "File uploaded successfully",
			unrecordedFileJSON{FileName: res.FileName, URL: res.URL})
		return
	}
	writeSuccess(w, http.StatusCreated, "File uploaded successfully", toFileJSON(res))
}

func (h *handler) recordUpload(public bool, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = common.KindOf(err).String()
	}
	h.metrics.RecordUpload(public, outcome)
}

func (h *handler) fileURL(w http.ResponseWriter, r *http.Request) {
	owner := identity(r)
	id, ok := positiveID(r, "id")
	if !ok {
		h.rs.badRequest(r.Context(), w, msgInvalidFile)
		return
	}

	res, err := h.uploads.FileURL(r.Context(), owner.ID, id)
	if err != nil {
		h.rs.writeError(r.Context(), w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "File URL generated successfully", toFileJSON(res))
}
