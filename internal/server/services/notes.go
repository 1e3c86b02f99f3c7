package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/server/config"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/repomanager"
)

const msgNoteNotFound = "Note not found"

// NoteInput is the payload for creating a note. A nil Content or ImageURL
// stores NULL; an empty ImageURL means "no image".
type NoteInput struct {
	Title    string
	Content  *string
	ImageURL *string
}

// NotePatch carries only the fields supplied by the client. Nil fields keep
// their stored value; an empty Content is stored as an empty string and an
// empty ImageURL clears the image.
type NotePatch struct {
	Title    *string
	Content  *string
	ImageURL *string
}

// NoteService implements owner-scoped note CRUD.
type NoteService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	storeTimeout time.Duration
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *NoteService {
	return &NoteService{
		db:           db,
		repomanager:  m,
		storeTimeout: cfg.StoreTimeout,
	}
}

func (s *NoteService) Create(ctx context.Context, ownerID int64, in NoteInput) (*models.Note, error) {
	title, titleErr := normalizeTitle(in.Title)
	imageURL, imageErr := normalizeImageURL(in.ImageURL)
	if fields := fieldErrors(titleErr, imageErr); len(fields) > 0 {
		return nil, common.ValidationError("", fields...)
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	note, err := s.repomanager.Notes(s.db).Create(ctx, &models.Note{
		UserID:   ownerID,
		Title:    title,
		Content:  in.Content,
		ImageURL: imageURL,
	})
	if err != nil {
		return nil, storeError(err, msgNoteNotFound)
	}
	return note, nil
}

// List returns the owner's notes, newest first.
func (s *NoteService) List(ctx context.Context, ownerID int64) ([]*models.Note, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	notes, err := s.repomanager.Notes(s.db).ListByUser(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, msgNoteNotFound)
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, ownerID, noteID int64) (*models.Note, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	note, err := s.repomanager.Notes(s.db).GetByID(ctx, ownerID, noteID)
	if err != nil {
		return nil, storeError(err, msgNoteNotFound)
	}
	return note, nil
}

// Update applies patch to the owner's note. The write is scoped by owner as
// well, so a note that changes hands between read and write is not touched.
func (s *NoteService) Update(ctx context.Context, ownerID, noteID int64, patch NotePatch) (*models.Note, error) {
	var fields []common.FieldError
	var title string
	if patch.Title != nil {
		t, fe := normalizeTitle(*patch.Title)
		fields = append(fields, fieldErrors(fe)...)
		title = t
	}
	imageURL, imageErr := normalizeImageURL(patch.ImageURL)
	fields = append(fields, fieldErrors(imageErr)...)
	if len(fields) > 0 {
		return nil, common.ValidationError("", fields...)
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	repo := s.repomanager.Notes(s.db)
	note, err := repo.GetByID(ctx, ownerID, noteID)
	if err != nil {
		return nil, storeError(err, msgNoteNotFound)
	}

	if patch.Title != nil {
		note.Title = title
	}
	if patch.Content != nil {
		content := *patch.Content
		note.Content = &content
	}
	if patch.ImageURL != nil {
		note.ImageURL = imageURL
	}

	note, err = repo.Update(ctx, note)
	if err != nil {
		return nil, storeError(err, msgNoteNotFound)
	}
	return note, nil
}

// Delete removes the owner's note. Deleting twice fails with KindNotFound.
func (s *NoteService) Delete(ctx context.Context, ownerID, noteID int64) error {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repomanager.Notes(s.db).Delete(ctx, ownerID, noteID); err != nil {
		return storeError(err, msgNoteNotFound)
	}
	return nil
}
