package notes

import (
	"context"

	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
)

// Repository is the note store. Every method except Create is scoped by
// owner; a note that exists under another owner is reported as not found.
type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Note, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) (*models.Note, error)
	Delete(ctx context.Context, userID, id int64) error
}
