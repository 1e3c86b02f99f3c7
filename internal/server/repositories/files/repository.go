package files

import (
	"context"

	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
)

// Repository stores metadata for uploaded objects.
type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, userID, id int64) (*models.File, error)
}
