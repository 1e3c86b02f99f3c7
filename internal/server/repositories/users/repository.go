package users

import (
	"context"

	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
)

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUserNameOrEmail(ctx context.Context, userName, email string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
