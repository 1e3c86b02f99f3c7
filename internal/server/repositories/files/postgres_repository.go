package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/dbx"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {

	query :=
		`INSERT INTO files (user_id, file_key, file_name, is_public)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.FileKey, file.FileName, file.IsPublic).Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// GetByID returns the file only when it belongs to userID.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id int64) (*models.File, error) {
	query :=
		`SELECT id, user_id, file_key, file_name, is_public, created_at FROM files
		 WHERE id = $1 AND user_id = $2
		 `

	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&file.ID, &file.UserID, &file.FileKey, &file.FileName, &file.IsPublic, &file.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}
