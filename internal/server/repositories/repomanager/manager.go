package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cloudnotes/internal/dbx"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/files"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/notes"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Notes(db dbx.DBTX) notes.Repository
	Files(db dbx.DBTX) files.Repository
}
