package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pixelstudio/internal/dbx"
	"github.com/dmitrijs2005/pixelstudio/internal/server/repositories/images"
	"github.com/dmitrijs2005/pixelstudio/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/pixelstudio/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repositories on the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Images(db dbx.DBTX) images.Repository
}
