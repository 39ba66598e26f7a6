package repomanager

import (
	"context"

	"github.com/dmitrijs2005/lingoplay/internal/dbx"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/games"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/users"
	"github.com/dmitrijs2005/lingoplay/internal/server/repositories/videos"
)

// RepositoryManager vends repositories bound to either the shared connection
// (Conn) or the handle passed into a WithTx callback.
type RepositoryManager interface {
	dbx.Transactor

	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Conn() dbx.DBTX

	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Videos(db dbx.DBTX) videos.Repository
	Games(db dbx.DBTX) games.Repository
}
