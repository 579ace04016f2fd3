package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/messenger/internal/dbx"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/messages"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/messengers"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/readrecords"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/users"
)

// RepositoryManager vends repository instances bound to a DBTX, so services
// can run the same repository code against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Messengers(db dbx.DBTX) messengers.Repository
	Messages(db dbx.DBTX) messages.Repository
	ReadRecords(db dbx.DBTX) readrecords.Repository
}
