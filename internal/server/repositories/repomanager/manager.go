package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/items"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/todolists"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/users"
)

// RepositoryManager hands out stores bound to either the pool or a
// transaction, so services can compose several stores inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Todolists(db dbx.DBTX) todolists.Repository
	Items(db dbx.DBTX) items.Repository
}
