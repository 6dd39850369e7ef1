// Package repomanager aggregates the per-entity repositories behind a
// single factory so services can bind them to either a *sql.DB or an
// in-flight transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authwall/internal/dbx"
	"github.com/dmitrijs2005/authwall/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/authwall/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
}
