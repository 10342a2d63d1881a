package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/chainkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/chainkeeper/internal/client/repositories/disclosures"
	"github.com/dmitrijs2005/chainkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/chainkeeper/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	Metadata    metadata.Repository
	Disclosures disclosures.Repository
}

// NewRepositories binds every local repository to db, which may be a
// transaction.
func NewRepositories(db dbx.DBTX) *Repositories {
	return &Repositories{
		Metadata:    metadata.NewSQLiteRepository(db),
		Disclosures: disclosures.NewSQLiteRepository(db),
	}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at dsn and brings its schema up to date.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
