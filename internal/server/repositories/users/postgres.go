package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chainkeeper/internal/common"
	"github.com/dmitrijs2005/chainkeeper/internal/dbx"
	"github.com/dmitrijs2005/chainkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, credential)
         VALUES ($1, $2)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.UserName, user.Credential).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, credential, created_at, updated_at FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userName).
		Scan(&user.ID, &user.UserName, &user.Credential, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, userName string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

// SwapCredential is a single conditional UPDATE; a miss is disambiguated
// afterwards with Exists.
func (r *PostgresRepository) SwapCredential(ctx context.Context, userName, expected, replacement string) error {
	query :=
		`UPDATE users SET credential = $1, updated_at = now()
		 WHERE username = $2 AND credential = $3
		 `

	res, err := r.db.ExecContext(ctx, query, replacement, userName, expected)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	err = dbx.ExpectOneRow(res, common.ErrVersionConflict)
	if !errors.Is(err, common.ErrVersionConflict) {
		return err
	}

	exists, err := r.Exists(ctx, userName)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrorNotFound
	}
	return common.ErrVersionConflict
}
