package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authwall/internal/common"
	"github.com/dmitrijs2005/authwall/internal/dbx"
	"github.com/dmitrijs2005/authwall/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code raised when the
// normalized_email unique constraint is broken.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (name, email, normalized_email, password_hash, salt, email_confirmation_secret)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.NormalizedEmail, user.PasswordHash, user.Salt,
		nullableString(user.EmailConfirmationSecret)).Scan(&user.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, email, normalized_email, password_hash, salt, email_confirmed, email_confirmation_secret
		 FROM users
		 WHERE id = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT id, name, email, normalized_email, password_hash, salt, email_confirmed, email_confirmation_secret
		 FROM users
		 WHERE id IN (%s)
		 `, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		var user models.User
		var secret sql.NullString
		err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.NormalizedEmail,
			&user.PasswordHash, &user.Salt, &user.EmailConfirmed, &secret)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		user.EmailConfirmationSecret = secret.String
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) FindByNormalizedEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, normalized_email, password_hash, salt, email_confirmed, email_confirmation_secret
		 FROM users
		 WHERE normalized_email = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) ConfirmEmail(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET email_confirmed = true, email_confirmation_secret = NULL
		 WHERE id = $1
		 `

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var secret sql.NullString

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.NormalizedEmail,
		&user.PasswordHash, &user.Salt, &user.EmailConfirmed, &secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.EmailConfirmationSecret = secret.String
	return user, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
