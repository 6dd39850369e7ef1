package tokens

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authwall/internal/dbx"
	"github.com/dmitrijs2005/authwall/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, token *models.Token) error {

	query :=
		`INSERT INTO tokens (id, user_id, fingerprint, user_agent, expires_at)
         VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Fingerprint, token.UserAgent, token.ExpiresAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) ([]models.Token, error) {
	query :=
		`SELECT id, user_id, fingerprint, user_agent, expires_at FROM tokens
		 WHERE user_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Token
	for rows.Next() {
		var token models.Token
		err := rows.Scan(&token.ID, &token.UserID, &token.Fingerprint, &token.UserAgent, &token.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query :=
		`SELECT count(*) FROM tokens
		 WHERE user_id = $1
		 `

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	query :=
		`DELETE FROM tokens
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) error {
	query :=
		`DELETE FROM tokens
		 WHERE user_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) DeleteByUserAndFingerprint(ctx context.Context, userID, fingerprint string) error {
	query :=
		`DELETE FROM tokens
		 WHERE user_id = $1 AND fingerprint = $2
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, fingerprint); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
