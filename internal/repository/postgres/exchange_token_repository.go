package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"commung/internal/domain"
)

// ExchangeTokenRepository implements domain.ExchangeTokenRepository for
// PostgreSQL. Consumption is a single conditional UPDATE so that two
// concurrent redemptions of the same token can never both succeed,
// even across server processes.
type ExchangeTokenRepository struct {
	db                *sql.DB
	createStmt        *sql.Stmt
	getByTokenStmt    *sql.Stmt
	consumeStmt       *sql.Stmt
	deleteExpiredStmt *sql.Stmt
}

// NewExchangeTokenRepository creates a new ExchangeTokenRepository with
// prepared statements. Returns an error if statement preparation fails.
func NewExchangeTokenRepository(db *sql.DB) (*ExchangeTokenRepository, error) {
	repo := &ExchangeTokenRepository{db: db}

	var err error
	repo.createStmt, err = db.Prepare(`
		INSERT INTO exchange_tokens (token, user_id, target_domain, expires_at)
		VALUES ($1, $2, lower($3), $4)
		RETURNING id, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare create statement: %w", err)
	}

	repo.getByTokenStmt, err = db.Prepare(`
		SELECT id, token, user_id, target_domain, expires_at, consumed_at, created_at
		FROM exchange_tokens
		WHERE token = $1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare getByToken statement: %w", err)
	}

	repo.consumeStmt, err = db.Prepare(`
		UPDATE exchange_tokens
		SET consumed_at = $2
		WHERE token = $1 AND consumed_at IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare consume statement: %w", err)
	}

	repo.deleteExpiredStmt, err = db.Prepare(`DELETE FROM exchange_tokens WHERE expires_at <= $1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deleteExpired statement: %w", err)
	}

	return repo, nil
}

// Create persists an exchange token. The target domain is normalized to
// lowercase so redemption matching is case-insensitive.
func (r *ExchangeTokenRepository) Create(ctx context.Context, token *domain.ExchangeToken) error {
	err := r.createStmt.QueryRowContext(ctx,
		token.Token,
		token.UserID,
		token.TargetDomain,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create exchange token: %w", err)
	}
	return nil
}

// GetByToken retrieves an exchange token regardless of its consumption
// or expiry state; callers decide which failure to surface.
func (r *ExchangeTokenRepository) GetByToken(ctx context.Context, token string) (*domain.ExchangeToken, error) {
	et := &domain.ExchangeToken{}
	var consumedAt sql.NullTime

	err := r.getByTokenStmt.QueryRowContext(ctx, token).Scan(
		&et.ID,
		&et.Token,
		&et.UserID,
		&et.TargetDomain,
		&et.ExpiresAt,
		&consumedAt,
		&et.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange token: %w", err)
	}

	if consumedAt.Valid {
		t := consumedAt.Time
		et.ConsumedAt = &t
	}
	return et, nil
}

// Consume marks the token consumed if and only if it has not been
// consumed yet. Returns true when this caller won the conditional
// write; a false return with nil error means another redemption got
// there first (or the token never existed).
func (r *ExchangeTokenRepository) Consume(ctx context.Context, token string) (bool, error) {
	result, err := r.consumeStmt.ExecContext(ctx, token, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to consume exchange token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected == 1, nil
}

// DeleteExpired garbage-collects expired exchange tokens.
func (r *ExchangeTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.deleteExpiredStmt.ExecContext(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired exchange tokens: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}
