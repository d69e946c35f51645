package domain

import (
	"context"
	"time"
)

// ExchangeToken is a short-lived, single-use credential that carries an
// authenticated identity from the console domain to a community domain.
// TargetDomain is the only hostname the token may be redeemed against.
type ExchangeToken struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	UserID       string     `json:"user_id"`
	TargetDomain string     `json:"target_domain"`
	ExpiresAt    time.Time  `json:"expires_at"`
	ConsumedAt   *time.Time `json:"consumed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsConsumed reports whether the token has already been redeemed.
func (t *ExchangeToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// ExchangeTokenRepository defines the interface for exchange token data access.
//
// Consume must be a single conditional write: it marks the token consumed
// only if it is not already consumed, and reports whether this caller won.
// Concurrent redemptions of the same token must see exactly one winner.
type ExchangeTokenRepository interface {
	Create(ctx context.Context, token *ExchangeToken) error
	GetByToken(ctx context.Context, token string) (*ExchangeToken, error)
	Consume(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
