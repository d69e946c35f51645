package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"commung/internal/domain"
	"commung/internal/security"
)

// DomainResolver maps a hostname to the community registered for it.
// Returns domain.ErrCommunityNotFound for unknown hosts.
type DomainResolver interface {
	Resolve(ctx context.Context, host string) (*domain.Community, error)
}

// SSOService implements the cross-domain authentication hand-off: a
// console session is exchanged for a short-lived single-use token,
// which the target community domain redeems for its own scoped session.
type SSOService struct {
	sessionRepo  domain.SessionRepository
	exchangeRepo domain.ExchangeTokenRepository
	resolver     DomainResolver
	mainDomain   string
	sessionTTL   time.Duration
	exchangeTTL  time.Duration
}

// NewSSOService creates a new SSO service
func NewSSOService(
	sessionRepo domain.SessionRepository,
	exchangeRepo domain.ExchangeTokenRepository,
	resolver DomainResolver,
	mainDomain string,
	sessionTTL, exchangeTTL time.Duration,
) *SSOService {
	return &SSOService{
		sessionRepo:  sessionRepo,
		exchangeRepo: exchangeRepo,
		resolver:     resolver,
		mainDomain:   strings.ToLower(mainDomain),
		sessionTTL:   sessionTTL,
		exchangeTTL:  exchangeTTL,
	}
}

// LoginRedirectURL builds the console login URL that resumes the SSO
// flow at originalURL once the user has authenticated.
func (s *SSOService) LoginRedirectURL(originalURL string) string {
	q := url.Values{}
	q.Set("next", originalURL)
	return fmt.Sprintf("https://%s/login?%s", s.mainDomain, q.Encode())
}

// Initiate mints an exchange token for userID bound to the host of
// returnTo and returns the callback redirect URL on that host.
// Fails with ErrInvalidDomain when the host is not a registered
// community domain.
func (s *SSOService) Initiate(ctx context.Context, userID, returnTo string) (string, error) {
	target, err := url.Parse(returnTo)
	if err != nil || target.Hostname() == "" {
		return "", domain.ErrInvalidDomain
	}
	host := strings.ToLower(target.Hostname())

	if _, err := s.resolver.Resolve(ctx, host); err != nil {
		if errors.Is(err, domain.ErrCommunityNotFound) {
			return "", domain.ErrInvalidDomain
		}
		return "", err
	}

	token, err := security.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate exchange token: %w", err)
	}

	et := &domain.ExchangeToken{
		Token:        token,
		UserID:       userID,
		TargetDomain: host,
		ExpiresAt:    time.Now().Add(s.exchangeTTL),
	}
	if err := s.exchangeRepo.Create(ctx, et); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("token", token)
	q.Set("return_path", returnPath(target))

	return fmt.Sprintf("https://%s/auth/callback?%s", host, q.Encode()), nil
}

// Redeem exchanges a token for a new session scoped to the community
// that redeemHost resolves to. Failure modes, checked in order:
// unknown token, expired token, already-consumed token, wrong domain.
// A domain mismatch never consumes the token. The consume step is a
// conditional write, so of two concurrent redemptions exactly one wins;
// the loser surfaces ErrTokenAlreadyUsed.
func (s *SSOService) Redeem(ctx context.Context, token, redeemHost string) (*domain.Session, error) {
	et, err := s.exchangeRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	if time.Now().After(et.ExpiresAt) {
		return nil, domain.ErrTokenExpired
	}

	if et.IsConsumed() {
		return nil, domain.ErrTokenAlreadyUsed
	}

	host := strings.ToLower(strings.TrimSpace(redeemHost))
	if host != et.TargetDomain {
		return nil, domain.ErrDomainMismatch
	}

	community, err := s.resolver.Resolve(ctx, host)
	if err != nil {
		if errors.Is(err, domain.ErrCommunityNotFound) {
			return nil, domain.ErrInvalidDomain
		}
		return nil, err
	}

	won, err := s.exchangeRepo.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrTokenAlreadyUsed
	}

	sessionToken, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &domain.Session{
		UserID:      et.UserID,
		Token:       sessionToken,
		CommunityID: community.ID,
		ExpiresAt:   time.Now().Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// returnPath keeps only the path, query and fragment of the original
// return_to URL; the host was already consumed by domain resolution.
func returnPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		path += "#" + u.Fragment
	}
	return path
}
