package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"commung/internal/domain"
)

// CommunityRepository implements domain.CommunityRepository for PostgreSQL
type CommunityRepository struct {
	db *sql.DB
}

// NewCommunityRepository creates a new PostgreSQL community repository
func NewCommunityRepository(db *sql.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// Create inserts a new community
func (r *CommunityRepository) Create(ctx context.Context, community *domain.Community) error {
	query := `
		INSERT INTO communities (slug, name, owner_id)
		VALUES (lower($1), $2, $3)
		RETURNING id, slug, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		community.Slug,
		community.Name,
		community.OwnerID,
	).Scan(&community.ID, &community.Slug, &community.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err, "communities_slug_key") {
			return domain.ErrSlugExists
		}
		return fmt.Errorf("failed to create community: %w", err)
	}

	return nil
}

// GetByID retrieves a community by ID
func (r *CommunityRepository) GetByID(ctx context.Context, id string) (*domain.Community, error) {
	query := `
		SELECT id, slug, name, owner_id, created_at
		FROM communities
		WHERE id = $1
	`
	return r.scanCommunity(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a community by its slug
func (r *CommunityRepository) GetBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	query := `
		SELECT id, slug, name, owner_id, created_at
		FROM communities
		WHERE slug = lower($1)
	`
	return r.scanCommunity(r.db.QueryRowContext(ctx, query, slug))
}

// List returns all communities, newest first
func (r *CommunityRepository) List(ctx context.Context) ([]*domain.Community, error) {
	query := `
		SELECT id, slug, name, owner_id, created_at
		FROM communities
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	communities := make([]*domain.Community, 0)
	for rows.Next() {
		c := &domain.Community{}
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan community: %w", err)
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// AddDomain registers a custom domain for a community
func (r *CommunityRepository) AddDomain(ctx context.Context, d *domain.CommunityDomain) error {
	query := `
		INSERT INTO community_domains (community_id, domain)
		VALUES ($1, lower($2))
		RETURNING id, domain, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		d.CommunityID,
		d.Domain,
	).Scan(&d.ID, &d.Domain, &d.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err, "community_domains_domain_key") {
			return domain.ErrDomainExists
		}
		if IsForeignKeyViolation(err) {
			return domain.ErrCommunityNotFound
		}
		return fmt.Errorf("failed to add community domain: %w", err)
	}

	return nil
}

// GetByDomain retrieves the community a custom hostname is registered to
func (r *CommunityRepository) GetByDomain(ctx context.Context, host string) (*domain.Community, error) {
	query := `
		SELECT c.id, c.slug, c.name, c.owner_id, c.created_at
		FROM communities c
		JOIN community_domains d ON d.community_id = c.id
		WHERE d.domain = lower($1)
	`
	return r.scanCommunity(r.db.QueryRowContext(ctx, query, host))
}

func (r *CommunityRepository) scanCommunity(row *sql.Row) (*domain.Community, error) {
	c := &domain.Community{}
	err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.OwnerID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCommunityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	return c, nil
}
