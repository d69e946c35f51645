package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCommunityNotFound = errors.New("community not found")
	ErrSlugExists        = errors.New("community slug already exists")
	ErrDomainExists      = errors.New("domain already registered")
)

// Community is a tenant instance of the platform. It is reachable at
// {slug}.{main domain} and at any registered custom domains.
type Community struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommunityDomain maps a custom hostname to a community.
type CommunityDomain struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	Domain      string    `json:"domain"`
	CreatedAt   time.Time `json:"created_at"`
}

// CommunityRepository defines the interface for community data access
type CommunityRepository interface {
	Create(ctx context.Context, community *Community) error
	GetByID(ctx context.Context, id string) (*Community, error)
	GetBySlug(ctx context.Context, slug string) (*Community, error)
	List(ctx context.Context) ([]*Community, error)
	AddDomain(ctx context.Context, d *CommunityDomain) error
	GetByDomain(ctx context.Context, domain string) (*Community, error)
}
