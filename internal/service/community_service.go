package service

import (
	"context"
	"regexp"
	"strings"

	"commung/internal/domain"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,28}[a-z0-9]$`)

// reservedSlugs are subdomains the platform itself uses; no community
// may claim them.
var reservedSlugs = map[string]bool{
	"www":     true,
	"console": true,
	"api":     true,
	"auth":    true,
	"admin":   true,
	"mail":    true,
	"static":  true,
}

// CommunityService manages communities and their domain mappings, and
// acts as the DomainResolver for the SSO flow.
type CommunityService struct {
	communityRepo domain.CommunityRepository
	mainDomain    string
}

func NewCommunityService(communityRepo domain.CommunityRepository, mainDomain string) *CommunityService {
	return &CommunityService{
		communityRepo: communityRepo,
		mainDomain:    strings.ToLower(mainDomain),
	}
}

func (s *CommunityService) Create(ctx context.Context, slug, name, ownerID string) (*domain.Community, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugRegex.MatchString(slug) || reservedSlugs[slug] {
		return nil, domain.ErrInvalidInput
	}
	if len(name) == 0 || len(name) > 100 {
		return nil, domain.ErrInvalidInput
	}

	community := &domain.Community{
		Slug:    slug,
		Name:    name,
		OwnerID: ownerID,
	}

	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}

	return community, nil
}

func (s *CommunityService) List(ctx context.Context) ([]*domain.Community, error) {
	return s.communityRepo.List(ctx)
}

func (s *CommunityService) GetBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	return s.communityRepo.GetBySlug(ctx, slug)
}

// AddDomain registers a custom hostname for a community. Only the
// owner may register domains, and platform subdomains are rejected.
func (s *CommunityService) AddDomain(ctx context.Context, slug, host, callerID string) (*domain.CommunityDomain, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || host == s.mainDomain || strings.HasSuffix(host, "."+s.mainDomain) {
		return nil, domain.ErrInvalidInput
	}

	community, err := s.communityRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if community.OwnerID != callerID {
		return nil, domain.ErrInvalidCredentials
	}

	d := &domain.CommunityDomain{
		CommunityID: community.ID,
		Domain:      host,
	}
	if err := s.communityRepo.AddDomain(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Resolve maps a hostname to its community. Subdomains of the main
// domain resolve by slug; anything else is looked up as a registered
// custom domain. The main domain itself is the console, never a
// community.
func (s *CommunityService) Resolve(ctx context.Context, host string) (*domain.Community, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || host == s.mainDomain {
		return nil, domain.ErrCommunityNotFound
	}

	if slug, ok := strings.CutSuffix(host, "."+s.mainDomain); ok {
		if strings.Contains(slug, ".") {
			return nil, domain.ErrCommunityNotFound
		}
		return s.communityRepo.GetBySlug(ctx, slug)
	}

	return s.communityRepo.GetByDomain(ctx, host)
}
