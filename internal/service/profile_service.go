package service

import (
	"context"
	"regexp"
	"strings"

	"commung/internal/domain"
)

var handleRegex = regexp.MustCompile(`^[a-z0-9_]{2,30}$`)

// ProfileService manages per-community personas.
type ProfileService struct {
	profileRepo domain.ProfileRepository
}

func NewProfileService(profileRepo domain.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

func (s *ProfileService) Create(ctx context.Context, userID, communityID, handle, displayName, bio string) (*domain.Profile, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	if !handleRegex.MatchString(handle) {
		return nil, domain.ErrInvalidInput
	}
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, domain.ErrInvalidInput
	}
	if len(bio) > 500 {
		return nil, domain.ErrInvalidInput
	}

	profile := &domain.Profile{
		UserID:      userID,
		CommunityID: communityID,
		Handle:      handle,
		DisplayName: displayName,
		Bio:         bio,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// GetOwn returns the caller's profile in the given community.
func (s *ProfileService) GetOwn(ctx context.Context, userID, communityID string) (*domain.Profile, error) {
	return s.profileRepo.GetByUserAndCommunity(ctx, userID, communityID)
}

func (s *ProfileService) GetByHandle(ctx context.Context, communityID, handle string) (*domain.Profile, error) {
	return s.profileRepo.GetByHandle(ctx, communityID, strings.ToLower(handle))
}

// Update changes the caller's display name and bio. The handle is
// permanent once chosen.
func (s *ProfileService) Update(ctx context.Context, userID, communityID, displayName, bio string) (*domain.Profile, error) {
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, domain.ErrInvalidInput
	}
	if len(bio) > 500 {
		return nil, domain.ErrInvalidInput
	}

	profile, err := s.profileRepo.GetByUserAndCommunity(ctx, userID, communityID)
	if err != nil {
		return nil, err
	}

	profile.DisplayName = displayName
	profile.Bio = bio

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}
