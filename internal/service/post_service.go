package service

import (
	"context"

	"commung/internal/domain"
)

// PostService manages community posts.
type PostService struct {
	postRepo    domain.PostRepository
	profileRepo domain.ProfileRepository
}

func NewPostService(postRepo domain.PostRepository, profileRepo domain.ProfileRepository) *PostService {
	return &PostService{
		postRepo:    postRepo,
		profileRepo: profileRepo,
	}
}

// Create posts as the caller's profile in the community. Users without
// a profile in the community cannot post.
func (s *PostService) Create(ctx context.Context, userID, communityID, content string) (*domain.Post, error) {
	if len(content) == 0 || len(content) > 5000 {
		return nil, domain.ErrInvalidInput
	}

	profile, err := s.profileRepo.GetByUserAndCommunity(ctx, userID, communityID)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		CommunityID: communityID,
		ProfileID:   profile.ID,
		Handle:      profile.Handle,
		Content:     content,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// List returns a page of posts, newest first. before is a post id
// cursor; an empty cursor returns the newest page.
func (s *PostService) List(ctx context.Context, communityID, before string, limit int) ([]*domain.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.postRepo.ListBefore(ctx, communityID, before, limit)
}
