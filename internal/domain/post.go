package domain

import (
	"context"
	"errors"
	"time"
)

var ErrPostNotFound = errors.New("post not found")

// Post is a community-scoped post authored by a profile.
type Post struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	ProfileID   string    `json:"profile_id"`
	Handle      string    `json:"handle"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// PostRepository defines the interface for post data access.
// ListBefore returns posts newest first, strictly older than the post
// identified by the cursor (empty cursor means the newest page).
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	ListBefore(ctx context.Context, communityID, before string, limit int) ([]*Post, error)
}
