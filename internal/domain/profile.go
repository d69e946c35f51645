package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrHandleExists    = errors.New("handle already taken in this community")
	ErrProfileExists   = errors.New("profile already exists in this community")
)

// Profile is a user's persona inside one community, distinct from the
// console account. A user has at most one profile per community.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CommunityID string    `json:"community_id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUserAndCommunity(ctx context.Context, userID, communityID string) (*Profile, error)
	GetByHandle(ctx context.Context, communityID, handle string) (*Profile, error)
	Update(ctx context.Context, profile *Profile) error
}
