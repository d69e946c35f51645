package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"commung/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewTestUser creates a test user with sensible defaults
// Pass options to override specific fields
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	o := &UserOptions{
		ID:           nextID("user"),
		Username:     fmt.Sprintf("testuser%d", idCounter.Load()),
		PasswordHash: "$2a$10$test.hash.for.testing.purposes.only", // bcrypt hash placeholder
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = o.Username + "@example.com"
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return &domain.User{
		ID:           o.ID,
		Username:     o.Username,
		Email:        o.Email,
		PasswordHash: o.PasswordHash,
		CreatedAt:    o.CreatedAt,
	}
}

// WithUserID sets the user ID
func WithUserID(id string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.ID = id
	}
}

// WithUsername sets the username
func WithUsername(username string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Username = username
	}
}

// WithEmail sets the email
func WithEmail(email string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Email = email
	}
}

// WithPasswordHash sets the password hash
func WithPasswordHash(hash string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.PasswordHash = hash
	}
}

// SessionOptions allows customizing session fixture creation
type SessionOptions struct {
	ID          string
	UserID      string
	Token       string
	CommunityID string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// NewTestSession creates a console-scoped test session with sensible
// defaults. Use WithSessionCommunityID to make it community-scoped.
func NewTestSession(opts ...func(*SessionOptions)) *domain.Session {
	o := &SessionOptions{
		ID:        nextID("session"),
		UserID:    nextID("user"),
		Token:     nextID("token"),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Session{
		ID:          o.ID,
		UserID:      o.UserID,
		Token:       o.Token,
		CommunityID: o.CommunityID,
		ExpiresAt:   o.ExpiresAt,
		CreatedAt:   o.CreatedAt,
	}
}

// WithSessionUserID sets the user ID for the session
func WithSessionUserID(userID string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.UserID = userID
	}
}

// WithToken sets the session token
func WithToken(token string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.Token = token
	}
}

// WithSessionCommunityID scopes the session to a community
func WithSessionCommunityID(communityID string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.CommunityID = communityID
	}
}

// WithExpiresAt sets the session expiration time
func WithExpiresAt(t time.Time) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = t
	}
}

// WithExpired creates an expired session
func WithExpired() func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = time.Now().Add(-1 * time.Hour)
	}
}

// ExchangeTokenOptions allows customizing exchange token fixture creation
type ExchangeTokenOptions struct {
	ID           string
	Token        string
	UserID       string
	TargetDomain string
	ExpiresAt    time.Time
	ConsumedAt   *time.Time
	CreatedAt    time.Time
}

// NewTestExchangeToken creates a test exchange token with sensible defaults
func NewTestExchangeToken(opts ...func(*ExchangeTokenOptions)) *domain.ExchangeToken {
	o := &ExchangeTokenOptions{
		ID:           nextID("exchange"),
		Token:        nextID("exchange-token"),
		UserID:       nextID("user"),
		TargetDomain: "books.commu.ng",
		ExpiresAt:    time.Now().Add(5 * time.Minute),
		CreatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.ExchangeToken{
		ID:           o.ID,
		Token:        o.Token,
		UserID:       o.UserID,
		TargetDomain: o.TargetDomain,
		ExpiresAt:    o.ExpiresAt,
		ConsumedAt:   o.ConsumedAt,
		CreatedAt:    o.CreatedAt,
	}
}

// WithExchangeToken sets the token value
func WithExchangeToken(token string) func(*ExchangeTokenOptions) {
	return func(o *ExchangeTokenOptions) {
		o.Token = token
	}
}

// WithExchangeUserID sets the user the token authenticates
func WithExchangeUserID(userID string) func(*ExchangeTokenOptions) {
	return func(o *ExchangeTokenOptions) {
		o.UserID = userID
	}
}

// WithTargetDomain sets the only hostname the token may be redeemed on
func WithTargetDomain(host string) func(*ExchangeTokenOptions) {
	return func(o *ExchangeTokenOptions) {
		o.TargetDomain = host
	}
}

// WithExchangeExpired creates an expired exchange token
func WithExchangeExpired() func(*ExchangeTokenOptions) {
	return func(o *ExchangeTokenOptions) {
		o.ExpiresAt = time.Now().Add(-1 * time.Minute)
	}
}

// WithConsumed marks the token as already redeemed
func WithConsumed() func(*ExchangeTokenOptions) {
	return func(o *ExchangeTokenOptions) {
		t := time.Now().Add(-30 * time.Second)
		o.ConsumedAt = &t
	}
}

// CommunityOptions allows customizing community fixture creation
type CommunityOptions struct {
	ID        string
	Slug      string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// NewTestCommunity creates a test community with sensible defaults
func NewTestCommunity(opts ...func(*CommunityOptions)) *domain.Community {
	o := &CommunityOptions{
		ID:        nextID("community"),
		Slug:      fmt.Sprintf("community%d", idCounter.Load()),
		Name:      fmt.Sprintf("Test Community %d", idCounter.Load()),
		OwnerID:   nextID("user"),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Community{
		ID:        o.ID,
		Slug:      o.Slug,
		Name:      o.Name,
		OwnerID:   o.OwnerID,
		CreatedAt: o.CreatedAt,
	}
}

// WithCommunityID sets the community ID
func WithCommunityID(id string) func(*CommunityOptions) {
	return func(o *CommunityOptions) {
		o.ID = id
	}
}

// WithSlug sets the community slug
func WithSlug(slug string) func(*CommunityOptions) {
	return func(o *CommunityOptions) {
		o.Slug = slug
	}
}

// WithOwnerID sets the community owner
func WithOwnerID(userID string) func(*CommunityOptions) {
	return func(o *CommunityOptions) {
		o.OwnerID = userID
	}
}

// ProfileOptions allows customizing profile fixture creation
type ProfileOptions struct {
	ID          string
	UserID      string
	CommunityID string
	Handle      string
	DisplayName string
	Bio         string
	CreatedAt   time.Time
}

// NewTestProfile creates a test profile with sensible defaults
func NewTestProfile(opts ...func(*ProfileOptions)) *domain.Profile {
	o := &ProfileOptions{
		ID:          nextID("profile"),
		UserID:      nextID("user"),
		CommunityID: nextID("community"),
		Handle:      fmt.Sprintf("handle%d", idCounter.Load()),
		DisplayName: fmt.Sprintf("Test Profile %d", idCounter.Load()),
		CreatedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Profile{
		ID:          o.ID,
		UserID:      o.UserID,
		CommunityID: o.CommunityID,
		Handle:      o.Handle,
		DisplayName: o.DisplayName,
		Bio:         o.Bio,
		CreatedAt:   o.CreatedAt,
	}
}

// WithProfileUserID sets the owning user
func WithProfileUserID(userID string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.UserID = userID
	}
}

// WithProfileCommunityID sets the community the profile lives in
func WithProfileCommunityID(communityID string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.CommunityID = communityID
	}
}

// WithHandle sets the profile handle
func WithHandle(handle string) func(*ProfileOptions) {
	return func(o *ProfileOptions) {
		o.Handle = handle
	}
}

// PostOptions allows customizing post fixture creation
type PostOptions struct {
	ID          string
	CommunityID string
	ProfileID   string
	Handle      string
	Content     string
	CreatedAt   time.Time
}

// NewTestPost creates a test post with sensible defaults
func NewTestPost(opts ...func(*PostOptions)) *domain.Post {
	o := &PostOptions{
		ID:          nextID("post"),
		CommunityID: nextID("community"),
		ProfileID:   nextID("profile"),
		Handle:      fmt.Sprintf("handle%d", idCounter.Load()),
		Content:     "Hello, World!",
		CreatedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Post{
		ID:          o.ID,
		CommunityID: o.CommunityID,
		ProfileID:   o.ProfileID,
		Handle:      o.Handle,
		Content:     o.Content,
		CreatedAt:   o.CreatedAt,
	}
}

// WithPostCommunityID sets the community the post belongs to
func WithPostCommunityID(communityID string) func(*PostOptions) {
	return func(o *PostOptions) {
		o.CommunityID = communityID
	}
}

// WithPostProfileID sets the authoring profile
func WithPostProfileID(profileID string) func(*PostOptions) {
	return func(o *PostOptions) {
		o.ProfileID = profileID
	}
}

// WithPostContent sets the post content
func WithPostContent(content string) func(*PostOptions) {
	return func(o *PostOptions) {
		o.Content = content
	}
}

// WithPostCreatedAt sets the post creation time
func WithPostCreatedAt(t time.Time) func(*PostOptions) {
	return func(o *PostOptions) {
		o.CreatedAt = t
	}
}

// RoomOptions allows customizing room fixture creation
type RoomOptions struct {
	ID          string
	CommunityID string
	Name        string
	CreatedBy   string
	CreatedAt   time.Time
}

// NewTestRoom creates a test room with sensible defaults
func NewTestRoom(opts ...func(*RoomOptions)) *domain.Room {
	o := &RoomOptions{
		ID:          nextID("room"),
		CommunityID: nextID("community"),
		Name:        fmt.Sprintf("Test Room %d", idCounter.Load()),
		CreatedBy:   nextID("profile"),
		CreatedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Room{
		ID:          o.ID,
		CommunityID: o.CommunityID,
		Name:        o.Name,
		CreatedBy:   o.CreatedBy,
		CreatedAt:   o.CreatedAt,
	}
}

// WithRoomID sets the room ID
func WithRoomID(id string) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.ID = id
	}
}

// WithRoomCommunityID sets the community the room belongs to
func WithRoomCommunityID(communityID string) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.CommunityID = communityID
	}
}

// WithRoomCreatedBy sets the creating profile
func WithRoomCreatedBy(profileID string) func(*RoomOptions) {
	return func(o *RoomOptions) {
		o.CreatedBy = profileID
	}
}

// Batch creation helpers

// NewTestPosts creates multiple test posts in the same community,
// oldest first with one-second spacing
func NewTestPosts(communityID string, count int) []*domain.Post {
	posts := make([]*domain.Post, count)
	base := time.Now().Add(-time.Duration(count) * time.Second)
	for i := 0; i < count; i++ {
		posts[i] = NewTestPost(
			WithPostCommunityID(communityID),
			WithPostCreatedAt(base.Add(time.Duration(i)*time.Second)),
		)
	}
	return posts
}

// ResetIDCounter resets the ID counter (useful for deterministic tests)
func ResetIDCounter() {
	idCounter.Store(0)
}
