// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the commung application.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"commung/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockNotFound       = errors.New("mock: not found")
)

// MockUserRepository implements domain.UserRepository for testing
type MockUserRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc        func(ctx context.Context, user *domain.User) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)

	// In-memory storage for simple tests
	Users map[string]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository with initialized maps
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if u.Username == user.Username {
			return domain.ErrUsernameExists
		}
		if u.Email == user.Email {
			return domain.ErrEmailExists
		}
	}

	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.Users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// MockSessionRepository implements domain.SessionRepository for testing
type MockSessionRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc        func(ctx context.Context, session *domain.Session) error
	GetByTokenFunc    func(ctx context.Context, token string) (*domain.Session, error)
	DeleteFunc        func(ctx context.Context, token string) error
	DeleteExpiredFunc func(ctx context.Context) (int64, error)

	// In-memory storage
	Sessions map[string]*domain.Session
}

// NewMockSessionRepository creates a new MockSessionRepository with initialized maps
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.ID == "" {
		session.ID = "session-" + session.Token
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.Sessions[session.Token] = session
	return nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.Sessions[token]; ok {
		if session.ExpiresAt.Before(time.Now()) {
			return nil, domain.ErrSessionExpired
		}
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Sessions[token]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.Sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	now := time.Now()
	for token, session := range m.Sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.Sessions, token)
			count++
		}
	}
	return count, nil
}

// MockExchangeTokenRepository implements domain.ExchangeTokenRepository
// for testing. Consume is guarded by the mutex so concurrent callers see
// exactly one winner, matching the conditional write in the real store.
type MockExchangeTokenRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc        func(ctx context.Context, token *domain.ExchangeToken) error
	GetByTokenFunc    func(ctx context.Context, token string) (*domain.ExchangeToken, error)
	ConsumeFunc       func(ctx context.Context, token string) (bool, error)
	DeleteExpiredFunc func(ctx context.Context) (int64, error)

	// In-memory storage
	Tokens map[string]*domain.ExchangeToken
}

// NewMockExchangeTokenRepository creates a new MockExchangeTokenRepository with initialized maps
func NewMockExchangeTokenRepository() *MockExchangeTokenRepository {
	return &MockExchangeTokenRepository{
		Tokens: make(map[string]*domain.ExchangeToken),
	}
}

func (m *MockExchangeTokenRepository) Create(ctx context.Context, token *domain.ExchangeToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if token.ID == "" {
		token.ID = "exchange-" + token.Token
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	m.Tokens[token.Token] = token
	return nil
}

func (m *MockExchangeTokenRepository) GetByToken(ctx context.Context, token string) (*domain.ExchangeToken, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if et, ok := m.Tokens[token]; ok {
		copied := *et
		return &copied, nil
	}
	return nil, domain.ErrInvalidToken
}

func (m *MockExchangeTokenRepository) Consume(ctx context.Context, token string) (bool, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	et, ok := m.Tokens[token]
	if !ok {
		return false, nil
	}
	if et.ConsumedAt != nil {
		return false, nil
	}
	now := time.Now()
	et.ConsumedAt = &now
	return true, nil
}

func (m *MockExchangeTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	now := time.Now()
	for key, et := range m.Tokens {
		if et.ExpiresAt.Before(now) {
			delete(m.Tokens, key)
			count++
		}
	}
	return count, nil
}

// MockCommunityRepository implements domain.CommunityRepository for testing
type MockCommunityRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc      func(ctx context.Context, community *domain.Community) error
	GetByIDFunc     func(ctx context.Context, id string) (*domain.Community, error)
	GetBySlugFunc   func(ctx context.Context, slug string) (*domain.Community, error)
	ListFunc        func(ctx context.Context) ([]*domain.Community, error)
	AddDomainFunc   func(ctx context.Context, d *domain.CommunityDomain) error
	GetByDomainFunc func(ctx context.Context, host string) (*domain.Community, error)

	// In-memory storage
	Communities map[string]*domain.Community
	Domains     map[string]string // hostname -> communityID
}

// NewMockCommunityRepository creates a new MockCommunityRepository with initialized maps
func NewMockCommunityRepository() *MockCommunityRepository {
	return &MockCommunityRepository{
		Communities: make(map[string]*domain.Community),
		Domains:     make(map[string]string),
	}
}

func (m *MockCommunityRepository) Create(ctx context.Context, community *domain.Community) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, community)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.Communities {
		if c.Slug == community.Slug {
			return domain.ErrSlugExists
		}
	}

	if community.ID == "" {
		community.ID = "community-" + community.Slug
	}
	if community.CreatedAt.IsZero() {
		community.CreatedAt = time.Now()
	}
	m.Communities[community.ID] = community
	return nil
}

func (m *MockCommunityRepository) GetByID(ctx context.Context, id string) (*domain.Community, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if community, ok := m.Communities[id]; ok {
		return community, nil
	}
	return nil, domain.ErrCommunityNotFound
}

func (m *MockCommunityRepository) GetBySlug(ctx context.Context, slug string) (*domain.Community, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(ctx, slug)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, community := range m.Communities {
		if community.Slug == slug {
			return community, nil
		}
	}
	return nil, domain.ErrCommunityNotFound
}

func (m *MockCommunityRepository) List(ctx context.Context) ([]*domain.Community, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Community, 0, len(m.Communities))
	for _, community := range m.Communities {
		result = append(result, community)
	}
	return result, nil
}

func (m *MockCommunityRepository) AddDomain(ctx context.Context, d *domain.CommunityDomain) error {
	if m.AddDomainFunc != nil {
		return m.AddDomainFunc(ctx, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Domains[d.Domain]; exists {
		return domain.ErrDomainExists
	}
	if d.ID == "" {
		d.ID = "domain-" + d.Domain
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	m.Domains[d.Domain] = d.CommunityID
	return nil
}

func (m *MockCommunityRepository) GetByDomain(ctx context.Context, host string) (*domain.Community, error) {
	if m.GetByDomainFunc != nil {
		return m.GetByDomainFunc(ctx, host)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if communityID, ok := m.Domains[host]; ok {
		if community, ok := m.Communities[communityID]; ok {
			return community, nil
		}
	}
	return nil, domain.ErrCommunityNotFound
}

// MockProfileRepository implements domain.ProfileRepository for testing
type MockProfileRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc                func(ctx context.Context, profile *domain.Profile) error
	GetByIDFunc               func(ctx context.Context, id string) (*domain.Profile, error)
	GetByUserAndCommunityFunc func(ctx context.Context, userID, communityID string) (*domain.Profile, error)
	GetByHandleFunc           func(ctx context.Context, communityID, handle string) (*domain.Profile, error)
	UpdateFunc                func(ctx context.Context, profile *domain.Profile) error

	// In-memory storage
	Profiles map[string]*domain.Profile
}

// NewMockProfileRepository creates a new MockProfileRepository with initialized maps
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{
		Profiles: make(map[string]*domain.Profile),
	}
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, profile)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.Profiles {
		if p.CommunityID != profile.CommunityID {
			continue
		}
		if p.UserID == profile.UserID {
			return domain.ErrProfileExists
		}
		if p.Handle == profile.Handle {
			return domain.ErrHandleExists
		}
	}

	if profile.ID == "" {
		profile.ID = "profile-" + profile.Handle
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	m.Profiles[profile.ID] = profile
	return nil
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if profile, ok := m.Profiles[id]; ok {
		return profile, nil
	}
	return nil, domain.ErrProfileNotFound
}

func (m *MockProfileRepository) GetByUserAndCommunity(ctx context.Context, userID, communityID string) (*domain.Profile, error) {
	if m.GetByUserAndCommunityFunc != nil {
		return m.GetByUserAndCommunityFunc(ctx, userID, communityID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, profile := range m.Profiles {
		if profile.UserID == userID && profile.CommunityID == communityID {
			return profile, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (m *MockProfileRepository) GetByHandle(ctx context.Context, communityID, handle string) (*domain.Profile, error) {
	if m.GetByHandleFunc != nil {
		return m.GetByHandleFunc(ctx, communityID, handle)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, profile := range m.Profiles {
		if profile.CommunityID == communityID && profile.Handle == handle {
			return profile, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (m *MockProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, profile)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Profiles[profile.ID]; !ok {
		return domain.ErrProfileNotFound
	}
	m.Profiles[profile.ID] = profile
	return nil
}

// MockPostRepository implements domain.PostRepository for testing
type MockPostRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc     func(ctx context.Context, post *domain.Post) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.Post, error)
	ListBeforeFunc func(ctx context.Context, communityID, before string, limit int) ([]*domain.Post, error)

	// In-memory storage, ordered oldest first
	Posts []*domain.Post
}

// NewMockPostRepository creates a new MockPostRepository with initialized slices
func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{
		Posts: make([]*domain.Post, 0),
	}
}

func (m *MockPostRepository) Create(ctx context.Context, post *domain.Post) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, post)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if post.ID == "" {
		post.ID = "post-" + time.Now().Format("20060102150405.000000")
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	m.Posts = append(m.Posts, post)
	return nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, post := range m.Posts {
		if post.ID == id {
			return post, nil
		}
	}
	return nil, domain.ErrPostNotFound
}

func (m *MockPostRepository) ListBefore(ctx context.Context, communityID, before string, limit int) ([]*domain.Post, error) {
	if m.ListBeforeFunc != nil {
		return m.ListBeforeFunc(ctx, communityID, before, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Post, 0)
	foundBefore := before == ""

	for i := len(m.Posts) - 1; i >= 0; i-- {
		post := m.Posts[i]
		if post.CommunityID != communityID {
			continue
		}
		if !foundBefore {
			if post.ID == before {
				foundBefore = true
			}
			continue
		}
		result = append(result, post)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// MockRoomRepository implements domain.RoomRepository for testing
type MockRoomRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateWithMemberFunc func(ctx context.Context, room *domain.Room, profileID string) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Room, error)
	ListByCommunityFunc  func(ctx context.Context, communityID string) ([]*domain.Room, error)
	AddMemberFunc        func(ctx context.Context, roomID, profileID string) error
	IsMemberFunc         func(ctx context.Context, roomID, profileID string) (bool, error)

	// In-memory storage
	Rooms   map[string]*domain.Room
	Members map[string]map[string]bool // roomID -> profileID -> isMember
}

// NewMockRoomRepository creates a new MockRoomRepository with initialized maps
func NewMockRoomRepository() *MockRoomRepository {
	return &MockRoomRepository{
		Rooms:   make(map[string]*domain.Room),
		Members: make(map[string]map[string]bool),
	}
}

func (m *MockRoomRepository) CreateWithMember(ctx context.Context, room *domain.Room, profileID string) error {
	if m.CreateWithMemberFunc != nil {
		return m.CreateWithMemberFunc(ctx, room, profileID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if room.ID == "" {
		// Room names are only unique within a community.
		room.ID = "room-" + room.CommunityID + "-" + room.Name
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now()
	}
	m.Rooms[room.ID] = room
	if m.Members[room.ID] == nil {
		m.Members[room.ID] = make(map[string]bool)
	}
	m.Members[room.ID][profileID] = true
	return nil
}

func (m *MockRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if room, ok := m.Rooms[id]; ok {
		return room, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (m *MockRoomRepository) ListByCommunity(ctx context.Context, communityID string) ([]*domain.Room, error) {
	if m.ListByCommunityFunc != nil {
		return m.ListByCommunityFunc(ctx, communityID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.Room, 0)
	for _, room := range m.Rooms {
		if room.CommunityID == communityID {
			result = append(result, room)
		}
	}
	return result, nil
}

func (m *MockRoomRepository) AddMember(ctx context.Context, roomID, profileID string) error {
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(ctx, roomID, profileID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Members[roomID] == nil {
		m.Members[roomID] = make(map[string]bool)
	}
	m.Members[roomID][profileID] = true
	return nil
}

func (m *MockRoomRepository) IsMember(ctx context.Context, roomID, profileID string) (bool, error) {
	if m.IsMemberFunc != nil {
		return m.IsMemberFunc(ctx, roomID, profileID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if members, ok := m.Members[roomID]; ok {
		return members[profileID], nil
	}
	return false, nil
}

// MockRoomMessageRepository implements domain.RoomMessageRepository for testing
type MockRoomMessageRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc    func(ctx context.Context, message *domain.RoomMessage) error
	GetByRoomFunc func(ctx context.Context, roomID string, limit int) ([]*domain.RoomMessage, error)

	// In-memory storage
	Messages []*domain.RoomMessage
}

// NewMockRoomMessageRepository creates a new MockRoomMessageRepository with initialized slices
func NewMockRoomMessageRepository() *MockRoomMessageRepository {
	return &MockRoomMessageRepository{
		Messages: make([]*domain.RoomMessage, 0),
	}
}

func (m *MockRoomMessageRepository) Create(ctx context.Context, message *domain.RoomMessage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if message.ID == "" {
		message.ID = "msg-" + time.Now().Format("20060102150405.000000")
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	m.Messages = append(m.Messages, message)
	return nil
}

func (m *MockRoomMessageRepository) GetByRoom(ctx context.Context, roomID string, limit int) ([]*domain.RoomMessage, error) {
	if m.GetByRoomFunc != nil {
		return m.GetByRoomFunc(ctx, roomID, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*domain.RoomMessage, 0)
	for _, msg := range m.Messages {
		if msg.RoomID == roomID {
			result = append(result, msg)
		}
	}

	// Return last 'limit' messages (most recent)
	if len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result, nil
}

// MockMessagePublisher implements websocket.MessagePublisher for testing
type MockMessagePublisher struct {
	mu sync.RWMutex

	// Function overrides
	PublishRoomMessageFunc func(ctx context.Context, msg *domain.RoomMessage) error

	// Call tracking
	Published []*domain.RoomMessage
}

// NewMockMessagePublisher creates a new MockMessagePublisher
func NewMockMessagePublisher() *MockMessagePublisher {
	return &MockMessagePublisher{
		Published: make([]*domain.RoomMessage, 0),
	}
}

func (m *MockMessagePublisher) PublishRoomMessage(ctx context.Context, msg *domain.RoomMessage) error {
	if m.PublishRoomMessageFunc != nil {
		return m.PublishRoomMessageFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Published = append(m.Published, msg)
	return nil
}

// GetPublished returns all relayed messages recorded so far
func (m *MockMessagePublisher) GetPublished() []*domain.RoomMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.RoomMessage{}, m.Published...)
}
