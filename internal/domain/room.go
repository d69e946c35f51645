package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotMember    = errors.New("profile is not a member of this room")
)

// Room is a group chat room inside a community.
type Room struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	Name        string    `json:"name"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomMessage is a chat message sent by a profile into a room.
type RoomMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	ProfileID string    `json:"profile_id"`
	Handle    string    `json:"handle"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomRepository defines the interface for room data access
type RoomRepository interface {
	CreateWithMember(ctx context.Context, room *Room, profileID string) error
	GetByID(ctx context.Context, id string) (*Room, error)
	ListByCommunity(ctx context.Context, communityID string) ([]*Room, error)
	AddMember(ctx context.Context, roomID, profileID string) error
	IsMember(ctx context.Context, roomID, profileID string) (bool, error)
}

// RoomMessageRepository defines the interface for room message data access
type RoomMessageRepository interface {
	Create(ctx context.Context, message *RoomMessage) error
	GetByRoom(ctx context.Context, roomID string, limit int) ([]*RoomMessage, error)
}
