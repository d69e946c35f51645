package service

import (
	"context"

	"commung/internal/domain"
)

// ChatService manages group chat rooms and their messages.
type ChatService struct {
	roomRepo    domain.RoomRepository
	messageRepo domain.RoomMessageRepository
}

func NewChatService(roomRepo domain.RoomRepository, messageRepo domain.RoomMessageRepository) *ChatService {
	return &ChatService{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
	}
}

func (s *ChatService) CreateRoom(ctx context.Context, communityID, name, creatorProfileID string) (*domain.Room, error) {
	if len(name) == 0 || len(name) > 100 {
		return nil, domain.ErrInvalidInput
	}

	room := &domain.Room{
		CommunityID: communityID,
		Name:        name,
		CreatedBy:   creatorProfileID,
	}

	if err := s.roomRepo.CreateWithMember(ctx, room, creatorProfileID); err != nil {
		return nil, err
	}

	return room, nil
}

func (s *ChatService) ListRooms(ctx context.Context, communityID string) ([]*domain.Room, error) {
	return s.roomRepo.ListByCommunity(ctx, communityID)
}

// JoinRoom adds a profile to a room in its own community. Rooms are not
// joinable across communities.
func (s *ChatService) JoinRoom(ctx context.Context, roomID, communityID, profileID string) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CommunityID != communityID {
		return domain.ErrRoomNotFound
	}

	return s.roomRepo.AddMember(ctx, roomID, profileID)
}

func (s *ChatService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return s.roomRepo.GetByID(ctx, roomID)
}

func (s *ChatService) IsMember(ctx context.Context, roomID, profileID string) (bool, error) {
	return s.roomRepo.IsMember(ctx, roomID, profileID)
}

// SendMessage persists a message after verifying the sender belongs to
// the room.
func (s *ChatService) SendMessage(ctx context.Context, msg *domain.RoomMessage) error {
	isMember, err := s.roomRepo.IsMember(ctx, msg.RoomID, msg.ProfileID)
	if err != nil {
		return err
	}
	if !isMember {
		return domain.ErrNotMember
	}

	if len(msg.Content) == 0 || len(msg.Content) > 1000 {
		return domain.ErrInvalidInput
	}

	return s.messageRepo.Create(ctx, msg)
}

func (s *ChatService) GetMessages(ctx context.Context, roomID string, limit int) ([]*domain.RoomMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.messageRepo.GetByRoom(ctx, roomID, limit)
}
