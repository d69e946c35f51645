package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"commung/internal/domain"
	"commung/internal/testutil"
)

func newChatService() (*ChatService, *testutil.MockRoomRepository, *testutil.MockRoomMessageRepository) {
	roomRepo := testutil.NewMockRoomRepository()
	messageRepo := testutil.NewMockRoomMessageRepository()
	return NewChatService(roomRepo, messageRepo), roomRepo, messageRepo
}

func TestChatService_CreateRoom_CreatorIsMember(t *testing.T) {
	svc, roomRepo, _ := newChatService()

	room, err := svc.CreateRoom(context.Background(), "community-1", "general", "profile-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if room.CommunityID != "community-1" || room.CreatedBy != "profile-1" {
		t.Errorf("Unexpected room: %+v", room)
	}

	isMember, _ := roomRepo.IsMember(context.Background(), room.ID, "profile-1")
	if !isMember {
		t.Error("Expected creator to be a member of the new room")
	}
}

func TestChatService_CreateRoom_InvalidName(t *testing.T) {
	svc, _, _ := newChatService()

	for _, name := range []string{"", strings.Repeat("x", 101)} {
		if _, err := svc.CreateRoom(context.Background(), "community-1", name, "profile-1"); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for name of length %d, got: %v", len(name), err)
		}
	}
}

func TestChatService_JoinRoom_CrossCommunityRejected(t *testing.T) {
	svc, _, _ := newChatService()
	ctx := context.Background()

	room, _ := svc.CreateRoom(ctx, "community-1", "general", "profile-1")

	// A profile from another community sees the room as nonexistent
	err := svc.JoinRoom(ctx, room.ID, "community-2", "profile-2")
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got: %v", err)
	}

	if err := svc.JoinRoom(ctx, room.ID, "community-1", "profile-2"); err != nil {
		t.Errorf("Expected same-community join to succeed, got: %v", err)
	}
}

func TestChatService_JoinRoom_UnknownRoom(t *testing.T) {
	svc, _, _ := newChatService()

	err := svc.JoinRoom(context.Background(), "missing", "community-1", "profile-1")
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got: %v", err)
	}
}

func TestChatService_SendMessage_RequiresMembership(t *testing.T) {
	svc, _, messageRepo := newChatService()
	ctx := context.Background()

	room, _ := svc.CreateRoom(ctx, "community-1", "general", "profile-1")

	msg := &domain.RoomMessage{
		RoomID:    room.ID,
		ProfileID: "profile-2",
		Handle:    "outsider",
		Content:   "hello",
	}
	if err := svc.SendMessage(ctx, msg); !errors.Is(err, domain.ErrNotMember) {
		t.Errorf("Expected ErrNotMember, got: %v", err)
	}
	if len(messageRepo.Messages) != 0 {
		t.Error("Expected no messages stored")
	}

	msg.ProfileID = "profile-1"
	if err := svc.SendMessage(ctx, msg); err != nil {
		t.Errorf("Expected member send to succeed, got: %v", err)
	}
	if len(messageRepo.Messages) != 1 {
		t.Errorf("Expected one stored message, got %d", len(messageRepo.Messages))
	}
}

func TestChatService_SendMessage_InvalidContent(t *testing.T) {
	svc, _, _ := newChatService()
	ctx := context.Background()

	room, _ := svc.CreateRoom(ctx, "community-1", "general", "profile-1")

	for _, content := range []string{"", strings.Repeat("x", 1001)} {
		msg := &domain.RoomMessage{
			RoomID:    room.ID,
			ProfileID: "profile-1",
			Content:   content,
		}
		if err := svc.SendMessage(ctx, msg); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %d-byte content, got: %v", len(content), err)
		}
	}
}

func TestChatService_GetMessages_LimitClamped(t *testing.T) {
	svc, _, messageRepo := newChatService()

	captured := 0
	messageRepo.GetByRoomFunc = func(ctx context.Context, roomID string, limit int) ([]*domain.RoomMessage, error) {
		captured = limit
		return nil, nil
	}

	for _, tc := range []struct{ in, want int }{{0, 50}, {-1, 50}, {500, 50}, {10, 10}} {
		svc.GetMessages(context.Background(), "room-1", tc.in)
		if captured != tc.want {
			t.Errorf("limit %d: expected clamp to %d, got %d", tc.in, tc.want, captured)
		}
	}
}

func TestChatService_ListRooms_ScopedToCommunity(t *testing.T) {
	svc, _, _ := newChatService()
	ctx := context.Background()

	svc.CreateRoom(ctx, "community-1", "general", "profile-1")
	svc.CreateRoom(ctx, "community-1", "random", "profile-1")
	svc.CreateRoom(ctx, "community-2", "general", "profile-9")

	rooms, err := svc.ListRooms(ctx, "community-1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("Expected 2 rooms, got %d", len(rooms))
	}
	for _, room := range rooms {
		if room.CommunityID != "community-1" {
			t.Errorf("Unexpected room from another community: %+v", room)
		}
	}

	// The same room name in another community stays a separate room.
	other, err := svc.ListRooms(ctx, "community-2")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(other) != 1 {
		t.Fatalf("Expected 1 room in community-2, got %d", len(other))
	}
	if other[0].Name != "general" {
		t.Errorf("Expected room general, got %s", other[0].Name)
	}
}
