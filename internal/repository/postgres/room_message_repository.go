package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"commung/internal/domain"
)

// RoomMessageRepository implements domain.RoomMessageRepository for PostgreSQL
type RoomMessageRepository struct {
	db *sql.DB
}

// NewRoomMessageRepository creates a new PostgreSQL room message repository
func NewRoomMessageRepository(db *sql.DB) *RoomMessageRepository {
	return &RoomMessageRepository{db: db}
}

// Create inserts a new room message
func (r *RoomMessageRepository) Create(ctx context.Context, message *domain.RoomMessage) error {
	query := `
		INSERT INTO room_messages (room_id, profile_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		message.RoomID,
		message.ProfileID,
		message.Content,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create room message: %w", err)
	}
	return nil
}

// GetByRoom retrieves the most recent messages in a room, newest first
func (r *RoomMessageRepository) GetByRoom(ctx context.Context, roomID string, limit int) ([]*domain.RoomMessage, error) {
	query := `
		SELECT m.id, m.room_id, m.profile_id, p.handle, m.content, m.created_at
		FROM room_messages m
		JOIN profiles p ON m.profile_id = p.id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query room messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*domain.RoomMessage, 0, limit)
	for rows.Next() {
		msg := &domain.RoomMessage{}
		if err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.ProfileID,
			&msg.Handle,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan room message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
