package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"commung/internal/domain"
)

// RoomRepository implements domain.RoomRepository for PostgreSQL
type RoomRepository struct {
	db *sql.DB
	tx *TxManager
}

// NewRoomRepository creates a new PostgreSQL room repository
func NewRoomRepository(db *sql.DB) *RoomRepository {
	return &RoomRepository{db: db, tx: NewTxManager(db)}
}

// CreateWithMember creates a room and adds the creator as its first
// member in one transaction.
func (r *RoomRepository) CreateWithMember(ctx context.Context, room *domain.Room, profileID string) error {
	return r.tx.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO rooms (community_id, name, created_by)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, room.CommunityID, room.Name, room.CreatedBy).Scan(&room.ID, &room.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create room: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO room_members (room_id, profile_id)
			VALUES ($1, $2)
		`, room.ID, profileID); err != nil {
			return fmt.Errorf("failed to add room creator: %w", err)
		}

		return nil
	})
}

// GetByID retrieves a room by ID
func (r *RoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	query := `
		SELECT id, community_id, name, created_by, created_at
		FROM rooms
		WHERE id = $1
	`
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.CommunityID,
		&room.Name,
		&room.CreatedBy,
		&room.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// ListByCommunity returns all rooms in a community
func (r *RoomRepository) ListByCommunity(ctx context.Context, communityID string) ([]*domain.Room, error) {
	query := `
		SELECT id, community_id, name, created_by, created_at
		FROM rooms
		WHERE community_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*domain.Room, 0)
	for rows.Next() {
		room := &domain.Room{}
		if err := rows.Scan(&room.ID, &room.CommunityID, &room.Name, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// AddMember adds a profile to a room. Joining twice is not an error.
func (r *RoomRepository) AddMember(ctx context.Context, roomID, profileID string) error {
	query := `
		INSERT INTO room_members (room_id, profile_id)
		VALUES ($1, $2)
		ON CONFLICT (room_id, profile_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, roomID, profileID); err != nil {
		if IsForeignKeyViolation(err) {
			return domain.ErrRoomNotFound
		}
		return fmt.Errorf("failed to add room member: %w", err)
	}
	return nil
}

// IsMember reports whether a profile belongs to a room
func (r *RoomRepository) IsMember(ctx context.Context, roomID, profileID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM room_members
			WHERE room_id = $1 AND profile_id = $2
		)
	`
	var isMember bool
	if err := r.db.QueryRowContext(ctx, query, roomID, profileID).Scan(&isMember); err != nil {
		return false, fmt.Errorf("failed to check room membership: %w", err)
	}
	return isMember, nil
}
