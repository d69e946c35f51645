package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"commung/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository for PostgreSQL
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, community_id, handle, display_name, bio)
		VALUES ($1, $2, lower($3), $4, $5)
		RETURNING id, handle, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.CommunityID,
		profile.Handle,
		profile.DisplayName,
		profile.Bio,
	).Scan(&profile.ID, &profile.Handle, &profile.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err, "profiles_community_id_handle_key") {
			return domain.ErrHandleExists
		}
		if IsUniqueViolation(err, "profiles_user_id_community_id_key") {
			return domain.ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT id, user_id, community_id, handle, display_name, bio, created_at
		FROM profiles
		WHERE id = $1
	`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, id))
}

// GetByUserAndCommunity retrieves the caller's persona in one community
func (r *ProfileRepository) GetByUserAndCommunity(ctx context.Context, userID, communityID string) (*domain.Profile, error) {
	query := `
		SELECT id, user_id, community_id, handle, display_name, bio, created_at
		FROM profiles
		WHERE user_id = $1 AND community_id = $2
	`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, userID, communityID))
}

// GetByHandle retrieves a profile by its handle within a community
func (r *ProfileRepository) GetByHandle(ctx context.Context, communityID, handle string) (*domain.Profile, error) {
	query := `
		SELECT id, user_id, community_id, handle, display_name, bio, created_at
		FROM profiles
		WHERE community_id = $1 AND handle = lower($2)
	`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, communityID, handle))
}

// Update changes a profile's display name and bio. Handle and scope are fixed.
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $2, bio = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, profile.ID, profile.DisplayName, profile.Bio)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) scanProfile(row *sql.Row) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CommunityID,
		&p.Handle,
		&p.DisplayName,
		&p.Bio,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}
