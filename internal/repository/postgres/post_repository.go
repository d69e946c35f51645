package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"commung/internal/domain"
)

// PostRepository implements domain.PostRepository for PostgreSQL
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post
func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (community_id, profile_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		post.CommunityID,
		post.ProfileID,
		post.Content,
	).Scan(&post.ID, &post.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	query := `
		SELECT p.id, p.community_id, p.profile_id, pr.handle, p.content, p.created_at
		FROM posts p
		JOIN profiles pr ON p.profile_id = pr.id
		WHERE p.id = $1
	`
	post := &domain.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.CommunityID,
		&post.ProfileID,
		&post.Handle,
		&post.Content,
		&post.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ListBefore returns posts in a community, newest first. A non-empty
// cursor restricts results to posts strictly older than the post with
// that id; the (created_at, id) tiebreak keeps pages stable when posts
// share a timestamp.
func (r *PostRepository) ListBefore(ctx context.Context, communityID, before string, limit int) ([]*domain.Post, error) {
	var rows *sql.Rows
	var err error

	if before == "" {
		query := `
			SELECT p.id, p.community_id, p.profile_id, pr.handle, p.content, p.created_at
			FROM posts p
			JOIN profiles pr ON p.profile_id = pr.id
			WHERE p.community_id = $1
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $2
		`
		rows, err = r.db.QueryContext(ctx, query, communityID, limit)
	} else {
		query := `
			SELECT p.id, p.community_id, p.profile_id, pr.handle, p.content, p.created_at
			FROM posts p
			JOIN profiles pr ON p.profile_id = pr.id
			WHERE p.community_id = $1
			  AND (p.created_at, p.id) < (
				SELECT created_at, id FROM posts WHERE id = $2
			  )
			ORDER BY p.created_at DESC, p.id DESC
			LIMIT $3
		`
		rows, err = r.db.QueryContext(ctx, query, communityID, before, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0, limit)
	for rows.Next() {
		post := &domain.Post{}
		if err := rows.Scan(
			&post.ID,
			&post.CommunityID,
			&post.ProfileID,
			&post.Handle,
			&post.Content,
			&post.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
