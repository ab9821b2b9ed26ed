package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoRepository handles video history operations.
type VideoRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a video record. A nil ID is assigned.
func (r *VideoRepository) Create(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos (id, media_ids, video_url, status, error, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, query,
		v.ID,
		v.MediaIDs,
		v.VideoURL,
		v.Status,
		v.Error,
		v.CreatedAt,
		v.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting video: %w", err)
	}
	return nil
}

// List returns the most recent videos, newest first.
func (r *VideoRepository) List(ctx context.Context, limit int) ([]Video, error) {
	query := `
		SELECT id, media_ids, video_url, status, error, created_at, completed_at
		FROM videos
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying videos: %w", err)
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		var v Video
		if err := rows.Scan(
			&v.ID,
			&v.MediaIDs,
			&v.VideoURL,
			&v.Status,
			&v.Error,
			&v.CreatedAt,
			&v.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
