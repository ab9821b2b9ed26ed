package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckInRepository handles questionnaire history operations.
type CheckInRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a check-in and fills in its ID and CreatedAt.
func (r *CheckInRepository) Create(ctx context.Context, c *CheckIn) error {
	answers, err := json.Marshal(c.Answers)
	if err != nil {
		return fmt.Errorf("encoding answers: %w", err)
	}

	query := `
		INSERT INTO check_ins (id, answers, created_at)
		VALUES ($1, $2, NOW())
		RETURNING created_at
	`
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := r.pool.QueryRow(ctx, query, c.ID, answers).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("inserting check-in: %w", err)
	}
	return nil
}

// Get retrieves a check-in by ID.
func (r *CheckInRepository) Get(ctx context.Context, id uuid.UUID) (*CheckIn, error) {
	query := `SELECT id, answers, created_at FROM check_ins WHERE id = $1`
	c, err := scanCheckIn(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying check-in: %w", err)
	}
	return c, nil
}

// List returns the most recent check-ins, newest first.
func (r *CheckInRepository) List(ctx context.Context, limit int) ([]CheckIn, error) {
	query := `
		SELECT id, answers, created_at
		FROM check_ins
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := []CheckIn{}
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning check-in: %w", err)
		}
		checkIns = append(checkIns, *c)
	}
	return checkIns, rows.Err()
}

func scanCheckIn(row pgx.Row) (*CheckIn, error) {
	var (
		c   CheckIn
		raw []byte
	)
	if err := row.Scan(&c.ID, &raw, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.Answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	return &c, nil
}
