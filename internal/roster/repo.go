package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository persists sign-up records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new sign-up. A missing ID is generated.
func (r *Repository) Insert(ctx context.Context, p Participant) (Participant, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, email, zone, time_slots, interests, tags, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.Name, p.Email, p.Zone, pq.Array(p.Slots), pq.Array(p.Interests), pq.Array(p.Tags), p.CreatedAt)
	if err != nil {
		return Participant{}, err
	}
	return p, nil
}

// Get returns a single participant by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Participant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, zone, time_slots, interests, tags, created_at
		FROM participants WHERE id = $1
	`, id)
	var p Participant
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Zone, pq.Array(&p.Slots), pq.Array(&p.Interests), pq.Array(&p.Tags), &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// Snapshot returns the full roster in sign-up order. Matching runs operate
// on this snapshot; insertion order is what makes re-runs deterministic.
func (r *Repository) Snapshot(ctx context.Context) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, zone, time_slots, interests, tags, created_at
		FROM participants
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Zone, pq.Array(&p.Slots), pq.Array(&p.Interests), pq.Array(&p.Tags), &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
