package progress

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Record tracks one member's activity within a pod for one program week.
type Record struct {
	PodID     string    `json:"pod_id"`
	Week      int       `json:"week"`
	UserID    string    `json:"user_id"`
	CheckIns  int       `json:"checkins"`
	Points    int       `json:"points"`
	Quests    []string  `json:"quests"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository persists per-(pod, week, user) progress in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CheckIn increments a member's check-in count for the week.
func (r *Repository) CheckIn(ctx context.Context, podID string, week int, userID string) (Record, error) {
	if podID == "" || userID == "" || week <= 0 {
		return Record{}, errors.New("pod, week and user required")
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO progress (pod_id, week, user_id, checkins, updated_at)
		VALUES ($1,$2,$3,1,NOW())
		ON CONFLICT (pod_id, week, user_id) DO UPDATE
			SET checkins = progress.checkins + 1, updated_at = NOW()
		RETURNING pod_id, week, user_id, checkins, points, quests, updated_at
	`, podID, week, userID)
	return scanRecord(row)
}

// CompleteQuest marks a quest done for the member and credits its points.
// Completing an already-completed quest is a no-op returning the current
// record, so retries never double-credit.
func (r *Repository) CompleteQuest(ctx context.Context, podID string, week int, userID, questID string, points int) (Record, bool, error) {
	if questID == "" {
		return Record{}, false, errors.New("quest required")
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO progress (pod_id, week, user_id, points, quests, updated_at)
		VALUES ($1,$2,$3,$4,ARRAY[$5::text],NOW())
		ON CONFLICT (pod_id, week, user_id) DO UPDATE
			SET points = progress.points + excluded.points,
				quests = array_append(progress.quests, $5),
				updated_at = NOW()
			WHERE NOT progress.quests @> ARRAY[$5::text]
		RETURNING pod_id, week, user_id, checkins, points, quests, updated_at
	`, podID, week, userID, points, questID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict row already contains the quest; fetch it unchanged.
			existing, gerr := r.Get(ctx, podID, week, userID)
			if gerr != nil {
				return Record{}, false, gerr
			}
			return existing, false, nil
		}
		return Record{}, false, err
	}
	return rec, true, nil
}

// Get returns the record for (pod, week, user); zero-valued when absent.
func (r *Repository) Get(ctx context.Context, podID string, week int, userID string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pod_id, week, user_id, checkins, points, quests, updated_at
		FROM progress WHERE pod_id = $1 AND week = $2 AND user_id = $3
	`, podID, week, userID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{PodID: podID, Week: week, UserID: userID}, nil
	}
	return rec, err
}

// ForPod lists all progress rows for a pod ordered by week then user.
func (r *Repository) ForPod(ctx context.Context, podID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT pod_id, week, user_id, checkins, points, quests, updated_at
		FROM progress WHERE pod_id = $1 ORDER BY week, user_id
	`, podID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(&rec.PodID, &rec.Week, &rec.UserID, &rec.CheckIns, &rec.Points, pq.Array(&rec.Quests), &rec.UpdatedAt)
	return rec, err
}
