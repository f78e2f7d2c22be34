package pods

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"podmatch/internal/matcher"
)

// Repository persists pods and match runs in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// MatchRun is one recorded execution of the matcher.
type MatchRun struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	PodCount   int            `json:"pod_count"`
	Report     matcher.Report `json:"report"`
}

// ReplaceForRun atomically replaces all prior pod output with the result of
// a new run: pods from previous runs are deleted, never merged. The run row
// and its report are written in the same transaction.
func (r *Repository) ReplaceForRun(ctx context.Context, run MatchRun, list []Pod) error {
	reportJSON, err := json.Marshal(run.Report)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO match_runs (id, started_at, finished_at, pod_count, report)
		VALUES ($1,$2,$3,$4,$5)
	`, run.ID, run.StartedAt, run.FinishedAt, len(list), reportJSON); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pods WHERE run_id <> $1`, run.ID); err != nil {
		return err
	}

	for _, p := range list {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pods (id, run_id, zone, timeslot, interests, tags, captain_id, points, level, vibe)
			VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9,$10)
		`, p.ID, run.ID, p.Zone, p.Slot, pq.Array(p.Interests), pq.Array(p.Tags), p.CaptainID, p.Points, p.Level, p.Vibe); err != nil {
			return err
		}
		for i, member := range p.MemberIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO pod_members (pod_id, participant_id, position)
				VALUES ($1,$2,$3)
			`, p.ID, member, i); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// LatestRun returns the most recent match run, or nil when none exist.
func (r *Repository) LatestRun(ctx context.Context) (*MatchRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, pod_count, report
		FROM match_runs ORDER BY started_at DESC LIMIT 1
	`)
	var run MatchRun
	var reportJSON []byte
	if err := row.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.PodCount, &reportJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(reportJSON, &run.Report); err != nil {
		return nil, err
	}
	return &run, nil
}

// Get returns one pod with its member list, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Pod, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, run_id, zone, timeslot, interests, tags, COALESCE(captain_id, ''), points, level, vibe
		FROM pods WHERE id = $1
	`, id)
	p, err := scanPod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadMembers(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns pods filtered by zone and/or member, ordered by zone then id.
func (r *Repository) List(ctx context.Context, zone, memberID string) ([]Pod, error) {
	query := `
		SELECT DISTINCT p.id, p.run_id, p.zone, p.timeslot, p.interests, p.tags,
			COALESCE(p.captain_id, ''), p.points, p.level, p.vibe
		FROM pods p
	`
	args := []any{}
	where := ""
	if memberID != "" {
		query += ` JOIN pod_members pm ON pm.pod_id = p.id`
		args = append(args, memberID)
		where = ` WHERE pm.participant_id = $1`
	}
	if zone != "" {
		args = append(args, zone)
		if where == "" {
			where = ` WHERE p.zone = $1`
		} else {
			where += ` AND p.zone = $2`
		}
	}
	query += where + ` ORDER BY p.zone, p.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pod
	for rows.Next() {
		p, err := scanPod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.loadMembers(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Leaderboard returns the top pods by points.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]Pod, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, zone, timeslot, interests, tags, COALESCE(captain_id, ''), points, level, vibe
		FROM pods ORDER BY points DESC, id LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pod
	for rows.Next() {
		p, err := scanPod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SetCaptain applies the out-of-band captain approval. Idempotent: setting
// the current captain again is a no-op success.
func (r *Repository) SetCaptain(ctx context.Context, podID, captainID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pods SET captain_id = $2
		WHERE id = $1 AND EXISTS (
			SELECT 1 FROM pod_members WHERE pod_id = $1 AND participant_id = $2
		)
	`, podID, captainID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("pod not found or captain is not a member")
	}
	return nil
}

// AddPoints accumulates points on a pod and recomputes level and vibe.
// Returns the new total.
func (r *Repository) AddPoints(ctx context.Context, podID string, delta int) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE pods SET points = points + $2 WHERE id = $1 RETURNING points
	`, podID, delta)
	var total int
	if err := row.Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errors.New("pod not found")
		}
		return 0, err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE pods SET level = $2, vibe = $3 WHERE id = $1
	`, podID, LevelFor(total), VibeFor(total))
	return total, err
}

// AwardBadge records a badge for a pod. Duplicate awards are ignored.
func (r *Repository) AwardBadge(ctx context.Context, podID, badgeID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO badge_awards (pod_id, badge_id)
		VALUES ($1, $2)
		ON CONFLICT (pod_id, badge_id) DO NOTHING
	`, podID, badgeID)
	return err
}

// Badges lists badge IDs awarded to a pod.
func (r *Repository) Badges(ctx context.Context, podID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT badge_id FROM badge_awards WHERE pod_id = $1 ORDER BY awarded_at
	`, podID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPod(row rowScanner) (*Pod, error) {
	var p Pod
	if err := row.Scan(&p.ID, &p.RunID, &p.Zone, &p.Slot, pq.Array(&p.Interests), pq.Array(&p.Tags), &p.CaptainID, &p.Points, &p.Level, &p.Vibe); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) loadMembers(ctx context.Context, p *Pod) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT participant_id FROM pod_members WHERE pod_id = $1 ORDER BY position
	`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		p.MemberIDs = append(p.MemberIDs, id)
	}
	return rows.Err()
}
