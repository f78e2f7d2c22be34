package pods

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"podmatch/internal/matcher"
	"podmatch/internal/refdata"
)

// Service coordinates pod persistence with the gameplay rules layered on
// top of matcher output.
type Service struct {
	repo   *Repository
	badges []refdata.Badge
}

// NewService creates a service backed by a repository. The badge catalog
// drives threshold awards on point changes.
func NewService(repo *Repository, badges []refdata.Badge) *Service {
	return &Service{repo: repo, badges: badges}
}

// StoreResult persists a finished matching run, replacing all prior pods.
func (s *Service) StoreResult(ctx context.Context, runID string, startedAt time.Time, res matcher.Result) error {
	if runID == "" {
		runID = uuid.NewString()
	}
	now := time.Now().UTC()
	run := MatchRun{
		ID:         runID,
		StartedAt:  startedAt,
		FinishedAt: &now,
		Report:     res.Report,
	}
	list := make([]Pod, 0, len(res.Pods))
	for _, mp := range res.Pods {
		list = append(list, FromMatch(runID, mp))
	}
	return s.repo.ReplaceForRun(ctx, run, list)
}

// ApproveCaptain applies the out-of-band captain approval patch. The
// operation is idempotent and never touches any other matcher output.
func (s *Service) ApproveCaptain(ctx context.Context, podID, captainID string) error {
	if podID == "" || captainID == "" {
		return errors.New("pod and captain required")
	}
	return s.repo.SetCaptain(ctx, podID, captainID)
}

// AwardPoints adds points to a pod, recomputes level and vibe, and awards
// any badge whose threshold the new total crosses.
func (s *Service) AwardPoints(ctx context.Context, podID string, delta int) (int, error) {
	if delta <= 0 {
		return 0, errors.New("points must be positive")
	}
	total, err := s.repo.AddPoints(ctx, podID, delta)
	if err != nil {
		return 0, err
	}
	for _, b := range s.badges {
		if total >= b.Threshold {
			if err := s.repo.AwardBadge(ctx, podID, b.ID); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}
