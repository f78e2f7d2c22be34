package pods

import (
	"podmatch/internal/matcher"
)

// Pod is the stored form of one matcher output record, plus the run that
// produced it and the gameplay fields downstream logic maintains.
type Pod struct {
	ID        string   `json:"id"`
	RunID     string   `json:"run_id"`
	Zone      string   `json:"zone"`
	Slot      string   `json:"timeslot"`
	Interests []string `json:"interests"`
	Tags      []string `json:"tags"`
	MemberIDs []string `json:"memberIds"`
	CaptainID string   `json:"captainId,omitempty"`
	Points    int      `json:"points"`
	Level     int      `json:"level"`
	Vibe      string   `json:"vibe"`
}

// FromMatch converts a matcher pod into its stored form.
func FromMatch(runID string, mp matcher.Pod) Pod {
	return Pod{
		ID:        mp.ID,
		RunID:     runID,
		Zone:      mp.Zone,
		Slot:      mp.Slot,
		Interests: mp.Interests,
		Tags:      mp.Tags,
		MemberIDs: mp.MemberIDs,
		CaptainID: mp.CaptainID,
		Points:    mp.Points,
		Level:     mp.Level,
		Vibe:      mp.Vibe,
	}
}

// HasMember reports whether the participant belongs to this pod.
func (p Pod) HasMember(id string) bool {
	for _, m := range p.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}

// LevelFor maps accumulated points to a pod level.
func LevelFor(points int) int {
	switch {
	case points >= 500:
		return 4
	case points >= 300:
		return 3
	case points >= 150:
		return 2
	case points >= 50:
		return 1
	default:
		return 0
	}
}

// VibeFor maps accumulated points to the dashboard vibe label.
func VibeFor(points int) string {
	switch {
	case points >= 300:
		return "electric"
	case points >= 100:
		return "warm"
	default:
		return "neutral"
	}
}
