package roster

import "time"

// Participant is one sign-up record. Once a matching run consumes a roster
// snapshot the records in it are read-only; the matcher never mutates them.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Zone      string    `json:"zone"`
	Slots     []string  `json:"time_slots"`
	Interests []string  `json:"interests"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// HasTag reports whether the participant carries the given identity tag.
// Tags are normalized to lowercase at intake, so comparison is exact.
func (p Participant) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasSlot reports whether the participant listed the given time slot.
func (p Participant) HasSlot(slot string) bool {
	for _, s := range p.Slots {
		if s == slot {
			return true
		}
	}
	return false
}
