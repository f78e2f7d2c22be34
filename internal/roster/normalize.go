package roster

import (
	"fmt"
	"strings"

	"podmatch/internal/refdata"
)

// ValidationError describes why a single record was excluded from matching.
// Exclusions are collected and reported; they never abort the run.
type ValidationError struct {
	ParticipantID string `json:"participant_id"`
	Field         string `json:"field"`
	Reason        string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("participant %q: %s: %s", e.ParticipantID, e.Field, e.Reason)
}

// Normalize validates raw records against the catalog and coerces tag and
// interest lists to trimmed lowercase canonical values. It returns the
// records fit for matching plus one ValidationError per excluded record.
//
// Required: identifier, a known zone, at least one known time slot, at
// least one known interest. Unknown slots and interests are dropped from a
// record as long as at least one canonical value survives; a record whose
// slots or interests all fail to map is excluded. Slot lists are capped at
// two entries, keeping the submitter's preference order.
func Normalize(raw []Participant, cat *refdata.Catalog) ([]Participant, []ValidationError) {
	valid := make([]Participant, 0, len(raw))
	var excluded []ValidationError

	for _, r := range raw {
		p, err := normalizeOne(r, cat)
		if err != nil {
			excluded = append(excluded, *err)
			continue
		}
		valid = append(valid, p)
	}
	return valid, excluded
}

func normalizeOne(r Participant, cat *refdata.Catalog) (Participant, *ValidationError) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return Participant{}, &ValidationError{ParticipantID: r.ID, Field: "id", Reason: "missing identifier"}
	}

	zone, ok := cat.CanonicalZone(r.Zone)
	if !ok {
		reason := "missing zone"
		if strings.TrimSpace(r.Zone) != "" {
			reason = fmt.Sprintf("unknown zone %q", r.Zone)
		}
		return Participant{}, &ValidationError{ParticipantID: id, Field: "zone", Reason: reason}
	}

	slots := canonicalSlots(r.Slots, cat)
	if len(slots) == 0 {
		return Participant{}, &ValidationError{ParticipantID: id, Field: "time_slots", Reason: "no usable time slots"}
	}

	interests := canonicalInterests(r.Interests, cat)
	if len(interests) == 0 {
		return Participant{}, &ValidationError{ParticipantID: id, Field: "interests", Reason: "no usable interests"}
	}

	return Participant{
		ID:        id,
		Name:      strings.TrimSpace(r.Name),
		Email:     strings.ToLower(strings.TrimSpace(r.Email)),
		Zone:      zone,
		Slots:     slots,
		Interests: interests,
		Tags:      normalizeTags(r.Tags),
		CreatedAt: r.CreatedAt,
	}, nil
}

// canonicalSlots keeps the submitter's preference order and caps the list
// at two entries.
func canonicalSlots(raw []string, cat *refdata.Catalog) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range raw {
		slot, ok := cat.CanonicalSlot(s)
		if !ok || seen[slot] {
			continue
		}
		seen[slot] = true
		out = append(out, slot)
		if len(out) == 2 {
			break
		}
	}
	return out
}

func canonicalInterests(raw []string, cat *refdata.Catalog) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range raw {
		interest, ok := cat.CanonicalInterest(s)
		if !ok || seen[interest] {
			continue
		}
		seen[interest] = true
		out = append(out, interest)
	}
	return out
}

func normalizeTags(raw []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range raw {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
