package matcher

import (
	"podmatch/internal/refdata"
	"podmatch/internal/roster"
)

// sharedSlots returns the time slots both participants listed, in a's
// preference order.
func sharedSlots(a, b roster.Participant) []string {
	var out []string
	for _, s := range a.Slots {
		if b.HasSlot(s) {
			out = append(out, s)
		}
	}
	return out
}

// sharedInterests counts interest tags both participants listed.
func sharedInterests(a, b roster.Participant) int {
	n := 0
	for _, in := range a.Interests {
		for _, other := range b.Interests {
			if in == other {
				n++
				break
			}
		}
	}
	return n
}

// pairCompatible is the hard gate for direct pairing: at least one shared
// time slot and at least one shared interest. Zero shared interests
// disqualifies a pair outright, whatever their tags suggest.
func pairCompatible(a, b roster.Participant) bool {
	return len(sharedSlots(a, b)) > 0 && sharedInterests(a, b) > 0
}

// middayBonus reports whether the pair shares a midday slot while either
// carries the commuter tag. Commuters prefer midday meetings; this is a
// tie-break preference, never a filter.
func middayBonus(a, b roster.Participant, cat *refdata.Catalog) bool {
	if !a.HasTag(refdata.TagCommuter) && !b.HasTag(refdata.TagCommuter) {
		return false
	}
	for _, s := range sharedSlots(a, b) {
		if cat.Midday(s) {
			return true
		}
	}
	return false
}

// pairScore ranks a candidate's fit against one cluster member: shared
// interest count, with a midday commuter bonus as a soft sweetener.
type pairScore struct {
	interests int
	midday    bool
}

func scorePair(member, candidate roster.Participant, cat *refdata.Catalog) pairScore {
	return pairScore{
		interests: sharedInterests(member, candidate),
		midday:    middayBonus(member, candidate, cat),
	}
}
