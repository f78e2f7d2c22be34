package matcher

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"podmatch/internal/refdata"
)

// maxDisplayInterests caps the pod-level interest aggregate; the dashboard
// shows at most this many.
const maxDisplayInterests = 8

// finalize turns balanced clusters into emitted pods: picks the pod slot,
// aggregates interests and tags, assigns the captain, and files the
// warnings for anything the balancer could not fix.
func finalize(zone string, clusters []*cluster, cat *refdata.Catalog, opts Options, report *Report) []Pod {
	ceiling := opts.MaxSize + opts.SizeBuffer
	pods := make([]Pod, 0, len(clusters))

	for n, c := range clusters {
		id := ""
		if opts.StableIDs {
			id = stableID(zone, n+1)
		} else {
			id = uuid.NewString()
		}

		pod := Pod{
			ID:        id,
			Zone:      zone,
			Slot:      podSlot(c, cat),
			Interests: aggregateInterests(c, cat),
			Tags:      aggregateTags(c),
			MemberIDs: memberIDs(c),
			Vibe:      "neutral",
		}
		if !opts.SkipCaptains {
			pod.CaptainID = pickCaptain(c, pod.Interests)
		}

		if c.size() < opts.MinSize {
			report.warn(Warning{
				Kind:    WarnUnderfilled,
				Zone:    zone,
				PodID:   pod.ID,
				Message: fmt.Sprintf("pod has %d members, below minimum %d", c.size(), opts.MinSize),
			})
		}
		if c.size() > ceiling {
			report.warn(Warning{
				Kind:    WarnOversized,
				Zone:    zone,
				PodID:   pod.ID,
				Message: fmt.Sprintf("pod has %d members, above ceiling %d", c.size(), ceiling),
			})
		}
		if n := slotCoverage(c, pod.Slot); n*2 <= c.size() {
			report.warn(Warning{
				Kind:    WarnSlotMinority,
				Zone:    zone,
				PodID:   pod.ID,
				Message: fmt.Sprintf("slot %s is shared by only %d of %d members", pod.Slot, n, c.size()),
			})
		}
		reportUnmetBarriers(c, pod.ID, zone, report)

		pods = append(pods, pod)
	}
	return pods
}

// podSlot picks the meeting slot: the one listed by the most members, with
// commuter-midday preference then catalog order breaking ties. The winner
// is shared by a majority of members whenever the clustering left one
// possible; when chained pairwise overlaps leave no majority slot, finalize
// files a WarnSlotMinority instead of suppressing the pod.
func podSlot(c *cluster, cat *refdata.Catalog) string {
	counts := map[string]int{}
	for _, m := range c.members {
		for _, s := range m.Slots {
			counts[s]++
		}
	}
	slots := make([]string, 0, len(counts))
	for s := range counts {
		slots = append(slots, s)
	}
	hasCommuter := c.hasTag(refdata.TagCommuter)
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		if hasCommuter && cat.Midday(a) != cat.Midday(b) {
			return cat.Midday(a)
		}
		return cat.SlotOrder(a) < cat.SlotOrder(b)
	})
	return slots[0]
}

// slotCoverage counts members who listed the slot themselves.
func slotCoverage(c *cluster, slot string) int {
	n := 0
	for _, m := range c.members {
		if m.HasSlot(slot) {
			n++
		}
	}
	return n
}

// aggregateInterests is the union of member interests ordered by how many
// members share each, catalog order on ties, truncated for display.
func aggregateInterests(c *cluster, cat *refdata.Catalog) []string {
	counts := map[string]int{}
	for _, m := range c.members {
		for _, in := range m.Interests {
			counts[in]++
		}
	}
	interests := make([]string, 0, len(counts))
	for in := range counts {
		interests = append(interests, in)
	}
	sort.Slice(interests, func(i, j int) bool {
		a, b := interests[i], interests[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return cat.InterestOrder(a) < cat.InterestOrder(b)
	})
	if len(interests) > maxDisplayInterests {
		interests = interests[:maxDisplayInterests]
	}
	return interests
}

// aggregateTags is the union of member identity tags, first-seen order.
func aggregateTags(c *cluster) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range c.members {
		for _, t := range m.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func memberIDs(c *cluster) []string {
	ids := make([]string, len(c.members))
	for i, m := range c.members {
		ids[i] = m.ID
	}
	return ids
}

// pickCaptain selects the member whose own interests best cover the pod
// aggregate, roster order breaking ties.
func pickCaptain(c *cluster, podInterests []string) string {
	agg := map[string]bool{}
	for _, in := range podInterests {
		agg[in] = true
	}
	best, bestScore := 0, -1
	for k, m := range c.members {
		score := 0
		for _, in := range m.Interests {
			if agg[in] {
				score++
			}
		}
		if score > bestScore || (score == bestScore && c.ords[k] < c.ords[best]) {
			best, bestScore = k, score
		}
	}
	return c.members[best].ID
}

// reportUnmetBarriers files a warning for every international member whose
// pod ended up without a language ally.
func reportUnmetBarriers(c *cluster, podID, zone string, report *Report) {
	if c.hasTag(refdata.TagLanguageAlly) {
		return
	}
	for _, m := range c.members {
		if m.HasTag(refdata.TagInternational) {
			report.warn(Warning{
				Kind:          WarnBarrierUnmet,
				Zone:          zone,
				PodID:         podID,
				ParticipantID: m.ID,
				Message:       "international participant has no language ally in pod",
			})
		}
	}
}
