package matcher

import (
	"sort"

	"podmatch/internal/refdata"
	"podmatch/internal/roster"
)

// balance resolves size violations left by the greedy pass: undersized
// clusters are merged into the nearest compatible cluster, oversized ones
// shed their least cohesive members, and shed members are reseeded into
// under-capacity clusters. The pass is bounded; anything still out of
// bounds afterwards is finalize's job to flag, not ours to loop on.
func balance(clusters []*cluster, cat *refdata.Catalog, opts Options) []*cluster {
	for pass := 0; pass < opts.MaxBalancePasses; pass++ {
		var mergedAny, splitAny bool
		clusters, mergedAny = mergeUndersized(clusters, opts)
		clusters, splitAny = splitOversized(clusters, cat, opts)
		if !mergedAny && !splitAny {
			break
		}
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].seedOrd() < clusters[j].seedOrd()
	})
	return clusters
}

// clustersCompatible applies the same disqualification rule as direct
// pairing: some cross pair must share a time slot and an interest.
func clustersCompatible(a, b *cluster) bool {
	for _, m := range a.members {
		for _, n := range b.members {
			if pairCompatible(m, n) {
				return true
			}
		}
	}
	return false
}

// mergeScore is the strongest cross-pair interest overlap between two
// compatible clusters.
func mergeScore(a, b *cluster) int {
	best := 0
	for _, m := range a.members {
		for _, n := range b.members {
			if len(sharedSlots(m, n)) == 0 {
				continue
			}
			if s := sharedInterests(m, n); s > best {
				best = s
			}
		}
	}
	return best
}

// mergeUndersized folds clusters below the minimum into a compatible
// sibling. Targets that keep the result within the ceiling win; when none
// do, the largest compatible cluster absorbs the stragglers anyway and the
// overflow is redistributed by the split step. Multi-way ties break on the
// higher overlap score, then the lexically lowest seed participant ID.
func mergeUndersized(clusters []*cluster, opts Options) ([]*cluster, bool) {
	ceiling := opts.MaxSize + opts.SizeBuffer
	changed := false

	for i := 0; i < len(clusters); i++ {
		c := clusters[i]
		if c.size() >= opts.MinSize {
			continue
		}

		target := -1
		targetFits := false
		for j := range clusters {
			if j == i || !clustersCompatible(c, clusters[j]) {
				continue
			}
			fits := c.size()+clusters[j].size() <= ceiling
			if target == -1 {
				target, targetFits = j, fits
				continue
			}
			if fits != targetFits {
				if fits {
					target, targetFits = j, true
				}
				continue
			}
			if fits {
				if betterMergeTarget(c, clusters[j], clusters[target]) {
					target = j
				}
			} else if clusters[j].size() > clusters[target].size() ||
				(clusters[j].size() == clusters[target].size() &&
					clusters[j].seed().ID < clusters[target].seed().ID) {
				target = j
			}
		}
		if target == -1 {
			continue
		}

		t := clusters[target]
		for k := range c.members {
			t.absorb(c.members[k], c.ords[k])
		}
		if t.seedOrd() > c.seedOrd() {
			// Keep the earliest seed in front so output order stays tied
			// to roster order.
			reanchor(t)
		}
		clusters = append(clusters[:i], clusters[i+1:]...)
		changed = true
		i--
	}
	return clusters, changed
}

func betterMergeTarget(c, candidate, incumbent *cluster) bool {
	cs, is := mergeScore(c, candidate), mergeScore(c, incumbent)
	if cs != is {
		return cs > is
	}
	return candidate.seed().ID < incumbent.seed().ID
}

// reanchor moves the lowest-ord member to the front of the cluster.
func reanchor(c *cluster) {
	low := 0
	for k := range c.ords {
		if c.ords[k] < c.ords[low] {
			low = k
		}
	}
	if low == 0 {
		return
	}
	c.members[0], c.members[low] = c.members[low], c.members[0]
	c.ords[0], c.ords[low] = c.ords[low], c.ords[0]
}

// splitOversized trims clusters above the ceiling by removing their least
// cohesive members and reseeding those as candidates for an existing
// under-capacity cluster, or a fresh one when nobody will take them.
func splitOversized(clusters []*cluster, cat *refdata.Catalog, opts Options) ([]*cluster, bool) {
	ceiling := opts.MaxSize + opts.SizeBuffer
	changed := false

	var shedMembers []*cluster // single-member holding cells, in shed order

	for _, c := range clusters {
		for c.size() > ceiling {
			k := leastCohesive(c)
			shed := &cluster{
				members: []roster.Participant{c.members[k]},
				ords:    []int{c.ords[k]},
			}
			c.members = append(c.members[:k], c.members[k+1:]...)
			c.ords = append(c.ords[:k], c.ords[k+1:]...)
			shedMembers = append(shedMembers, shed)
			changed = true
		}
	}

	for _, shed := range shedMembers {
		p, ord := shed.members[0], shed.ords[0]
		target := -1
		var bestKey candKey
		bestUnder := false
		for j, t := range clusters {
			if t.size() >= opts.MaxSize || !t.admits(p) {
				continue
			}
			under := t.size() < opts.MinSize
			key := t.scoreCandidate(p, cat)
			switch {
			case target == -1,
				under && !bestUnder,
				under == bestUnder && key.better(bestKey):
				target, bestKey, bestUnder = j, key, under
			}
		}
		if target >= 0 {
			clusters[target].absorb(p, ord)
			if clusters[target].seedOrd() > ord {
				reanchor(clusters[target])
			}
		} else {
			clusters = append(clusters, shed)
		}
	}
	return clusters, changed
}

// leastCohesive returns the index of the member with the weakest ties to
// the rest of the cluster: fewest total shared interests, then fewest
// members sharing a slot, with the latest roster arrival shed first on a
// tie.
func leastCohesive(c *cluster) int {
	worst, worstInterests, worstSlots := -1, 0, 0
	for k := range c.members {
		interests, slots := 0, 0
		for j := range c.members {
			if j == k {
				continue
			}
			interests += sharedInterests(c.members[k], c.members[j])
			if len(sharedSlots(c.members[k], c.members[j])) > 0 {
				slots++
			}
		}
		if worst == -1 ||
			interests < worstInterests ||
			(interests == worstInterests && slots < worstSlots) ||
			(interests == worstInterests && slots == worstSlots && c.ords[k] > c.ords[worst]) {
			worst, worstInterests, worstSlots = k, interests, slots
		}
	}
	return worst
}
