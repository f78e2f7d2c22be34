package matcher

import (
	"podmatch/internal/refdata"
	"podmatch/internal/roster"
)

// cluster is the mutable working set for one eventual pod. ords carries each
// member's position in the zone roster, parallel to members; it is the
// universal tie-breaker that keeps the pipeline deterministic.
type cluster struct {
	members []roster.Participant
	ords    []int
}

func (c *cluster) size() int { return len(c.members) }

func (c *cluster) seed() roster.Participant { return c.members[0] }

func (c *cluster) seedOrd() int { return c.ords[0] }

func (c *cluster) absorb(p roster.Participant, ord int) {
	c.members = append(c.members, p)
	c.ords = append(c.ords, ord)
}

func (c *cluster) hasTag(tag string) bool {
	for _, m := range c.members {
		if m.HasTag(tag) {
			return true
		}
	}
	return false
}

// needsAlly reports whether the cluster has an international member but no
// language ally yet.
func (c *cluster) needsAlly() bool {
	return c.hasTag(refdata.TagInternational) && !c.hasTag(refdata.TagLanguageAlly)
}

// admits is the hard gate for absorbing a candidate: the candidate must be
// directly compatible (shared slot AND shared interest) with at least one
// current member. Interests may chain transitively through that member; a
// zero-overlap pairing never seeds or extends a cluster.
func (c *cluster) admits(p roster.Participant) bool {
	for _, m := range c.members {
		if pairCompatible(m, p) {
			return true
		}
	}
	return false
}

// candKey ranks admissible candidates: strongest interest overlap first,
// then the largest tag-compatibility gain, then the commuter midday bonus.
// Ties fall back to roster order because the scan replaces only on a
// strictly better key.
type candKey struct {
	interests int
	tagGain   int
	midday    bool
}

func (k candKey) better(other candKey) bool {
	if k.interests != other.interests {
		return k.interests > other.interests
	}
	if k.tagGain != other.tagGain {
		return k.tagGain > other.tagGain
	}
	return k.midday && !other.midday
}

// scoreCandidate computes the ranking key for an admissible candidate.
func (c *cluster) scoreCandidate(p roster.Participant, cat *refdata.Catalog) candKey {
	var key candKey
	for _, m := range c.members {
		s := scorePair(m, p, cat)
		if s.interests > key.interests {
			key.interests = s.interests
		}
		if s.midday {
			key.midday = true
		}
	}
	key.tagGain = c.tagGain(p)
	return key
}

// tagGain measures how much a candidate improves the cluster's tag
// compatibility: bringing a language ally to an international member
// outranks everything, then resolving the candidate's own barrier, then
// plain identity-tag affinity.
func (c *cluster) tagGain(p roster.Participant) int {
	gain := 0
	if c.needsAlly() && p.HasTag(refdata.TagLanguageAlly) {
		gain += 4
	}
	if p.HasTag(refdata.TagInternational) && c.hasTag(refdata.TagLanguageAlly) {
		gain += 2
	}
	for _, t := range p.Tags {
		if c.hasTag(t) {
			gain++
		}
	}
	return gain
}

// buildClusters runs the greedy pass over one zone: iterate participants in
// roster order, seed a cluster for each unclustered one, and absorb the
// best admissible candidate until the ceiling is hit or nobody qualifies.
func buildClusters(zg zoneGroup, cat *refdata.Catalog, opts Options) []*cluster {
	ceiling := opts.MaxSize + opts.SizeBuffer
	clustered := make([]bool, len(zg.Members))
	var clusters []*cluster

	for i := range zg.Members {
		if clustered[i] {
			continue
		}
		c := &cluster{members: []roster.Participant{zg.Members[i]}, ords: []int{i}}
		clustered[i] = true

		for c.size() < ceiling {
			best := -1
			var bestKey candKey
			for j := range zg.Members {
				if clustered[j] || !c.admits(zg.Members[j]) {
					continue
				}
				key := c.scoreCandidate(zg.Members[j], cat)
				if best == -1 || key.better(bestKey) {
					best, bestKey = j, key
				}
			}
			if best == -1 {
				break
			}
			c.absorb(zg.Members[best], best)
			clustered[best] = true
		}
		clusters = append(clusters, c)
	}
	return clusters
}
