// Package matcher partitions a validated roster into pods of bounded size.
//
// The pipeline is a pure, single-pass batch computation: group by zone,
// greedily cluster by time-slot and interest overlap with barrier-aware tag
// preferences, balance cluster sizes, then assign captains and finalize.
// Given the same roster in the same order it produces the same pods; there
// is no clock, randomness or I/O in this package (random pod IDs are opt-in
// via Options). Callers running inside a service must serialize runs over a
// shared roster snapshot; see store.RunLock.
package matcher

import (
	"fmt"

	"podmatch/internal/refdata"
	"podmatch/internal/roster"
)

// Options tunes a matching run. The zero value is usable; missing fields
// fall back to the 5-8 member policy with a +1 overflow buffer.
type Options struct {
	MinSize          int
	MaxSize          int
	SizeBuffer       int // transient over-assignment absorbed before finalize
	MaxBalancePasses int

	// StableIDs derives pod identifiers from zone and position instead of
	// random UUIDs, making repeated runs byte-identical.
	StableIDs bool

	// SkipCaptains leaves CaptainID empty for the out-of-band approval
	// workflow to fill in later via the captain patch operation.
	SkipCaptains bool
}

func (o Options) withDefaults() Options {
	if o.MinSize <= 0 {
		o.MinSize = 5
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 8
	}
	if o.SizeBuffer <= 0 {
		o.SizeBuffer = 1
	}
	if o.MaxSize < o.MinSize {
		o.MaxSize = o.MinSize
	}
	if o.MaxBalancePasses <= 0 {
		o.MaxBalancePasses = 4
	}
	return o
}

// Pod is the matcher's output record. Points, Level and Vibe are gameplay
// fields owned by downstream logic; the matcher emits them zeroed/neutral.
type Pod struct {
	ID        string   `json:"id"`
	Zone      string   `json:"zone"`
	Slot      string   `json:"timeslot"`
	Interests []string `json:"interests"`
	Tags      []string `json:"tags"`
	MemberIDs []string `json:"memberIds"`
	CaptainID string   `json:"captainId"`
	Points    int      `json:"points"`
	Level     int      `json:"level"`
	Vibe      string   `json:"vibe"`
}

// Result bundles the finalized pods with the run report.
type Result struct {
	Pods   []Pod  `json:"pods"`
	Report Report `json:"report"`
}

// Run executes the full pipeline over an already-validated roster snapshot.
// Records that slipped past validation with out-of-catalog enumeration
// values abort their zone only; every skipped participant lands in the
// report's exclusion list.
func Run(participants []roster.Participant, cat *refdata.Catalog, opts Options) Result {
	opts = opts.withDefaults()

	var res Result
	zones := partitionZones(participants, cat, &res.Report)

	for _, zg := range zones {
		clusters := buildClusters(zg, cat, opts)
		clusters = balance(clusters, cat, opts)
		res.Pods = append(res.Pods, finalize(zg.Zone, clusters, cat, opts, &res.Report)...)
	}
	return res
}

func stableID(zone string, n int) string {
	return fmt.Sprintf("pod-%s-%d", slug(zone), n)
}

func slug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ', r == '-', r == '_':
			out = append(out, '-')
		}
	}
	return string(out)
}
