package matcher

import (
	"fmt"
	"sort"

	"podmatch/internal/refdata"
	"podmatch/internal/roster"
)

// zoneGroup is one zone's slice of the roster, in original sign-up order.
type zoneGroup struct {
	Zone    string
	Members []roster.Participant
}

// partitionZones groups the roster by zone. Zones are emitted in catalog
// order so the overall output order is deterministic; within a zone the
// roster order is preserved.
//
// A participant whose zone is not in the catalog is excluded here (the
// normalizer already rejects these, but raw callers get the same guarantee).
// A zone whose members carry slot or interest values with no canonical
// mapping is aborted wholesale: its participants are excluded with a config
// reason and a zone_config warning is emitted. Other zones are unaffected.
func partitionZones(participants []roster.Participant, cat *refdata.Catalog, report *Report) []zoneGroup {
	byZone := make(map[string][]roster.Participant)
	var order []string

	for _, p := range participants {
		zone, ok := cat.CanonicalZone(p.Zone)
		if !ok {
			report.exclude(p.ID, p.Zone, fmt.Sprintf("unknown zone %q", p.Zone))
			continue
		}
		if _, seen := byZone[zone]; !seen {
			order = append(order, zone)
		}
		byZone[zone] = append(byZone[zone], p)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return cat.ZoneOrder(order[i]) < cat.ZoneOrder(order[j])
	})

	groups := make([]zoneGroup, 0, len(order))
	for _, zone := range order {
		members := byZone[zone]
		if bad, badVal := zoneConfigError(members, cat); bad != "" {
			report.warn(Warning{
				Kind:    WarnZoneConfig,
				Zone:    zone,
				Message: fmt.Sprintf("zone aborted: %s value %q has no canonical mapping", bad, badVal),
			})
			for _, p := range members {
				report.exclude(p.ID, zone, fmt.Sprintf("zone aborted: unmapped %s %q", bad, badVal))
			}
			continue
		}
		groups = append(groups, zoneGroup{Zone: zone, Members: members})
	}
	return groups
}

// zoneConfigError returns the first field/value pair in the zone that cannot
// be mapped to a canonical enumeration, or "" when the zone is clean.
func zoneConfigError(members []roster.Participant, cat *refdata.Catalog) (field, value string) {
	for _, p := range members {
		for _, s := range p.Slots {
			if _, ok := cat.CanonicalSlot(s); !ok {
				return "timeslot", s
			}
		}
		for _, in := range p.Interests {
			if _, ok := cat.CanonicalInterest(in); !ok {
				return "interest", in
			}
		}
	}
	return "", ""
}
