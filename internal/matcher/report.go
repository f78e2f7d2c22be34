package matcher

// WarningKind classifies non-fatal findings surfaced for human follow-up.
type WarningKind string

const (
	// WarnUnderfilled flags a pod emitted below the minimum size because
	// its zone could not supply enough compatible participants.
	WarnUnderfilled WarningKind = "underfilled_zone"

	// WarnOversized flags a pod still above the size ceiling after the
	// bounded balancing pass gave up.
	WarnOversized WarningKind = "oversized_pod"

	// WarnBarrierUnmet flags an international participant who could not be
	// co-located with a language ally.
	WarnBarrierUnmet WarningKind = "barrier_unmet"

	// WarnZoneConfig flags a zone aborted because input data referenced an
	// enumeration value with no canonical mapping.
	WarnZoneConfig WarningKind = "zone_config"

	// WarnSlotMinority flags a pod whose chosen meeting slot is not shared
	// by a majority of its members. Chained pairwise overlaps can leave a
	// cluster with no majority slot at all; the pod still ships, but staff
	// should eyeball it.
	WarnSlotMinority WarningKind = "slot_minority"
)

// Warning is one non-fatal finding attached to the run report.
type Warning struct {
	Kind          WarningKind `json:"kind"`
	Zone          string      `json:"zone,omitempty"`
	PodID         string      `json:"pod_id,omitempty"`
	ParticipantID string      `json:"participant_id,omitempty"`
	Message       string      `json:"message"`
}

// Exclusion records a participant left out of the finalized pods, with the
// reason. No participant is ever dropped without an entry here.
type Exclusion struct {
	ParticipantID string `json:"participant_id"`
	Zone          string `json:"zone,omitempty"`
	Reason        string `json:"reason"`
}

// Report aggregates everything a run wants a human to look at afterwards.
type Report struct {
	Excluded []Exclusion `json:"excluded,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

func (r *Report) exclude(id, zone, reason string) {
	r.Excluded = append(r.Excluded, Exclusion{ParticipantID: id, Zone: zone, Reason: reason})
}

func (r *Report) warn(w Warning) {
	r.Warnings = append(r.Warnings, w)
}
