package matcher

import (
	"encoding/json"
	"fmt"
	"testing"

	"podmatch/internal/refdata"
	"podmatch/internal/roster"
)

func part(id, zone string, slots, interests, tags []string) roster.Participant {
	return roster.Participant{
		ID:        id,
		Name:      "Member " + id,
		Zone:      zone,
		Slots:     slots,
		Interests: interests,
		Tags:      tags,
	}
}

func testOpts() Options {
	return Options{StableIDs: true}
}

func TestRun_SingleSharedPod(t *testing.T) {
	cat := refdata.Default()
	var rosterIn []roster.Participant
	for i := 1; i <= 6; i++ {
		rosterIn = append(rosterIn, part(fmt.Sprintf("p%d", i), "Tempe",
			[]string{"Tue 14:00"}, []string{"coding"}, nil))
	}

	res := Run(rosterIn, cat, testOpts())

	if len(res.Pods) != 1 {
		t.Fatalf("got %d pods, want 1", len(res.Pods))
	}
	pod := res.Pods[0]
	if pod.Zone != "Tempe" {
		t.Errorf("zone = %q, want Tempe", pod.Zone)
	}
	if pod.Slot != "Tue 14:00" {
		t.Errorf("slot = %q, want Tue 14:00", pod.Slot)
	}
	if len(pod.MemberIDs) != 6 {
		t.Errorf("got %d members, want 6", len(pod.MemberIDs))
	}
	if len(res.Report.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", res.Report.Warnings)
	}
	if pod.CaptainID == "" {
		t.Error("captain not assigned")
	}
	if pod.Points != 0 || pod.Level != 0 || pod.Vibe != "neutral" {
		t.Errorf("gameplay fields not neutral: %+v", pod)
	}
}

func TestRun_UnderfilledZoneFlagged(t *testing.T) {
	cat := refdata.Default()
	rosterIn := []roster.Participant{
		part("a", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
		part("b", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
		part("c", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
	}

	res := Run(rosterIn, cat, testOpts())

	if len(res.Pods) != 1 {
		t.Fatalf("got %d pods, want 1", len(res.Pods))
	}
	if len(res.Pods[0].MemberIDs) != 3 {
		t.Fatalf("got %d members, want 3", len(res.Pods[0].MemberIDs))
	}
	found := false
	for _, w := range res.Report.Warnings {
		if w.Kind == WarnUnderfilled && w.PodID == res.Pods[0].ID {
			found = true
		}
	}
	if !found {
		t.Errorf("missing underfilled warning, got %+v", res.Report.Warnings)
	}
}

func TestRun_MinoritySlotFlagged(t *testing.T) {
	cat := refdata.Default()
	// A chain of pairwise slot overlaps with no slot shared by a majority:
	// every adjacent pair is compatible, but the best the pod can do is a
	// slot listed by 2 of 5 members.
	rosterIn := []roster.Participant{
		part("p1", "Tempe", []string{"Mon 10:00"}, []string{"coding"}, nil),
		part("p2", "Tempe", []string{"Mon 10:00", "Mon 12:00"}, []string{"coding"}, nil),
		part("p3", "Tempe", []string{"Mon 12:00", "Mon 16:00"}, []string{"coding"}, nil),
		part("p4", "Tempe", []string{"Mon 16:00", "Tue 10:00"}, []string{"coding"}, nil),
		part("p5", "Tempe", []string{"Tue 10:00", "Tue 12:00"}, []string{"coding"}, nil),
	}

	res := Run(rosterIn, cat, testOpts())

	if len(res.Pods) != 1 {
		t.Fatalf("got %d pods, want 1", len(res.Pods))
	}
	pod := res.Pods[0]
	if pod.Slot != "Mon 10:00" {
		t.Errorf("slot = %q, want Mon 10:00 (earliest catalog slot among the tied)", pod.Slot)
	}
	found := false
	for _, w := range res.Report.Warnings {
		if w.Kind == WarnSlotMinority && w.PodID == pod.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("missing slot_minority warning, got %+v", res.Report.Warnings)
	}
}

func TestRun_ZeroSharedInterestsNeverPair(t *testing.T) {
	cat := refdata.Default()
	rosterIn := []roster.Participant{
		part("intl", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, []string{refdata.TagInternational}),
		part("ally", "Tempe", []string{"Tue 14:00"}, []string{"music"}, []string{refdata.TagLanguageAlly}),
	}

	res := Run(rosterIn, cat, testOpts())

	if len(res.Pods) != 2 {
		t.Fatalf("got %d pods, want 2 (zero shared interests must not pair)", len(res.Pods))
	}
	for _, pod := range res.Pods {
		if len(pod.MemberIDs) != 1 {
			t.Errorf("pod %s has %d members, want 1", pod.ID, len(pod.MemberIDs))
		}
	}

	barrier := false
	for _, w := range res.Report.Warnings {
		if w.Kind == WarnBarrierUnmet && w.ParticipantID == "intl" {
			barrier = true
		}
	}
	if !barrier {
		t.Errorf("missing barrier_unmet warning for intl, got %+v", res.Report.Warnings)
	}
}

func TestRun_LanguageAllyPreferred(t *testing.T) {
	cat := refdata.Default()
	rosterIn := []roster.Participant{
		part("seed", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, []string{refdata.TagInternational}),
		part("plain", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
		part("ally", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, []string{refdata.TagLanguageAlly}),
	}

	res := Run(rosterIn, cat, testOpts())

	if len(res.Pods) != 1 {
		t.Fatalf("got %d pods, want 1", len(res.Pods))
	}
	got := res.Pods[0].MemberIDs
	// The ally is absorbed before the equally-compatible earlier signup.
	want := []string{"seed", "ally", "plain"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("member order = %v, want %v", got, want)
		}
	}
	for _, w := range res.Report.Warnings {
		if w.Kind == WarnBarrierUnmet {
			t.Errorf("unexpected barrier warning: %+v", w)
		}
	}
}

func TestRun_CommuterMiddaySlotPreference(t *testing.T) {
	cat := refdata.Default()
	// Everyone shares a non-midday slot earlier in the catalog and a midday
	// one; the commuter tag flips the tie toward midday.
	mk := func(tagged bool) []roster.Participant {
		var tags []string
		if tagged {
			tags = []string{refdata.TagCommuter}
		}
		var out []roster.Participant
		for i := 1; i <= 5; i++ {
			var tt []string
			if i == 1 {
				tt = tags
			}
			out = append(out, part(fmt.Sprintf("m%d", i), "West",
				[]string{"Tue 10:00", "Tue 12:00"}, []string{"hiking"}, tt))
		}
		return out
	}

	plain := Run(mk(false), cat, testOpts())
	if plain.Pods[0].Slot != "Tue 10:00" {
		t.Errorf("without commuter: slot = %q, want Tue 10:00", plain.Pods[0].Slot)
	}
	commuter := Run(mk(true), cat, testOpts())
	if commuter.Pods[0].Slot != "Tue 12:00" {
		t.Errorf("with commuter: slot = %q, want Tue 12:00", commuter.Pods[0].Slot)
	}
}

func TestRun_EveryParticipantPlacedOrReported(t *testing.T) {
	cat := refdata.Default()
	var rosterIn []roster.Participant
	interests := [][]string{{"coding", "gaming"}, {"gaming", "music"}, {"music"}, {"art", "coding"}}
	slots := [][]string{{"Tue 14:00"}, {"Tue 14:00", "Wed 11:00"}, {"Wed 11:00"}}
	for i := 0; i < 23; i++ {
		zone := []string{"Tempe", "West"}[i%2]
		rosterIn = append(rosterIn, part(fmt.Sprintf("p%02d", i), zone,
			slots[i%len(slots)], interests[i%len(interests)], nil))
	}

	res := Run(rosterIn, cat, testOpts())

	placed := map[string]int{}
	for _, pod := range res.Pods {
		for _, id := range pod.MemberIDs {
			placed[id]++
		}
	}
	excluded := map[string]bool{}
	for _, e := range res.Report.Excluded {
		excluded[e.ParticipantID] = true
	}
	for _, p := range rosterIn {
		if placed[p.ID] > 1 {
			t.Errorf("participant %s placed %d times", p.ID, placed[p.ID])
		}
		if placed[p.ID] == 0 && !excluded[p.ID] {
			t.Errorf("participant %s silently dropped", p.ID)
		}
	}
	for _, pod := range res.Pods {
		if len(pod.MemberIDs) > 9 {
			t.Errorf("pod %s has %d members, above hard ceiling", pod.ID, len(pod.MemberIDs))
		}
		for _, id := range pod.MemberIDs {
			for _, p := range rosterIn {
				if p.ID == id && p.Zone != pod.Zone {
					t.Errorf("participant %s in zone %s assigned to pod zone %s", id, p.Zone, pod.Zone)
				}
			}
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	cat := refdata.Default()
	tagSets := [][]string{nil, {refdata.TagCommuter}, {refdata.TagInternational}, {refdata.TagLanguageAlly}}
	var rosterIn []roster.Participant
	for i := 0; i < 40; i++ {
		zone := cat.Zones[i%len(cat.Zones)]
		rosterIn = append(rosterIn, part(fmt.Sprintf("p%02d", i), zone,
			[]string{cat.Slots[i%4], cat.Slots[(i+3)%len(cat.Slots)]},
			[]string{cat.Interests[i%5], cat.Interests[(i+2)%len(cat.Interests)]},
			tagSets[i%4]))
	}

	first, err := json.Marshal(Run(rosterIn, cat, testOpts()))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Run(rosterIn, cat, testOpts()))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("two runs over the identical roster produced different output")
	}
}

func TestRun_ZoneConfigErrorAbortsZoneOnly(t *testing.T) {
	cat := refdata.Default()
	rosterIn := []roster.Participant{
		part("bad1", "Tempe", []string{"Tue 14:00"}, []string{"basket-weaving"}, nil),
		part("bad2", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
	}
	for i := 1; i <= 5; i++ {
		rosterIn = append(rosterIn, part(fmt.Sprintf("w%d", i), "West",
			[]string{"Wed 11:00"}, []string{"music"}, nil))
	}

	res := Run(rosterIn, cat, testOpts())

	if len(res.Pods) != 1 || res.Pods[0].Zone != "West" {
		t.Fatalf("expected only the West pod to survive, got %+v", res.Pods)
	}
	excluded := map[string]bool{}
	for _, e := range res.Report.Excluded {
		excluded[e.ParticipantID] = true
	}
	if !excluded["bad1"] || !excluded["bad2"] {
		t.Errorf("aborted zone members not reported: %+v", res.Report.Excluded)
	}
	zoneWarn := false
	for _, w := range res.Report.Warnings {
		if w.Kind == WarnZoneConfig && w.Zone == "Tempe" {
			zoneWarn = true
		}
	}
	if !zoneWarn {
		t.Errorf("missing zone_config warning, got %+v", res.Report.Warnings)
	}
}

func TestRun_UnknownZoneExcluded(t *testing.T) {
	cat := refdata.Default()
	rosterIn := []roster.Participant{
		part("ghost", "Atlantis", []string{"Tue 14:00"}, []string{"coding"}, nil),
	}
	res := Run(rosterIn, cat, testOpts())
	if len(res.Pods) != 0 {
		t.Fatalf("got pods for unknown zone: %+v", res.Pods)
	}
	if len(res.Report.Excluded) != 1 || res.Report.Excluded[0].ParticipantID != "ghost" {
		t.Errorf("unknown-zone participant not reported: %+v", res.Report.Excluded)
	}
}

func TestRun_SkipCaptains(t *testing.T) {
	cat := refdata.Default()
	var rosterIn []roster.Participant
	for i := 1; i <= 5; i++ {
		rosterIn = append(rosterIn, part(fmt.Sprintf("p%d", i), "Tempe",
			[]string{"Tue 14:00"}, []string{"coding"}, nil))
	}
	opts := testOpts()
	opts.SkipCaptains = true

	res := Run(rosterIn, cat, opts)
	if res.Pods[0].CaptainID != "" {
		t.Errorf("captain = %q, want unset for the approval workflow", res.Pods[0].CaptainID)
	}
}

func TestRun_CaptainMatchesAggregate(t *testing.T) {
	cat := refdata.Default()
	rosterIn := []roster.Participant{
		part("one", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
		part("two", "Tempe", []string{"Tue 14:00"}, []string{"coding", "gaming", "music"}, nil),
		part("three", "Tempe", []string{"Tue 14:00"}, []string{"coding", "gaming"}, nil),
		part("four", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
		part("five", "Tempe", []string{"Tue 14:00"}, []string{"coding"}, nil),
	}

	res := Run(rosterIn, cat, testOpts())
	if len(res.Pods) != 1 {
		t.Fatalf("got %d pods, want 1", len(res.Pods))
	}
	if res.Pods[0].CaptainID != "two" {
		t.Errorf("captain = %q, want the member covering most aggregate interests", res.Pods[0].CaptainID)
	}
}
