package roster

import (
	"reflect"
	"testing"

	"podmatch/internal/refdata"
)

func TestNormalize_CanonicalizesCasingAndWhitespace(t *testing.T) {
	cat := refdata.Default()
	raw := []Participant{{
		ID:        " p1 ",
		Name:      "  Sam Rivers ",
		Email:     " Sam@Example.EDU ",
		Zone:      "tempe",
		Slots:     []string{"tue 14:00", "TUE 14:00", "wed 11:00"},
		Interests: []string{"Coding", "CODING", "Music"},
		Tags:      []string{" Commuter", "commuter", "International "},
	}}

	valid, excluded := Normalize(raw, cat)
	if len(excluded) != 0 {
		t.Fatalf("unexpected exclusions: %+v", excluded)
	}
	p := valid[0]
	if p.ID != "p1" || p.Name != "Sam Rivers" || p.Email != "sam@example.edu" {
		t.Errorf("identity fields not trimmed: %+v", p)
	}
	if p.Zone != "Tempe" {
		t.Errorf("zone = %q, want canonical Tempe", p.Zone)
	}
	// Duplicate slot collapsed, list capped at two, preference order kept.
	if !reflect.DeepEqual(p.Slots, []string{"Tue 14:00", "Wed 11:00"}) {
		t.Errorf("slots = %v", p.Slots)
	}
	if !reflect.DeepEqual(p.Interests, []string{"coding", "music"}) {
		t.Errorf("interests = %v", p.Interests)
	}
	if !reflect.DeepEqual(p.Tags, []string{"commuter", "international"}) {
		t.Errorf("tags = %v", p.Tags)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	cat := refdata.Default()
	raw := []Participant{{
		ID:        "p1",
		Zone:      "TEMPE",
		Slots:     []string{"Tue 14:00"},
		Interests: []string{"coding"},
		Tags:      []string{"Commuter"},
	}}
	once, _ := Normalize(raw, cat)
	twice, _ := Normalize(once, cat)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalize not idempotent:\n once %+v\ntwice %+v", once, twice)
	}
}

func TestNormalize_Exclusions(t *testing.T) {
	cat := refdata.Default()
	cases := []struct {
		name  string
		in    Participant
		field string
	}{
		{
			name:  "missing id",
			in:    Participant{Zone: "Tempe", Slots: []string{"Tue 14:00"}, Interests: []string{"coding"}},
			field: "id",
		},
		{
			name:  "missing zone",
			in:    Participant{ID: "x", Slots: []string{"Tue 14:00"}, Interests: []string{"coding"}},
			field: "zone",
		},
		{
			name:  "unknown zone",
			in:    Participant{ID: "x", Zone: "Atlantis", Slots: []string{"Tue 14:00"}, Interests: []string{"coding"}},
			field: "zone",
		},
		{
			name:  "no slots",
			in:    Participant{ID: "x", Zone: "Tempe", Interests: []string{"coding"}},
			field: "time_slots",
		},
		{
			name:  "only unknown slots",
			in:    Participant{ID: "x", Zone: "Tempe", Slots: []string{"Sun 03:00"}, Interests: []string{"coding"}},
			field: "time_slots",
		},
		{
			name:  "no interests",
			in:    Participant{ID: "x", Zone: "Tempe", Slots: []string{"Tue 14:00"}},
			field: "interests",
		},
		{
			name:  "only unknown interests",
			in:    Participant{ID: "x", Zone: "Tempe", Slots: []string{"Tue 14:00"}, Interests: []string{"basket-weaving"}},
			field: "interests",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			valid, excluded := Normalize([]Participant{tc.in}, cat)
			if len(valid) != 0 {
				t.Fatalf("record unexpectedly accepted: %+v", valid)
			}
			if len(excluded) != 1 {
				t.Fatalf("got %d exclusions, want 1", len(excluded))
			}
			if excluded[0].Field != tc.field {
				t.Errorf("field = %q, want %q (%s)", excluded[0].Field, tc.field, excluded[0].Error())
			}
		})
	}
}

func TestNormalize_DropsUnknownValuesButKeepsRecord(t *testing.T) {
	cat := refdata.Default()
	raw := []Participant{{
		ID:        "p1",
		Zone:      "West",
		Slots:     []string{"Sun 03:00", "Tue 14:00"},
		Interests: []string{"underwater-basket", "coding"},
	}}
	valid, excluded := Normalize(raw, cat)
	if len(excluded) != 0 {
		t.Fatalf("unexpected exclusions: %+v", excluded)
	}
	if !reflect.DeepEqual(valid[0].Slots, []string{"Tue 14:00"}) {
		t.Errorf("slots = %v", valid[0].Slots)
	}
	if !reflect.DeepEqual(valid[0].Interests, []string{"coding"}) {
		t.Errorf("interests = %v", valid[0].Interests)
	}
}
