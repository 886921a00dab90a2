package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPatch_UnmarshalJSON_TriState(t *testing.T) {
	t.Parallel()

	var p Patch
	body := `{"fullName":"Jane Doe","profilePhotoUrl":null,"experienceYears":4}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !p.FullName.IsSpecified() || p.FullName.IsNull() || p.FullName.Value() != "Jane Doe" {
		t.Fatalf("fullName=%+v", p.FullName)
	}
	if !p.ProfilePhotoURL.IsNull() {
		t.Fatalf("profilePhotoUrl should be specified as null: %+v", p.ProfilePhotoURL)
	}
	if p.ExperienceYears.Value() != 4 {
		t.Fatalf("experienceYears=%d", p.ExperienceYears.Value())
	}
	if p.BioSummary.IsSpecified() {
		t.Fatalf("bioSummary was omitted and must stay unspecified")
	}
}

func TestPatch_Fields_OnlySpecified(t *testing.T) {
	t.Parallel()

	p := Patch{
		FullName:        Some("X"),
		ProfilePhotoURL: Null[string](),
		InternalStatus:  Some(StatusMatched),
	}
	got := p.Fields()
	want := map[string]any{
		FieldFullName:        "X",
		FieldProfilePhotoURL: nil,
		FieldInternalStatus:  "Matched",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Fields()=%#v, want %#v", got, want)
	}
	if (Patch{}).IsEmpty() != true {
		t.Fatalf("zero patch should be empty")
	}
}

func TestPatch_Fields_NestedValues(t *testing.T) {
	t.Parallel()

	p := Patch{
		Availability: Some(Availability{FullTime: true, Days: []string{"Monday"}, Hours: "08:00-17:00"}),
		EmergencyContact: Some(EmergencyContact{
			Name: "Sarah", Relationship: "Sister", Phone: "+256700000000",
		}),
		ExperienceYears: Some(7),
	}
	got := p.Fields()

	avail, ok := got[FieldAvailability].(map[string]any)
	if !ok {
		t.Fatalf("availability=%T", got[FieldAvailability])
	}
	if avail["fullTime"] != true || avail["hours"] != "08:00-17:00" {
		t.Fatalf("availability=%#v", avail)
	}
	if got[FieldExperienceYears] != int64(7) {
		t.Fatalf("experienceYears=%#v", got[FieldExperienceYears])
	}
	contact := got[FieldEmergencyContact].(map[string]any)
	if contact["relationship"] != "Sister" {
		t.Fatalf("emergencyContact=%#v", contact)
	}
}

func TestPatchFromProfile_RoundTripsThroughFields(t *testing.T) {
	t.Parallel()

	photo := "https://example.test/a.jpg"
	in := Profile{
		FullName:           "Jane Doe",
		PrimarySkill:       "Elder Care",
		SecondarySkills:    []string{"Cooking"},
		ExperienceYears:    3,
		BioSummary:         "Calm and patient.",
		LocationPreference: "Kampala",
		ProfilePhotoURL:    &photo,
		Availability:       &Availability{PartTime: true, Days: []string{"Friday"}},
		InternalStatus:     StatusApproved,
	}

	out := ProfileFromFields("abc", PatchFromProfile(in).Fields())
	if out.ID != "abc" || out.FullName != in.FullName || out.PhotoURL() != photo {
		t.Fatalf("out=%+v", out)
	}
	if out.ExperienceYears != 3 || out.InternalStatus != StatusApproved {
		t.Fatalf("out=%+v", out)
	}
	if out.Availability == nil || !out.Availability.PartTime || out.Availability.Days[0] != "Friday" {
		t.Fatalf("availability=%+v", out.Availability)
	}
}
