package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted, left untouched by a merge-write)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// UnmarshalJSON marks the field as specified. encoding/json only calls it when
// the key is present, which is what keeps omitted keys unspecified.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.specified = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.isNull = true
		var zero T
		o.value = zero
		return nil
	}
	o.isNull = false
	return json.Unmarshal(b, &o.value)
}

// Patch is the set of profile fields an edit touches. Only specified fields are
// sent to the store, so a save never overwrites what the admin did not change.
//
// dateCreated, lastUpdated and id are deliberately absent: the workflow owns them.
type Patch struct {
	FullName           Optional[string]   `json:"fullName"`
	PrimarySkill       Optional[string]   `json:"primarySkill"`
	SecondarySkills    Optional[[]string] `json:"secondarySkills"`
	ExperienceYears    Optional[int]      `json:"experienceYears"`
	BioSummary         Optional[string]   `json:"bioSummary"`
	LocationPreference Optional[string]   `json:"locationPreference"`
	ProfilePhotoURL    Optional[string]   `json:"profilePhotoUrl"`

	LanguagesSpoken   Optional[[]string]     `json:"languagesSpoken"`
	Certifications    Optional[[]string]     `json:"certifications"`
	EducationLevel    Optional[string]       `json:"educationLevel"`
	EmploymentHistory Optional[[]string]     `json:"employmentHistory"`
	ReferencesSummary Optional[string]       `json:"referencesSummary"`
	Availability      Optional[Availability] `json:"availability"`

	PoliceClearanceStatus Optional[string]           `json:"policeClearanceStatus"`
	PoliceClearanceDate   Optional[string]           `json:"policeClearanceDate"`
	NationalID            Optional[string]           `json:"nationalId"`
	HealthNotes           Optional[string]           `json:"healthNotes"`
	EmergencyContact      Optional[EmergencyContact] `json:"emergencyContact"`
	AdminNotes            Optional[string]           `json:"adminNotes"`

	InternalStatus Optional[Status] `json:"internalStatus"`
}

// Draft is a profile being edited. A draft without an ID has never been saved.
type Draft struct {
	ID    string `json:"id,omitempty"`
	Patch Patch  `json:"patch"`
}

// IsNew reports whether saving the draft creates a record.
func (d Draft) IsNew() bool { return d.ID == "" }

// PatchFromProfile specifies every editable field of p. It is the starting point
// for a create, or for an edit form that shows the stored values.
func PatchFromProfile(p Profile) Patch {
	patch := Patch{
		FullName:              Some(p.FullName),
		PrimarySkill:          Some(p.PrimarySkill),
		ExperienceYears:       Some(p.ExperienceYears),
		BioSummary:            Some(p.BioSummary),
		LocationPreference:    Some(p.LocationPreference),
		EducationLevel:        Some(p.EducationLevel),
		ReferencesSummary:     Some(p.ReferencesSummary),
		PoliceClearanceStatus: Some(p.PoliceClearanceStatus),
		PoliceClearanceDate:   Some(p.PoliceClearanceDate),
		NationalID:            Some(p.NationalID),
		HealthNotes:           Some(p.HealthNotes),
		AdminNotes:            Some(p.AdminNotes),
	}
	if p.ProfilePhotoURL != nil {
		patch.ProfilePhotoURL = Some(*p.ProfilePhotoURL)
	} else {
		patch.ProfilePhotoURL = Null[string]()
	}
	if p.SecondarySkills != nil {
		patch.SecondarySkills = Some(p.SecondarySkills)
	}
	if p.LanguagesSpoken != nil {
		patch.LanguagesSpoken = Some(p.LanguagesSpoken)
	}
	if p.Certifications != nil {
		patch.Certifications = Some(p.Certifications)
	}
	if p.EmploymentHistory != nil {
		patch.EmploymentHistory = Some(p.EmploymentHistory)
	}
	if p.Availability != nil {
		patch.Availability = Some(*p.Availability)
	}
	if p.EmergencyContact != nil {
		patch.EmergencyContact = Some(*p.EmergencyContact)
	}
	if p.InternalStatus != "" {
		patch.InternalStatus = Some(p.InternalStatus)
	}
	return patch
}

// IsEmpty reports whether no field is specified.
func (p Patch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the merge-write payload: one entry per specified field, with
// nil for fields specified as null.
func (p Patch) Fields() map[string]any {
	out := make(map[string]any)
	putString(out, FieldFullName, p.FullName)
	putString(out, FieldPrimarySkill, p.PrimarySkill)
	putStrings(out, FieldSecondarySkills, p.SecondarySkills)
	if p.ExperienceYears.IsSpecified() {
		if p.ExperienceYears.IsNull() {
			out[FieldExperienceYears] = nil
		} else {
			out[FieldExperienceYears] = int64(p.ExperienceYears.Value())
		}
	}
	putString(out, FieldBioSummary, p.BioSummary)
	putString(out, FieldLocationPreference, p.LocationPreference)
	putString(out, FieldProfilePhotoURL, p.ProfilePhotoURL)
	putStrings(out, FieldLanguagesSpoken, p.LanguagesSpoken)
	putStrings(out, FieldCertifications, p.Certifications)
	putString(out, FieldEducationLevel, p.EducationLevel)
	putStrings(out, FieldEmploymentHistory, p.EmploymentHistory)
	putString(out, FieldReferencesSummary, p.ReferencesSummary)
	if p.Availability.IsSpecified() {
		if p.Availability.IsNull() {
			out[FieldAvailability] = nil
		} else {
			a := p.Availability.Value()
			out[FieldAvailability] = map[string]any{
				"fullTime": a.FullTime,
				"partTime": a.PartTime,
				"days":     copyStrings(a.Days),
				"hours":    a.Hours,
			}
		}
	}
	putString(out, FieldPoliceClearanceStatus, p.PoliceClearanceStatus)
	putString(out, FieldPoliceClearanceDate, p.PoliceClearanceDate)
	putString(out, FieldNationalID, p.NationalID)
	putString(out, FieldHealthNotes, p.HealthNotes)
	if p.EmergencyContact.IsSpecified() {
		if p.EmergencyContact.IsNull() {
			out[FieldEmergencyContact] = nil
		} else {
			c := p.EmergencyContact.Value()
			out[FieldEmergencyContact] = map[string]any{
				"name":         c.Name,
				"relationship": c.Relationship,
				"phone":        c.Phone,
			}
		}
	}
	putString(out, FieldAdminNotes, p.AdminNotes)
	if p.InternalStatus.IsSpecified() {
		if p.InternalStatus.IsNull() {
			out[FieldInternalStatus] = nil
		} else {
			out[FieldInternalStatus] = string(p.InternalStatus.Value())
		}
	}
	return out
}

func putString(out map[string]any, key string, v Optional[string]) {
	if !v.IsSpecified() {
		return
	}
	if v.IsNull() {
		out[key] = nil
		return
	}
	out[key] = v.Value()
}

func putStrings(out map[string]any, key string, v Optional[[]string]) {
	if !v.IsSpecified() {
		return
	}
	if v.IsNull() {
		out[key] = nil
		return
	}
	out[key] = copyStrings(v.Value())
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
