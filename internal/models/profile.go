package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Status tracks where an HCP is in the internal review lifecycle.
type Status string

const (
	StatusPendingReview Status = "Pending Review"
	StatusApproved      Status = "Approved - Ready for Match"
	StatusMatched       Status = "Matched"
	StatusInactive      Status = "Inactive"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPendingReview, StatusApproved, StatusMatched, StatusInactive}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Firestore field names. They match the documents written by the web admin.
const (
	FieldFullName              = "fullName"
	FieldPrimarySkill          = "primarySkill"
	FieldSecondarySkills       = "secondarySkills"
	FieldExperienceYears       = "experienceYears"
	FieldBioSummary            = "bioSummary"
	FieldLocationPreference    = "locationPreference"
	FieldProfilePhotoURL       = "profilePhotoUrl"
	FieldLanguagesSpoken       = "languagesSpoken"
	FieldCertifications        = "certifications"
	FieldEducationLevel        = "educationLevel"
	FieldEmploymentHistory     = "employmentHistory"
	FieldReferencesSummary     = "referencesSummary"
	FieldAvailability          = "availability"
	FieldPoliceClearanceStatus = "policeClearanceStatus"
	FieldPoliceClearanceDate   = "policeClearanceDate"
	FieldNationalID            = "nationalId"
	FieldHealthNotes           = "healthNotes"
	FieldEmergencyContact      = "emergencyContact"
	FieldAdminNotes            = "adminNotes"
	FieldInternalStatus        = "internalStatus"
	FieldDateCreated           = "dateCreated"
	FieldLastUpdated           = "lastUpdated"
)

var knownFields = map[string]bool{
	FieldFullName: true, FieldPrimarySkill: true, FieldSecondarySkills: true,
	FieldExperienceYears: true, FieldBioSummary: true, FieldLocationPreference: true,
	FieldProfilePhotoURL: true, FieldLanguagesSpoken: true, FieldCertifications: true,
	FieldEducationLevel: true, FieldEmploymentHistory: true, FieldReferencesSummary: true,
	FieldAvailability: true, FieldPoliceClearanceStatus: true, FieldPoliceClearanceDate: true,
	FieldNationalID: true, FieldHealthNotes: true, FieldEmergencyContact: true,
	FieldAdminNotes: true, FieldInternalStatus: true, FieldDateCreated: true,
	FieldLastUpdated: true,
	// Older documents sometimes carry their own id field; the store ID always wins.
	"id": true,
}

// Availability describes when an HCP can work.
type Availability struct {
	FullTime bool     `json:"fullTime"`
	PartTime bool     `json:"partTime"`
	Days     []string `json:"days"`
	Hours    string   `json:"hours"`
}

// EmergencyContact is the person to call on the HCP's behalf.
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// Profile is the persisted record for one home-care professional.
//
// ID is assigned by the document store on first create and is empty for drafts.
// DateCreated and LastUpdated are owned by the workflow and never edited by hand.
type Profile struct {
	ID string `json:"id,omitempty"`

	FullName           string   `json:"fullName"`
	PrimarySkill       string   `json:"primarySkill"`
	SecondarySkills    []string `json:"secondarySkills,omitempty"`
	ExperienceYears    int      `json:"experienceYears"`
	BioSummary         string   `json:"bioSummary"`
	LocationPreference string   `json:"locationPreference"`
	ProfilePhotoURL    *string  `json:"profilePhotoUrl"`

	LanguagesSpoken   []string      `json:"languagesSpoken,omitempty"`
	Certifications    []string      `json:"certifications,omitempty"`
	EducationLevel    string        `json:"educationLevel,omitempty"`
	EmploymentHistory []string      `json:"employmentHistory,omitempty"`
	ReferencesSummary string        `json:"referencesSummary,omitempty"`
	Availability      *Availability `json:"availability,omitempty"`

	PoliceClearanceStatus string            `json:"policeClearanceStatus,omitempty"`
	PoliceClearanceDate   string            `json:"policeClearanceDate,omitempty"`
	NationalID            string            `json:"nationalId,omitempty"`
	HealthNotes           string            `json:"healthNotes,omitempty"`
	EmergencyContact      *EmergencyContact `json:"emergencyContact,omitempty"`
	AdminNotes            string            `json:"adminNotes,omitempty"`

	InternalStatus Status     `json:"internalStatus,omitempty"`
	DateCreated    *time.Time `json:"dateCreated,omitempty"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`

	// Extra holds stored fields this model does not know about. They are read
	// back for display and never written by an update.
	Extra map[string]any `json:"extra,omitempty"`
}

// PhotoURL returns the profile photo URL or "" when none is set.
func (p Profile) PhotoURL() string {
	if p.ProfilePhotoURL == nil {
		return ""
	}
	return *p.ProfilePhotoURL
}

// timestampLayout matches JavaScript's Date.prototype.toISOString, which is what
// the existing documents contain.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t the way dateCreated and lastUpdated are stored.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ProfileFromFields decodes a stored document. Decoding is lenient: values of an
// unexpected type are skipped so one malformed field never hides a whole record.
func ProfileFromFields(id string, fields map[string]any) Profile {
	p := Profile{ID: id}
	for key, raw := range fields {
		switch key {
		case FieldFullName:
			p.FullName = asString(raw)
		case FieldPrimarySkill:
			p.PrimarySkill = asString(raw)
		case FieldSecondarySkills:
			p.SecondarySkills = asStrings(raw)
		case FieldExperienceYears:
			p.ExperienceYears = asInt(raw)
		case FieldBioSummary:
			p.BioSummary = asString(raw)
		case FieldLocationPreference:
			p.LocationPreference = asString(raw)
		case FieldProfilePhotoURL:
			if s, ok := raw.(string); ok && s != "" {
				p.ProfilePhotoURL = &s
			}
		case FieldLanguagesSpoken:
			p.LanguagesSpoken = asStrings(raw)
		case FieldCertifications:
			p.Certifications = asStrings(raw)
		case FieldEducationLevel:
			p.EducationLevel = asString(raw)
		case FieldEmploymentHistory:
			p.EmploymentHistory = asStrings(raw)
		case FieldReferencesSummary:
			p.ReferencesSummary = asString(raw)
		case FieldAvailability:
			if m, ok := raw.(map[string]any); ok {
				p.Availability = &Availability{
					FullTime: asBool(m["fullTime"]),
					PartTime: asBool(m["partTime"]),
					Days:     asStrings(m["days"]),
					Hours:    asString(m["hours"]),
				}
			}
		case FieldPoliceClearanceStatus:
			p.PoliceClearanceStatus = asString(raw)
		case FieldPoliceClearanceDate:
			p.PoliceClearanceDate = asString(raw)
		case FieldNationalID:
			p.NationalID = asString(raw)
		case FieldHealthNotes:
			p.HealthNotes = asString(raw)
		case FieldEmergencyContact:
			if m, ok := raw.(map[string]any); ok {
				p.EmergencyContact = &EmergencyContact{
					Name:         asString(m["name"]),
					Relationship: asString(m["relationship"]),
					Phone:        asString(m["phone"]),
				}
			}
		case FieldAdminNotes:
			p.AdminNotes = asString(raw)
		case FieldInternalStatus:
			p.InternalStatus = Status(asString(raw))
		case FieldDateCreated:
			p.DateCreated = asTime(raw)
		case FieldLastUpdated:
			p.LastUpdated = asTime(raw)
		}
		if !knownFields[key] {
			if p.Extra == nil {
				p.Extra = make(map[string]any)
			}
			p.Extra[key] = raw
		}
	}
	return p
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asInt accepts the numeric shapes Firestore and JSON produce. The web admin
// stored experienceYears as a JS number, which may come back as a double.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, len(list))
		copy(out, list)
		return out
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		u := t.UTC()
		return &u
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil
		}
		u := parsed.UTC()
		return &u
	}
	return nil
}
