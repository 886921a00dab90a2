package main

import (
	"flag"
	"strings"

	"github.com/eliasmukasa/homelift-landing/internal/models"
)

// patchFlags are the profile field flags shared by create and edit. Only the
// flags given on the command line become specified patch fields.
type patchFlags struct {
	fs *flag.FlagSet

	fullName, primarySkill, bio, location        string
	secondary, languages, certifications, employ string
	education, references                        string
	experience                                   int

	fullTime, partTime bool
	days, hours        string

	policeStatus, policeDate, nationalID, healthNotes string
	contactName, contactRelationship, contactPhone    string

	notes, status string
}

func newPatchFlags(fs *flag.FlagSet) *patchFlags {
	p := &patchFlags{fs: fs}
	fs.StringVar(&p.fullName, "name", "", "full name")
	fs.StringVar(&p.primarySkill, "skill", "", "primary skill")
	fs.StringVar(&p.secondary, "secondary-skills", "", "comma-separated secondary skills (empty clears)")
	fs.IntVar(&p.experience, "experience", 0, "years of experience")
	fs.StringVar(&p.bio, "bio", "", "bio summary")
	fs.StringVar(&p.location, "location", "", "location preference")
	fs.StringVar(&p.languages, "languages", "", "comma-separated languages spoken (empty clears)")
	fs.StringVar(&p.certifications, "certifications", "", "comma-separated certifications (empty clears)")
	fs.StringVar(&p.education, "education", "", "education level")
	fs.StringVar(&p.employ, "employment", "", "semicolon-separated employment history (empty clears)")
	fs.StringVar(&p.references, "references", "", "references summary")

	fs.BoolVar(&p.fullTime, "full-time", false, "available full time")
	fs.BoolVar(&p.partTime, "part-time", false, "available part time")
	fs.StringVar(&p.days, "days", "", "comma-separated available days")
	fs.StringVar(&p.hours, "hours", "", "available hours")

	fs.StringVar(&p.policeStatus, "police-status", "", "police clearance status")
	fs.StringVar(&p.policeDate, "police-date", "", "police clearance date")
	fs.StringVar(&p.nationalID, "national-id", "", "national ID")
	fs.StringVar(&p.healthNotes, "health-notes", "", "health notes")
	fs.StringVar(&p.contactName, "contact-name", "", "emergency contact name")
	fs.StringVar(&p.contactRelationship, "contact-relationship", "", "emergency contact relationship")
	fs.StringVar(&p.contactPhone, "contact-phone", "", "emergency contact phone")

	fs.StringVar(&p.notes, "notes", "", "internal admin notes")
	fs.StringVar(&p.status, "status", "", `internal status: "Pending Review", "Approved - Ready for Match", "Matched" or "Inactive"`)
	return p
}

// patch builds the patch from the visited flags. Nested maps start from base
// so editing one availability flag keeps the rest.
func (p *patchFlags) patch(base *models.Profile) models.Patch {
	set := map[string]bool{}
	p.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	str := func(name, v string) models.Optional[string] {
		if !set[name] {
			return models.Unspecified[string]()
		}
		return models.Some(v)
	}
	list := func(name, v, sep string) models.Optional[[]string] {
		if !set[name] {
			return models.Unspecified[[]string]()
		}
		items := splitList(v, sep)
		if len(items) == 0 {
			return models.Null[[]string]()
		}
		return models.Some(items)
	}

	patch := models.Patch{
		FullName:              str("name", p.fullName),
		PrimarySkill:          str("skill", p.primarySkill),
		SecondarySkills:       list("secondary-skills", p.secondary, ","),
		BioSummary:            str("bio", p.bio),
		LocationPreference:    str("location", p.location),
		LanguagesSpoken:       list("languages", p.languages, ","),
		Certifications:        list("certifications", p.certifications, ","),
		EducationLevel:        str("education", p.education),
		EmploymentHistory:     list("employment", p.employ, ";"),
		ReferencesSummary:     str("references", p.references),
		PoliceClearanceStatus: str("police-status", p.policeStatus),
		PoliceClearanceDate:   str("police-date", p.policeDate),
		NationalID:            str("national-id", p.nationalID),
		HealthNotes:           str("health-notes", p.healthNotes),
		AdminNotes:            str("notes", p.notes),
	}
	if set["experience"] {
		patch.ExperienceYears = models.Some(p.experience)
	}
	if set["status"] {
		patch.InternalStatus = models.Some(models.Status(p.status))
	}

	if set["full-time"] || set["part-time"] || set["days"] || set["hours"] {
		var a models.Availability
		if base != nil && base.Availability != nil {
			a = *base.Availability
		}
		if set["full-time"] {
			a.FullTime = p.fullTime
		}
		if set["part-time"] {
			a.PartTime = p.partTime
		}
		if set["days"] {
			a.Days = splitList(p.days, ",")
		}
		if set["hours"] {
			a.Hours = p.hours
		}
		patch.Availability = models.Some(a)
	}

	if set["contact-name"] || set["contact-relationship"] || set["contact-phone"] {
		var c models.EmergencyContact
		if base != nil && base.EmergencyContact != nil {
			c = *base.EmergencyContact
		}
		if set["contact-name"] {
			c.Name = p.contactName
		}
		if set["contact-relationship"] {
			c.Relationship = p.contactRelationship
		}
		if set["contact-phone"] {
			c.Phone = p.contactPhone
		}
		patch.EmergencyContact = models.Some(c)
	}
	return patch
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
