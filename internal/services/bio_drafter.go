package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eliasmukasa/homelift-landing/internal/models"
)

// BioSystemPrompt is the system instruction of the bio drafting model.
const BioSystemPrompt = "You write short, warm and factual profile summaries of home-care professionals for families looking to hire them. You only use the facts you are given."

const bioUserPrompt = `Write a bioSummary of 60 to 90 words for the home-care professional described below.

Rules:
1.  Write in the third person and use the professional's first name.
2.  Mention the primary skill, years of experience and location preference.
3.  Do not invent certifications, employers or personal details that are not listed.
4.  Do not mention vetting, police clearance, health or identification details.
5.  Return ONLY the summary text. No title, no quotes, no markdown.

Professional:
`

var (
	ErrBioRefused = errors.New("model refused to draft a bio")
	ErrBioEmpty   = errors.New("model returned an empty bio")
)

// BioDrafter suggests a bioSummary from a profile's structured fields. The
// suggestion is returned to the admin and never saved by the drafter.
type BioDrafter struct {
	generator TextGenerator
	logger    *slog.Logger
}

func NewBioDrafter(generator TextGenerator, logger *slog.Logger) *BioDrafter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BioDrafter{generator: generator, logger: logger}
}

// Draft asks the model for a bio suggestion.
func (d *BioDrafter) Draft(ctx context.Context, p models.Profile) (string, error) {
	logCtx := d.logger.With("profileId", p.ID)
	if d.generator == nil {
		return "", fail(ErrConfigurationMissing)
	}
	if strings.TrimSpace(p.FullName) == "" {
		return "", &ValidationError{FieldErrors: map[string]string{models.FieldFullName: "required"}}
	}

	logCtx.Info("Drafting bio.")
	out, err := d.generator.Generate(ctx, BioPrompt(p))
	if err != nil {
		logCtx.Error("Call to Vertex AI for bio draft failed", "error", err)
		return "", fmt.Errorf("failed to generate bio from gemini: %w", err)
	}

	bio := stripFences(out)

	// Sanity check for LLM refusal.
	refusalPhrases := []string{
		"i am unable to",
		"i cannot fulfill",
		"i cannot answer",
		"as a large language model",
	}
	lower := strings.ToLower(bio)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			logCtx.Error("LLM refusal detected", "response", bio)
			return "", ErrBioRefused
		}
	}
	if bio == "" {
		logCtx.Warn("No text extracted from bio response.")
		return "", ErrBioEmpty
	}
	logCtx.Info("Bio draft ready.", "chars", len(bio))
	return bio, nil
}

// BioPrompt lists the public facts of p for the model.
func BioPrompt(p models.Profile) string {
	var b strings.Builder
	b.WriteString(bioUserPrompt)
	line := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	line("Name", p.FullName)
	line("Primary skill", p.PrimarySkill)
	line("Experience", experienceLabel(p.ExperienceYears))
	line("Location preference", p.LocationPreference)
	line("Other skills", strings.Join(p.SecondarySkills, ", "))
	line("Languages", strings.Join(p.LanguagesSpoken, ", "))
	line("Certifications", strings.Join(p.Certifications, ", "))
	line("Education", p.EducationLevel)
	line("Availability", availabilityLabel(p.Availability))
	line("Current summary", p.BioSummary)
	return b.String()
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.Trim(strings.TrimSpace(s), `"`)
}
