package services

import (
	"strings"
	"testing"

	"github.com/eliasmukasa/homelift-landing/internal/models"
)

func TestSheetLayout(t *testing.T) {
	t.Parallel()
	photo := "https://firebasestorage.googleapis.com/v0/b/homelift/o/x.png?alt=media"
	p := models.Profile{
		FullName:           "Grace Namutebi",
		PrimarySkill:       "Elder Care",
		ExperienceYears:    6,
		LocationPreference: "Kampala",
		SecondarySkills:    []string{"Cooking", "First Aid"},
		BioSummary:         strings.Repeat("Grace is patient, calm and reliable with elderly clients. ", 6),
		ProfilePhotoURL:    &photo,
		NationalID:         "CM900000000000",
		AdminNotes:         "internal only",
		Availability:       &models.Availability{FullTime: true, Days: []string{"Monday", "Tuesday"}},
	}

	doc := SheetLayout(p)
	if doc.Paper != "A4P" || doc.Origin != "UpperLeft" {
		t.Fatalf("doc=%+v", doc)
	}
	lines := doc.Pages["1"].Content.Text
	if len(lines) == 0 || lines[0].Value != "Grace Namutebi" || lines[0].Font != titleFont {
		t.Fatalf("first line=%+v", lines)
	}

	var all []string
	prevY := -1.0
	bioLines := 0
	for _, l := range lines {
		if n := len([]rune(l.Value)); n > sheetWrapChars {
			t.Fatalf("line of %d chars exceeds wrap width: %q", n, l.Value)
		}
		if l.Pos[1] <= prevY {
			t.Fatalf("lines must move down the page: %v after %v", l.Pos[1], prevY)
		}
		prevY = l.Pos[1]
		if l.Font == bodyFont && strings.Contains(p.BioSummary, l.Value) {
			bioLines++
		}
		all = append(all, l.Value)
	}
	text := strings.Join(all, "\n")
	if bioLines < 2 {
		t.Fatalf("bio should wrap over several lines:\n%s", text)
	}
	for _, want := range []string{"Elder Care", "6 years", "Kampala", "Cooking, First Aid", "Full-time; Monday, Tuesday", photo} {
		if !strings.Contains(text, want) {
			t.Fatalf("sheet missing %q:\n%s", want, text)
		}
	}
	for _, secret := range []string{"CM900000000000", "internal only"} {
		if strings.Contains(text, secret) {
			t.Fatalf("sheet leaks %q", secret)
		}
	}
}

func TestWrapText(t *testing.T) {
	t.Parallel()
	got := wrapText("aaa bbb cccccccccc dd", 7)
	want := []string{"aaa bbb", "ccccccc", "ccc dd"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("wrapText=%q, want %q", got, want)
	}
}
