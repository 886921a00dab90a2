package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/eliasmukasa/homelift-landing/internal/models"
)

// Layout of the one-page sheet, in points on A4 portrait with the origin at
// the upper left corner.
const (
	sheetMarginX   = 50
	sheetTop       = 60
	sheetLineGap   = 18
	sheetWrapChars = 88
)

type sheetFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type sheetText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  sheetFont  `json:"font"`
}

type sheetContent struct {
	Text []sheetText `json:"text"`
}

type sheetPage struct {
	Content sheetContent `json:"content"`
}

// SheetDoc is the pdfcpu create description of the sheet.
type SheetDoc struct {
	Paper  string               `json:"paper"`
	Origin string               `json:"origin"`
	Pages  map[string]sheetPage `json:"pages"`
}

var (
	titleFont = sheetFont{Name: "Helvetica-Bold", Size: 20}
	labelFont = sheetFont{Name: "Helvetica-Bold", Size: 11}
	bodyFont  = sheetFont{Name: "Helvetica", Size: 11}
)

// SheetLayout lays out the essentials of a profile: the fields shown on the
// public profile, never the vetting or admin fields.
func SheetLayout(p models.Profile) SheetDoc {
	var lines []sheetText
	y := float64(sheetTop)
	add := func(value string, font sheetFont) {
		lines = append(lines, sheetText{Value: value, Pos: [2]float64{sheetMarginX, y}, Font: font})
		y += sheetLineGap
	}
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		add(label, labelFont)
		for _, l := range wrapText(value, sheetWrapChars) {
			add(l, bodyFont)
		}
		y += sheetLineGap / 2
	}

	add(p.FullName, titleFont)
	y += sheetLineGap / 2
	field("Primary skill", p.PrimarySkill)
	field("Experience", experienceLabel(p.ExperienceYears))
	field("Location preference", p.LocationPreference)
	field("Other skills", strings.Join(p.SecondarySkills, ", "))
	field("Languages", strings.Join(p.LanguagesSpoken, ", "))
	field("Certifications", strings.Join(p.Certifications, ", "))
	field("Availability", availabilityLabel(p.Availability))
	field("About", p.BioSummary)
	field("Photo", p.PhotoURL())

	return SheetDoc{
		Paper:  "A4P",
		Origin: "UpperLeft",
		Pages:  map[string]sheetPage{"1": {Content: sheetContent{Text: lines}}},
	}
}

// RenderSheet writes the profile sheet PDF to w.
func RenderSheet(w io.Writer, p models.Profile) error {
	desc, err := json.Marshal(SheetLayout(p))
	if err != nil {
		return fmt.Errorf("encode sheet layout: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(desc), w, conf); err != nil {
		return fmt.Errorf("render profile sheet: %w", err)
	}
	return nil
}

func experienceLabel(years int) string {
	switch {
	case years <= 0:
		return "Less than a year"
	case years == 1:
		return "1 year"
	}
	return strconv.Itoa(years) + " years"
}

func availabilityLabel(a *models.Availability) string {
	if a == nil {
		return ""
	}
	var parts []string
	switch {
	case a.FullTime && a.PartTime:
		parts = append(parts, "Full-time or part-time")
	case a.FullTime:
		parts = append(parts, "Full-time")
	case a.PartTime:
		parts = append(parts, "Part-time")
	}
	if len(a.Days) > 0 {
		parts = append(parts, strings.Join(a.Days, ", "))
	}
	if a.Hours != "" {
		parts = append(parts, a.Hours)
	}
	return strings.Join(parts, "; ")
}

// wrapText splits s on word boundaries into lines of at most width runes.
// Words longer than width are cut.
func wrapText(s string, width int) []string {
	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > width {
			flush()
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= width:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			flush()
			cur = append(cur, w...)
		}
	}
	flush()
	return lines
}
