package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

type fakeGenerator struct {
	out    string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.out, g.err
}

func TestBioDrafter(t *testing.T) {
	t.Parallel()
	profile := models.Profile{
		ID:              "p1",
		FullName:        "Grace Namutebi",
		PrimarySkill:    "Elder Care",
		ExperienceYears: 6,
		NationalID:      "CM900000000000",
	}

	cases := []struct {
		name    string
		out     string
		err     error
		want    string
		wantErr error
	}{
		{"plain", "Grace is a caring professional.", nil, "Grace is a caring professional.", nil},
		{"fenced", "```markdown\nGrace is a caring professional.\n```", nil, "Grace is a caring professional.", nil},
		{"refusal", "I am unable to help with that request.", nil, "", services.ErrBioRefused},
		{"empty", "```\n```", nil, "", services.ErrBioEmpty},
		{"model error", "", errors.New("quota exceeded"), "", nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gen := &fakeGenerator{out: tc.out, err: tc.err}
			got, err := services.NewBioDrafter(gen, logging.Discard()).Draft(context.Background(), profile)

			switch {
			case tc.err != nil:
				if !errors.Is(err, tc.err) {
					t.Fatalf("err=%v, want wrapped %v", err, tc.err)
				}
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err=%v, want %v", err, tc.wantErr)
				}
			default:
				if err != nil || got != tc.want {
					t.Fatalf("got %q err=%v, want %q", got, err, tc.want)
				}
			}
			if !strings.Contains(gen.prompt, "Grace Namutebi") || strings.Contains(gen.prompt, "CM900000000000") {
				t.Fatalf("prompt must carry public facts only:\n%s", gen.prompt)
			}
		})
	}
}

func TestBioDrafter_RequiresName(t *testing.T) {
	t.Parallel()
	_, err := services.NewBioDrafter(&fakeGenerator{}, logging.Discard()).Draft(context.Background(), models.Profile{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err=%v", err)
	}
	if _, err := services.NewBioDrafter(nil, nil).Draft(context.Background(), models.Profile{FullName: "X"}); !errors.Is(err, services.ErrConfigurationMissing) {
		t.Fatalf("nil generator err=%v", err)
	}
}
