package services_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/memory"
	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

const (
	adminEmail    = "admin@homelift.test"
	adminPassword = "correct-horse"
	collection    = "hcpProfiles"
)

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

type harness struct {
	provider *memory.IdentityProvider
	docs     *memory.DocumentStore
	objects  *memory.ObjectStore
	clock    *memory.ManualClock
	gate     *services.SessionGate
	profiles *services.ProfileWorkflow
	uploader *services.AvatarUploader
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		provider: memory.NewIdentityProvider(),
		docs:     memory.NewDocumentStore(),
		objects:  memory.NewObjectStore(),
		clock:    memory.NewManualClock(testNow),
	}
	h.provider.AddUser(adminEmail, adminPassword)
	h.objects.SetChunkSize(10)
	h.gate = services.NewSessionGate(h.provider, nil, logging.Discard())
	h.profiles = services.NewProfileWorkflow(h.gate, h.docs, h.clock, collection, logging.Discard())
	h.uploader = services.NewAvatarUploader(h.objects, "hcp_profile_pictures", services.DefaultUploadPolicy(), logging.Discard())
	t.Cleanup(func() {
		h.profiles.Close()
		h.gate.Close()
	})
	return h
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	if _, err := h.gate.SignIn(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
}

func validPatch() models.Patch {
	return models.Patch{
		FullName:           models.Some("Grace Namutebi"),
		PrimarySkill:       models.Some("Elder Care"),
		ExperienceYears:    models.Some(6),
		BioSummary:         models.Some("Grace has cared for elderly clients in Kampala for six years."),
		LocationPreference: models.Some("Kampala"),
	}
}

// pngBytes encodes a small valid PNG.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}
