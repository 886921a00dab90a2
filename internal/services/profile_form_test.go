package services_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/eliasmukasa/homelift-landing/internal/models"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

func TestForm_UploadThenSubmit(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	form := services.NewForm(h.profiles, h.uploader)
	form.Set(func(p *models.Patch) { *p = validPatch() })

	var percents []float64
	photoURL, err := form.Upload(ctx, services.FileFromBytes("grace.png", "image/png", pngBytes(t)), func(ev services.UploadEvent) {
		percents = append(percents, ev.Percent())
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] <= percents[i-1] || percents[i] >= 100 {
			t.Fatalf("progress not strictly increasing below 100: %v", percents)
		}
	}
	if got := form.Draft().Patch.ProfilePhotoURL.Value(); got != photoURL {
		t.Fatalf("draft photo=%q, want %q", got, photoURL)
	}

	res, err := form.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	doc, _ := h.docs.Get(collection, res.ID)
	if doc[models.FieldProfilePhotoURL] != photoURL {
		t.Fatalf("stored photo=%v", doc[models.FieldProfilePhotoURL])
	}
	if !form.Draft().IsNew() || !form.Draft().Patch.IsEmpty() {
		t.Fatalf("draft should be reset after submit: %+v", form.Draft())
	}
	if state := h.uploader.State(); state.FileName != "" || state.ResultURL != "" {
		t.Fatalf("upload session should be reset after submit: %+v", state)
	}
}

func TestForm_UploadRequiresSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.gate.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	form := services.NewForm(h.profiles, h.uploader)
	_, err := form.Upload(ctx, services.FileFromBytes("grace.png", "image/png", pngBytes(t)), nil)
	if !errors.Is(err, services.ErrUnauthenticated) {
		t.Fatalf("err=%v, want ErrUnauthenticated", err)
	}
	if h.objects.Puts() != 0 || h.objects.Len() != 0 {
		t.Fatalf("signed-out upload reached storage: puts=%d objects=%d", h.objects.Puts(), h.objects.Len())
	}
	if state := h.uploader.State(); state.FileName != "" || state.InFlight {
		t.Fatalf("upload session touched: %+v", state)
	}
	if form.Draft().Patch.ProfilePhotoURL.IsSpecified() {
		t.Fatalf("draft changed: %+v", form.Draft())
	}
}

func TestForm_SubmitRefusedWhileUploading(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	form := services.NewForm(h.profiles, h.uploader)
	form.Set(func(p *models.Patch) { *p = validPatch() })

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := form.Upload(ctx, services.File{
			Name: "slow.png", ContentType: "image/png", Size: 30,
			Open: func() (io.ReadCloser, error) { return pr, nil },
		}, nil)
		done <- err
	}()

	// The first chunk write returns once the store has read it, so the
	// upload is in flight from here on.
	if _, err := pw.Write(make([]byte, 10)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := form.Submit(ctx); !errors.Is(err, services.ErrUploadInFlight) {
		t.Fatalf("Submit err=%v, want ErrUploadInFlight", err)
	}
	if h.docs.Calls("create") != 0 {
		t.Fatalf("nothing may be saved while the upload runs")
	}

	_, _ = pw.Write(make([]byte, 20))
	_ = pw.Close()
	if err := <-done; err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := form.Submit(ctx); err != nil {
		t.Fatalf("Submit after upload: %v", err)
	}
}

func TestForm_FailedUploadLeavesDraftAlone(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t)
	h.objects.FailPutAfter(0, errors.New("storage/retry-limit-exceeded"))

	form := services.NewForm(h.profiles, h.uploader)
	if _, err := form.Upload(context.Background(), services.FileFromBytes("a.png", "image/png", pngBytes(t)), nil); !errors.Is(err, services.ErrTransferFailed) {
		t.Fatalf("err=%v", err)
	}
	if form.Draft().Patch.ProfilePhotoURL.IsSpecified() {
		t.Fatalf("failed upload must not touch the draft")
	}
}

func TestForm_EditSendsOnlyTouchedFields(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t)
	h.docs.Seed(collection, "p1", map[string]any{"fullName": "Grace", "primarySkill": "Elder Care"})
	list, err := h.profiles.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	form := services.EditForm(h.profiles, list[0], nil)
	form.Set(func(p *models.Patch) { p.AdminNotes = models.Some("Interviewed 3 March") })
	res, err := form.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ID != "p1" || res.Created {
		t.Fatalf("res=%+v", res)
	}
	doc, _ := h.docs.Get(collection, "p1")
	if doc["adminNotes"] != "Interviewed 3 March" || doc["primarySkill"] != "Elder Care" {
		t.Fatalf("doc=%v", doc)
	}
	if form.Draft().ID != "p1" {
		t.Fatalf("edit form keeps its record after submit")
	}
}
