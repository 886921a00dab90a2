package services_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/memory"
	"github.com/eliasmukasa/homelift-landing/internal/services"
)

func TestAvatarGuard(t *testing.T) {
	t.Parallel()
	png := pngBytes(t)

	policy := services.DefaultUploadPolicy()
	policy.MaxBytes = 1024

	cases := []struct {
		name        string
		key         string
		contentType string
		data        []byte
		size        string
		want        services.GuardAction
	}{
		{"valid png", "hcp_profile_pictures/a_ok.png", "image/png", png, "", services.GuardKept},
		{"text labelled png", "hcp_profile_pictures/b_fake.png", "image/png", []byte("definitely not an image"), "", services.GuardDeleted},
		{"declared too large", "hcp_profile_pictures/c_big.png", "image/png", png, "4096", services.GuardDeleted},
		{"actually too large", "hcp_profile_pictures/d_big.png", "image/png", append(append([]byte{}, png...), make([]byte, 2048)...), "100", services.GuardDeleted},
		{"disallowed type", "hcp_profile_pictures/e_doc.pdf", "application/pdf", []byte("%PDF-1.7"), "", services.GuardDeleted},
		{"type mismatch", "hcp_profile_pictures/f_liar.jpg", "image/jpeg", png, "", services.GuardDeleted},
		{"outside prefix", "documents/report.pdf", "application/pdf", []byte("%PDF-1.7"), "", services.GuardIgnored},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			objects := memory.NewObjectStore()
			objects.Seed(tc.key, tc.contentType, tc.data)
			guard := services.NewAvatarGuard(objects, "hcp_profile_pictures", policy, logging.Discard())

			size := tc.size
			if size == "" {
				size = strconv.Itoa(len(tc.data))
			}
			out, err := guard.Process(context.Background(), services.StorageObjectEvent{
				Bucket: "homelift.appspot.com", Name: tc.key, ContentType: tc.contentType, Size: size,
			})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if out.Action != tc.want {
				t.Fatalf("action=%s (%s), want %s", out.Action, out.Reason, tc.want)
			}
			_, exists := objects.Object(tc.key)
			if exists == (tc.want == services.GuardDeleted) {
				t.Fatalf("object exists=%v after %s", exists, out.Action)
			}
		})
	}
}

func TestAvatarGuard_AlreadyDeleted(t *testing.T) {
	t.Parallel()
	guard := services.NewAvatarGuard(memory.NewObjectStore(), "hcp_profile_pictures", services.DefaultUploadPolicy(), logging.Discard())
	out, err := guard.Process(context.Background(), services.StorageObjectEvent{
		Name: "hcp_profile_pictures/gone.png", ContentType: "image/png", Size: "10",
	})
	if err != nil || out.Action != services.GuardIgnored {
		t.Fatalf("out=%+v err=%v", out, err)
	}
}
