package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eliasmukasa/homelift-landing/internal/services"
)

func TestDocumentStore_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewDocumentStore()

	id, err := s.Create(ctx, "hcpProfiles", map[string]any{"secondarySkills": []string{"Cooking"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	docs, _ := s.List(ctx, "hcpProfiles")
	docs[0].Fields["secondarySkills"].([]string)[0] = "mutated"

	stored, _ := s.Get("hcpProfiles", id)
	if stored["secondarySkills"].([]string)[0] != "Cooking" {
		t.Fatalf("List must return copies")
	}
	if len(id) != 20 {
		t.Fatalf("id=%q, want 20 chars", id)
	}
}

func TestDocumentStore_FailNext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewDocumentStore()
	boom := errors.New("unavailable")

	s.FailNext("create", boom)
	if _, err := s.Create(ctx, "c", map[string]any{"a": 1}); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if _, err := s.Create(ctx, "c", map[string]any{"a": 1}); err != nil {
		t.Fatalf("failure should apply once: %v", err)
	}
	if s.Calls("create") != 2 {
		t.Fatalf("calls=%d", s.Calls("create"))
	}
	docs, _ := s.List(ctx, "c")
	if len(docs) != 1 {
		t.Fatalf("failed create must not store: %d docs", len(docs))
	}
}

func TestObjectStore_ProgressAndFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewObjectStore()
	s.SetChunkSize(10)

	var progress []int64
	err := s.Put(ctx, "a/b.png", bytes.NewReader(make([]byte, 25)), services.PutOptions{
		Progress: func(n int64) { progress = append(progress, n) },
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(progress) != 3 || progress[0] != 10 || progress[1] != 20 || progress[2] != 25 {
		t.Fatalf("progress=%v", progress)
	}

	denied := errors.New("storage/unauthorized")
	s.FailPutAfter(15, denied)
	progress = nil
	err = s.Put(ctx, "a/c.png", bytes.NewReader(make([]byte, 25)), services.PutOptions{
		Progress: func(n int64) { progress = append(progress, n) },
	})
	if !errors.Is(err, denied) {
		t.Fatalf("err=%v", err)
	}
	if len(progress) != 1 || progress[0] != 10 {
		t.Fatalf("progress before failure=%v", progress)
	}
	if _, ok := s.Object("a/c.png"); ok {
		t.Fatalf("failed put must not store the object")
	}
}

func TestIdentityProvider_HoldAndRelease(t *testing.T) {
	t.Parallel()
	p := NewIdentityProvider()
	p.AddUser("admin@homelift.test", "s3cret")
	p.Hold()

	var got []services.IdentityChange
	p.Subscribe(func(c services.IdentityChange) { got = append(got, c) })
	if len(got) != 0 {
		t.Fatalf("held provider delivered %v", got)
	}

	if _, err := p.SignIn(context.Background(), "admin@homelift.test", "wrong"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("err=%v", err)
	}
	if _, err := p.SignIn(context.Background(), "admin@homelift.test", "s3cret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	p.Release()

	if len(got) != 2 {
		t.Fatalf("notifications=%v", got)
	}
	if got[0].Identity == nil || got[0].Seq != 1 {
		t.Fatalf("sign-in notification=%+v", got[0])
	}
	if got[1].Identity != nil || got[1].Seq != 0 {
		t.Fatalf("released initial notification=%+v", got[1])
	}
}

func TestManualClock(t *testing.T) {
	t.Parallel()
	start := time.Unix(100, 0).UTC()
	c := NewManualClock(start)
	c.Advance(time.Minute)
	if !c.Now().Equal(start.Add(time.Minute)) {
		t.Fatalf("Now=%v", c.Now())
	}
}

func TestAccounts_IssueAndVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := NewManualClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	a := NewAccounts(clock)
	want := a.AddUser("admin@homelift.test", "pw")

	if _, err := a.SignInWithPassword(ctx, "admin@homelift.test", "nope"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("wrong password err=%v", err)
	}
	creds, err := a.SignInWithPassword(ctx, "admin@homelift.test", "pw")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if creds.Identity != want || creds.Expired(clock.Now()) {
		t.Fatalf("creds=%+v", creds)
	}

	got, err := a.Verify(ctx, creds.IDToken)
	if err != nil || got != want {
		t.Fatalf("Verify=%+v err=%v", got, err)
	}
	if _, err := a.Verify(ctx, "forged"); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("forged token err=%v", err)
	}
	clock.Advance(2 * time.Hour)
	if _, err := a.Verify(ctx, creds.IDToken); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expired token err=%v", err)
	}
}

func TestAccounts_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := NewManualClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	a := NewAccounts(clock)
	want := a.AddUser("admin@homelift.test", "pw")
	creds, err := a.SignInWithPassword(ctx, "admin@homelift.test", "pw")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}

	clock.Advance(2 * time.Hour)
	renewed, err := a.Refresh(ctx, creds)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if renewed.Identity != want || renewed.Expired(clock.Now()) || renewed.RefreshToken == creds.RefreshToken {
		t.Fatalf("renewed=%+v", renewed)
	}
	if got, err := a.Verify(ctx, renewed.IDToken); err != nil || got != want {
		t.Fatalf("Verify renewed=%+v err=%v", got, err)
	}
	if _, err := a.Refresh(ctx, creds); !errors.Is(err, ErrUnknownRefreshToken) {
		t.Fatalf("reused refresh token err=%v", err)
	}
}
