package jwtauth

import (
	"context"
	"testing"
	"time"

	"farm-traceability/internal/ports/auth"
)

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	p, err := New("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := auth.Claims{UserID: "u-1", Username: "alice", Role: "farmer"}
	token, err := p.Issue(context.Background(), in)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	out, err := p.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out != in {
		t.Fatalf("claims mismatch: got %+v want %+v", out, in)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	p, err := New("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	issuedAt := time.Now().Add(-2 * time.Hour)
	p.now = func() time.Time { return issuedAt }

	token, err := p.Issue(context.Background(), auth.Claims{UserID: "u-1", Username: "alice"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	p.now = time.Now
	if _, err := p.Verify(context.Background(), token); err == nil {
		t.Fatal("expected error verifying expired token")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	a, _ := New("secret-a", time.Hour)
	b, _ := New("secret-b", time.Hour)

	token, err := a.Issue(context.Background(), auth.Claims{UserID: "u-1", Username: "alice"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := b.Verify(context.Background(), token); err == nil {
		t.Fatal("expected error verifying token signed with other secret")
	}
}
