package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"ADMIN":  RoleAdmin,
		"admin":  RoleAdmin,
		" User ": RoleUser,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		if err != nil {
			t.Fatalf("ParseRole(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}

	for _, in := range []string{"", "root", "ADMINS"} {
		if _, err := ParseRole(in); !errors.Is(err, ErrBadRequest) {
			t.Fatalf("ParseRole(%q): expected bad request, got %v", in, err)
		}
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()

	s := Session{}
	if s.Expired(now) {
		t.Fatalf("session without expiry must never expire")
	}

	s.ExpiresAt = now.Add(time.Minute)
	if s.Expired(now) {
		t.Fatalf("session expired early")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatalf("session should be expired at ExpiresAt")
	}
}
