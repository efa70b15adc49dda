package identity

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSessionKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultSessionID},
		{"   ", DefaultSessionID},
		{"abc-123", "abc-123"},
		{" wa:9198 ", "wa:9198"},
	}
	for _, tt := range tests {
		if got := SessionKey(tt.in); got != tt.want {
			t.Fatalf("SessionKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSessionKeyHashesUnsafeIDs(t *testing.T) {
	t.Parallel()

	a := SessionKey("../etc/passwd")
	b := SessionKey("../etc/shadow")
	if !strings.HasPrefix(a, "h_") || a == b {
		t.Fatalf("expected distinct hashed keys, got %q and %q", a, b)
	}
	if SessionKey("..") == ".." {
		t.Fatal("dot-only ids must not be used as keys")
	}
	if SessionKey(strings.Repeat("x", 200)) == strings.Repeat("x", 200) {
		t.Fatal("overlong ids must be hashed")
	}
}

func TestIPFromRequest(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	if got := IPFromRequest(r); got != "203.0.113.7" {
		t.Fatalf("IPFromRequest = %q", got)
	}
	r.RemoteAddr = "not-an-addr"
	if got := IPFromRequest(r); got != "not-an-addr" {
		t.Fatalf("IPFromRequest = %q", got)
	}
}
