package redisx

import "testing"

func TestNewClientWithoutAddrIsNil(t *testing.T) {
	t.Parallel()
	client, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Fatalf("expected nil client when no address is configured")
	}
}

func TestKey(t *testing.T) {
	t.Parallel()
	if got := Key("jwt"); got != "scribe-bridge:jwt" {
		t.Fatalf("Key(jwt) = %q", got)
	}
	if got := Key("session", "abc"); got != "scribe-bridge:session:abc" {
		t.Fatalf("Key(session, abc) = %q", got)
	}
}
