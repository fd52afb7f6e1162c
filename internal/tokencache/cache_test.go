package tokencache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type fakeFetcher struct {
	mu     sync.Mutex
	tokens []string
	calls  int
	err    error
}

func (f *fakeFetcher) FetchToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	token := f.tokens[0]
	if len(f.tokens) > 1 {
		f.tokens = f.tokens[1:]
	}
	return token, nil
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix(), "sub": "clinician"})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()
	exp := time.Unix(1_900_000_000, 0)
	got, ok := ExpiresAt(signed(t, exp))
	if !ok || !got.Equal(exp) {
		t.Fatalf("ExpiresAt() = %v, %v", got, ok)
	}
	if _, ok := ExpiresAt("not-a-jwt"); ok {
		t.Fatalf("expected opaque token to have no expiry")
	}
}

func TestTokenReusedUntilSkew(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_800_000_000, 0)
	first := signed(t, now.Add(10*time.Minute))
	second := signed(t, now.Add(20*time.Minute))
	fetcher := &fakeFetcher{tokens: []string{first, second}}
	cache := New(Options{Fetcher: fetcher, Skew: time.Minute, Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		got, err := cache.Token(context.Background())
		if err != nil || got != first {
			t.Fatalf("Token() = %q, %v", got, err)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("calls = %d, want 1", fetcher.calls)
	}

	now = now.Add(9*time.Minute + time.Second)
	got, err := cache.Token(context.Background())
	if err != nil || got != second {
		t.Fatalf("Token() after skew = %q, %v", got, err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("calls = %d, want 2", fetcher.calls)
	}
}

func TestOpaqueTokenUsesDefaultTTL(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_800_000_000, 0)
	fetcher := &fakeFetcher{tokens: []string{"opaque-1", "opaque-2"}}
	cache := New(Options{Fetcher: fetcher, Now: func() time.Time { return now }})

	if got, _ := cache.Token(context.Background()); got != "opaque-1" {
		t.Fatalf("first token = %q", got)
	}
	now = now.Add(DefaultTTL - time.Second)
	if got, _ := cache.Token(context.Background()); got != "opaque-1" {
		t.Fatalf("token before TTL = %q", got)
	}
	now = now.Add(2 * time.Second)
	if got, _ := cache.Token(context.Background()); got != "opaque-2" {
		t.Fatalf("token after TTL = %q", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{tokens: []string{"a", "b"}}
	cache := New(Options{Fetcher: fetcher})
	if got, _ := cache.Token(context.Background()); got != "a" {
		t.Fatalf("token = %q", got)
	}
	cache.Invalidate(context.Background())
	if got, _ := cache.Token(context.Background()); got != "b" {
		t.Fatalf("token after invalidate = %q", got)
	}
}

func TestFetchErrorIsWrapped(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	cache := New(Options{Fetcher: &fakeFetcher{err: boom}})
	if _, err := cache.Token(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
