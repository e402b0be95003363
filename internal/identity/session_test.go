package identity

import (
	"errors"
	"testing"
)

var testKey = []byte("test-signing-key")

func testAccount() Account {
	return Account{
		UID:         "uid-1",
		Email:       "mai@example.com",
		DisplayName: "Mai",
		PhotoURL:    "https://example.com/mai.png",
		IDToken:     "provider-id-token",
	}
}

func TestEstablishAndLookup(t *testing.T) {
	reg := NewRegistry(testKey)

	token, user, err := reg.Establish(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "mai@example.com" || user.UID != "uid-1" {
		t.Fatalf("user mapped wrong: %+v", user)
	}

	got, err := reg.Lookup(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != user {
		t.Fatalf("lookup returned %+v, want %+v", got, user)
	}

	providerTok, err := reg.ProviderToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if providerTok != "provider-id-token" {
		t.Fatalf("provider token = %q", providerTok)
	}
}

func TestLookupRejectsGarbageToken(t *testing.T) {
	reg := NewRegistry(testKey)

	if _, err := reg.Lookup("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLookupRejectsForeignSignature(t *testing.T) {
	reg := NewRegistry(testKey)
	other := NewRegistry([]byte("different-key"))

	token, _, err := other.Establish(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := reg.Lookup(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestEndInvalidatesSession(t *testing.T) {
	reg := NewRegistry(testKey)

	token, _, err := reg.Establish(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := reg.End(token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Lookup(token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after logout, got %v", err)
	}
	if err := reg.End(token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession on double logout, got %v", err)
	}
}

func TestSubscribeObservesSessionChanges(t *testing.T) {
	reg := NewRegistry(testKey)

	var events []*User
	reg.Subscribe(func(user *User) {
		events = append(events, user)
	})

	// Immediate nil delivery on subscribe.
	if len(events) != 1 || events[0] != nil {
		t.Fatalf("expected initial nil delivery, got %+v", events)
	}

	token, user, err := reg.Establish(testAccount())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[1] == nil || *events[1] != user {
		t.Fatalf("expected sign-in notification, got %+v", events)
	}

	if err := reg.End(token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 || events[2] != nil {
		t.Fatalf("expected nil on sign-out, got %+v", events)
	}
}
