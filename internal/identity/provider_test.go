package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func providerServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&http.Client{Timeout: 5 * time.Second}, srv.URL, "api-key")
}

func TestSignInSuccess(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:signInWithPassword") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("expected api key in query")
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body["email"] != "mai@example.com" {
			t.Errorf("unexpected email %v", body["email"])
		}

		w.Write([]byte(`{"localId": "uid-1", "email": "mai@example.com", "displayName": "Mai", "idToken": "tok"}`))
	})

	account, err := client.SignIn(context.Background(), "mai@example.com", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.UID != "uid-1" || account.IDToken != "tok" {
		t.Fatalf("account mapped wrong: %+v", account)
	}
}

func TestSignInProviderErrorCodeSurvives(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "INVALID_PASSWORD", "code": 400}}`))
	})

	_, err := client.SignIn(context.Background(), "mai@example.com", "wrong")

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Code != "INVALID_PASSWORD" {
		t.Fatalf("expected code to survive, got %q", pe.Code)
	}
}

func TestSignInMalformedErrorBodyIsUnknown(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`not json`))
	})

	_, err := client.SignIn(context.Background(), "a@b.c", "pw")

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Code != "UNKNOWN" || pe.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected error details: %+v", pe)
	}
}

func TestSocialSignInRejectsUnknownProvider(t *testing.T) {
	client := NewClient(http.DefaultClient, "http://unused.invalid", "k")

	_, err := client.SocialSignIn(context.Background(), SocialProvider("myspace.com"), "tok")
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestSocialSignInPostsProviderID(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		postBody, _ := body["postBody"].(string)
		if !strings.Contains(postBody, "providerId=google.com") {
			t.Errorf("expected providerId in postBody, got %q", postBody)
		}
		w.Write([]byte(`{"localId": "uid-2", "email": "g@example.com", "idToken": "tok"}`))
	})

	account, err := client.SocialSignIn(context.Background(), ProviderGoogle, "access-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.UID != "uid-2" {
		t.Fatalf("account mapped wrong: %+v", account)
	}
}

func TestDeleteAccount(t *testing.T) {
	client := providerServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "accounts:delete") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{}`))
	})

	if err := client.DeleteAccount(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
