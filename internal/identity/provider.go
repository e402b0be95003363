package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// SocialProvider identifies an external sign-in provider.
type SocialProvider string

const (
	ProviderGoogle SocialProvider = "google.com"
	ProviderGitHub SocialProvider = "github.com"
)

// Valid reports whether the provider is one we federate with.
func (p SocialProvider) Valid() bool {
	return p == ProviderGoogle || p == ProviderGitHub
}

// Account is what the identity provider returns on a successful operation.
type Account struct {
	UID         string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
}

// Client talks to the external identity provider's REST surface. Auth calls
// deliberately bypass the shared retry/breaker layer: a failed credential
// check must not be retried, and the provider's error code in the response
// body has to survive to the caller for message mapping.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewClient(httpc *http.Client, baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   httpc,
	}
}

// SignIn authenticates an email/password pair.
func (c *Client) SignIn(ctx context.Context, email, password string) (Account, error) {
	return c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignUp registers a new email/password account.
func (c *Client) SignUp(ctx context.Context, email, password string) (Account, error) {
	return c.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

// SocialSignIn exchanges a social provider's access token for an account.
func (c *Client) SocialSignIn(ctx context.Context, provider SocialProvider, accessToken string) (Account, error) {
	if !provider.Valid() {
		return Account{}, fmt.Errorf("unsupported sign-in provider %q", provider)
	}
	postBody := url.Values{}
	postBody.Set("access_token", accessToken)
	postBody.Set("providerId", string(provider))

	return c.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":          postBody.Encode(),
		"requestUri":        "http://localhost",
		"returnSecureToken": true,
	})
}

// DeleteAccount removes the account behind the given provider ID token.
func (c *Client) DeleteAccount(ctx context.Context, idToken string) error {
	_, err := c.post(ctx, "accounts:delete", map[string]any{
		"idToken": idToken,
	})
	return err
}

func (c *Client) post(ctx context.Context, op string, body map[string]any) (Account, error) {
	if c.baseURL == "" {
		return Account{}, errors.New("identity provider is not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Account{}, err
	}

	u := fmt.Sprintf("%s/v1/%s?key=%s", c.baseURL, op, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return Account{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Account{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil || failure.Error.Message == "" {
			return Account{}, &ProviderError{Code: "UNKNOWN", HTTPStatus: resp.StatusCode}
		}
		return Account{}, &ProviderError{Code: failure.Error.Message, HTTPStatus: resp.StatusCode}
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return Account{}, err
	}
	return account, nil
}
