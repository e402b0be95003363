package identity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the application's read-only view of an authenticated user. It is
// owned by the identity provider; we only observe it.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrNoSession    = errors.New("no active session")
)

const sessionTTL = 24 * time.Hour

// Listener receives the signed-in user on establish, or nil on sign-out.
type Listener func(user *User)

// sessionEntry pairs the observed user with the provider's own ID token,
// which is needed again for provider-side operations like account deletion.
type sessionEntry struct {
	user          User
	providerToken string
}

// Registry mints and verifies session tokens and tracks which sessions are
// live. Listeners are notified on every session change, mirroring the
// provider's session-observer contract.
type Registry struct {
	signingKey []byte

	mu        sync.RWMutex
	sessions  map[string]sessionEntry // keyed by UID
	listeners []Listener
}

func NewRegistry(signingKey []byte) *Registry {
	return &Registry{
		signingKey: signingKey,
		sessions:   make(map[string]sessionEntry),
	}
}

// Subscribe registers a listener for session changes. The listener is
// immediately invoked with nil so subscribers always start from a known state.
func (r *Registry) Subscribe(fn Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()

	fn(nil)
}

// Establish records a session for the given account and returns a signed
// bearer token for it.
func (r *Registry) Establish(account Account) (string, User, error) {
	user := User{
		UID:         account.UID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		AvatarURL:   account.PhotoURL,
	}

	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     user.UID,
		"email":   user.Email,
		"name":    user.DisplayName,
		"picture": user.AvatarURL,
		"iat":     now.Unix(),
		"exp":     now.Add(sessionTTL).Unix(),
	})

	signed, err := token.SignedString(r.signingKey)
	if err != nil {
		return "", User{}, err
	}

	r.mu.Lock()
	r.sessions[user.UID] = sessionEntry{user: user, providerToken: account.IDToken}
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(&user)
	}
	return signed, user, nil
}

// Lookup verifies a bearer token and returns the user behind it, failing if
// the session was ended in the meantime.
func (r *Registry) Lookup(tokenString string) (User, error) {
	claims, err := r.parse(tokenString)
	if err != nil {
		return User{}, err
	}

	uid, _ := claims["sub"].(string)
	if uid == "" {
		return User{}, ErrInvalidToken
	}

	r.mu.RLock()
	entry, ok := r.sessions[uid]
	r.mu.RUnlock()

	if !ok {
		return User{}, ErrNoSession
	}
	return entry.user, nil
}

// ProviderToken returns the identity provider's ID token behind a session,
// for provider-side operations such as account deletion.
func (r *Registry) ProviderToken(tokenString string) (string, error) {
	claims, err := r.parse(tokenString)
	if err != nil {
		return "", err
	}

	uid, _ := claims["sub"].(string)
	if uid == "" {
		return "", ErrInvalidToken
	}

	r.mu.RLock()
	entry, ok := r.sessions[uid]
	r.mu.RUnlock()

	if !ok {
		return "", ErrNoSession
	}
	return entry.providerToken, nil
}

// End removes the session behind the token and notifies listeners with nil.
func (r *Registry) End(tokenString string) error {
	claims, err := r.parse(tokenString)
	if err != nil {
		return err
	}

	uid, _ := claims["sub"].(string)
	if uid == "" {
		return ErrInvalidToken
	}

	r.mu.Lock()
	_, existed := r.sessions[uid]
	delete(r.sessions, uid)
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	if !existed {
		return ErrNoSession
	}
	for _, fn := range listeners {
		fn(nil)
	}
	return nil
}

func (r *Registry) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
