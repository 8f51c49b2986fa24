package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/hotstinder/hotstinder/internal/domain/dedupe"
)

// Token audiences keep a state token from being accepted as a session and
// the other way round.
const (
	audienceSession = "hotstinder-session"
	audienceState   = "hotstinder-oauth-state"

	// SessionCookie is the name of the cookie carrying the session token.
	SessionCookie = "hotstinder_session"

	defaultStateTTL   = 5 * time.Minute
	defaultSessionTTL = 7 * 24 * time.Hour
)

// Claims are the session token claims.
type Claims struct {
	IsAdmin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Manager issues and verifies HS256 session and OAuth state tokens.
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
	stateTTL   time.Duration
	states     dedupe.Deduper
	now        func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSessionTTL sets how long session tokens stay valid.
func WithSessionTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.sessionTTL = d
		}
	}
}

// WithStateTTL sets how long an OAuth state is accepted.
func WithStateTTL(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.stateTTL = d
		}
	}
}

// WithReplayGuard sets the store of consumed state nonces.
func WithReplayGuard(d dedupe.Deduper) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.states = d
		}
	}
}

// WithClock overrides time.Now when issuing tokens.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a token manager signing with secret.
func NewManager(secret string, opts ...ManagerOption) *Manager {
	m := &Manager{
		secret:     []byte(secret),
		sessionTTL: defaultSessionTTL,
		stateTTL:   defaultStateTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.states == nil {
		m.states = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(100_000), dedupe.WithTTL(m.stateTTL))
	}
	return m
}

// SessionTTL returns the lifetime of issued session tokens.
func (m *Manager) SessionTTL() time.Duration { return m.sessionTTL }

// IssueSession signs a session token for userID.
func (m *Manager) IssueSession(userID string, isAdmin bool) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.sessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

// ParseSession verifies a session token and returns its principal.
func (m *Manager) ParseSession(raw string) (Principal, error) {
	claims, err := m.parse(raw, audienceSession)
	if err != nil {
		return Principal{}, err
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Principal{UserID: claims.Subject, IsAdmin: claims.IsAdmin}, nil
}

// IssueState returns a signed, short-lived OAuth state with a random nonce.
func (m *Manager) IssueState() (string, error) {
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		ID:        nonce,
		Audience:  jwt.ClaimStrings{audienceState},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.stateTTL)),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// ConsumeState verifies state and marks its nonce used. A second call with
// the same state fails with ErrStateReplayed.
func (m *Manager) ConsumeState(ctx context.Context, state string) error {
	claims, err := m.parse(state, audienceState)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if claims.ID == "" {
		return fmt.Errorf("%w: missing nonce", ErrInvalidState)
	}
	if m.states.SeenAndRecord(ctx, claims.ID) {
		return ErrStateReplayed
	}
	return nil
}

func (m *Manager) parse(raw, audience string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.VerifyAudience(audience, true) {
		return nil, fmt.Errorf("%w: wrong audience", ErrInvalidToken)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	return claims, nil
}

// Authenticate extracts and verifies the session token of r, taken from a
// Bearer Authorization header or the session cookie.
func (m *Manager) Authenticate(r *http.Request) (Principal, error) {
	return m.ParseSession(TokenFromRequest(r))
}

// TokenFromRequest returns the raw session token of r, or "".
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// SetSessionCookie writes the session cookie.
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// IsAuthError reports whether err means the caller is not authenticated.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrMissingToken)
}

func randomNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
