package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hotstinder/hotstinder/internal/adapters/auth"
	"github.com/hotstinder/hotstinder/internal/domain/model"
)

// AccountDependencies defines the account operations used by the auth and
// profile handlers.
type AccountDependencies interface {
	Login(ctx context.Context, id auth.Identity) (model.User, bool, error)
	GetUser(ctx context.Context, id string) (model.User, error)
	UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (model.User, error)
}

// AuthHandler handles the Battle.net login flow and session cookies.
type AuthHandler struct {
	deps        AccountDependencies
	provider    IdentityProvider
	tokens      *auth.Manager
	frontendURL string
	secure      bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(deps AccountDependencies, provider IdentityProvider, tokens *auth.Manager, frontendURL string, secure bool) *AuthHandler {
	return &AuthHandler{
		deps:        deps,
		provider:    provider,
		tokens:      tokens,
		frontendURL: frontendURL,
		secure:      secure,
	}
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Created   bool       `json:"created"`
	User      model.User `json:"user"`
}

// HandleLogin handles GET /auth/bnet/login by redirecting to Battle.net.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.auth_login"
	if !h.provider.Configured() {
		writeError(w, r, WrapKind(op, ErrUnavailable, auth.ErrNotConfigured))
		return
	}
	state, err := h.tokens.IssueState()
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback handles GET /auth/bnet/callback. It checks the state,
// exchanges the code, links the account and sets the session cookie.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	const op = "api.auth_callback"
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeError(w, r, WrapKind(op, ErrUnauthorized, errors.New("battle.net: "+e)))
		return
	}
	code := q.Get("code")
	if code == "" {
		writeError(w, r, NewKind(op, ErrBadRequest))
		return
	}
	if err := h.tokens.ConsumeState(r.Context(), q.Get("state")); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}

	identity, err := h.provider.Authenticate(r.Context(), code)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	u, created, err := h.deps.Login(r.Context(), identity)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	token, expires, err := h.tokens.IssueSession(u.ID, u.IsAdmin)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}

	auth.SetSessionCookie(w, token, expires, h.secure)
	if h.frontendURL != "" {
		http.Redirect(w, r, h.frontendURL, http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, Created: created, User: u})
}

// HandleLogout handles POST /auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSessionCookie(w, h.secure)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /auth/me.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.deps.GetUser(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, Wrap("api.auth_me", err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
