// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hotstinder/hotstinder/internal/adapters/auth"
	service "github.com/hotstinder/hotstinder/internal/app"
	"github.com/hotstinder/hotstinder/internal/domain/types"
	"github.com/hotstinder/hotstinder/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AccountDependencies
	QueueDependencies
	MatchDependencies
	LeaderboardDependencies
	RankDependencies
	AdminDependencies
}

// IdentityProvider runs the Battle.net authorization code flow.
type IdentityProvider interface {
	Configured() bool
	AuthCodeURL(state string) string
	Authenticate(ctx context.Context, code string) (auth.Identity, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	authHandler        *AuthHandler
	profileHandler     *ProfileHandler
	queueHandler       *QueueHandler
	matchesHandler     *MatchesHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	catalogHandler     *CatalogHandler
	adminHandler       *AdminHandler

	tokens      *auth.Manager
	provider    IdentityProvider
	maxLimit    int
	maxPage     int
	frontendURL string
	secure      bool
}

// Option configures a Server.
type Option func(*Server)

// WithIdentityProvider sets the Battle.net client used by the login routes.
func WithIdentityProvider(p IdentityProvider) Option {
	return func(s *Server) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxPageSize caps the limit of paginated listings.
func WithMaxPageSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPage = n
		}
	}
}

// WithFrontendURL sets where the OAuth callback redirects after login. When
// empty the callback answers with the session token as JSON.
func WithFrontendURL(u string) Option {
	return func(s *Server) {
		s.frontendURL = u
	}
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secure = secure
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, tokens *auth.Manager, opts ...Option) *Server {
	s := &Server{
		tokens:   tokens,
		provider: unconfiguredProvider{},
		maxLimit: 100,
		maxPage:  100,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.authHandler = NewAuthHandler(deps, s.provider, tokens, s.frontendURL, s.secure)
	s.profileHandler = NewProfileHandler(deps)
	s.queueHandler = NewQueueHandler(deps)
	s.matchesHandler = NewMatchesHandler(deps, s.maxPage)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	s.catalogHandler = NewCatalogHandler()
	s.adminHandler = NewAdminHandler(deps, s.maxPage)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	user := func(h http.HandlerFunc) http.HandlerFunc { return RequireUser(s.tokens, h) }
	admin := func(h http.HandlerFunc) http.HandlerFunc { return RequireAdmin(s.tokens, h) }

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /auth/bnet/login", MetricsMiddleware(s.authHandler.HandleLogin, "auth_login"))
	mux.HandleFunc("GET /auth/bnet/callback", MetricsMiddleware(s.authHandler.HandleCallback, "auth_callback"))
	mux.HandleFunc("POST /auth/logout", MetricsMiddleware(s.authHandler.HandleLogout, "auth_logout"))
	mux.HandleFunc("GET /auth/me", MetricsMiddleware(user(s.authHandler.HandleMe), "auth_me"))

	mux.HandleFunc("GET /profile", MetricsMiddleware(user(s.profileHandler.HandleGetProfile), "profile"))
	mux.HandleFunc("PUT /profile", MetricsMiddleware(user(s.profileHandler.HandleUpdateProfile), "profile"))
	mux.HandleFunc("GET /users/{id}", MetricsMiddleware(s.profileHandler.HandleGetUser, "users"))

	mux.HandleFunc("POST /queue", MetricsMiddleware(user(s.queueHandler.HandleJoin), "queue"))
	mux.HandleFunc("DELETE /queue", MetricsMiddleware(user(s.queueHandler.HandleLeave), "queue"))
	mux.HandleFunc("GET /queue", MetricsMiddleware(user(s.queueHandler.HandleStatus), "queue"))

	mux.HandleFunc("GET /matches", MetricsMiddleware(s.matchesHandler.HandleListMatches, "matches"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGetMatch, "matches"))
	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("GET /catalog", MetricsMiddleware(s.catalogHandler.HandleGetCatalog, "catalog"))

	mux.HandleFunc("GET /admin/users", MetricsMiddleware(admin(s.adminHandler.HandleListUsers), "admin_users"))
	mux.HandleFunc("DELETE /admin/users/{id}", MetricsMiddleware(admin(s.adminHandler.HandleDeleteUser), "admin_users"))
	mux.HandleFunc("POST /admin/users/generate", MetricsMiddleware(admin(s.adminHandler.HandleGenerateUsers), "admin_generate_users"))
	mux.HandleFunc("GET /admin/matches", MetricsMiddleware(admin(s.adminHandler.HandleListMatches), "admin_matches"))
	mux.HandleFunc("DELETE /admin/matches/{id}", MetricsMiddleware(admin(s.adminHandler.HandleDeleteMatch), "admin_matches"))
	mux.HandleFunc("POST /admin/matches/generate", MetricsMiddleware(admin(s.adminHandler.HandleGenerateMatches), "admin_generate_matches"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// pageResponse wraps one page of a listing.
type pageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as {"code","message"} with the status of its kind.
// Server errors are logged and their details hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("method", r.Method),
			logger.Error(err),
		)
		if status == http.StatusInternalServerError {
			msg = http.StatusText(status)
		}
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into v and validates its struct tags.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrBadRequest, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// principal returns the caller set by RequireUser.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

type unconfiguredProvider struct{}

func (unconfiguredProvider) Configured() bool          { return false }
func (unconfiguredProvider) AuthCodeURL(string) string { return "" }
func (unconfiguredProvider) Authenticate(context.Context, string) (auth.Identity, error) {
	return auth.Identity{}, auth.ErrNotConfigured
}

// Compile-time checks that the service satisfies the handler contracts.
var (
	_ Dependencies  = (*service.Service)(nil)
	_ StatsProvider = (*service.Service)(nil)
)
