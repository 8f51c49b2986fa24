package api

import (
	"context"
	"net/http"

	"github.com/hotstinder/hotstinder/internal/domain/model"
)

// MatchLister pages through stored matches.
type MatchLister interface {
	ListMatches(ctx context.Context, filter model.MatchFilter) ([]model.Match, int, error)
}

// MatchDependencies defines the match history operations.
type MatchDependencies interface {
	MatchLister
	GetMatch(ctx context.Context, id string) (model.Match, error)
}

// MatchesHandler handles match history requests.
type MatchesHandler struct {
	deps    MatchDependencies
	maxPage int
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies, maxPage int) *MatchesHandler {
	return &MatchesHandler{deps: deps, maxPage: maxPage}
}

// HandleListMatches handles GET /matches?user_id=&page=&limit=.
func (h *MatchesHandler) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	listMatches(w, r, "api.list_matches", h.deps, h.maxPage, r.URL.Query().Get("user_id"))
}

// HandleGetMatch handles GET /matches/{id}.
func (h *MatchesHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.GetMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_match", err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func listMatches(w http.ResponseWriter, r *http.Request, op string, deps MatchLister, maxPage int, userID string) {
	page, n, err := parsePage(r, maxPage)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	matches, total, err := deps.ListMatches(r.Context(), model.MatchFilter{UserID: userID, Page: page})
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[model.Match]{Items: matches, Total: total, Page: n, Limit: page.Limit})
}
