package api

import (
	"context"
	"net/http"

	service "github.com/hotstinder/hotstinder/internal/app"
	"github.com/hotstinder/hotstinder/internal/domain/model"
)

// AdminDependencies defines the back-office operations.
type AdminDependencies interface {
	MatchLister
	ListUsers(ctx context.Context, page model.Page) ([]model.User, int, error)
	DeleteUser(ctx context.Context, id string) error
	DeleteMatch(ctx context.Context, id string) error
	GenerateUsers(ctx context.Context, count int) ([]model.User, error)
	GenerateMatches(ctx context.Context, count int, useRealUsers bool) (service.BatchResult, error)
}

// AdminHandler handles admin requests.
type AdminHandler struct {
	deps    AdminDependencies
	maxPage int
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies, maxPage int) *AdminHandler {
	return &AdminHandler{deps: deps, maxPage: maxPage}
}

type generateUsersRequest struct {
	Count int `json:"count" validate:"required"`
}

type generateUsersResponse struct {
	Requested int          `json:"requested"`
	Created   int          `json:"created"`
	Users     []model.User `json:"users"`
}

type generateMatchesRequest struct {
	Count        int  `json:"count" validate:"required"`
	UseRealUsers bool `json:"useRealUsers"`
}

// HandleListUsers handles GET /admin/users?page=&limit=.
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_list_users"
	page, n, err := parsePage(r, h.maxPage)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	users, total, err := h.deps.ListUsers(r.Context(), page)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pageResponse[model.User]{Items: users, Total: total, Page: n, Limit: page.Limit})
}

// HandleDeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.admin_delete_user", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListMatches handles GET /admin/matches?page=&limit=.
func (h *AdminHandler) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	listMatches(w, r, "api.admin_list_matches", h.deps, h.maxPage, "")
}

// HandleDeleteMatch handles DELETE /admin/matches/{id}.
func (h *AdminHandler) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteMatch(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, Wrap("api.admin_delete_match", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGenerateUsers handles POST /admin/users/generate.
func (h *AdminHandler) HandleGenerateUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_generate_users"
	var req generateUsersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	users, err := h.deps.GenerateUsers(r.Context(), req.Count)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, generateUsersResponse{Requested: req.Count, Created: len(users), Users: users})
}

// HandleGenerateMatches handles POST /admin/matches/generate.
func (h *AdminHandler) HandleGenerateMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.admin_generate_matches"
	var req generateMatchesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	result, err := h.deps.GenerateMatches(r.Context(), req.Count, req.UseRealUsers)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
