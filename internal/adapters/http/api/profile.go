package api

import (
	"net/http"

	"github.com/hotstinder/hotstinder/internal/domain/model"
)

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps AccountDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps AccountDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// profileRequest mirrors the body of PUT /profile. Absent fields are left unchanged.
type profileRequest struct {
	DisplayName    *string   `json:"displayName" validate:"omitempty,min=3,max=32"`
	PreferredRole  *string   `json:"preferredRole" validate:"omitempty,max=32"`
	FavoriteHeroes *[]string `json:"favoriteHeroes" validate:"omitempty,max=5,dive,required,max=32"`
}

func (p profileRequest) update() model.ProfileUpdate {
	upd := model.ProfileUpdate{
		DisplayName:   p.DisplayName,
		PreferredRole: p.PreferredRole,
	}
	if p.FavoriteHeroes != nil {
		upd.FavoriteHeroes = *p.FavoriteHeroes
		upd.SetFavorites = true
	}
	return upd
}

// HandleGetProfile handles GET /profile.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.deps.GetUser(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, Wrap("api.get_profile", err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleUpdateProfile handles PUT /profile.
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_profile"
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	u, err := h.deps.UpdateProfile(r.Context(), principal(r).UserID, req.update())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleGetUser handles GET /users/{id}.
func (h *ProfileHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.deps.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, Wrap("api.get_user", err))
		return
	}
	writeJSON(w, http.StatusOK, publicProfile(u))
}

// publicUser is the profile shown to other players.
type publicUser struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"display_name"`
	BattleTag      string   `json:"battle_tag,omitempty"`
	MMR            int      `json:"mmr"`
	PreferredRole  string   `json:"preferred_role"`
	FavoriteHeroes []string `json:"favorite_heroes"`
	Wins           int      `json:"wins"`
	Losses         int      `json:"losses"`
}

func publicProfile(u model.User) publicUser {
	return publicUser{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		BattleTag:      u.BattleTag,
		MMR:            u.MMR,
		PreferredRole:  u.PreferredRole,
		FavoriteHeroes: u.FavoriteHeroes,
		Wins:           u.Wins,
		Losses:         u.Losses,
	}
}
