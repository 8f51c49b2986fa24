package api

import (
	"net/http"

	"github.com/hotstinder/hotstinder/internal/domain/catalog"
	"github.com/hotstinder/hotstinder/internal/domain/types"
)

// CatalogHandler serves the static game catalogs.
type CatalogHandler struct {
	body catalogResponse
}

type catalogResponse struct {
	Roles  []types.Role `json:"roles"`
	Maps   []string     `json:"maps"`
	Heroes []string     `json:"heroes"`
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{body: catalogResponse{
		Roles:  catalog.Roles(),
		Maps:   catalog.Maps(),
		Heroes: catalog.Heroes(),
	}}
}

// HandleGetCatalog handles GET /catalog.
func (h *CatalogHandler) HandleGetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.body)
}
