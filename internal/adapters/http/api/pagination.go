package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/hotstinder/hotstinder/internal/domain/model"
)

const defaultPageSize = 20

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, key)
	}
	return n, nil
}

// parsePage reads ?page= (1-based) and ?limit= into an offset window.
func parsePage(r *http.Request, maxLimit int) (model.Page, int, error) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return model.Page{}, 0, err
	}
	limit, err := queryInt(r, "limit", min(defaultPageSize, maxLimit))
	if err != nil {
		return model.Page{}, 0, err
	}
	switch {
	case page < 1:
		return model.Page{}, 0, fmt.Errorf("%w: page must be at least 1", ErrBadRequest)
	case limit < 1:
		return model.Page{}, 0, fmt.Errorf("%w: limit must be at least 1", ErrBadRequest)
	case limit > maxLimit:
		return model.Page{}, 0, fmt.Errorf("%w: limit must be at most %d", ErrLimitExceeded, maxLimit)
	}
	return model.Page{Offset: (page - 1) * limit, Limit: limit}, page, nil
}
