package api

import (
	"context"
	"net/http"

	"github.com/hotstinder/hotstinder/internal/domain/session"
)

// QueueDependencies defines the matchmaking operations.
type QueueDependencies interface {
	JoinQueue(ctx context.Context, userID string) (session.Session, error)
	LeaveQueue(ctx context.Context, userID string) (session.Session, error)
	QueueStatus(ctx context.Context, userID string) session.Session
}

// QueueHandler handles matchmaking queue requests.
type QueueHandler struct {
	deps QueueDependencies
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(deps QueueDependencies) *QueueHandler {
	return &QueueHandler{deps: deps}
}

// HandleJoin handles POST /queue.
func (h *QueueHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.JoinQueue(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, Wrap("api.join_queue", err))
		return
	}
	writeJSON(w, http.StatusAccepted, s)
}

// HandleLeave handles DELETE /queue.
func (h *QueueHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.LeaveQueue(r.Context(), principal(r).UserID)
	if err != nil {
		writeError(w, r, Wrap("api.leave_queue", err))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleStatus handles GET /queue.
func (h *QueueHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.QueueStatus(r.Context(), principal(r).UserID))
}
