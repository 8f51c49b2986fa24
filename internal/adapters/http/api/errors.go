package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hotstinder/hotstinder/internal/adapters/auth"
	"github.com/hotstinder/hotstinder/internal/adapters/repository"
	service "github.com/hotstinder/hotstinder/internal/app"
	"github.com/hotstinder/hotstinder/internal/domain/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrBackpressure  = errors.New("backpressure")
	ErrUnavailable   = errors.New("unavailable")
)

// Error is a handler error tagged with the operation and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Wrap tags err with op. The kind is derived from err when written.
func Wrap(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of the given kind with no cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// classify maps err to a status code and a machine-readable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInsufficientRoster):
		return http.StatusBadRequest, "insufficient_roster"
	case errors.Is(err, ErrLimitExceeded), errors.Is(err, service.ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidProfile):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrUnauthorized), auth.IsAuthError(err),
		errors.Is(err, auth.ErrInvalidState), errors.Is(err, auth.ErrStateReplayed),
		errors.Is(err, auth.ErrExchange), errors.Is(err, auth.ErrUserInfo):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrConflict), errors.Is(err, repository.ErrConflict),
		errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrUnavailable), errors.Is(err, auth.ErrNotConfigured),
		errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
