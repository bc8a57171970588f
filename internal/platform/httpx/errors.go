// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"

	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// Sentinel errors raised by the transport layer itself.
var (
	ErrBadRequest = errors.New("malformed request")
)

// StatusClientClosedRequest is reported when the caller went away mid-request.
const StatusClientClosedRequest = 499

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ledgererrs.ErrDuplicateDimension):
		Problem(w, http.StatusConflict, "Duplicate Dimension", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ledgererrs.ErrUnbalanced):
		Problem(w, http.StatusUnprocessableEntity, "Unbalanced Entry", err.Error())
	case errors.Is(err, ledgererrs.ErrInactiveAccount):
		Problem(w, http.StatusUnprocessableEntity, "Inactive Account", err.Error())
	case errors.Is(err, ledgererrs.ErrLedgerOutOfBalance), errors.Is(err, ledgererrs.ErrCycleDetected):
		Problem(w, http.StatusInternalServerError, "Ledger Integrity", err.Error())
	case errors.Is(err, context.Canceled):
		Problem(w, StatusClientClosedRequest, "Client Closed Request", "")
	case errors.Is(err, shared.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		Problem(w, http.StatusServiceUnavailable, "Storage Unavailable", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
