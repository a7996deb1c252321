// Package common implements helpers shared by the API handlers.
package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vestlock/vestlock/ledger"
	"github.com/vestlock/vestlock/vault"
)

// ErrBadRequest is returned when the provided HTTP request is malformed.
var ErrBadRequest = errors.New("invalid request parameters")

// ErrorResponse is a JSON error. Code identifies the error kind so callers
// can tell a permanent rejection (e.g. unauthorized) from a retryable
// condition (nothing_to_release).
type ErrorResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// errorKind maps a service error onto an API error code and HTTP status.
func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return "bad_request", http.StatusBadRequest
	case errors.Is(err, vault.ErrInvalidSchedule):
		return "invalid_schedule", http.StatusBadRequest
	case errors.Is(err, vault.ErrUnauthorized):
		return "unauthorized", http.StatusForbidden
	case errors.Is(err, vault.ErrAccountNotFound):
		return "account_not_found", http.StatusNotFound
	case errors.Is(err, ledger.ErrHoldingNotFound):
		return "holding_not_found", http.StatusNotFound
	case errors.Is(err, vault.ErrAlreadyInitialized):
		return "already_initialized", http.StatusConflict
	case errors.Is(err, ledger.ErrHoldingExists):
		return "holding_exists", http.StatusConflict
	case errors.Is(err, vault.ErrAlreadyRevoked):
		return "already_revoked", http.StatusConflict
	case errors.Is(err, vault.ErrNotRevocable):
		return "not_revocable", http.StatusConflict
	case errors.Is(err, vault.ErrNothingToRelease):
		return "nothing_to_release", http.StatusConflict
	case errors.Is(err, vault.ErrInsufficientFunds):
		return "insufficient_funds", http.StatusConflict
	case errors.Is(err, vault.ErrArithmeticOverflow):
		return "arithmetic_overflow", http.StatusInternalServerError
	case errors.Is(err, vault.ErrLedgerTransferFailed):
		return "ledger_transfer_failed", http.StatusInternalServerError
	default:
		return "internal_error", http.StatusInternalServerError
	}
}

// ErrorCause returns the API error code for a service error, for use as a
// metrics label.
func ErrorCause(err error) string {
	code, _ := errorKind(err)
	return code
}

// ReplyWithError replies to an HTTP request with an error as JSON.
func ReplyWithError(w http.ResponseWriter, err error) {
	code, status := errorKind(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code: code,
		Msg:  err.Error(),
	})
}
