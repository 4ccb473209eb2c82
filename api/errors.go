package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xraph/mintledger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps an engine error to an HTTP status and reason code.
func statusFor(err error) (int, string) {
	reason := mintledger.Reason(err)
	switch {
	case errors.Is(err, mintledger.ErrInvalidInput):
		return http.StatusBadRequest, "InvalidInput"
	case errors.Is(err, mintledger.ErrUnauthorized):
		return http.StatusForbidden, reason
	case errors.Is(err, mintledger.ErrAlreadyMintedToday):
		return http.StatusConflict, reason
	case errors.Is(err, mintledger.ErrInsufficientBalance),
		errors.Is(err, mintledger.ErrInvalidRecipient),
		errors.Is(err, mintledger.ErrExceedsDailyMintLimit),
		errors.Is(err, mintledger.ErrArithmeticOverflow):
		return http.StatusUnprocessableEntity, reason
	case errors.Is(err, mintledger.ErrTransferFailed):
		return http.StatusBadGateway, reason
	case errors.Is(err, mintledger.ErrNotStarted),
		errors.Is(err, mintledger.ErrStoreClosed):
		return http.StatusServiceUnavailable, "Unavailable"
	default:
		return http.StatusInternalServerError, mintledger.ReasonInternal
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := statusFor(err)
	if status >= http.StatusInternalServerError {
		loggerFrom(r).Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeStatus(w, r, status, err, reason)
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, err error, reason string) {
	writeJSON(w, status, ErrorResponse{
		Error:     err.Error(),
		Reason:    reason,
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
