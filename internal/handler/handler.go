package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"orda-market/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code. The
// status line is already on the wire when encoding starts, so a failure
// can only be logged, not surfaced to the client.
func writeJSON(w http.ResponseWriter, status int, data interface{}, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}

// writeError writes a standardised error response.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", code).Str("message", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message}, logger)
}

// respondError maps a service error to an HTTP response. Domain error
// codes carry the status; anything else is an internal error.
func respondError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("unhandled service error")
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInvalidJSON, model.ErrCodeProductNotFound:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeImmutableOrder:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
