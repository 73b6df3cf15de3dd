package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/internal/auth"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain and auth errors to a status code. Anything it does
// not recognise is a storage failure.
func statusFor(err error) int {
	var verr *book.ValidationError
	switch {
	case errors.Is(err, book.ErrInvalidID), errors.As(err, &verr), errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest
	case errors.Is(err, book.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	logger := httplog.LogEntry(r.Context())
	switch status {
	case http.StatusInternalServerError:
		logger.Error().Err(err).Msg("request failed")
		message = http.StatusText(http.StatusInternalServerError)
	case http.StatusUnauthorized:
		logger.Debug().Err(err).Msg("authentication failed")
		message = "unauthorized"
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
