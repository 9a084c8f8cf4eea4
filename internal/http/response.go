package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"cuantrack/internal/advisor"
	"cuantrack/internal/core"
	"cuantrack/internal/log"
	"cuantrack/internal/shopping"
)

// errNotFound is returned from mutation closures when the target id is unknown.
var errNotFound = errors.New("not found")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps domain errors to HTTP statuses. Anything unrecognised is a
// server-side failure.
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, shopping.ErrNoBudgetLinked),
		errors.Is(err, shopping.ErrNothingToRecord),
		errors.Is(err, shopping.ErrListCompleted),
		errors.Is(err, shopping.ErrInvalidImport),
		errors.Is(err, advisor.ErrEmptyQuestion),
		isValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, advisor.ErrRemoteDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrNegativeAmount, core.ErrInvalidQuantity,
		core.ErrEmptyDescription, core.ErrEmptyCategory, core.ErrEmptyName,
		core.ErrEmptyTitle, core.ErrInvalidType, core.ErrMissingDate,
		core.ErrMissingID, core.ErrDescriptionLength,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError writes err as JSON. Server-side failures are logged and
// their details kept out of the response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		writeError(w, status, "internal error, please try again")
		return
	}
	writeError(w, status, err.Error())
}
