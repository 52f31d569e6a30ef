package common

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody is the payload inside the {"error": ...} envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError renders the error envelope.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Message renders {"message": msg} with status 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Page renders items as a bare array and moves pagination into headers, so
// storefront clients that expect a plain list keep working.
func Page[T any](w http.ResponseWriter, items []T, total int64, page, perPage int) {
	if items == nil {
		items = []T{}
	}
	h := w.Header()
	h.Set("X-Total-Count", strconv.FormatInt(total, 10))
	h.Set("X-Page", strconv.Itoa(page))
	h.Set("X-Per-Page", strconv.Itoa(perPage))
	JSON(w, http.StatusOK, items)
}
