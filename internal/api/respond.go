package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"freelancer/internal/errors"
	"freelancer/internal/validation"
)

// envelope is the body of every JSON response
type envelope struct {
	Success bool                    `json:"success"`
	Data    interface{}             `json:"data,omitempty"`
	Message string                  `json:"message,omitempty"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeError converts err to the error envelope. Field validation errors
// list every field; classified errors carry their user message; anything
// else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if ve, ok := validation.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Validation failed", Errors: ve.Errors})
		return
	}

	status := errors.HTTPStatus(err)
	if errors.ShouldLogError(err) {
		attrs := []any{"error", err, "code", errors.GetErrorCode(err)}
		if appErr, ok := errors.AsAppError(err); ok && len(appErr.Context) > 0 {
			attrs = append(attrs, "context", appErr.Context)
		}
		requestLogger(r, logger).Error("request failed", attrs...)
	}

	writeJSON(w, status, envelope{Message: errors.GetUserMessage(err)})
}
