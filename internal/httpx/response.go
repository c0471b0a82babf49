// Package httpx writes the uniform JSON responses used by every handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

var log = zap.NewNop()

// SetLogger routes response-encoding failures through the application logger.
// Before it is called they are discarded.
func SetLogger(l *zap.Logger) {
	if l != nil {
		log = l
	}
}

// ErrorResponse is the error payload: a stable machine-readable code plus
// optional details such as per-field validation violations.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes payload with the given status. The body is marshalled before
// any byte goes out so an encoding failure never leaves partial JSON on the
// wire; a nil payload renders as JSON null.
func JSON(w http.ResponseWriter, status int, payload any) {
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			log.Error("response encoding failed", zap.Error(err))
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError writes the uniform error payload.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, ErrorResponse{Error: code, Details: details})
}
