package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/garderoba/internal/gateway"
	"github.com/erazemk/garderoba/internal/model"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// decodeValid decodes a JSON request body and validates it. On failure it
// writes the error response and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeJSON(r, target); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := model.Validate(target); err != nil {
		validationError(w, err)
		return false
	}
	return true
}

func validationError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": verr.Errors,
		})
		return
	}
	jsonError(w, http.StatusBadRequest, err.Error())
}

// gatewayError reports a failed AI call.
func gatewayError(w http.ResponseWriter, op string, err error) {
	var gerr *gateway.Error
	if errors.As(err, &gerr) && gerr.Kind != gateway.KindUpstream {
		slog.Error("ai response rejected", "op", op, "kind", gerr.Kind, "error", err)
		jsonError(w, http.StatusBadGateway, "the AI service returned an unusable response")
		return
	}
	slog.Error("ai call failed", "op", op, "error", err)
	jsonError(w, http.StatusBadGateway, "the AI service is unavailable")
}
