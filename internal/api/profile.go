package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// ProfileHandler handles style profile endpoints.
type ProfileHandler struct {
	DB *sql.DB
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	profile, err := store.GetStyleProfile(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to get style profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get style profile")
		return
	}
	jsonResponse(w, http.StatusOK, profile)
}

// Add handles POST /api/profile/{field}/{value}.
func (h *ProfileHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, store.AddProfileValue)
}

// Remove handles DELETE /api/profile/{field}/{value}.
func (h *ProfileHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, store.RemoveProfileValue)
}

type profileUpdate func(ctx context.Context, db *sql.DB, userID int64, field model.ProfileField, value string) (*model.StyleProfile, error)

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, apply profileUpdate) {
	claims := GetClaims(r.Context())

	field := model.ProfileField(r.PathValue("field"))
	if !field.Valid() {
		jsonError(w, http.StatusNotFound, "unknown profile field")
		return
	}
	value := strings.TrimSpace(r.PathValue("value"))
	if value == "" {
		jsonError(w, http.StatusBadRequest, "value required")
		return
	}

	profile, err := apply(r.Context(), h.DB, claims.UserID, field, value)
	if err != nil {
		slog.Error("failed to update style profile", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update style profile")
		return
	}

	slog.Info("style profile updated", "user", claims.Username, "field", field, "value", value, "method", r.Method)
	jsonResponse(w, http.StatusOK, profile)
}
