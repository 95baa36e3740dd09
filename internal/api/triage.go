package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/garderoba/internal/gateway"
	"github.com/erazemk/garderoba/internal/triage"
)

// TriageHandler handles the triage review endpoints.
type TriageHandler struct {
	Service *triage.Service
}

type swipe struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type decideRequest struct {
	Decision string `json:"decision"`
	Swipe    *swipe `json:"swipe"`
}

// Start handles POST /api/triage.
func (h *TriageHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	view, err := h.Service.Start(r.Context(), claims.UserID)
	var gerr *gateway.Error
	switch {
	case errors.Is(err, triage.ErrBusy):
		jsonError(w, http.StatusConflict, "an analysis is already in progress")
		return
	case errors.Is(err, triage.ErrSuperseded):
		jsonError(w, http.StatusConflict, "triage was reset during the analysis")
		return
	case errors.As(err, &gerr):
		gatewayError(w, "analyze", err)
		return
	case err != nil:
		slog.Error("failed to start triage", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to start triage")
		return
	}

	jsonResponse(w, http.StatusOK, view)
}

// Current handles GET /api/triage.
func (h *TriageHandler) Current(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	view, err := h.Service.Current(r.Context(), claims.UserID)
	if err != nil {
		slog.Error("failed to get triage session", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get triage session")
		return
	}
	jsonResponse(w, http.StatusOK, view)
}

// Decide handles POST /api/triage/decide. The body names a decision or
// carries the swipe offset it is derived from.
func (h *TriageHandler) Decide(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req decideRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		decision triage.Decision
		ok       bool
	)
	switch {
	case req.Decision != "":
		decision, ok = triage.ParseDecision(req.Decision)
		if !ok {
			jsonError(w, http.StatusBadRequest, "decision must be one of KEEP, DONATE, TRANSFORM, RESERVE")
			return
		}
	case req.Swipe != nil:
		decision, ok = triage.DecisionFromSwipe(req.Swipe.DX, req.Swipe.DY)
		if !ok {
			jsonError(w, http.StatusUnprocessableEntity, "swipe too short to decide")
			return
		}
	default:
		jsonError(w, http.StatusBadRequest, "decision or swipe required")
		return
	}

	view, err := h.Service.Decide(r.Context(), claims.UserID, decision)
	if errors.Is(err, triage.ErrNotPresenting) {
		jsonError(w, http.StatusConflict, "no suggestion to decide on")
		return
	}
	if err != nil {
		slog.Error("failed to apply triage decision", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to apply decision")
		return
	}

	jsonResponse(w, http.StatusOK, view)
}

// Reset handles DELETE /api/triage.
func (h *TriageHandler) Reset(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	if err := h.Service.Reset(r.Context(), claims.UserID); err != nil {
		slog.Error("failed to reset triage", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to reset triage")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "triage reset"})
}
