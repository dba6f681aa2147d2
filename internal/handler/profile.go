package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fitgoalz/fitgoalz/internal/fitness"
	"github.com/fitgoalz/fitgoalz/internal/middleware"
	"github.com/fitgoalz/fitgoalz/internal/stub"
)

// GetProfile handles GET /fitness-profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.store.Profile(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, stub.ErrNotFound) {
			middleware.WriteDetail(w, http.StatusNotFound, "Fitness profile not found")
			return
		}
		h.internalError(w, r, "failed to load profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveProfile handles POST /fitness-profile, creating or replacing the profile.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var p fitness.FitnessProfile
	if !decodeJSON(w, r, &p, false) {
		return
	}
	if err := p.Validate(); err != nil {
		writeValidation(w, err, fitness.ErrInvalidProfile)
		return
	}

	if err := h.store.SaveProfile(r.Context(), u.ID, p); err != nil {
		h.internalError(w, r, "failed to save profile", err)
		return
	}

	h.logger.Info("profile_saved",
		slog.Int64("user_id", u.ID),
		slog.String("fitness_level", p.FitnessLevel),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Fitness profile saved successfully",
		"profile": p,
	})
}

// Stats handles GET /fitness-stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.store.Profile(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, stub.ErrNotFound) {
			middleware.WriteDetail(w, http.StatusNotFound, "Fitness profile not found")
			return
		}
		h.internalError(w, r, "failed to load profile", err)
		return
	}

	stats, err := fitness.ComputeStats(p)
	if err != nil {
		middleware.WriteDetail(w, http.StatusBadRequest, "Please complete your fitness profile first")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
