package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitgoalz/fitgoalz/internal/fitness"
	"github.com/fitgoalz/fitgoalz/internal/middleware"
	"github.com/fitgoalz/fitgoalz/internal/stub"
)

// GenerateWorkout handles POST /generate-workout. The body is optional.
// The stub has one generator, so use_ai only changes the reported method.
func (h *Handler) GenerateWorkout(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req fitness.GenerateWorkoutRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	p, err := h.store.Profile(r.Context(), u.ID)
	if err != nil {
		if errors.Is(err, stub.ErrNotFound) {
			middleware.WriteDetail(w, http.StatusBadRequest, "Please complete your fitness profile first")
			return
		}
		h.internalError(w, r, "failed to load profile", err)
		return
	}

	method := "ml"
	if req.UseAI != nil && *req.UseAI {
		method = "ai"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"workout":           stub.GeneratePlan(p),
		"generation_method": method,
		"user_preferences": map[string]any{
			"fitness_level":    p.FitnessLevel,
			"goals":            p.Goals,
			"workout_duration": p.WorkoutDuration,
			"workout_days":     p.WorkoutDays,
		},
	})
}

// LogWorkout handles POST /log-workout.
func (h *Handler) LogWorkout(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req fitness.LogWorkoutRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	var errs []fieldError
	for _, f := range []struct {
		name  string
		value int
	}{
		{"difficulty_rating", req.DifficultyRating},
		{"energy_level", req.EnergyLevel},
	} {
		if f.value < 1 || f.value > 5 {
			errs = append(errs, fieldError{
				Loc:  []string{"body", f.name},
				Msg:  "ensure this value is between 1 and 5",
				Type: "value_error.number",
			})
		}
	}
	if req.DurationMinutes < 0 {
		errs = append(errs, fieldError{
			Loc:  []string{"body", "duration_minutes"},
			Msg:  "ensure this value is not negative",
			Type: "value_error.number",
		})
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}
	if req.WorkoutName == "" {
		req.WorkoutName = "Workout"
	}

	wk, err := h.store.AddWorkout(r.Context(), u.ID, req)
	if err != nil {
		h.internalError(w, r, "failed to log workout", err)
		return
	}

	h.logger.Info("workout_logged",
		slog.Int64("user_id", u.ID),
		slog.String("workout_id", wk.ID),
		slog.Int("rating", wk.Feedback.Rating),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Workout logged successfully",
		"workout_id": wk.ID,
		"feedback":   wk.Feedback,
	})
}

// ListWorkouts handles GET /my-workouts.
func (h *Handler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.store.Workouts(r.Context(), u.ID)
	if err != nil {
		h.internalError(w, r, "failed to list workouts", err)
		return
	}

	items := make([]map[string]any, 0, len(list))
	for _, wk := range list {
		items = append(items, map[string]any{
			"id":                wk.ID,
			"workout_name":      wk.Request.WorkoutName,
			"workout_type":      wk.Request.WorkoutType,
			"duration_minutes":  wk.Request.DurationMinutes,
			"difficulty_rating": wk.Request.DifficultyRating,
			"energy_level":      wk.Request.EnergyLevel,
			"completion_rate":   wk.CompletionRate(),
			"ai_rating":         wk.Feedback.Rating,
			"created_at":        wk.CreatedAt.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"workouts": items})
}

// WorkoutDetails handles GET /workout-details/{id}.
func (h *Handler) WorkoutDetails(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	wk, err := h.store.Workout(r.Context(), u.ID, id)
	if err != nil {
		if errors.Is(err, stub.ErrNotFound) {
			middleware.WriteDetail(w, http.StatusNotFound, "Workout not found")
			return
		}
		h.internalError(w, r, "failed to load workout", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"workout_details": map[string]any{
			"id":                wk.ID,
			"workout_name":      wk.Request.WorkoutName,
			"workout_type":      wk.Request.WorkoutType,
			"duration_minutes":  wk.Request.DurationMinutes,
			"difficulty_rating": wk.Request.DifficultyRating,
			"energy_level":      wk.Request.EnergyLevel,
			"personal_notes":    wk.Request.PersonalNotes,
			"created_at":        wk.CreatedAt.UTC(),
		},
		"ai_feedback":     wk.Feedback,
		"workout_plan":    wk.Request.WorkoutPlan,
		"completion_data": wk.Request.CompletionData,
	})
}

// ProgressAnalytics handles GET /progress-analytics.
func (h *Handler) ProgressAnalytics(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.store.Workouts(r.Context(), u.ID)
	if err != nil {
		h.internalError(w, r, "failed to list workouts", err)
		return
	}
	writeJSON(w, http.StatusOK, stub.ProgressAnalytics(list, h.store.Now()))
}
