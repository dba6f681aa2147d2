package fitness

import (
	"errors"
	"fmt"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

const (
	defaultWorkoutName     = "Generated Workout"
	defaultWorkoutDuration = 30
	workoutTypeGenerated   = "ml_generated"
)

// Ratings is the user's self-assessment of a finished session.
type Ratings struct {
	Difficulty int
	Energy     int
	Notes      string
}

// NewLogWorkoutRequest builds a log entry for a generated plan. plan may be
// the full /generate-workout reply or the inner workout object; every
// exercise in the plan counts as completed.
func NewLogWorkoutRequest(plan Record, r Ratings) (LogWorkoutRequest, error) {
	if r.Difficulty == 0 {
		r.Difficulty = 3
	}
	if r.Energy == 0 {
		r.Energy = 3
	}
	if r.Difficulty < 1 || r.Difficulty > 5 {
		return LogWorkoutRequest{}, fmt.Errorf("difficulty: %w", ErrInvalidRating)
	}
	if r.Energy < 1 || r.Energy > 5 {
		return LogWorkoutRequest{}, fmt.Errorf("energy: %w", ErrInvalidRating)
	}

	workout := plan
	if inner, ok := plan["workout"].(map[string]any); ok {
		workout = inner
	}
	if workout == nil {
		workout = Record{}
	}

	name, _ := workout["plan_name"].(string)
	if name == "" {
		name = defaultWorkoutName
	}

	duration := defaultWorkoutDuration
	switch d := workout["duration"].(type) {
	case float64:
		if d > 0 {
			duration = int(d)
		}
	case int:
		if d > 0 {
			duration = d
		}
	}

	exercises := 0
	if list, ok := workout["exercises"].([]any); ok {
		exercises = len(list)
	}

	return LogWorkoutRequest{
		WorkoutName:      name,
		WorkoutType:      workoutTypeGenerated,
		DurationMinutes:  duration,
		DifficultyRating: r.Difficulty,
		EnergyLevel:      r.Energy,
		PersonalNotes:    r.Notes,
		WorkoutPlan:      workout,
		CompletionData: CompletionData{
			CompletedExercises: exercises,
			TotalExercises:     exercises,
		},
	}, nil
}
