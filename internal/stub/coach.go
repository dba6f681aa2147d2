package stub

import (
	"fmt"
	"time"

	"github.com/fitgoalz/fitgoalz/internal/fitness"
)

// CoachFeedback rates a logged session from completion, effort and energy.
func CoachFeedback(w *Workout) fitness.Feedback {
	req := w.Request
	rate := w.CompletionRate()

	rating := 3
	switch {
	case rate >= 90:
		rating = 5
	case rate >= 70:
		rating = 4
	case rate < 40 && req.CompletionData.TotalExercises > 0:
		rating = 2
	}
	if req.EnergyLevel <= 1 && rating > 1 {
		rating--
	}

	var text string
	switch {
	case rating >= 5:
		text = fmt.Sprintf("Outstanding work on %s! You finished every exercise in %d minutes.", req.WorkoutName, req.DurationMinutes)
	case rating == 4:
		text = fmt.Sprintf("Strong session. %d%% of %s completed, keep the momentum going.", rate, req.WorkoutName)
	case rating == 3:
		text = fmt.Sprintf("Good effort on %s. Aim to finish a few more exercises next time.", req.WorkoutName)
	default:
		text = fmt.Sprintf("Every session counts. Try a shorter version of %s to build consistency.", req.WorkoutName)
	}
	if req.DifficultyRating >= 5 {
		text += " That felt very hard; consider lowering the intensity slightly."
	} else if req.DifficultyRating <= 1 {
		text += " That felt easy; you are ready for a tougher plan."
	}

	return fitness.Feedback{FeedbackText: text, Rating: rating}
}

// Analytics summarizes a user's sessions as of now.
type Analytics struct {
	TotalWorkouts    int     `json:"total_workouts"`
	TotalMinutes     int     `json:"total_minutes"`
	WeeklyWorkouts   int     `json:"weekly_workouts"`
	CurrentStreak    int     `json:"current_streak"`
	ConsistencyScore float64 `json:"consistency_score"`
	AverageRating    float64 `json:"average_rating"`
}

// ProgressAnalytics computes totals, the current daily streak and how many of
// the last 28 days had a session (as a percentage). workouts must be newest first.
func ProgressAnalytics(workouts []*Workout, now time.Time) Analytics {
	a := Analytics{TotalWorkouts: len(workouts)}
	if len(workouts) == 0 {
		return a
	}

	today := dayOf(now)
	activeDays := make(map[time.Time]bool)
	ratingSum := 0
	for _, w := range workouts {
		a.TotalMinutes += w.Request.DurationMinutes
		ratingSum += w.Feedback.Rating
		day := dayOf(w.CreatedAt)
		activeDays[day] = true
		if today.Sub(day) < 7*24*time.Hour {
			a.WeeklyWorkouts++
		}
	}
	a.AverageRating = float64(ratingSum) / float64(len(workouts))

	// A streak may start today or yesterday.
	day := today
	if !activeDays[day] {
		day = day.AddDate(0, 0, -1)
	}
	for activeDays[day] {
		a.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}

	const window = 28
	active := 0
	for i := 0; i < window; i++ {
		if activeDays[today.AddDate(0, 0, -i)] {
			active++
		}
	}
	a.ConsistencyScore = float64(active) * 100 / window
	return a
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
