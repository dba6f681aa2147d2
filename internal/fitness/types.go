// Package fitness is the typed API surface of the fitness coaching backend.
package fitness

import "encoding/json"

// Record is an opaque backend payload passed through to the caller.
type Record = map[string]any

// Enumerations accepted by the backend for profile fields.
var (
	Genders        = []string{"male", "female", "other"}
	FitnessLevels  = []string{"beginner", "intermediate", "advanced"}
	Goals          = []string{"weight_loss", "muscle_gain", "endurance", "general_fitness"}
	ActivityLevels = []string{"sedentary", "light", "moderate", "active", "very_active"}
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is an account as returned by /auth/register and /auth/me.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResponse is the body of a successful POST /auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Email       string `json:"email"`
}

// FitnessProfile holds the user's body metrics and training preferences.
type FitnessProfile struct {
	Age             int     `json:"age"`
	Weight          float64 `json:"weight"`
	Height          float64 `json:"height"`
	Gender          string  `json:"gender,omitempty"`
	FitnessLevel    string  `json:"fitness_level,omitempty"`
	Goals           string  `json:"goals,omitempty"`
	WorkoutDays     int     `json:"workout_days"`
	WorkoutDuration int     `json:"workout_duration"`
	Injuries        string  `json:"injuries,omitempty"`
	Equipment       string  `json:"equipment,omitempty"`
	ActivityLevel   string  `json:"activity_level,omitempty"`
}

// Stats are the derived fitness figures served by GET /fitness-stats.
type Stats struct {
	BMI                  float64 `json:"bmi"`
	BMICategory          string  `json:"bmi_category"`
	WeeklyWorkoutMinutes int     `json:"weekly_workout_minutes"`
	FitnessGoal          string  `json:"fitness_goal"`
	RecommendedCalories  int     `json:"recommended_calories"`
}

// GenerateWorkoutRequest selects the generator. A nil UseAI sends no body.
type GenerateWorkoutRequest struct {
	UseAI *bool `json:"use_ai,omitempty"`
}

// CompletionData counts exercises finished in a logged session.
type CompletionData struct {
	CompletedExercises int `json:"completed_exercises"`
	TotalExercises     int `json:"total_exercises"`
}

// LogWorkoutRequest is the body of POST /log-workout.
type LogWorkoutRequest struct {
	WorkoutName      string         `json:"workout_name"`
	WorkoutType      string         `json:"workout_type"`
	DurationMinutes  int            `json:"duration_minutes"`
	DifficultyRating int            `json:"difficulty_rating"`
	EnergyLevel      int            `json:"energy_level"`
	PersonalNotes    string         `json:"personal_notes"`
	WorkoutPlan      Record         `json:"workout_plan"`
	CompletionData   CompletionData `json:"completion_data"`
}

// Feedback is the coach's reaction to a logged workout.
type Feedback struct {
	FeedbackText string `json:"feedback_text"`
	Rating       int    `json:"rating"`
}

// LogWorkoutResponse is the reply to POST /log-workout. Raw keeps every field.
type LogWorkoutResponse struct {
	Feedback Feedback `json:"feedback"`
	Raw      Record   `json:"-"`
}

// WorkoutList is the reply to GET /my-workouts.
type WorkoutList struct {
	Workouts []Record `json:"workouts"`
}

// profileEnvelope matches the wrapped form of GET /fitness-profile.
type profileEnvelope struct {
	Profile json.RawMessage `json:"profile"`
	Message string          `json:"message"`
}
