package fitness

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
)

// Validation errors.
var (
	ErrInvalidProfile      = errors.New("invalid fitness profile")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// Profile bounds.
const (
	MinAge             = 13
	MaxAge             = 100
	MinWeightKg        = 30
	MaxWeightKg        = 300
	MinHeightCm        = 100
	MaxHeightCm        = 250
	MinWorkoutDays     = 1
	MaxWorkoutDays     = 7
	MinWorkoutDuration = 10
	MaxWorkoutDuration = 180

	baseCalories      = 2200
	calorieAdjustment = 300
)

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{4,}$`)
)

// Validate checks the profile against the ranges the backend accepts.
// All violations are reported together.
func (p FitnessProfile) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidProfile}, args...)...))
	}

	if p.Age < MinAge || p.Age > MaxAge {
		add("age must be between %d and %d", MinAge, MaxAge)
	}
	if p.Weight < MinWeightKg || p.Weight > MaxWeightKg {
		add("weight must be between %d and %d kg", MinWeightKg, MaxWeightKg)
	}
	if p.Height < MinHeightCm || p.Height > MaxHeightCm {
		add("height must be between %d and %d cm", MinHeightCm, MaxHeightCm)
	}
	if p.WorkoutDays < MinWorkoutDays || p.WorkoutDays > MaxWorkoutDays {
		add("workout_days must be between %d and %d", MinWorkoutDays, MaxWorkoutDays)
	}
	if p.WorkoutDuration < MinWorkoutDuration || p.WorkoutDuration > MaxWorkoutDuration {
		add("workout_duration must be between %d and %d minutes", MinWorkoutDuration, MaxWorkoutDuration)
	}
	checkEnum := func(field, value string, allowed []string) {
		if value != "" && !slices.Contains(allowed, value) {
			add("%s must be one of %s", field, strings.Join(allowed, ", "))
		}
	}
	checkEnum("gender", p.Gender, Genders)
	checkEnum("fitness_level", p.FitnessLevel, FitnessLevels)
	checkEnum("goals", p.Goals, Goals)
	checkEnum("activity_level", p.ActivityLevel, ActivityLevels)

	return errors.Join(errs...)
}

// Validate checks the registration form before it is sent.
func (r RegisterRequest) Validate() error {
	var errs []error
	if !emailRegex.MatchString(r.Email) {
		errs = append(errs, fmt.Errorf("%w: enter a valid email (abc@xyz.com)", ErrInvalidRegistration))
	}
	if !usernameRegex.MatchString(r.Username) {
		errs = append(errs, fmt.Errorf("%w: username needs at least 4 letters, numbers or underscores", ErrInvalidRegistration))
	}
	if len(r.Password) < 6 || strings.ContainsAny(r.Password, " \t\r\n") {
		errs = append(errs, fmt.Errorf("%w: password needs at least 6 characters and no spaces", ErrInvalidRegistration))
	}
	return errors.Join(errs...)
}

// BMICategory buckets a body mass index.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// RecommendedCalories is the daily intake suggested for a goal.
func RecommendedCalories(goal string) int {
	switch goal {
	case "weight_loss":
		return baseCalories - calorieAdjustment
	case "muscle_gain":
		return baseCalories + calorieAdjustment
	default:
		return baseCalories
	}
}

// ComputeStats derives BMI and training figures from a profile.
func ComputeStats(p FitnessProfile) (Stats, error) {
	if p.Height <= 0 || p.Weight <= 0 {
		return Stats{}, fmt.Errorf("%w: weight and height are required", ErrInvalidProfile)
	}

	heightM := p.Height / 100
	bmi := p.Weight / (heightM * heightM)

	goal := "Not set"
	if p.Goals != "" {
		goal = titleWords(strings.ReplaceAll(p.Goals, "_", " "))
	}

	return Stats{
		BMI:                  math.Round(bmi*10) / 10,
		BMICategory:          BMICategory(bmi),
		WeeklyWorkoutMinutes: p.WorkoutDays * p.WorkoutDuration,
		FitnessGoal:          goal,
		RecommendedCalories:  RecommendedCalories(p.Goals),
	}, nil
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
