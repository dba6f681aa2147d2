package stub

import (
	"strings"

	"github.com/fitgoalz/fitgoalz/internal/fitness"
)

// exerciseLibrary maps fitness level and goal to candidate exercises.
var exerciseLibrary = map[string]map[string][]string{
	"beginner": {
		"weight_loss": {"Bodyweight Squats", "Walking Lunges", "Knee Push-ups", "Plank", "Jumping Jacks", "High Knees", "Mountain Climbers", "Glute Bridges"},
		"muscle_gain": {"Push-ups", "Bodyweight Rows", "Squats", "Lunges", "Plank Shoulder Taps", "Glute Bridges", "Assisted Pullups", "Side Planks"},
		"endurance":   {"Jumping Jacks", "High Knees", "Butt Kicks", "Mountain Climbers", "Plank Twists", "Bodyweight Squats", "Walking Lunges", "Arm Circles"},
	},
	"intermediate": {
		"weight_loss": {"Burpees", "Jump Squats", "Push-ups", "Plank Jacks", "Mountain Climbers", "High Knees", "Russian Twists", "Leg Raises"},
		"muscle_gain": {"Diamond Push-ups", "Pike Push-ups", "Bulgarian Split Squats", "Reverse Lunges", "One Leg Planks", "Superman", "Side Plank Dips"},
		"endurance":   {"Burpees", "Jumping Lunges", "Mountain Climbers", "High Knees", "Plank Up-Downs", "Russian Twists", "Flutter Kicks", "Jump Rope"},
	},
	"advanced": {
		"weight_loss": {"Clap Push-ups", "Jump Lunges", "Burpee Tuck Jumps", "Plank to Push-up", "Mountain Climber Crossovers", "Russian Twist Jumps", "Leg Raise Crossovers"},
		"muscle_gain": {"One-arm Push-ups", "Pistol Squats", "Handstand Push-ups", "Archer Push-ups", "Dragon Flags", "L-sit", "Planche Progressions"},
		"endurance":   {"Burpee Box Jumps", "Double Unders", "Man Makers", "Bear Crawls", "Spiderman Push-ups", "V-ups", "Hollow Body Rocks"},
	},
}

// basicExercises is used when the library has nothing for a level and goal.
var basicExercises = []string{"Bodyweight Squats", "Push-ups", "Plank", "Jumping Jacks", "Lunges", "Glute Bridges", "Mountain Climbers"}

// GeneratePlan builds a workout plan for a profile. The result is deterministic.
func GeneratePlan(p fitness.FitnessProfile) fitness.Record {
	level := p.FitnessLevel
	if level == "" {
		level = "beginner"
	}
	goal := p.Goals
	if goal == "" {
		goal = "general_fitness"
	}
	duration := p.WorkoutDuration
	if duration <= 0 {
		duration = 30
	}
	days := p.WorkoutDays
	if days <= 0 {
		days = 3
	}

	candidates := exerciseLibrary[level][goal]
	if len(candidates) == 0 {
		candidates = basicExercises
	}

	count := 8
	switch {
	case duration <= 20:
		count = 4
	case duration <= 40:
		count = 6
	}
	count = min(count, len(candidates))
	selected := candidates[:count]

	exercises := make([]any, 0, len(selected))
	structure := make([]any, 0, len(selected))
	for _, name := range selected {
		exercises = append(exercises, name)
		reps := "30-60 seconds"
		if strings.Contains(name, "Push") || strings.Contains(name, "Pull") || strings.Contains(name, "Squat") {
			reps = "8-12"
		}
		structure = append(structure, map[string]any{
			"exercise": name,
			"sets":     3,
			"reps":     reps,
			"rest":     "30-60 seconds",
		})
	}

	category := "unknown"
	if stats, err := fitness.ComputeStats(p); err == nil {
		category = strings.ToLower(stats.BMICategory)
	}

	return fitness.Record{
		"plan_name":         "Personalized " + titleGoal(goal) + " Plan",
		"fitness_level":     level,
		"goal":              goal,
		"duration":          duration,
		"days_per_week":     days,
		"bmi_analysis":      category,
		"exercises":         exercises,
		"workout_structure": structure,
		"recommendations":   recommendations(p, category),
	}
}

func recommendations(p fitness.FitnessProfile, bmiCategory string) []any {
	var recs []any
	switch bmiCategory {
	case "overweight", "obese":
		recs = append(recs, "Focus on cardio and full-body workouts for weight loss")
	case "underweight":
		recs = append(recs, "Include strength training to build muscle mass")
	}
	switch p.Goals {
	case "weight_loss":
		recs = append(recs, "Combine strength training with cardio for optimal fat loss")
	case "muscle_gain":
		recs = append(recs, "Focus on progressive overload and protein intake")
	case "endurance":
		recs = append(recs, "Gradually increase workout duration and intensity")
	}
	switch p.FitnessLevel {
	case "beginner":
		recs = append(recs, "Start with 3 days per week and focus on proper form")
	case "intermediate":
		recs = append(recs, "Consider adding variety with supersets and circuits")
	}
	return recs
}

func titleGoal(goal string) string {
	words := strings.Fields(strings.ReplaceAll(goal, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
