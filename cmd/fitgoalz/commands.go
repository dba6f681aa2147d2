package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fitgoalz/fitgoalz/internal/auth"
	"github.com/fitgoalz/fitgoalz/internal/fitness"
)

// passwordEnv lets scripts supply a password without putting it in argv.
const passwordEnv = "FITGOALZ_PASSWORD"

var errUsage = errors.New("invalid arguments")

type app struct {
	svc    *fitness.Service
	stdout io.Writer
	logger *slog.Logger
}

type command struct {
	name   string
	usage  string
	action string
	run    func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"register", "register --email E --username U [--password P]", "Registration", cmdRegister},
	{"login", "login --email E [--password P]", "Login", cmdLogin},
	{"logout", "logout", "Logout", cmdLogout},
	{"status", "status", "Status", cmdStatus},
	{"me", "me", "Loading account", cmdMe},
	{"profile show", "profile show", "Loading profile", cmdProfileShow},
	{"profile set", "profile set [--age N] [--weight KG] [--height CM] [--gender G] [--level L] [--goals G] [--days N] [--duration MIN] [--injuries T] [--equipment T] [--activity A]", "Saving profile", cmdProfileSet},
	{"stats", "stats", "Loading stats", cmdStats},
	{"workout generate", "workout generate [--ai] [--save FILE]", "Generating workout", cmdWorkoutGenerate},
	{"workout log", "workout log [--plan FILE] [--difficulty 1-5] [--energy 1-5] [--notes T]", "Logging workout", cmdWorkoutLog},
	{"workout list", "workout list [--json]", "Loading workouts", cmdWorkoutList},
	{"workout show", "workout show ID", "Loading workout", cmdWorkoutShow},
	{"analytics", "analytics", "Loading analytics", cmdAnalytics},
}

// lookup resolves one- and two-word command names.
func lookup(args []string) (command, []string, bool) {
	for _, c := range commands {
		words := strings.Fields(c.name)
		if len(args) < len(words) {
			continue
		}
		if strings.Join(args[:len(words)], " ") == c.name {
			return c, args[len(words):], true
		}
	}
	return command{}, nil, false
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: fitgoalz <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %s\n", c.usage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func passwordFrom(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("%w: --password or %s is required", errUsage, passwordEnv)
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "account email")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	pw, err := passwordFrom(*password)
	if err != nil {
		return err
	}

	u, err := a.svc.Register(ctx, fitness.RegisterRequest{Email: *email, Username: *username, Password: pw})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Registered %s (id %d). Log in with: fitgoalz login --email %s\n", u.Username, u.ID, u.Email)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("%w: --email is required", errUsage)
	}
	pw, err := passwordFrom(*password)
	if err != nil {
		return err
	}

	resp, err := a.svc.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" {
		fmt.Fprintln(a.stdout, "Login accepted, but the server issued no session token")
		return nil
	}
	fmt.Fprintf(a.stdout, "Logged in as %s\n", resp.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.svc.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out")
	return nil
}

type statusReport struct {
	LoggedIn  bool       `json:"logged_in"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired,omitempty"`
}

// cmdStatus reports local session state without calling the backend.
// Token claims are decoded unverified and are for display only.
func cmdStatus(ctx context.Context, a *app, _ []string) error {
	token, ok, err := a.svc.Client().Credential(ctx)
	if err != nil {
		return err
	}

	report := statusReport{LoggedIn: ok}
	if ok {
		if claims, err := auth.Inspect(token); err == nil {
			report.Email = claims.Subject
			if !claims.ExpiresAt.IsZero() {
				exp := claims.ExpiresAt.UTC()
				report.ExpiresAt = &exp
				report.Expired = claims.Expired(time.Now())
			}
		}
	}
	return printJSON(a.stdout, report)
}

func cmdMe(ctx context.Context, a *app, _ []string) error {
	u, err := a.svc.Me(ctx)
	if err != nil {
		return err
	}
	return printJSON(a.stdout, u)
}

func cmdProfileShow(ctx context.Context, a *app, _ []string) error {
	p, err := a.svc.FitnessProfile(ctx)
	if errors.Is(err, fitness.ErrProfileNotFound) {
		fmt.Fprintln(a.stdout, "No fitness profile yet. Create one with: fitgoalz profile set")
		return nil
	}
	if err != nil {
		return err
	}
	return printJSON(a.stdout, p)
}

// cmdProfileSet updates the profile; unset flags keep their current values.
func cmdProfileSet(ctx context.Context, a *app, args []string) error {
	p, err := a.svc.FitnessProfile(ctx)
	if errors.Is(err, fitness.ErrProfileNotFound) {
		p = &fitness.FitnessProfile{}
	} else if err != nil {
		return err
	}

	fs := newFlagSet("profile set")
	fs.IntVar(&p.Age, "age", p.Age, "age in years")
	fs.Float64Var(&p.Weight, "weight", p.Weight, "weight in kg")
	fs.Float64Var(&p.Height, "height", p.Height, "height in cm")
	fs.StringVar(&p.Gender, "gender", p.Gender, strings.Join(fitness.Genders, "|"))
	fs.StringVar(&p.FitnessLevel, "level", p.FitnessLevel, strings.Join(fitness.FitnessLevels, "|"))
	fs.StringVar(&p.Goals, "goals", p.Goals, strings.Join(fitness.Goals, "|"))
	fs.IntVar(&p.WorkoutDays, "days", p.WorkoutDays, "workout days per week")
	fs.IntVar(&p.WorkoutDuration, "duration", p.WorkoutDuration, "minutes per workout")
	fs.StringVar(&p.Injuries, "injuries", p.Injuries, "injuries or limitations")
	fs.StringVar(&p.Equipment, "equipment", p.Equipment, "available equipment")
	fs.StringVar(&p.ActivityLevel, "activity", p.ActivityLevel, strings.Join(fitness.ActivityLevels, "|"))
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := a.svc.UpdateFitnessProfile(ctx, *p); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Fitness profile saved")
	return nil
}

func cmdStats(ctx context.Context, a *app, _ []string) error {
	stats, err := a.svc.FitnessStats(ctx)
	if err != nil {
		return err
	}
	return printJSON(a.stdout, stats)
}

func cmdWorkoutGenerate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("workout generate")
	useAI := fs.Bool("ai", false, "ask for an AI generated plan")
	save := fs.String("save", "", "write the plan to FILE for 'workout log'")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var req fitness.GenerateWorkoutRequest
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "ai" {
			req.UseAI = useAI
		}
	})

	plan, err := a.svc.GenerateWorkout(ctx, req)
	if err != nil {
		return err
	}
	if *save != "" {
		b, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		if err := os.WriteFile(*save, b, 0o600); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}
	}
	return printJSON(a.stdout, plan)
}

// cmdWorkoutLog logs a plan as completed. Without --plan a fresh plan is generated.
func cmdWorkoutLog(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("workout log")
	planFile := fs.String("plan", "", "plan saved by 'workout generate --save'")
	difficulty := fs.Int("difficulty", 3, "how hard it felt, 1-5")
	energy := fs.Int("energy", 3, "energy level, 1-5")
	notes := fs.String("notes", "", "personal notes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var plan fitness.Record
	if *planFile != "" {
		b, err := os.ReadFile(*planFile)
		if err != nil {
			return fmt.Errorf("read plan: %w", err)
		}
		if err := json.Unmarshal(b, &plan); err != nil {
			return fmt.Errorf("parse plan %s: %w", *planFile, err)
		}
	} else {
		generated, err := a.svc.GenerateWorkout(ctx, fitness.GenerateWorkoutRequest{})
		if err != nil {
			return err
		}
		plan = generated
	}

	req, err := fitness.NewLogWorkoutRequest(plan, fitness.Ratings{Difficulty: *difficulty, Energy: *energy, Notes: *notes})
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	resp, err := a.svc.LogWorkout(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Workout logged. Coach rating %d/5\n%s\n", resp.Feedback.Rating, resp.Feedback.FeedbackText)
	return nil
}

func cmdWorkoutList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("workout list")
	asJSON := fs.Bool("json", false, "print raw JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	workouts, err := a.svc.Workouts(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(a.stdout, workouts)
	}
	if len(workouts) == 0 {
		fmt.Fprintln(a.stdout, "No workouts logged yet")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMINUTES\tCOMPLETION\tRATING")
	for _, w := range workouts {
		fmt.Fprintf(tw, "%v\t%v\t%v\t%v%%\t%v\n",
			w["id"], w["workout_name"], w["duration_minutes"], w["completion_rate"], w["ai_rating"])
	}
	return tw.Flush()
}

func cmdWorkoutShow(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: workout show takes exactly one ID", errUsage)
	}
	details, err := a.svc.WorkoutDetails(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(a.stdout, details)
}

func cmdAnalytics(ctx context.Context, a *app, _ []string) error {
	analytics, err := a.svc.ProgressAnalytics(ctx)
	if err != nil {
		return err
	}
	return printJSON(a.stdout, analytics)
}
