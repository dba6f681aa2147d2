package fitness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fitgoalz/fitgoalz/internal/apiclient"
)

// API paths, relative to the client's prefix.
const (
	PathRegister          = "/auth/register"
	PathLogin             = "/auth/login"
	PathMe                = "/auth/me"
	PathFitnessProfile    = "/fitness-profile"
	PathFitnessStats      = "/fitness-stats"
	PathGenerateWorkout   = "/generate-workout"
	PathLogWorkout        = "/log-workout"
	PathMyWorkouts        = "/my-workouts"
	PathProgressAnalytics = "/progress-analytics"
	PathWorkoutDetails    = "/workout-details/"
)

// Service errors.
var (
	ErrProfileNotFound = errors.New("fitness profile not found")
	ErrEmptyWorkoutID  = errors.New("workout id must not be empty")
)

// noProfileMessage is how some backend revisions report a missing profile with 200.
const noProfileMessage = "No profile found"

// Service exposes the backend operations on top of an authenticated client.
type Service struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(client *apiclient.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{client: client, logger: logger}
}

// Client returns the underlying request client.
func (s *Service) Client() *apiclient.Client {
	return s.client
}

// Register creates an account. It does not log in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var user User
	if err := s.client.PostJSON(ctx, PathRegister, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges email and password for a session. A token in the reply is
// stored before Login returns, and a failure to persist it fails the login.
// A successful reply without a token is returned with nothing stored.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	resp, err := s.client.Do(ctx, http.MethodPost, PathLogin, form, nil)
	if err != nil {
		return nil, err
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := resp.Decode(&token); err != nil {
		return nil, err
	}
	if token.AccessToken != "" {
		if err := s.client.SetCredential(ctx, token.AccessToken); err != nil {
			return nil, err
		}
	}

	// The other fields are informational; a mistyped one leaves the rest set.
	var out LoginResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		s.logger.Debug("login response partially decoded", slog.String("error", err.Error()))
	}
	out.AccessToken = token.AccessToken

	if out.AccessToken == "" {
		s.logger.Warn("login succeeded without an access token")
	} else {
		s.logger.Info("logged in", slog.Int64("user_id", out.UserID))
	}
	return &out, nil
}

// Logout forgets the local credential. The backend is not contacted.
func (s *Service) Logout(ctx context.Context) error {
	return s.client.ClearCredential(ctx)
}

// LoggedIn reports whether a credential is stored.
func (s *Service) LoggedIn(ctx context.Context) (bool, error) {
	_, ok, err := s.client.Credential(ctx)
	return ok, err
}

// Me returns the account behind the current credential.
func (s *Service) Me(ctx context.Context) (*User, error) {
	var user User
	if err := s.client.GetJSON(ctx, PathMe, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FitnessProfile returns the stored profile or ErrProfileNotFound.
// Accepts a bare profile object or one wrapped as {"profile": {...}}.
func (s *Service) FitnessProfile(ctx context.Context) (*FitnessProfile, error) {
	resp, err := s.client.Do(ctx, http.MethodGet, PathFitnessProfile, nil, nil)
	if err != nil {
		if apiclient.StatusCode(err) == http.StatusNotFound {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var env profileEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, err
	}

	body := resp.Body
	switch {
	case len(env.Profile) > 0 && !bytes.Equal(bytes.TrimSpace(env.Profile), []byte("null")):
		body = env.Profile
	case len(env.Profile) > 0 || env.Message == noProfileMessage:
		return nil, ErrProfileNotFound
	}

	var profile FitnessProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, &apiclient.Error{
			Kind:       apiclient.KindDecode,
			StatusCode: resp.StatusCode,
			Message:    "invalid fitness profile in response",
			RequestID:  resp.RequestID,
			Err:        err,
		}
	}
	return &profile, nil
}

// UpdateFitnessProfile validates and saves the profile.
func (s *Service) UpdateFitnessProfile(ctx context.Context, profile FitnessProfile) (Record, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	var out Record
	if err := s.client.PostJSON(ctx, PathFitnessProfile, profile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FitnessStats returns BMI and training figures computed by the backend.
func (s *Service) FitnessStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := s.client.GetJSON(ctx, PathFitnessStats, &stats); err != nil {
		if apiclient.StatusCode(err) == http.StatusNotFound {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &stats, nil
}

// GenerateWorkout asks the backend for a plan based on the stored profile.
func (s *Service) GenerateWorkout(ctx context.Context, req GenerateWorkoutRequest) (Record, error) {
	var body any
	if req.UseAI != nil {
		body = req
	}

	resp, err := s.client.Do(ctx, http.MethodPost, PathGenerateWorkout, body, nil)
	if err != nil {
		return nil, err
	}
	var out Record
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// LogWorkout records a finished session and returns the coach's feedback.
func (s *Service) LogWorkout(ctx context.Context, req LogWorkoutRequest) (*LogWorkoutResponse, error) {
	resp, err := s.client.Do(ctx, http.MethodPost, PathLogWorkout, req, nil)
	if err != nil {
		return nil, err
	}

	var out LogWorkoutResponse
	if err := resp.Decode(&out.Raw); err != nil {
		return nil, err
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Workouts lists the user's logged sessions. Accepts {"workouts": [...]} or a bare array.
func (s *Service) Workouts(ctx context.Context) ([]Record, error) {
	resp, err := s.client.Do(ctx, http.MethodGet, PathMyWorkouts, nil, nil)
	if err != nil {
		return nil, err
	}

	if bytes.HasPrefix(bytes.TrimSpace(resp.Body), []byte("[")) {
		var list []Record
		if err := resp.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var list WorkoutList
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	return list.Workouts, nil
}

// ProgressAnalytics returns aggregate progress figures.
func (s *Service) ProgressAnalytics(ctx context.Context) (Record, error) {
	var out Record
	if err := s.client.GetJSON(ctx, PathProgressAnalytics, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WorkoutDetails returns one logged session.
func (s *Service) WorkoutDetails(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyWorkoutID
	}
	var out Record
	if err := s.client.GetJSON(ctx, PathWorkoutDetails+url.PathEscape(id), &out); err != nil {
		return nil, fmt.Errorf("workout %s: %w", id, err)
	}
	return out, nil
}
