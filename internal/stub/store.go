// Package stub holds the state behind the in-memory development backend:
// accounts, fitness profiles and logged workouts.
package stub

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/fitgoalz/fitgoalz/internal/auth"
	"github.com/fitgoalz/fitgoalz/internal/fitness"
)

// Store errors.
var (
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("incorrect email or password")
	ErrUserNotFound   = errors.New("user not found")
	ErrNotFound       = errors.New("not found")
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Workout is a logged training session.
type Workout struct {
	ID        string
	UserID    int64
	Request   fitness.LogWorkoutRequest
	Feedback  fitness.Feedback
	CreatedAt time.Time
}

// CompletionRate is the share of exercises finished, in percent.
func (w *Workout) CompletionRate() int {
	c := w.Request.CompletionData
	if c.TotalExercises <= 0 {
		return 0
	}
	return c.CompletedExercises * 100 / c.TotalExercises
}

// Store is an in-memory, concurrency-safe backend state.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[string]*User // by lower-cased email
	profiles map[int64]fitness.FitnessProfile
	workouts map[int64][]*Workout
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*User),
		profiles: make(map[int64]fitness.FitnessProfile),
		workouts: make(map[int64][]*Workout),
		now:      time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Ping reports the store as healthy. It satisfies the readiness check interface.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers an account with a hashed password.
func (s *Store) CreateUser(ctx context.Context, email, username, password string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(email)
	if _, ok := s.users[key]; ok {
		return nil, ErrEmailTaken
	}
	s.nextID++
	u := &User{
		ID:           s.nextID,
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	s.users[key] = u
	return u, nil
}

// Authenticate checks an email and password pair.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.UserByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCredentials
	}
	ok, err := auth.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// UserByEmail looks up an account.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[emailKey(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// SaveProfile creates or replaces the user's fitness profile.
func (s *Store) SaveProfile(ctx context.Context, userID int64, p fitness.FitnessProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
	return nil
}

// Profile returns the user's fitness profile or ErrNotFound.
func (s *Store) Profile(ctx context.Context, userID int64) (fitness.FitnessProfile, error) {
	if err := ctx.Err(); err != nil {
		return fitness.FitnessProfile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return fitness.FitnessProfile{}, ErrNotFound
	}
	return p, nil
}

// AddWorkout stores a logged session and returns it with its ID and feedback.
func (s *Store) AddWorkout(ctx context.Context, userID int64, req fitness.LogWorkoutRequest) (*Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w := &Workout{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		UserID:    userID,
		Request:   req,
		CreatedAt: now,
	}
	w.Feedback = CoachFeedback(w)
	s.workouts[userID] = append(s.workouts[userID], w)
	return w, nil
}

// Workouts lists the user's sessions, newest first.
func (s *Store) Workouts(ctx context.Context, userID int64) ([]*Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := slices.Clone(s.workouts[userID])
	slices.Reverse(list)
	return list, nil
}

// Workout returns one of the user's sessions or ErrNotFound.
func (s *Store) Workout(ctx context.Context, userID int64, id string) (*Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.workouts[userID] {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, ErrNotFound
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}
