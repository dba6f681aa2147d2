// Package handler serves the fitness coaching REST API from an in-memory stub.Store.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fitgoalz/fitgoalz/internal/auth"
	"github.com/fitgoalz/fitgoalz/internal/middleware"
	"github.com/fitgoalz/fitgoalz/internal/stub"
)

// Handler wraps the stub state and token settings shared by the API handlers.
type Handler struct {
	store    *stub.Store
	secret   string
	tokenTTL time.Duration
	logger   *slog.Logger
}

// New creates a new Handler instance.
func New(store *stub.Store, secret string, tokenTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteDetail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	middleware.WriteDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// fieldError is one entry of a 422 detail array.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// knownFields are the body fields a validation message may name.
var knownFields = []string{
	"age", "weight", "height", "gender", "fitness_level", "goals", "workout_days",
	"workout_duration", "activity_level", "email", "username", "password",
	"difficulty_rating", "energy_level",
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeFieldErrors(w http.ResponseWriter, errs []fieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}

// writeValidation renders a joined validation error as a 422 detail array.
// sentinel is the wrapped package error, stripped from each message.
func writeValidation(w http.ResponseWriter, err, sentinel error) {
	var parts []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts = joined.Unwrap()
	} else {
		parts = []error{err}
	}

	errs := make([]fieldError, 0, len(parts))
	for _, p := range parts {
		msg := strings.TrimPrefix(p.Error(), sentinel.Error()+": ")
		errs = append(errs, fieldError{
			Loc:  []string{"body", fieldOf(msg)},
			Msg:  msg,
			Type: "value_error",
		})
	}
	writeFieldErrors(w, errs)
}

// fieldOf guesses which body field a message is about: the leading word
// when it names a field, otherwise the first field mentioned.
func fieldOf(msg string) string {
	first, _, _ := strings.Cut(msg, " ")
	if slices.Contains(knownFields, first) {
		return first
	}
	for _, f := range knownFields {
		if strings.Contains(msg, f) {
			return f
		}
	}
	return "__root__"
}

// decodeJSON reads the request body into v. An empty body leaves v untouched
// when allowEmpty is set. It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		middleware.WriteDetail(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(bytes.TrimSpace(body)) == 0 {
		if allowEmpty {
			return true
		}
		writeFieldErrors(w, []fieldError{{Loc: []string{"body"}, Msg: "field required", Type: "value_error.missing"}})
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		writeFieldErrors(w, []fieldError{{Loc: []string{"body"}, Msg: "Invalid JSON body", Type: "value_error.jsondecode"}})
		return false
	}
	return true
}

// currentUser resolves the account behind the authenticated subject.
// A token for a since-removed account is treated as unauthenticated.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*stub.User, bool) {
	subject := auth.SubjectFromContext(r.Context())
	u, err := h.store.UserByEmail(r.Context(), subject)
	if err != nil {
		if !errors.Is(err, stub.ErrUserNotFound) {
			h.internalError(w, r, "failed to load user", err)
			return nil, false
		}
		w.Header().Set("WWW-Authenticate", "Bearer")
		middleware.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return nil, false
	}
	return u, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
	middleware.WriteDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
