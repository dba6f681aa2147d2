package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fitgoalz/fitgoalz/internal/auth"
	"github.com/fitgoalz/fitgoalz/internal/fitness"
	"github.com/fitgoalz/fitgoalz/internal/middleware"
	"github.com/fitgoalz/fitgoalz/internal/stub"
)

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req fitness.RegisterRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		writeValidation(w, err, fitness.ErrInvalidRegistration)
		return
	}

	u, err := h.store.CreateUser(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, stub.ErrEmailTaken) {
			middleware.WriteDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.internalError(w, r, "failed to create user", err)
		return
	}

	h.logger.Info("user_registered", slog.Int64("user_id", u.ID))
	writeJSON(w, http.StatusOK, fitness.User{ID: u.ID, Username: u.Username, Email: u.Email})
}

// Login handles POST /auth/login. The body is an OAuth2 password form whose
// username field carries the email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		middleware.WriteDetail(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	email := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	var missing []fieldError
	for _, f := range [][2]string{{"username", email}, {"password", password}} {
		if f[1] == "" {
			missing = append(missing, fieldError{Loc: []string{"body", f[0]}, Msg: "field required", Type: "value_error.missing"})
		}
	}
	if len(missing) > 0 {
		writeFieldErrors(w, missing)
		return
	}

	u, err := h.store.Authenticate(r.Context(), email, password)
	if err != nil {
		h.logger.Warn("login_failed", slog.String("email_fp", auth.Fingerprint(strings.ToLower(email))))
		w.Header().Set("WWW-Authenticate", "Bearer")
		middleware.WriteDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token, err := auth.IssueToken(h.secret, u.Email, h.tokenTTL, h.store.Now())
	if err != nil {
		h.internalError(w, r, "failed to issue token", err)
		return
	}

	h.logger.Info("user_logged_in", slog.Int64("user_id", u.ID))
	writeJSON(w, http.StatusOK, fitness.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		UserID:      u.ID,
		Email:       u.Email,
	})
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fitness.User{ID: u.ID, Username: u.Username, Email: u.Email})
}
