package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitgoalz/fitgoalz/internal/auth"
	"github.com/fitgoalz/fitgoalz/internal/stub"
)

const testSecret = "router-test-secret"

type harness struct {
	t      *testing.T
	router http.Handler
	store  *stub.Store
	prefix string
}

func newHarness(t *testing.T, prefix string) *harness {
	t.Helper()

	store := stub.NewStore()
	router, err := NewRouter(RouterConfig{
		Store:        store,
		Secret:       testSecret,
		TokenTTL:     30 * time.Minute,
		Prefix:       prefix,
		CORSOrigins:  []string{"*"},
		MaxBodyBytes: 1 << 20,
		Registry:     prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return &harness{t: t, router: router, store: store, prefix: prefix}
}

func (h *harness) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, h.prefix+path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) json(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	return h.do(method, path, token, r, "application/json")
}

func (h *harness) login(email, password string) *httptest.ResponseRecorder {
	h.t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	return h.do(http.MethodPost, "/auth/login", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// signup registers and logs in, returning the access token.
func (h *harness) signup(email string) string {
	h.t.Helper()
	rec := h.json(http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "username": "tester_1", "password": "secret1",
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.login(email, "secret1")
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]any
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["access_token"].(string)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

var validProfile = map[string]any{
	"age": 30, "weight": 85, "height": 180, "gender": "male",
	"fitness_level": "intermediate", "goals": "muscle_gain",
	"workout_days": 4, "workout_duration": 45,
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	h := newHarness(t, "")

	rec := h.json(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@b.com", "username": "alice", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)
	assert.Equal(t, float64(1), user["id"])
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")

	rec = h.json(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "A@B.com", "username": "alice2", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Email already registered"}`, rec.Body.String())

	rec = h.login("a@b.com", "wrong-pass")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Incorrect email or password"}`, rec.Body.String())

	rec = h.login("a@b.com", "secret1")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "bearer", resp["token_type"])
	assert.Equal(t, "a@b.com", resp["email"])

	claims, err := auth.ParseToken(testSecret, resp["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Subject)

	rec = h.do(http.MethodGet, "/auth/me", resp["access_token"].(string), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decodeBody(t, rec)["username"])
}

func TestRouter_RegisterValidation(t *testing.T) {
	h := newHarness(t, "")

	rec := h.json(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "not-an-email", "username": "ab", "password": "123",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Detail []fieldError `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Detail, 3)
	assert.Equal(t, []string{"body", "email"}, body.Detail[0].Loc)
	assert.Equal(t, []string{"body", "username"}, body.Detail[1].Loc)
	assert.Equal(t, []string{"body", "password"}, body.Detail[2].Loc)

	rec = h.do(http.MethodPost, "/auth/register", "", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, "/auth/login", "", strings.NewReader(""), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loc":["body","username"]`)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t, "")

	routes := []struct{ method, path string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/fitness-profile"},
		{http.MethodPost, "/fitness-profile"},
		{http.MethodGet, "/fitness-stats"},
		{http.MethodPost, "/generate-workout"},
		{http.MethodPost, "/log-workout"},
		{http.MethodGet, "/my-workouts"},
		{http.MethodGet, "/progress-analytics"},
		{http.MethodGet, "/workout-details/abc"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := h.do(rt.method, rt.path, "", nil, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())
		})
	}
}

func TestRouter_TokenForUnknownUser(t *testing.T) {
	h := newHarness(t, "")

	token, err := auth.IssueToken(testSecret, "ghost@b.com", time.Minute, time.Now())
	require.NoError(t, err)

	rec := h.do(http.MethodGet, "/auth/me", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ProfileLifecycle(t *testing.T) {
	h := newHarness(t, "")
	token := h.signup("p@b.com")

	rec := h.do(http.MethodGet, "/fitness-profile", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Fitness profile not found"}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/fitness-stats", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.json(http.MethodPost, "/fitness-profile", token, map[string]any{"age": 5, "weight": 85, "height": 180, "workout_days": 3, "workout_duration": 30})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loc":["body","age"]`)

	rec = h.json(http.MethodPost, "/fitness-profile", token, validProfile)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fitness profile saved successfully", decodeBody(t, rec)["message"])

	rec = h.do(http.MethodGet, "/fitness-profile", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decodeBody(t, rec)
	assert.Equal(t, "intermediate", profile["fitness_level"])
	assert.Equal(t, float64(45), profile["workout_duration"])

	rec = h.do(http.MethodGet, "/fitness-stats", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody(t, rec)
	assert.Equal(t, 26.2, stats["bmi"])
	assert.Equal(t, "Overweight", stats["bmi_category"])
	assert.Equal(t, float64(180), stats["weekly_workout_minutes"])
	assert.Equal(t, "Muscle Gain", stats["fitness_goal"])
	assert.Equal(t, float64(2500), stats["recommended_calories"])
}

func TestRouter_WorkoutFlow(t *testing.T) {
	h := newHarness(t, "")
	token := h.signup("w@b.com")

	rec := h.do(http.MethodPost, "/generate-workout", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Please complete your fitness profile first"}`, rec.Body.String())

	require.Equal(t, http.StatusOK, h.json(http.MethodPost, "/fitness-profile", token, validProfile).Code)

	rec = h.do(http.MethodPost, "/generate-workout", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decodeBody(t, rec)
	assert.Equal(t, "ml", generated["generation_method"])
	plan, ok := generated["workout"].(map[string]any)
	require.True(t, ok)

	rec = h.json(http.MethodPost, "/generate-workout", token, map[string]bool{"use_ai": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ai", decodeBody(t, rec)["generation_method"])

	rec = h.json(http.MethodPost, "/log-workout", token, map[string]any{
		"workout_name": "Push Day", "workout_type": "ml_generated", "duration_minutes": 45,
		"difficulty_rating": 9, "energy_level": 0,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "difficulty_rating")
	assert.Contains(t, rec.Body.String(), "energy_level")

	rec = h.json(http.MethodPost, "/log-workout", token, map[string]any{
		"workout_name": "Push Day", "workout_type": "ml_generated", "duration_minutes": 45,
		"difficulty_rating": 3, "energy_level": 4, "personal_notes": "good",
		"workout_plan":    plan,
		"completion_data": map[string]int{"completed_exercises": 8, "total_exercises": 8},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	logged := decodeBody(t, rec)
	id, _ := logged["workout_id"].(string)
	require.Len(t, id, 26)
	feedback := logged["feedback"].(map[string]any)
	assert.Equal(t, float64(5), feedback["rating"])
	assert.NotEmpty(t, feedback["feedback_text"])

	rec = h.do(http.MethodGet, "/my-workouts", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	workouts := decodeBody(t, rec)["workouts"].([]any)
	require.Len(t, workouts, 1)
	first := workouts[0].(map[string]any)
	assert.Equal(t, id, first["id"])
	assert.Equal(t, float64(100), first["completion_rate"])

	rec = h.do(http.MethodGet, "/workout-details/"+id, token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	details := decodeBody(t, rec)
	assert.Equal(t, "Push Day", details["workout_details"].(map[string]any)["workout_name"])
	assert.Equal(t, float64(8), details["completion_data"].(map[string]any)["total_exercises"])
	assert.NotNil(t, details["workout_plan"])

	rec = h.do(http.MethodGet, "/workout-details/unknown", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/progress-analytics", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	analytics := decodeBody(t, rec)
	assert.Equal(t, float64(1), analytics["total_workouts"])
	assert.Equal(t, float64(45), analytics["total_minutes"])
	assert.Equal(t, float64(1), analytics["current_streak"])
}

func TestRouter_WorkoutsAreScopedToUser(t *testing.T) {
	h := newHarness(t, "")
	alice := h.signup("alice@b.com")
	bob := h.signup("bob@b.com")

	rec := h.json(http.MethodPost, "/log-workout", alice, map[string]any{
		"workout_name": "Run", "workout_type": "cardio", "duration_minutes": 20,
		"difficulty_rating": 3, "energy_level": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeBody(t, rec)["workout_id"].(string)

	rec = h.do(http.MethodGet, "/workout-details/"+id, bob, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/my-workouts", bob, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"workouts":[]}`, rec.Body.String())
}

func TestRouter_Prefix(t *testing.T) {
	h := newHarness(t, "/api")
	token := h.signup("pre@b.com")

	rec := h.do(http.MethodGet, "/auth/me", token, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Routes are not served without the prefix.
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	raw := httptest.NewRecorder()
	h.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusNotFound, raw.Code)

	// Health stays at the root.
	raw = httptest.NewRecorder()
	h.router.ServeHTTP(raw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, raw.Code)
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newHarness(t, "")

	rec := h.do(http.MethodGet, "/nonexistent", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())

	rec = h.do(http.MethodDelete, "/auth/register", "", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"detail":"Method Not Allowed"}`, rec.Body.String())
}

func TestRouter_BodyTooLarge(t *testing.T) {
	store := stub.NewStore()
	router, err := NewRouter(RouterConfig{Store: store, Secret: testSecret, TokenTTL: time.Minute, MaxBodyBytes: 64})
	require.NoError(t, err)

	body := `{"email":"a@b.com","username":"alice","password":"` + strings.Repeat("x", 128) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	h := newHarness(t, "")
	h.do(http.MethodGet, "/auth/me", "", nil, "")

	rec := h.do(http.MethodGet, "/metrics", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fitgoalz_stub_http_requests_total{method="GET",route="/auth/me",status="401"} 1`)
}

func TestNewRouter_RequiresStore(t *testing.T) {
	_, err := NewRouter(RouterConfig{})
	assert.Error(t, err)
}
