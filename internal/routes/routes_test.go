package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pivotapp/pivot/internal/app"
	"github.com/pivotapp/pivot/internal/config"
	"github.com/pivotapp/pivot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, mutate ...func(*config.Config)) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		AppName:           "Pivot",
		AppEnv:            "development",
		DBDriver:          "sqlite",
		DBConnection:      filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)",
		JWTSecret:         "test-secret-test-secret-test-secret",
		JWTExpiry:         168 * time.Hour,
		FrontendOrigin:    "http://localhost:5173",
		RateLimitRequests: 100,
		RateLimitWindow:   15 * time.Minute,
	}
	for _, m := range mutate {
		m(cfg)
	}

	a, err := app.New(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(func() {
		server.Close()
		_ = a.Close()
	})

	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// Some endpoints return arrays; only object bodies decode into the map.
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func registerUser(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()

	resp, body := doJSON(t, server, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterLoginFlow(t *testing.T) {
	server := setupServer(t)

	resp, body := doJSON(t, server, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["accessToken"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "local", user["authProvider"])
	assert.NotContains(t, user, "passwordHash")

	resp, body = doJSON(t, server, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, float64(http.StatusConflict), body["statusCode"])
	assert.Equal(t, "/auth/register", body["path"])

	resp, _ = doJSON(t, server, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, server, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["accessToken"])
}

func TestAuthRequired(t *testing.T) {
	server := setupServer(t)

	for _, path := range []string{"/users/me", "/habits", "/urges", "/urges/stats"} {
		resp, body := doJSON(t, server, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "Unauthorized", body["message"], path)
	}

	resp, _ := doJSON(t, server, http.MethodGet, "/users/me", "not-a-valid-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileEndpoints(t *testing.T) {
	server := setupServer(t)
	token := registerUser(t, server, "bob@example.com")

	resp, body := doJSON(t, server, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@example.com", body["email"])

	resp, body = doJSON(t, server, http.MethodPatch, "/users/me", token, map[string]string{
		"name": "Bob",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bob", body["name"])

	resp, _ = doJSON(t, server, http.MethodPatch, "/users/me", token, map[string]string{
		"name": "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHabitEndpoints(t *testing.T) {
	server := setupServer(t)
	token := registerUser(t, server, "carol@example.com")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/habits", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	listResp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	var habits []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&habits))
	assert.Len(t, habits, len(model.StandardHabits), "the seeded catalog is visible to every user")

	resp, body := doJSON(t, server, http.MethodPost, "/habits", token, map[string]string{
		"name": "Doomscrolling",
		"type": "custom",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Doomscrolling", body["name"])
	assert.Equal(t, "custom", body["type"])

	resp, _ = doJSON(t, server, http.MethodPost, "/habits", token, map[string]string{
		"name": "Anything",
		"type": "weekly",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	habitID, _ := body["id"].(string)
	require.NotEmpty(t, habitID)

	resp, body = doJSON(t, server, http.MethodGet, "/habits/"+habitID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Doomscrolling", body["name"])

	resp, _ = doJSON(t, server, http.MethodGet, "/habits/no-such-habit", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodGet, "/habits/"+habitID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUrgeFlow(t *testing.T) {
	server := setupServer(t)
	token := registerUser(t, server, "dave@example.com")

	resp, body := doJSON(t, server, http.MethodPost, "/habits", token, map[string]string{
		"name": "Smoking",
		"type": "standard",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	habitID, _ := body["id"].(string)
	require.NotEmpty(t, habitID)

	for i := 0; i < 3; i++ {
		resp, _ = doJSON(t, server, http.MethodPost, "/urges", token, map[string]string{
			"habitId": habitID,
			"outcome": "resisted",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ = doJSON(t, server, http.MethodPost, "/urges", token, map[string]string{
		"habitId": habitID,
		"outcome": "gave_in",
		"trigger": "stress",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodPost, "/urges", token, map[string]string{
		"habitId": habitID,
		"outcome": "skipped",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doJSON(t, server, http.MethodGet, "/urges?limit=2&offset=0", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), body["total"])
	urges, _ := body["urges"].([]any)
	assert.Len(t, urges, 2)

	resp, body = doJSON(t, server, http.MethodGet, "/urges/stats", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["totalResisted"])
	assert.Equal(t, float64(1), body["totalGaveIn"])
	assert.Equal(t, float64(0), body["totalDelayed"])
	assert.Equal(t, float64(4), body["totalUrges"])

	resp, _ = doJSON(t, server, http.MethodGet, "/urges/stats/by-type", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodGet, "/urges/stats/time-series?bucket=day&days=7", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, server, http.MethodGet, "/urges/stats/time-series?bucket=minute", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsAreScopedPerUser(t *testing.T) {
	server := setupServer(t)
	daveToken := registerUser(t, server, "dave2@example.com")
	eveToken := registerUser(t, server, "eve2@example.com")

	resp, body := doJSON(t, server, http.MethodPost, "/habits", daveToken, map[string]string{
		"name": "Smoking",
		"type": "standard",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	habitID, _ := body["id"].(string)

	resp, _ = doJSON(t, server, http.MethodPost, "/urges", daveToken, map[string]string{
		"habitId": habitID,
		"outcome": "resisted",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = doJSON(t, server, http.MethodGet, "/urges/stats", eveToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["totalUrges"], "another user's events do not leak into stats")
}

func TestUnknownRouteEnvelope(t *testing.T) {
	server := setupServer(t)

	resp, body := doJSON(t, server, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, float64(http.StatusNotFound), body["statusCode"])
	assert.Equal(t, "/nope", body["path"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRateLimitProfileUpdates(t *testing.T) {
	server := setupServer(t)
	token := registerUser(t, server, "frank@example.com")

	var last *http.Response
	for i := 0; i < 11; i++ {
		last, _ = doJSON(t, server, http.MethodPatch, "/users/me", token, map[string]string{
			"name": fmt.Sprintf("Frank %d", i),
		})
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode, "the 11th profile update in the window is throttled")
}

func withGoogleOAuth(cfg *config.Config) {
	cfg.GoogleClientID = "test-client-id"
	cfg.GoogleClientSecret = "test-client-secret"
	cfg.GoogleCallbackURL = "http://localhost:3000/auth/google/callback"
}

// noRedirectClient returns redirect responses as-is so tests can assert
// on the Location header.
func noRedirectClient(server *httptest.Server) *http.Client {
	client := server.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func TestGoogleAuthRedirectsToConsent(t *testing.T) {
	server := setupServer(t, withGoogleOAuth)

	resp, err := noRedirectClient(server).Get(server.URL + "/auth/google")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.Contains(t, location, "accounts.google.com")
	assert.Contains(t, location, "state=")

	var stateCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie, "consent redirect sets the state cookie")
	assert.True(t, stateCookie.HttpOnly)
}

func TestGoogleCallbackRejectsBadState(t *testing.T) {
	server := setupServer(t, withGoogleOAuth)
	client := noRedirectClient(server)

	// No state cookie at all
	resp, err := client.Get(server.URL + "/auth/google/callback?state=whatever&code=abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, "http://localhost:5173/login?error="),
		"failure redirects to the frontend login with an error parameter, got %q", location)

	// Cookie present but mismatched
	req, err := http.NewRequest(http.MethodGet, server.URL+"/auth/google/callback?state=forged&code=abc", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})

	resp, err = client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "http://localhost:5173/login?error="))
}

func TestGoogleRoutesAbsentWithoutCredentials(t *testing.T) {
	server := setupServer(t)

	resp, body := doJSON(t, server, http.MethodGet, "/auth/google", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, float64(http.StatusNotFound), body["statusCode"])
}

func TestSecurityHeaders(t *testing.T) {
	server := setupServer(t)

	resp, _ := doJSON(t, server, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
