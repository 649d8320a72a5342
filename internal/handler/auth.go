package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pivotapp/pivot/internal/config"
	"github.com/pivotapp/pivot/internal/httperr"
	"github.com/pivotapp/pivot/internal/model"
	"github.com/pivotapp/pivot/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type authHandler struct {
	authService       *service.AuthService
	googleOAuthConfig *oauth2.Config
	frontendOrigin    string
	isProduction      bool
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	return &authHandler{
		authService: authService,
		googleOAuthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		frontendOrigin: cfg.FrontendOrigin,
		isProduction:   cfg.IsProduction(),
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse carries the session token plus the sanitized user view.
type authResponse struct {
	AccessToken string          `json:"accessToken"`
	User        *model.UserView `json:"user"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := decodeJSON(r, &req)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	user, token, err := h.authService.Register(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			httperr.Write(w, r, httperr.Conflict("Email already registered"))
		case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrWeakPassword):
			httperr.Write(w, r, httperr.BadRequest(err.Error()))
		default:
			slog.Error("registration failed", "error", err)
			httperr.Write(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{AccessToken: token, User: user.View()})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := decodeJSON(r, &req)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httperr.Write(w, r, httperr.Unauthorized("Invalid credentials"))
			return
		}
		slog.Error("login failed", "error", err)
		httperr.Write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{AccessToken: token, User: user.View()})
}

// GoogleAuth redirects the user to Google's OAuth consent screen
func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	// Generate secure state token for CSRF protection
	state := generateOAuthState()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	url := h.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback terminates the OAuth handshake and redirects back to the
// frontend carrying a token or error query parameter.
func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	// Validate state parameter for CSRF protection
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		h.redirectWithError(w, r, "Authentication failed. Please try again.")
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		h.redirectWithError(w, r, "Authentication failed. Please try again.")
		return
	}

	token, err := h.googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("google oauth token exchange failed", "error", err)
		h.redirectWithError(w, r, "Authentication failed. Please try again.")
		return
	}

	profile, err := h.fetchGoogleProfile(r.Context(), token)
	if err != nil {
		slog.Error("failed to get google user info", "error", err)
		h.redirectWithError(w, r, "Authentication failed. Please try again.")
		return
	}

	user, err := h.authService.AuthenticateGoogle(profile)
	if err != nil {
		slog.Error("google authentication failed", "error", err, "email", profile.Email)
		h.redirectWithError(w, r, "Authentication failed. Please try again.")
		return
	}

	jwtToken, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		h.redirectWithError(w, r, "Authentication failed. Please try again.")
		return
	}

	http.Redirect(w, r, h.frontendOrigin+"/auth/callback?token="+url.QueryEscape(jwtToken), http.StatusSeeOther)
}

func (h *authHandler) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (service.GoogleProfile, error) {
	client := h.googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return service.GoogleProfile{}, err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	var userInfo struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	err = json.NewDecoder(resp.Body).Decode(&userInfo)
	if err != nil {
		return service.GoogleProfile{}, err
	}

	return service.GoogleProfile{
		ID:      userInfo.ID,
		Email:   userInfo.Email,
		Name:    userInfo.Name,
		Picture: userInfo.Picture,
	}, nil
}

func (h *authHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, h.frontendOrigin+"/login?error="+url.QueryEscape(message), http.StatusSeeOther)
}

func generateOAuthState() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
