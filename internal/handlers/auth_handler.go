package handlers

import (
	"encoding/json"
	"net/http"

	"planwise/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler. Providers without credentials are ignored.
func NewAuthHandler(authService *service.AuthService, providers map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		oauthProviders:       providers,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Avatar   *string         `json:"avatar" binding:"omitempty,max=500"`
	Bio      *string         `json:"bio" binding:"omitempty,max=500"`
	Settings json.RawMessage `json:"settings"`
}

type meResponse struct {
	User  interface{} `json:"user"`
	Stats interface{} `json:"stats"`
}

// Register creates an account
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	trackAuthAttempt(err, "register")
	if err != nil {
		serviceError(c, err, "register user")
		return
	}
	created(c, "User registered successfully", result)
}

// Login signs a user in with email and password
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	trackAuthAttempt(err, "login")
	if err != nil {
		serviceError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Login successful", Data: result})
}

// Me returns the signed in user
func (h *AuthHandler) Me(c *gin.Context) {
	user, stats, err := h.authService.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err, "load user")
		return
	}
	ok(c, meResponse{User: user, Stats: stats})
}

// UpdateProfile changes avatar, bio and settings
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Settings) > 0 && !json.Valid(req.Settings) {
		respondWithError(c, http.StatusBadRequest, "settings must be valid JSON", "", nil)
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), currentUserID(c), req.Avatar, req.Bio, req.Settings)
	if err != nil {
		serviceError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Profile updated", Data: user})
}

// Logout revokes the current token
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), currentClaims(c)); err != nil {
		respondWithError(c, http.StatusInternalServerError, ErrInternalServerError, "Failed to revoke token", err)
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Logged out"})
}

// providerConfigured reports whether key names a provider with credentials
func (h *AuthHandler) providerConfigured(key string) (OAuthProvider, bool) {
	provider, found := h.oauthProviders[key]
	if !found || provider.Config == nil || provider.Config.ClientID == "" || provider.Config.ClientSecret == "" {
		return OAuthProvider{}, false
	}
	return provider, true
}

// configFor returns a copy of the provider config pointing at this server's callback
func (h *AuthHandler) configFor(c *gin.Context, key string, provider OAuthProvider) oauth2.Config {
	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(c.Request, key)
	return config
}
