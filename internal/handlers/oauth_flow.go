package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"planwise/internal/security"
	"planwise/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateTTL     = 10 * time.Minute
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

type oauthUserInfo struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// GoogleProvider returns the Google sign-in provider for the given credentials
func GoogleProvider(clientID, clientSecret string) OAuthProvider {
	return OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: googleUserInfoURL,
	}
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(c *gin.Context) {
	key := c.Param("provider")
	provider, configured := h.providerConfigured(key)
	if !configured {
		respondWithError(c, http.StatusNotFound, "OAuth provider not configured", "", nil)
		return
	}

	state := security.NewID()
	http.SetCookie(c.Writer, security.TempCookie(c.Request, OAuthStateCookieName, key+":"+state, oauthStateTTL))

	config := h.configFor(c, key, provider)
	c.Redirect(http.StatusFound, config.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// OAuthCallback handles the OAuth provider callback and signs the user in
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	key := c.Param("provider")
	provider, configured := h.providerConfigured(key)
	if !configured {
		respondWithError(c, http.StatusNotFound, "OAuth provider not configured", "", nil)
		return
	}

	code := c.Query("code")
	if code == "" {
		respondWithError(c, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := c.Request.Cookie(OAuthStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != key+":"+c.Query("state") {
		respondWithError(c, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	http.SetCookie(c.Writer, security.DeleteCookie(c.Request, OAuthStateCookieName))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	config := h.configFor(c, key, provider)
	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth exchange failed", err)
		return
	}

	info, err := fetchOAuthUser(ctx, provider, token)
	if err != nil {
		respondWithError(c, http.StatusBadGateway, err.Error(), "", nil)
		return
	}

	result, err := h.authService.OAuthLogin(c.Request.Context(), service.OAuthIdentity{
		Provider:      key,
		Subject:       info.Subject,
		Email:         info.Email,
		Name:          info.Name,
		EmailVerified: info.EmailVerified,
	})
	trackAuthAttempt(err, "oauth")
	if err != nil {
		serviceError(c, err, "sign in with "+key)
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Login successful", Data: result})
}

func fetchOAuthUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info", provider.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info", provider.Name)
	}

	// v2 userinfo says verified_email, the OpenID endpoint email_verified
	var payload struct {
		ID            string `json:"id"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		VerifiedEmail bool   `json:"verified_email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse %s user info", provider.Name)
	}
	if payload.ID == "" {
		payload.ID = payload.Sub
	}
	if payload.ID == "" || payload.Email == "" {
		return oauthUserInfo{}, errors.New("provider did not return an account id and email")
	}

	return oauthUserInfo{
		Subject:       payload.ID,
		Email:         payload.Email,
		Name:          payload.Name,
		EmailVerified: payload.VerifiedEmail || payload.EmailVerified,
	}, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/api/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}
