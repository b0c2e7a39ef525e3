package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"planwise/internal/models"
	"planwise/internal/repository"
	"planwise/internal/security"
)

// TokenRevoker remembers logged out tokens. A nil revoker makes logout a no-op.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthResult is returned by every successful sign-in
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AuthService handles authentication business logic
type AuthService struct {
	users   *repository.UserRepository
	tokens  *security.TokenManager
	revoker TokenRevoker
	email   *EmailService
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, tokens *security.TokenManager, revoker TokenRevoker, email *EmailService) *AuthService {
	return &AuthService{users: users, tokens: tokens, revoker: revoker, email: email}
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	existing, err = s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Username); err != nil {
		log.Printf("Warning: failed to send welcome email to user %d: %v", user.ID, err)
	}

	return s.issue(user)
}

// Login checks email and password and signs the user in
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Printf("Warning: failed to update last login for user %d: %v", user.ID, err)
	}

	return s.issue(user)
}

// Authenticate verifies a bearer token and returns its claims and user id
func (s *AuthService) Authenticate(ctx context.Context, token string) (*security.Claims, int64, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, 0, ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, 0, ErrUnauthorized
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, 0, err
		}
		if revoked {
			return nil, 0, ErrUnauthorized
		}
	}

	return claims, userID, nil
}

// Logout revokes the token described by claims until it expires
func (s *AuthService) Logout(ctx context.Context, claims *security.Claims) error {
	if s.revoker == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Me returns the signed in user with their profile counters
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, models.UserStats, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.UserStats{}, err
	}
	if user == nil {
		return nil, models.UserStats{}, ErrNotFound
	}
	stats, err := s.users.Stats(ctx, userID)
	if err != nil {
		return nil, models.UserStats{}, err
	}
	return user, stats, nil
}

// UpdateProfile changes avatar, bio and settings; nil values are left alone
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, avatar, bio *string, settings json.RawMessage) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, avatar, bio, settings)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// OAuthIdentity is the account an OAuth provider vouched for
type OAuthIdentity struct {
	Provider      string
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// OAuthLogin signs in with an external identity. An identity seen before signs
// straight in. Otherwise the provider must have verified the email: an
// existing account with that email is linked, or a password-less account is
// created.
func (s *AuthService) OAuthLogin(ctx context.Context, id OAuthIdentity) (*AuthResult, error) {
	provider, subject := id.Provider, id.Subject
	if provider == "" || subject == "" {
		return nil, errors.New("missing oauth provider information")
	}
	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, errors.New("oauth provider did not return an email")
	}

	user, err := s.users.GetByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		if !id.EmailVerified {
			return nil, ErrEmailUnverified
		}
		existing, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}

		if existing != nil {
			if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
				return nil, ErrOAuthAccount
			}
			if err := s.users.LinkOAuth(ctx, existing.ID, provider, subject); err != nil {
				return nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = existing
		} else {
			username, err := s.availableUsername(ctx, id.Name, email)
			if err != nil {
				return nil, err
			}
			user, err = s.users.CreateOAuth(ctx, username, email, provider, subject)
			if err != nil {
				return nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
			if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Username); err != nil {
				log.Printf("Warning: failed to send welcome email to user %d: %v", user.ID, err)
			}
		}
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Printf("Warning: failed to update last login for user %d: %v", user.ID, err)
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

var usernameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// availableUsername derives a valid, unused username from a display name or email
func (s *AuthService) availableUsername(ctx context.Context, name, email string) (string, error) {
	base := usernameUnsafe.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"), "")
	if len(base) < 3 {
		base = usernameUnsafe.ReplaceAllString(strings.Split(email, "@")[0], "")
	}
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 2; i < 100; i++ {
		existing, err := s.users.GetByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	return base + "-" + security.NewID()[:8], nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
