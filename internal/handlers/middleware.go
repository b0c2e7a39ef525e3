package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"planwise/internal/security"
	"planwise/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService) *Middleware {
	return &Middleware{authService: authService}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireAuth rejects requests without a valid, unrevoked bearer token
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondWithError(c, http.StatusUnauthorized, "Missing or invalid token", "", nil)
			return
		}

		claims, userID, err := m.authService.Authenticate(c.Request.Context(), token)
		if errors.Is(err, service.ErrUnauthorized) {
			respondWithError(c, http.StatusUnauthorized, "Invalid token", "", nil)
			return
		}
		if err != nil {
			respondWithError(c, http.StatusServiceUnavailable, "Authentication unavailable", "Failed to check token", err)
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// OptionalAuth identifies the user when a valid token is sent and lets
// anonymous requests through otherwise
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, userID, err := m.authService.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(ContextUserID, userID)
				c.Set(ContextClaims, claims)
			}
		}
		c.Next()
	}
}

// RequestID tags each request with an id, reusing one sent by a proxy
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logging middleware logs HTTP requests
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Printf("%s %s %d %s [%s]", c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start), c.GetString(ContextRequestID))
	}
}

// RateLimit limits requests per client IP
func RateLimit(limiter *security.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := limiter.Allow(security.ClientIP(c.Request))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			respondWithError(c, http.StatusTooManyRequests, "Too many requests, please try again later", "", nil)
			return
		}
		c.Next()
	}
}

// currentUserID returns the authenticated user id, 0 for anonymous requests
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

func currentClaims(c *gin.Context) *security.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*security.Claims)
	return claims
}
