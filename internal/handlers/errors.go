package handlers

import (
	"errors"
	"log"
	"net/http"

	"planwise/internal/service"
	"planwise/internal/validation"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every API response
type Response struct {
	Message string                       `json:"message,omitempty"`
	Error   string                       `json:"error,omitempty"`
	Data    interface{}                  `json:"data,omitempty"`
	Details []validation.ValidationError `json:"details,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Data: data})
}

func created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Message: message, Data: data})
}

func respondWithError(c *gin.Context, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}
	c.AbortWithStatusJSON(status, Response{Error: userMsg})
}

// badRequest reports a binding failure with per-field details
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Error: ErrValidation, Details: validation.Describe(err)})
}

// serviceError maps service sentinels to HTTP statuses. Anything unknown is
// logged under action and reported as a 500.
func serviceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(c, http.StatusNotFound, "Not found", "", nil)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(c, http.StatusForbidden, "Forbidden", "", nil)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(c, http.StatusConflict, "Email already registered", "", nil)
	case errors.Is(err, service.ErrUsernameTaken):
		respondWithError(c, http.StatusConflict, "Username already taken", "", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(c, http.StatusUnauthorized, "Invalid credentials", "", nil)
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(c, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	case errors.Is(err, service.ErrSelfFollow):
		respondWithError(c, http.StatusBadRequest, "You cannot follow yourself", "", nil)
	case errors.Is(err, service.ErrOAuthAccount):
		respondWithError(c, http.StatusConflict, "Email is linked to another sign-in provider", "", nil)
	case errors.Is(err, service.ErrEmailUnverified):
		respondWithError(c, http.StatusForbidden, "Your email address is not verified with this provider", "", nil)
	default:
		respondWithError(c, http.StatusInternalServerError, ErrInternalServerError, "Failed to "+action, err)
	}
}
