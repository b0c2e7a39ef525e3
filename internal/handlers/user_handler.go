package handlers

import (
	"net/http"

	"planwise/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves profiles, the follow graph and notifications
type UserHandler struct {
	social        *service.SocialService
	notifications *service.NotificationService
}

func NewUserHandler(social *service.SocialService, notifications *service.NotificationService) *UserHandler {
	return &UserHandler{social: social, notifications: notifications}
}

type notificationList struct {
	Notifications interface{} `json:"notifications"`
	UnreadCount   int         `json:"unreadCount"`
}

func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		respondWithError(c, http.StatusBadRequest, "Search query required", "", nil)
		return
	}
	users, err := h.social.Search(c.Request.Context(), q)
	if err != nil {
		serviceError(c, err, "search users")
		return
	}
	ok(c, users)
}

// Profile looks a user up by username
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.social.Profile(c.Request.Context(), c.Param("user"), currentUserID(c))
	if err != nil {
		serviceError(c, err, "load profile")
		return
	}
	ok(c, profile)
}

// ToggleFollow follows or unfollows a user by id
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	targetID, valid := idParam(c, "user")
	if !valid {
		return
	}
	following, err := h.social.ToggleFollow(c.Request.Context(), currentUserID(c), targetID)
	if err != nil {
		serviceError(c, err, "toggle follow")
		return
	}
	ok(c, gin.H{"following": following})
}

func (h *UserHandler) Followers(c *gin.Context) {
	userID, valid := idParam(c, "user")
	if !valid {
		return
	}
	users, err := h.social.Followers(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err, "list followers")
		return
	}
	ok(c, users)
}

func (h *UserHandler) Following(c *gin.Context) {
	userID, valid := idParam(c, "user")
	if !valid {
		return
	}
	users, err := h.social.Following(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err, "list following")
		return
	}
	ok(c, users)
}

// Achievements lists a user's badges, most recent first
func (h *UserHandler) Achievements(c *gin.Context) {
	userID, valid := idParam(c, "user")
	if !valid {
		return
	}
	badges, err := h.social.Achievements(c.Request.Context(), userID)
	if err != nil {
		serviceError(c, err, "list achievements")
		return
	}
	ok(c, badges)
}

func (h *UserHandler) Notifications(c *gin.Context) {
	list, unread, err := h.notifications.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err, "list notifications")
		return
	}
	ok(c, notificationList{Notifications: list, UnreadCount: unread})
}

func (h *UserHandler) MarkNotificationRead(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id, currentUserID(c)); err != nil {
		serviceError(c, err, "mark notification read")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Notification marked as read"})
}
