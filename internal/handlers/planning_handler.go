package handlers

import (
	"net/http"

	"planwise/internal/models"
	"planwise/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanningHandler serves plannings, their likes and comments
type PlanningHandler struct {
	plannings *service.PlanningService
}

func NewPlanningHandler(plannings *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{plannings: plannings}
}

type createPlanningRequest struct {
	Title        string `json:"title" binding:"required,min=1,max=255"`
	Description  string `json:"description" binding:"max=2000"`
	IsPublic     bool   `json:"is_public"`
	TemplateType string `json:"template_type" binding:"max=50"`
	Visibility   string `json:"visibility" binding:"omitempty,oneof=private public friends"`
}

type updatePlanningRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	IsPublic    *bool   `json:"is_public"`
	Visibility  *string `json:"visibility" binding:"omitempty,oneof=private public friends"`
}

type commentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

// List returns the plannings of the signed in user
func (h *PlanningHandler) List(c *gin.Context) {
	plannings, err := h.plannings.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		serviceError(c, err, "list plannings")
		return
	}
	ok(c, plannings)
}

// ListPublic is the discover feed
func (h *PlanningHandler) ListPublic(c *gin.Context) {
	limit := queryInt(c, "limit", service.DefaultPublicLimit, 1, 100)
	offset := queryInt(c, "offset", 0, 0, 1<<30)

	plannings, err := h.plannings.ListPublic(c.Request.Context(), limit, offset)
	if err != nil {
		serviceError(c, err, "list public plannings")
		return
	}
	ok(c, plannings)
}

func (h *PlanningHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		respondWithError(c, http.StatusBadRequest, "Search query required", "", nil)
		return
	}
	plannings, err := h.plannings.Search(c.Request.Context(), q)
	if err != nil {
		serviceError(c, err, "search plannings")
		return
	}
	ok(c, plannings)
}

func (h *PlanningHandler) Get(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	detail, err := h.plannings.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		serviceError(c, err, "get planning")
		return
	}
	ok(c, detail)
}

// GetShared returns a planning by its share token
func (h *PlanningHandler) GetShared(c *gin.Context) {
	detail, err := h.plannings.GetShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		serviceError(c, err, "get shared planning")
		return
	}
	ok(c, detail)
}

func (h *PlanningHandler) Create(c *gin.Context) {
	var req createPlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.plannings.Create(c.Request.Context(), currentUserID(c), &models.Planning{
		Title:        req.Title,
		Description:  req.Description,
		IsPublic:     req.IsPublic,
		TemplateType: req.TemplateType,
		Visibility:   req.Visibility,
	})
	if err != nil {
		serviceError(c, err, "create planning")
		return
	}
	created(c, "Planning created", p)
}

func (h *PlanningHandler) Update(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req updatePlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.plannings.Update(c.Request.Context(), id, currentUserID(c), models.PlanningUpdate{
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Visibility:  req.Visibility,
	})
	if err != nil {
		serviceError(c, err, "update planning")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Planning updated", Data: p})
}

func (h *PlanningHandler) Delete(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.plannings.Delete(c.Request.Context(), id, currentUserID(c)); err != nil {
		serviceError(c, err, "delete planning")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Planning deleted"})
}

func (h *PlanningHandler) Duplicate(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	p, err := h.plannings.Duplicate(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		serviceError(c, err, "duplicate planning")
		return
	}
	created(c, "Planning duplicated", p)
}

func (h *PlanningHandler) Share(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	token, err := h.plannings.Share(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		serviceError(c, err, "share planning")
		return
	}
	ok(c, gin.H{"share_token": token})
}

func (h *PlanningHandler) Unshare(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.plannings.Unshare(c.Request.Context(), id, currentUserID(c)); err != nil {
		serviceError(c, err, "unshare planning")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Share link revoked"})
}

// ToggleLike likes or unlikes a public planning
func (h *PlanningHandler) ToggleLike(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	liked, err := h.plannings.ToggleLike(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		serviceError(c, err, "toggle like")
		return
	}
	ok(c, gin.H{"liked": liked})
}

func (h *PlanningHandler) AddComment(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.plannings.AddComment(c.Request.Context(), id, currentUserID(c), req.Content)
	if err != nil {
		serviceError(c, err, "add comment")
		return
	}
	created(c, "Comment added", comment)
}
