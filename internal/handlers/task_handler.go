package handlers

import (
	"net/http"

	"planwise/internal/models"
	"planwise/internal/service"

	"github.com/gin-gonic/gin"
)

// TaskHandler serves task CRUD. Every mutation refreshes the owner's progress.
type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	PlanningID       int64   `json:"planning_id" binding:"required"`
	Title            string  `json:"title" binding:"required,min=1,max=500"`
	Time             *string `json:"time" binding:"omitempty,hhmm"`
	Category         string  `json:"category" binding:"max=50"`
	Icon             string  `json:"icon" binding:"max=50"`
	Notes            string  `json:"notes" binding:"max=2000"`
	DurationEstimate *int    `json:"duration_estimate" binding:"omitempty,min=0"`
	Position         int     `json:"position" binding:"min=0"`
	Date             string  `json:"date" binding:"required,isodate"`
}

type updateTaskRequest struct {
	Title            *string `json:"title" binding:"omitempty,min=1,max=500"`
	Time             *string `json:"time" binding:"omitempty,hhmm"`
	Category         *string `json:"category" binding:"omitempty,max=50"`
	Icon             *string `json:"icon" binding:"omitempty,max=50"`
	Notes            *string `json:"notes" binding:"omitempty,max=2000"`
	DurationEstimate *int    `json:"duration_estimate" binding:"omitempty,min=0"`
	Date             *string `json:"date" binding:"omitempty,isodate"`
	Position         *int    `json:"position" binding:"omitempty,min=0"`
	Completed        *bool   `json:"completed"`
}

type reorderRequest struct {
	Tasks []models.PositionUpdate `json:"tasks" binding:"required,dive"`
}

func (h *TaskHandler) ListByPlanning(c *gin.Context) {
	planningID, valid := idParam(c, "planningId")
	if !valid {
		return
	}
	tasks, err := h.tasks.ListByPlanning(c.Request.Context(), planningID, currentUserID(c))
	if err != nil {
		serviceError(c, err, "list tasks")
		return
	}
	ok(c, tasks)
}

func (h *TaskHandler) ListByDate(c *gin.Context) {
	planningID, valid := idParam(c, "planningId")
	if !valid {
		return
	}
	date, err := models.ParseDate(c.Param("date"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid date", "", nil)
		return
	}

	tasks, err := h.tasks.ListByDate(c.Request.Context(), planningID, currentUserID(c), date)
	if err != nil {
		serviceError(c, err, "list tasks")
		return
	}
	ok(c, tasks)
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid date", "", nil)
		return
	}
	if req.Time != nil && *req.Time == "" {
		req.Time = nil
	}

	task, err := h.tasks.Create(c.Request.Context(), currentUserID(c), &models.Task{
		PlanningID:       req.PlanningID,
		Title:            req.Title,
		Time:             req.Time,
		Category:         req.Category,
		Icon:             req.Icon,
		Notes:            req.Notes,
		DurationEstimate: req.DurationEstimate,
		Position:         req.Position,
		Date:             date,
	})
	if err != nil {
		serviceError(c, err, "create task")
		return
	}
	created(c, "Task created", task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u := models.TaskUpdate{
		Title:            req.Title,
		Time:             req.Time,
		Category:         req.Category,
		Icon:             req.Icon,
		Notes:            req.Notes,
		DurationEstimate: req.DurationEstimate,
		Position:         req.Position,
		Completed:        req.Completed,
	}
	if req.Date != nil {
		date, err := models.ParseDate(*req.Date)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "Invalid date", "", nil)
			return
		}
		u.Date = &date
	}

	task, err := h.tasks.Update(c.Request.Context(), id, currentUserID(c), u)
	if err != nil {
		serviceError(c, err, "update task")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Task updated", Data: task})
}

// Toggle flips completion of a task
func (h *TaskHandler) Toggle(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	task, err := h.tasks.Toggle(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		serviceError(c, err, "toggle task")
		return
	}
	ok(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), id, currentUserID(c)); err != nil {
		serviceError(c, err, "delete task")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Task deleted"})
}

// Reorder sets the positions of several tasks at once
func (h *TaskHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.tasks.Reorder(c.Request.Context(), currentUserID(c), req.Tasks); err != nil {
		serviceError(c, err, "reorder tasks")
		return
	}
	c.JSON(http.StatusOK, Response{Message: "Tasks reordered"})
}
