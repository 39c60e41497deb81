package handlers

import (
	"errors"
	"net/http"

	"todo-api/internal/apperrors"
	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.taskService.ListForOwner(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    tasks,
		"message": "tasks retrieved successfully",
	})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), middleware.MustUserID(c), req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":    task,
		"message": "task created successfully",
	})
}

var errUnguardedTaskRoute = errors.New("task route is not behind RequireTaskOwner")

// ownedTaskID returns the id of the task RequireTaskOwner loaded.
func ownedTaskID(c *gin.Context) (uint, error) {
	task, ok := middleware.OwnedTask(c)
	if !ok {
		return 0, apperrors.Internal(errUnguardedTaskRoute)
	}
	return task.ID, nil
}

// UpdateTask and DeleteTask run behind RequireTaskOwner.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, err := ownedTaskID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var patch models.TaskPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.UpdateByID(c.Request.Context(), taskID, patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    task,
		"message": "task updated successfully",
	})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := ownedTaskID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.taskService.DeleteByID(c.Request.Context(), taskID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted successfully"})
}
