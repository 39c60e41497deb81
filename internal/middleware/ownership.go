package middleware

import (
	"context"
	"errors"
	"strconv"

	"todo-api/internal/apperrors"
	"todo-api/internal/models"
	"todo-api/internal/repositories"

	"github.com/gin-gonic/gin"
)

const taskKey = "owned_task"

type TaskFinder interface {
	FindTaskByID(ctx context.Context, id uint) (*models.Task, error)
}

// parseTaskID reads the :id path parameter.
func parseTaskID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidInput("id", "task id must be a positive integer")
	}
	return uint(id), nil
}

// RequireTaskOwner lets the request through only when the :id task exists
// and belongs to the authenticated identity. A missing task is reported
// before a foreign one. Must run after Authenticate.
func RequireTaskOwner(finder TaskFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := MustUserID(c)

		taskID, err := parseTaskID(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		task, err := finder.FindTaskByID(c.Request.Context(), taskID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				AbortWithError(c, apperrors.NotFound("task not found"))
				return
			}
			AbortWithError(c, apperrors.Internal(err))
			return
		}

		if task.UserID != userID {
			AbortWithError(c, apperrors.Forbidden("you do not have permission to modify this task"))
			return
		}

		c.Set(taskKey, task)
		c.Next()
	}
}

// OwnedTask returns the task loaded by RequireTaskOwner.
func OwnedTask(c *gin.Context) (*models.Task, bool) {
	value, ok := c.Get(taskKey)
	if !ok {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
