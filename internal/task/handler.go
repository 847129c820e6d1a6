package task

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/todo-api/internal/auth"
	"github.com/redmonkez12/todo-api/internal/httputil"
	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/user"
)

// Handler contains HTTP handlers for task endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AddTaskRequest represents the new task request body
type AddTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Add handles task creation
// @Summary      Add task
// @Description  Append an open task to the caller's list
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body AddTaskRequest true "Task"
// @Success      201 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Invalid request body"
// @Failure      401 {object} httputil.Response "Not logged in"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /newtask [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Please login first", http.StatusUnauthorized)
		return
	}

	var req AddTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid add task request body", "error", err.Error())
		httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	t, err := h.service.Add(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		logger.Error("failed to add task", "user_id", userID, "error", err.Error())
		httputil.RespondInternalError(w, err)
		return
	}

	logger.Info("task added", "user_id", userID, "task_id", t.ID)
	httputil.RespondSuccess(w, "Task added Successfully", http.StatusCreated)
}

// Remove handles task deletion
// @Summary      Remove task
// @Description  Delete a task from the caller's list. Unknown ids succeed without change.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID"
// @Success      200 {object} httputil.Response
// @Failure      401 {object} httputil.Response "Not logged in"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /task/{taskId} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Please login first", http.StatusUnauthorized)
		return
	}

	// an id that does not parse matches no task, which is a no-op
	if taskID, err := uuid.Parse(chi.URLParam(r, "taskId")); err == nil {
		if err := h.service.Remove(r.Context(), userID, taskID); err != nil {
			logger.Error("failed to remove task", "user_id", userID, "error", err.Error())
			httputil.RespondInternalError(w, err)
			return
		}
	}

	httputil.RespondSuccess(w, "Task removed Successfully", http.StatusOK)
}

// Toggle handles task completion toggling
// @Summary      Toggle task
// @Description  Flip the completed flag of a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId path string true "Task ID"
// @Success      200 {object} httputil.Response
// @Failure      401 {object} httputil.Response "Not logged in"
// @Failure      404 {object} httputil.Response "Task not found"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /task/{taskId} [put]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Please login first", http.StatusUnauthorized)
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		httputil.RespondError(w, "Task not found", http.StatusNotFound)
		return
	}

	t, err := h.service.Toggle(r.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, user.ErrTaskNotFound) {
			httputil.RespondError(w, "Task not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to toggle task", "user_id", userID, "error", err.Error())
		httputil.RespondInternalError(w, err)
		return
	}

	logger.Info("task toggled", "user_id", userID, "task_id", t.ID, "completed", t.Completed)
	httputil.RespondSuccess(w, "Task updated Successfully", http.StatusOK)
}
