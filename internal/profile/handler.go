package profile

import (
	"errors"
	"net/http"

	"github.com/redmonkez12/todo-api/internal/auth"
	"github.com/redmonkez12/todo-api/internal/httputil"
	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/media"
)

// Handler contains HTTP handlers for profile endpoints
type Handler struct {
	service  *Service
	sessions *auth.Sessions
	stager   *media.Stager
}

func NewHandler(service *Service, sessions *auth.Sessions, stager *media.Stager) *Handler {
	return &Handler{service: service, sessions: sessions, stager: stager}
}

// Me returns the caller and refreshes the session cookie
// @Summary      Current user
// @Description  Return the logged in user and re-issue the session cookie
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} auth.SessionResponse
// @Failure      401 {object} httputil.Response "Not logged in"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Please login first", http.StatusUnauthorized)
		return
	}

	u, err := h.service.MyProfile(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load profile", "user_id", userID, "error", err.Error())
		httputil.RespondInternalError(w, err)
		return
	}

	h.sessions.Issue(w, u, http.StatusOK, "Welcome back "+u.Name)
}

// UpdateProfile changes the name and/or avatar
// @Summary      Update profile
// @Description  Change the display name and/or replace the avatar image
// @Tags         profile
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        name   formData string false "Display name"
// @Param        avatar formData file   false "Avatar image"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Malformed form"
// @Failure      401 {object} httputil.Response "Not logged in"
// @Failure      413 {object} httputil.Response "Avatar too large"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /updateprofile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, "Please login first", http.StatusUnauthorized)
		return
	}

	staged, err := h.stager.Stage(r, "avatar")
	if err != nil {
		if errors.Is(err, media.ErrUploadTooLarge) {
			logger.Warn("upload rejected: body too large", "error", err.Error())
			httputil.RespondError(w, "Uploaded file is too large", http.StatusRequestEntityTooLarge)
			return
		}
		if errors.Is(err, media.ErrBadUpload) {
			logger.Warn("invalid profile form", "error", err.Error())
			httputil.RespondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		logger.Error("failed to stage avatar", "error", err.Error())
		httputil.RespondInternalError(w, err)
		return
	}
	defer func() {
		if err := staged.Cleanup(); err != nil {
			logger.Warn("failed to remove staged avatar", "error", err.Error())
		}
	}()

	_, err = h.service.UpdateProfile(r.Context(), userID, UpdateInput{
		Name:       r.FormValue("name"),
		AvatarPath: staged.Path,
	})
	if err != nil {
		logger.Error("failed to update profile", "user_id", userID, "error", err.Error())
		httputil.RespondInternalError(w, err)
		return
	}

	logger.Info("profile updated", "user_id", userID, "avatar_changed", staged.Path != "")
	httputil.RespondSuccess(w, "Profile Updated Successfully", http.StatusOK)
}
