package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/redmonkez12/todo-api/internal/httputil"
	"github.com/redmonkez12/todo-api/internal/logging"
	"github.com/redmonkez12/todo-api/internal/media"
)

const (
	msgFieldsRequired     = "Please enter all fields"
	msgInvalidEmailFormat = "Invalid Email format"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid Email or Password"
	msgInvalidOTP         = "Invalid OTP or has been Expired"
	msgInvalidResetOTP    = "OTP Invalid or has been Expired"
	msgInvalidEmail       = "Invalid Email"
	msgInvalidOldPassword = "Invalid Old Password"
	msgInvalidRequestBody = "Invalid request body"
	msgTooManyRequests    = "Too many requests, please try again later"
	msgEmailCooldown      = "An OTP was sent recently, please wait before requesting another"
)

// Handler contains HTTP handlers for account endpoints
type Handler struct {
	service     *Service
	sessions    *Sessions
	stager      *media.Stager
	rateLimiter RateLimiter
}

func NewHandler(service *Service, sessions *Sessions, stager *media.Stager, rateLimiter RateLimiter) *Handler {
	return &Handler{
		service:     service,
		sessions:    sessions,
		stager:      stager,
		rateLimiter: rateLimiter,
	}
}

// otpValue accepts the code as a JSON number or a numeric string
type otpValue int

func (o *otpValue) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("otp must be numeric: %w", err)
	}
	*o = otpValue(n)
	return nil
}

// VerifyRequest represents the account verification request body
type VerifyRequest struct {
	OTP *otpValue `json:"otp" swaggertype:"integer"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgetPasswordRequest represents the password reset request body
type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation body
type ResetPasswordRequest struct {
	OTP         *otpValue `json:"otp" swaggertype:"integer"`
	NewPassword string    `json:"newPassword"`
}

// UpdatePasswordRequest represents the password change request body
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an unverified account with an avatar. The verification OTP is emailed and a session cookie is set.
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Param        name     formData string true "Display name"
// @Param        email    formData string true "Email"
// @Param        password formData string true "Password"
// @Param        avatar   formData file   true "Avatar image"
// @Success      201 {object} SessionResponse
// @Failure      400 {object} httputil.Response "Missing fields or email already registered"
// @Failure      413 {object} httputil.Response "Avatar too large"
// @Failure      429 {object} httputil.Response "Too many requests"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.rateLimited(w, r, ip, "register") {
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
			logger.Warn("invalid registration form", "error", err.Error())
			httputil.RespondError(w, msgFieldsRequired, http.StatusBadRequest)
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

	in := RegisterInput{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Password:   r.FormValue("password"),
		AvatarPath: staged.Path,
	}
	logger = logger.WithFields(map[string]any{"email": in.Email})

	h.recordRequest(r, ip, "register")

	newUser, err := h.service.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			logger.Warn("registration failed: email already exists")
			httputil.RespondError(w, msgUserExists, http.StatusBadRequest)
		case errors.Is(err, ErrFieldsRequired):
			logger.Warn("registration failed: missing fields")
			httputil.RespondError(w, msgFieldsRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("registration failed: invalid email format")
			httputil.RespondError(w, msgInvalidEmailFormat, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondInternalError(w, err)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	h.sessions.Issue(w, newUser, http.StatusCreated, "OTP sent to your email, please verify your account")
}

// Verify handles account verification
// @Summary      Verify account
// @Description  Check the emailed OTP and mark the account verified
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body VerifyRequest true "OTP"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.Response "Invalid or expired OTP"
// @Failure      401 {object} httputil.Response "Not logged in"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /verify [post]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, msgLoginFirst, http.StatusUnauthorized)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify request body", "error", err.Error())
		httputil.RespondError(w, msgInvalidOTP, http.StatusBadRequest)
		return
	}
	if req.OTP == nil {
		httputil.RespondError(w, msgInvalidOTP, http.StatusBadRequest)
		return
	}

	u, err := h.service.Verify(r.Context(), userID, int(*req.OTP))
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) {
			logger.Warn("verification failed: invalid otp", "user_id", userID)
			httputil.RespondError(w, msgInvalidOTP, http.StatusBadRequest)
			return
		}
		logger.Error("verification failed: internal error", "error", err.Error())
		httputil.RespondInternalError(w, err)
		return
	}

	logger.Info("account verified", "user_id", userID)
	h.sessions.Issue(w, u, http.StatusOK, "Account Verified")
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive the session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} SessionResponse
// @Failure      400 {object} httputil.Response "Missing fields or invalid credentials"
// @Failure      429 {object} httputil.Response "Too many requests"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.rateLimited(w, r, ip, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, msgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	h.recordRequest(r, ip, "login")

	u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrFieldsRequired):
			httputil.RespondError(w, msgFieldsRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			httputil.RespondError(w, msgInvalidCredentials, http.StatusBadRequest)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondInternalError(w, err)
		}
		return
	}

	logger.Info("user logged in successfully")
	h.sessions.Issue(w, u, http.StatusOK, "Login Successful")
}

// Logout handles user logout
// @Summary      Logout
// @Description  Revoke the session token and expire the session cookie. Always succeeds.
// @Tags         auth
// @Produce      json
// @Success      200 {object} httputil.Response
// @Router       /logout [get]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if token := tokenFromRequest(r); token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			logger.Warn("failed to revoke session token", "error", err.Error())
		}
	}

	h.sessions.ClearCookie(w)
	httputil.RespondSuccess(w, "Logged out Successfully!", http.StatusOK)
}

// ForgetPassword handles password reset requests
// @Summary      Request password reset
// @Description  Email a 10 minute password reset OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgetPasswordRequest true "Account email"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Unknown email"
// @Failure      429 {object} httputil.Response "Too many requests"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /forgetpassword [post]
func (h *Handler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.rateLimited(w, r, ip, "forgetpassword") {
		return
	}

	var req ForgetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forget password request body", "error", err.Error())
		httputil.RespondError(w, msgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	h.recordRequest(r, ip, "forgetpassword")

	// cooldown is keyed by the requested address whether or not it is
	// registered; store failures are logged and let the request through
	if req.Email != "" {
		onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
		if err != nil {
			logger.Error("failed to check email cooldown", "error", err.Error())
		} else if onCooldown {
			logger.Warn("password reset requested during cooldown")
			httputil.RespondError(w, msgEmailCooldown, http.StatusTooManyRequests)
			return
		}
	}

	if err := h.service.ForgetPassword(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrEmailNotRegistered), errors.Is(err, ErrFieldsRequired):
			logger.Warn("password reset requested for unknown email")
			httputil.RespondError(w, msgInvalidEmail, http.StatusBadRequest)
		default:
			logger.Error("password reset request failed", "error", err.Error())
			httputil.RespondInternalError(w, err)
		}
		return
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	logger.Info("password reset otp sent")
	httputil.RespondSuccess(w, "OTP sent to "+req.Email, http.StatusOK)
}

// ResetPassword handles the password reset confirmation
// @Summary      Reset password
// @Description  Set a new password with an unexpired reset OTP
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset OTP and new password"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Invalid or expired OTP"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /resetpassword [put]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		httputil.RespondError(w, msgInvalidResetOTP, http.StatusBadRequest)
		return
	}
	if req.OTP == nil {
		httputil.RespondError(w, msgInvalidResetOTP, http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), int(*req.OTP), req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrFieldsRequired):
			httputil.RespondError(w, msgFieldsRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidResetOTP):
			logger.Warn("password reset failed: invalid otp")
			httputil.RespondError(w, msgInvalidResetOTP, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			httputil.RespondInternalError(w, err)
		}
		return
	}

	logger.Info("password reset successfully")
	httputil.RespondSuccess(w, "Password has been reset Successfully", http.StatusOK)
}

// UpdatePassword handles a password change by a logged in user
// @Summary      Change password
// @Description  Replace the password after checking the current one
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdatePasswordRequest true "Old and new password"
// @Success      200 {object} httputil.Response
// @Failure      400 {object} httputil.Response "Missing fields or wrong old password"
// @Failure      401 {object} httputil.Response "Not logged in"
// @Failure      500 {object} httputil.Response "Internal server error"
// @Router       /updatepassword [put]
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, msgLoginFirst, http.StatusUnauthorized)
		return
	}

	var req UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update password request body", "error", err.Error())
		httputil.RespondError(w, msgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrFieldsRequired):
			httputil.RespondError(w, msgFieldsRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidOldPassword):
			logger.Warn("password update failed: wrong old password", "user_id", userID)
			httputil.RespondError(w, msgInvalidOldPassword, http.StatusBadRequest)
		default:
			logger.Error("password update failed: internal error", "error", err.Error())
			httputil.RespondInternalError(w, err)
		}
		return
	}

	logger.Info("password updated", "user_id", userID)
	httputil.RespondSuccess(w, "Password Updated Successfully", http.StatusOK)
}

// rateLimited answers 429 when ip used up its budget for purpose. Limiter
// failures are logged and let the request through.
func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request, ip, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondError(w, msgTooManyRequests, http.StatusTooManyRequests)
		return true
	}
	return false
}

func (h *Handler) recordRequest(r *http.Request, ip, purpose string) {
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, purpose); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to record IP request", "error", err.Error())
	}
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
