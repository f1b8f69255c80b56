package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/biileprince/ReferX/internal/config"
	"github.com/biileprince/ReferX/internal/middleware"
	"github.com/biileprince/ReferX/internal/services"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	security    *config.SecurityConfig
	app         *config.AppConfig
	logger      *logger.Logger
}

func NewAuthHandler(authService services.AuthService, security *config.SecurityConfig, app *config.AppConfig, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		security:    security,
		app:         app,
		logger:      log,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, "Please provide a valid name, email and password")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordMismatch):
			utils.BadRequestResponse(c, "Passwords do not match")
		case errors.Is(err, services.ErrWeakPassword):
			utils.BadRequestResponse(c, "Password must be at least 8 characters with a letter, number, and special character")
		case errors.Is(err, services.ErrEmailTaken):
			utils.ConflictResponse(c, "Email already registered")
		case errors.Is(err, services.ErrReferralCodeExhausted):
			utils.ConflictResponse(c, "Could not allocate a referral code, please try again")
		case errors.Is(err, services.ErrSameDeviceReferral):
			utils.ForbiddenResponse(c, "Referral not allowed from this device")
		case errors.Is(err, services.ErrTooManyRegistrations):
			utils.ForbiddenResponse(c, "Too many registrations from this address")
		default:
			h.logger.WithError(err).Error("registration failed")
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.CreatedResponse(c, "Registration successful! Please check your email to verify your account.", gin.H{
		"email": user.Email,
	})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")

	outcome, err := h.authService.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			utils.BadRequestResponse(c, "Invalid verification token")
			return
		}
		h.logger.WithError(err).Error("email verification failed")
		utils.InternalServerErrorResponse(c)
		return
	}

	switch outcome {
	case services.VerifyAlreadyDone:
		utils.SuccessResponse(c, "Email already verified. You can log in.", nil)
	case services.VerifyLinkResent:
		utils.SuccessResponse(c, "Verification link expired. A new verification email has been sent.", nil)
	default:
		utils.SuccessResponse(c, "Email verified successfully. You can now log in.", nil)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, "Please provide a valid email and password")
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			// Flat delay on failed attempts to blunt credential stuffing.
			time.Sleep(h.security.LoginFailureDelay)
			utils.UnauthorizedResponse(c, "Invalid credentials")
		case errors.Is(err, services.ErrEmailNotVerified):
			utils.ForbiddenResponse(c, "Please verify your email before logging in")
		default:
			h.logger.WithError(err).Error("login failed")
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)

	utils.SuccessResponse(c, "Login successful", gin.H{
		"user":        session.User.Profile(),
		"accessToken": session.AccessToken,
	})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(utils.RefreshTokenCookie)
	if err != nil || token == "" {
		utils.UnauthorizedResponse(c, "No refresh token")
		return
	}

	session, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		switch {
		case errors.Is(err, services.ErrRefreshExpired):
			utils.UnauthorizedResponse(c, "Refresh token expired, please log in again")
		case errors.Is(err, services.ErrInvalidRefreshToken):
			utils.ForbiddenResponse(c, "Invalid refresh token")
		default:
			h.logger.WithError(err).Error("token refresh failed")
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)

	utils.SuccessResponse(c, "Token refreshed", gin.H{
		"accessToken": session.AccessToken,
	})
}

// Logout is deliberately forgiving: the cookie is cleared no matter what,
// and the stored refresh token is revoked only when the presented one
// still verifies.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(utils.RefreshTokenCookie); err == nil && token != "" {
		if userID, err := utils.VerifyToken(token, h.security.JWTRefreshSecret); err == nil {
			if err := h.authService.Logout(c.Request.Context(), userID); err != nil {
				h.logger.WithError(err).WithUserID(userID).Warn("failed to revoke refresh token on logout")
			}
		}
	}

	h.clearRefreshCookie(c)

	utils.SuccessResponse(c, "Logged out", nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, "Please provide a valid email")
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "No account with that email")
			return
		}
		h.logger.WithError(err).Error("forgot password failed")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Password reset email sent", nil)
}

type resetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, "Please provide the reset token and a new password")
		return
	}
	if req.ConfirmPassword == "" {
		req.ConfirmPassword = req.Password
	}

	err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPasswordMismatch):
			utils.BadRequestResponse(c, "Passwords do not match")
		case errors.Is(err, services.ErrWeakPassword):
			utils.BadRequestResponse(c, "Password must be at least 8 characters with a letter, number, and special character")
		case errors.Is(err, services.ErrInvalidToken):
			utils.BadRequestResponse(c, "Invalid or expired reset token")
		default:
			h.logger.WithError(err).Error("password reset failed")
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.SuccessResponse(c, "Password reset successful. You can now log in.", nil)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	utils.SuccessResponse(c, "", user.Profile())
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, "Please provide a valid name")
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), user.ID, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.NotFoundResponse(c, "User not found")
			return
		}
		h.logger.WithError(err).WithUserID(user.ID).Error("profile update failed")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "Profile updated", profile)
}

func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	url, err := h.authService.GoogleAuthURL(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to build oauth url")
		utils.InternalServerErrorResponse(c)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		utils.BadRequestResponse(c, "Missing oauth parameters")
		return
	}

	session, err := h.authService.GoogleCallback(c.Request.Context(), state, code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		// The browser is mid-redirect; send it back to the SPA with an
		// error flag rather than a JSON body.
		reason := "oauth_failed"
		switch {
		case errors.Is(err, services.ErrOAuthStateMismatch):
			reason = "invalid_state"
		case errors.Is(err, services.ErrOAuthEmailNotVerified):
			reason = "email_not_verified"
		default:
			h.logger.WithError(err).Error("oauth callback failed")
		}
		c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/login?error=%s", h.app.ClientURL, reason))
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)

	// Hand the access token back to the SPA.
	redirect := fmt.Sprintf("%s/oauth/callback?token=%s", h.app.ClientURL, session.AccessToken)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(
		utils.RefreshTokenCookie,
		token,
		int(h.security.RefreshTokenTTL.Seconds()),
		"/",
		"",
		h.app.IsProduction(),
		true,
	)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(utils.RefreshTokenCookie, "", -1, "/", "", h.app.IsProduction(), true)
}
