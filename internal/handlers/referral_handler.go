package handlers

import (
	"errors"

	"github.com/biileprince/ReferX/internal/middleware"
	"github.com/biileprince/ReferX/internal/services"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralService services.ReferralService
	logger          *logger.Logger
}

func NewReferralHandler(referralService services.ReferralService, log *logger.Logger) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		logger:          log,
	}
}

func (h *ReferralHandler) Submit(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	var req services.SubmitReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, "Please provide a valid name and email for the person you are referring")
		return
	}

	referral, err := h.referralService.SubmitReferral(c.Request.Context(), user, &req, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfReferral),
			errors.Is(err, services.ErrDuplicateReferral),
			errors.Is(err, services.ErrReferralIPThrottled),
			errors.Is(err, services.ErrEmailAlreadyRegistered),
			errors.Is(err, services.ErrSameDeviceReferral),
			errors.Is(err, services.ErrDeviceShared):
			// Fraud rejections surface their specific reason.
			utils.ForbiddenResponse(c, err.Error())
		default:
			h.logger.WithError(err).WithUserID(user.ID).Error("referral submission failed")
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.CreatedResponse(c, "Referral submitted. Points will be credited once they verify their account.", referral)
}

func (h *ReferralHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	referrals, err := h.referralService.ListReferrals(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).WithUserID(user.ID).Error("failed to list referrals")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "", referrals)
}

func (h *ReferralHandler) Leaderboard(c *gin.Context) {
	entries, err := h.referralService.Leaderboard(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to load leaderboard")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "", entries)
}
