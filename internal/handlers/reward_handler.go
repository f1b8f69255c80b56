package handlers

import (
	"errors"

	"github.com/biileprince/ReferX/internal/middleware"
	"github.com/biileprince/ReferX/internal/services"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RewardHandler struct {
	rewardService services.RewardService
	logger        *logger.Logger
}

func NewRewardHandler(rewardService services.RewardService, log *logger.Logger) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
		logger:        log,
	}
}

func (h *RewardHandler) List(c *gin.Context) {
	rewards, err := h.rewardService.ListRewards(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("failed to list rewards")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "", rewards)
}

func (h *RewardHandler) Create(c *gin.Context) {
	var req services.CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.BadRequestResponse(c, "Please provide a valid reward name and point cost")
		return
	}

	reward, err := h.rewardService.CreateReward(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithError(err).Error("failed to create reward")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.CreatedResponse(c, "Reward created", reward)
}

type claimRewardRequest struct {
	RewardID string `json:"rewardId" validate:"required"`
}

func (h *RewardHandler) Claim(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	var req claimRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	rewardID, err := primitive.ObjectIDFromHex(req.RewardID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid reward id")
		return
	}

	updated, err := h.rewardService.ClaimReward(c.Request.Context(), user.ID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRewardNotFound):
			utils.NotFoundResponse(c, "Reward not found")
		case errors.Is(err, services.ErrRewardInactive):
			utils.BadRequestResponse(c, "Reward is no longer available")
		case errors.Is(err, services.ErrInsufficientPoints):
			utils.ForbiddenResponse(c, "Not enough points to claim this reward")
		case errors.Is(err, services.ErrUserNotFound):
			utils.NotFoundResponse(c, "User not found")
		default:
			h.logger.WithError(err).WithUserID(user.ID).Error("reward claim failed")
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	utils.SuccessResponse(c, "Reward claimed", gin.H{
		"points":  updated.Points,
		"rewards": updated.Rewards,
	})
}

func (h *RewardHandler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	history, err := h.rewardService.ClaimHistory(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).WithUserID(user.ID).Error("failed to load claim history")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "", history)
}
