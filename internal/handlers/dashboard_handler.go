package handlers

import (
	"github.com/biileprince/ReferX/internal/middleware"
	"github.com/biileprince/ReferX/internal/services"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
	logger           *logger.Logger
}

func NewDashboardHandler(dashboardService services.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           log,
	}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	stats, err := h.dashboardService.Stats(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).WithUserID(user.ID).Error("failed to load dashboard stats")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "", stats)
}

func (h *DashboardHandler) RecentReferrals(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "Not authorized")
		return
	}

	referrals, err := h.dashboardService.RecentReferrals(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).WithUserID(user.ID).Error("failed to load recent referrals")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "", referrals)
}
