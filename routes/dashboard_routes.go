package routes

import (
	"github.com/biileprince/ReferX/internal/handlers"
	"github.com/biileprince/ReferX/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupDashboardRoutes(r *gin.RouterGroup, handler *handlers.DashboardHandler, auth *middleware.AuthMiddleware) {
	group := r.Group("/dashboard")
	group.Use(auth.RequireAuth())
	{
		group.GET("/stats", handler.Stats)
		group.GET("/recent-referrals", handler.RecentReferrals)
	}
}
