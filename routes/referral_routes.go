package routes

import (
	"github.com/biileprince/ReferX/internal/handlers"
	"github.com/biileprince/ReferX/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupReferralRoutes(r *gin.RouterGroup, handler *handlers.ReferralHandler, auth *middleware.AuthMiddleware) {
	group := r.Group("/referrals")
	{
		group.GET("/leaderboard", handler.Leaderboard)

		group.POST("", auth.RequireAuth(), handler.Submit)
		group.GET("", auth.RequireAuth(), handler.List)
	}
}
