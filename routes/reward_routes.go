package routes

import (
	"github.com/biileprince/ReferX/internal/handlers"
	"github.com/biileprince/ReferX/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRewardRoutes(r *gin.RouterGroup, handler *handlers.RewardHandler, auth *middleware.AuthMiddleware) {
	group := r.Group("/rewards")
	{
		group.GET("", handler.List)

		group.POST("", auth.RequireAuth(), auth.RequireAdmin(), handler.Create)
		group.POST("/claim", auth.RequireAuth(), handler.Claim)
		group.GET("/user", auth.RequireAuth(), handler.History)
	}
}
