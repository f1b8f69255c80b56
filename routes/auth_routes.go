package routes

import (
	"github.com/biileprince/ReferX/internal/handlers"
	"github.com/biileprince/ReferX/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(r *gin.RouterGroup, handler *handlers.AuthHandler, auth *middleware.AuthMiddleware) {
	group := r.Group("/auth")
	{
		group.POST("/register", handler.Register)
		group.GET("/verify-email/:token", handler.VerifyEmail)
		group.POST("/login", handler.Login)
		group.POST("/logout", handler.Logout)
		group.POST("/refresh-token", handler.Refresh)
		group.POST("/forgot-password", handler.ForgotPassword)
		group.POST("/reset-password", handler.ResetPassword)
		group.GET("/google", handler.GoogleAuth)
		group.GET("/google/callback", handler.GoogleCallback)

		group.GET("/me", auth.RequireAuth(), handler.Me)
		group.PUT("/profile", auth.RequireAuth(), handler.UpdateProfile)
	}
}
