package middleware

import (
	"errors"
	"strings"

	"github.com/biileprince/ReferX/internal/config"
	"github.com/biileprince/ReferX/internal/models"
	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/internal/utils"
	"github.com/biileprince/ReferX/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	userRepo interfaces.UserRepository
	security *config.SecurityConfig
	logger   *logger.Logger
}

func NewAuthMiddleware(userRepo interfaces.UserRepository, security *config.SecurityConfig, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		security: security,
		logger:   log,
	}
}

// RequireAuth authenticates the request and attaches the account to the
// context. A token is accepted from the Authorization header, the refresh
// cookie, or the x-auth-token header, in that order; all three are checked
// against the access secret.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "Not authorized, no token")
			c.Abort()
			return
		}

		userID, err := utils.VerifyToken(token, m.security.JWTSecret)
		if err != nil {
			utils.UnauthorizedResponse(c, "Not authorized, token failed")
			c.Abort()
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				utils.UnauthorizedResponse(c, "Not authorized, token failed")
			} else {
				m.logger.WithError(err).WithUserID(userID).Error("failed to load authenticated user")
				utils.InternalServerErrorResponse(c)
			}
			c.Abort()
			return
		}

		c.Set(utils.ContextUserID, user.ID)
		c.Set(utils.ContextUser, user)
		c.Next()
	}
}

// RequireAdmin gates admin-only routes. Must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleAdmin {
			utils.ForbiddenResponse(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(utils.RefreshTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.GetHeader("x-auth-token")
}

// CurrentUser returns the account attached by RequireAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(utils.ContextUser)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
