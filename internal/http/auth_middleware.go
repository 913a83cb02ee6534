package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedge-matrix/internal/domain"
	"wedge-matrix/internal/service"
)

const (
	currentUserKey = "current_user"
	bearerTokenKey = "bearer_token"
)

// BearerAuthMiddleware valida el token y deja el usuario autenticado en el contexto del request.
func BearerAuthMiddleware(logger *zap.Logger, auth *service.AuthService, users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
			abortUnauthenticated(c)
			return
		}
		token := strings.TrimSpace(header[len("Bearer "):])

		claims, err := auth.ParseToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, service.ErrTokenInvalid) && !errors.Is(err, service.ErrTokenExpired) {
				logger.Error("token lookup failed", zap.Error(err))
			}
			abortUnauthenticated(c)
			return
		}

		user, err := users.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, service.ErrUserNotFound) {
				logger.Error("load authenticated user failed", zap.Error(err))
			}
			abortUnauthenticated(c)
			return
		}

		c.Set(currentUserKey, &user)
		c.Set(bearerTokenKey, token)
		c.Next()
	}
}

// CurrentUser obtiene el usuario autenticado del request.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok && user != nil
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
}
