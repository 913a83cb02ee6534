package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wedge-matrix/internal/service"
)

// UserHandler mantiene dependencias para endpoints de cuenta y sesion.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	authServ *service.AuthService
}

// NewUserHandler crea una instancia de UserHandler con dependencias necesarias.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, authServ *service.AuthService) *UserHandler {
	useJSONFieldNames()
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
		authServ: authServ,
	}
}

type registerRequest struct {
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
	TosAccepted          bool   `json:"tos_accepted" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateUserRequest struct {
	HasDismissedTutorial *bool `json:"has_dismissed_tutorial" binding:"required"`
}

// Register maneja POST /register.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userServ.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		TosAccepted: req.TosAccepted,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": invalidDataMessage,
				"errors":  gin.H{"email": []string{"The email has already been taken."}},
			})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many attempts"})
		case errors.Is(err, service.ErrCouldNotCreateUser):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not create user"})
		default:
			h.logger.Error("register failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected error while registering user"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

// Login maneja POST /login.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"message": "Too many attempts"})
		default:
			h.logger.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected error while logging in"})
		}
		return
	}

	token, err := h.authServ.IssueToken(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("issue token failed", zap.Error(err), zap.String("user_id", user.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected error while logging in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         user,
		"access_token": token.AccessToken,
		"token_type":   token.TokenType,
		"expires_in":   token.ExpiresIn,
	})
}

// Logout maneja POST /logout: revoca solo el token usado en el request.
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.authServ.Revoke(c.Request.Context(), c.GetString(bearerTokenKey)); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected error while logging out"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Show maneja GET /user.
func (h *UserHandler) Show(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}
	user, err := h.userServ.GetWithWedgeMatrices(c.Request.Context(), current.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortUnauthenticated(c)
			return
		}
		h.logger.Error("load user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected error while fetching user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Update maneja PATCH /user.
func (h *UserHandler) Update(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userServ.UpdatePreferences(c.Request.Context(), *current, service.UpdateUserInput{
		HasDismissedTutorial: req.HasDismissedTutorial,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortUnauthenticated(c)
		case errors.Is(err, service.ErrCouldNotUpdateUser):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not update user"})
		default:
			h.logger.Error("update user failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected server error while updating user"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Destroy maneja DELETE /user.
func (h *UserHandler) Destroy(c *gin.Context) {
	current, ok := CurrentUser(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}
	if err := h.userServ.Delete(c.Request.Context(), *current); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortUnauthenticated(c)
		case errors.Is(err, service.ErrCouldNotDeleteUser):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not delete user"})
		default:
			h.logger.Error("delete user failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected server error while deleting user"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
