// internal/handlers/user/user_handler.go
package user

import (
	"net/http"

	"fashionsphere-service/internal/domain/user"
	"fashionsphere-service/internal/middleware"
	"fashionsphere-service/internal/pkg/response"
	authUsecase "fashionsphere-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewUserHandler(authService *authUsecase.AuthService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Registration ==========

func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", resp)
}

// ========== Login ==========

func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		response.FromError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

// ========== Profile ==========

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.authService.GetMe(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "user not found", err)
		return
	}
	response.Success(c, http.StatusOK, "user retrieved", u)
}

// SetSaleNotification toggles the caller's sale mailing preference
func (h *UserHandler) SetSaleNotification(c *gin.Context) {
	var req user.SaleNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	u, err := h.authService.SetSaleNotification(c.Request.Context(), middleware.MustGetUserID(c), *req.SaleNotification)
	if err != nil {
		response.FromError(c, "failed to update preference", err)
		return
	}
	response.Success(c, http.StatusOK, "sale notification preference updated", u)
}
