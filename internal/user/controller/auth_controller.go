package controller

import (
	"strings"
	"time"

	"mockinterview/internal/common/http/middleware"
	"mockinterview/internal/user/service"
	"mockinterview/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// AuthController handles auth-related HTTP endpoints.
type AuthController struct {
	authService *service.AuthService
}

// NewAuthController creates a new AuthController.
func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register handles user registration.
func (h *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toAuthResponse(result, "User registered successfully"))
}

// Login handles user login.
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toAuthResponse(result, "User logged in successfully"))
}

// Logout revokes the bearer token of the request.
func (h *AuthController) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, "Logout success", nil)
}

// Me returns the authenticated user's profile.
func (h *AuthController) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	info, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, UserInfo{
		ID:        info.ID,
		Name:      info.Name,
		Email:     info.Email,
		CreatedAt: info.CreatedAt,
	})
}

// RegisterRequest defines registration payload.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest defines login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse defines auth response payload.
type AuthResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
	UserID    int64     `json:"userId"`
}

// UserInfo defines the profile payload.
type UserInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAuthResponse(result service.AuthResult, message string) AuthResponse {
	return AuthResponse{
		Message:   message,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Email:     result.User.Email,
		UserID:    result.User.ID,
	}
}
