package user

import (
	"net/http"
	"time"

	"team-workspace-server/auth"
	"team-workspace-server/internal/domain"
	"team-workspace-server/internal/errors"
	"team-workspace-server/redis"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const tokenTTL = time.Hour * 24 * 3

// Handler handles HTTP requests for users
type Handler struct {
	service Service
}

// NewHandler creates a new user handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// FormLogin represents login form data
type FormLogin struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// FormRegister represents registration form data
type FormRegister struct {
	Name        string `json:"name" binding:"required"`
	Username    string `json:"username" binding:"required,min=3"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	CompanyCode string `json:"company_code" binding:"required"`
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	var form FormRegister
	if err := c.ShouldBindJSON(&form); err != nil {
		errors.HandleError(c, errors.BadRequest("Invalid input", err))
		return
	}

	user := &domain.User{
		Name:        form.Name,
		Username:    form.Username,
		Email:       form.Email,
		Password:    form.Password,
		CompanyCode: form.CompanyCode,
		IsActive:    true,
	}

	if err := h.service.Register(c.Request.Context(), user); err != nil {
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToSafeUser()})
}

// Login handles user login and issues a token registered on the allowlist
func (h *Handler) Login(c *gin.Context) {
	var form FormLogin
	if err := c.ShouldBindJSON(&form); err != nil {
		errors.HandleError(c, errors.BadRequest("Invalid input", err))
		return
	}

	user, err := h.service.Login(form.Email, form.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		errors.HandleError(c, errors.Internal(err))
		return
	}

	if redis.RedisClient != nil {
		if err := redis.RedisClient.Set(redis.Ctx, token, user.ID, tokenTTL).Err(); err != nil {
			log.Warn().Err(err).Msg("failed to register token on allowlist")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user.ToSafeUser(),
	})
}

// Logout revokes the caller's token
func (h *Handler) Logout(c *gin.Context) {
	token := c.GetString("jwt_token")
	if redis.RedisClient != nil && token != "" {
		if err := redis.RedisClient.Del(redis.Ctx, token).Err(); err != nil {
			log.Warn().Err(err).Msg("failed to revoke token")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(c *gin.Context) {
	userID := c.GetUint64("user_id")

	user, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		errors.HandleError(c, errors.NotFound("User not found", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToSafeUser()})
}
