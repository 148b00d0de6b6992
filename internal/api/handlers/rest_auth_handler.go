package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careops/backend/internal/api/middleware"
	"careops/backend/internal/auth"
	"careops/backend/internal/models"
	"careops/backend/internal/services"
)

// RestAuthHandler issues access tokens.
type RestAuthHandler struct {
	userService services.IUserService
	jwtSecret   string
	jwtTTL      time.Duration
}

func NewRestAuthHandler(userService services.IUserService, jwtSecret string, jwtTTL time.Duration) *RestAuthHandler {
	return &RestAuthHandler{userService: userService, jwtSecret: jwtSecret, jwtTTL: jwtTTL}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

// Register handles POST /auth/register
func (h *RestAuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid registration request")
		return
	}
	var role models.Role
	if req.Role != "" {
		r, err := models.ParseRole(req.Role)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		role = r
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondToken(c, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *RestAuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid login request")
		return
	}
	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondToken(c, http.StatusOK, user)
}

// Me handles GET /auth/me
func (h *RestAuthHandler) Me(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *RestAuthHandler) respondToken(c *gin.Context, status int, user *models.User) {
	token, err := auth.GenerateJWT(user.ID, user.Role, h.jwtSecret, h.jwtTTL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, TokenResponse{AccessToken: token, TokenType: "bearer", User: *user})
}
