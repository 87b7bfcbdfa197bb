package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/interface/http/response"
	"github.com/ignatzorin/lostfound-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации и логина.
type AuthHandler struct {
	auth *service.AuthService
	// exposeCode возвращать код подтверждения в ответе (только вне production).
	exposeCode bool
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService, exposeCode bool) *AuthHandler {
	return &AuthHandler{auth: auth, exposeCode: exposeCode}
}

type authResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        userInfo  `json:"user"`
}

type userInfo struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Reputation  int       `json:"reputation"`
}

func toAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		User: userInfo{
			ID:          res.User.ID,
			Username:    res.User.Username,
			DisplayName: res.User.DisplayName,
			Reputation:  res.User.Reputation,
		},
	}
}

// SendOTP обрабатывает POST /api/auth/send-otp.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поле username обязательно")
		return
	}

	code, err := h.auth.SendOTP(c.Request.Context(), req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := gin.H{"sent": true}
	if h.exposeCode {
		data["code"] = code
	}
	response.Success(c, data)
}

// CompleteRegistration обрабатывает POST /api/auth/register-complete.
func (h *AuthHandler) CompleteRegistration(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required"`
		Code        string `json:"code" binding:"required"`
		Password    string `json:"password" binding:"required"`
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поля username, code и password обязательны")
		return
	}

	res, err := h.auth.CompleteRegistration(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Code:        req.Code,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAuthResponse(res))
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "поля username и password обязательны")
		return
	}

	res, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toAuthResponse(res))
}
