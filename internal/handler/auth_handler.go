package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelplanner/internal/service"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func sessionBody(s *service.Session, message string) gin.H {
	return gin.H{
		"user":          s.User.Summary(),
		"token":         s.Tokens.Access.Value,
		"refresh_token": s.Tokens.Refresh.Value,
		"message":       message,
	}
}

// Register обработчик для POST /api/register/.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.AuthService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionBody(session, "Registration successful."))
}

// Login обработчик для POST /api/login/.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(session, "Login successful."))
}

// RefreshToken обработчик для POST /api/token/refresh/.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if !h.bindJSON(c, &req) {
		return
	}
	token, err := h.AuthService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token.Value})
}

// Logout обработчик для POST /api/logout/. Отвечает успехом даже без refresh_token.
func (h *Handler) Logout(c *gin.Context) {
	var req logoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Debug("тело запроса выхода не разобрано", "err", err)
		}
	}
	if err := h.AuthService.Logout(c.Request.Context(), currentClaims(c), req.RefreshToken); err != nil {
		h.logger.Error("ошибка при выходе", "user_id", currentUser(c).ID, "err", err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful."})
}
