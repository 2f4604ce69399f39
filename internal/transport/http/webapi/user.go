package webapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httptransport "abonado-server-go/internal/transport/http"
)

// loginRequest 登录请求体
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// changePasswordRequest 修改密码请求体
type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// handleLogin 登录，成功返回令牌
func (s *Service) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "se requieren usuario y contraseña", nil)
		return
	}

	token, err := s.auth.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.respondSuccess(c, http.StatusOK, gin.H{
		"token":    token,
		"username": req.Username,
	}, "inicio de sesión correcto")
}

// handleLogout 注销当前会话
func (s *Service) handleLogout(c *gin.Context) {
	if err := s.auth.Logout(c.Request.Context(), currentToken(c)); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondSuccess(c, http.StatusOK, nil, "sesión cerrada")
}

// handleProfile 返回当前登录账号信息
func (s *Service) handleProfile(c *gin.Context) {
	s.respondSuccess(c, http.StatusOK, gin.H{
		"username": currentUsername(c),
	}, "")
}

// handleChangePassword 修改当前账号密码
func (s *Service) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "la nueva contraseña debe tener al menos 6 caracteres", nil)
		return
	}

	if err := s.auth.ChangePassword(c.Request.Context(), currentUsername(c), req.OldPassword, req.NewPassword); err != nil {
		s.respondError(c, err)
		return
	}
	s.respondSuccess(c, http.StatusOK, nil, "contraseña actualizada")
}
