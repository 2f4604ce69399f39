package webapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"abonado-server-go/internal/domain/auth"
	"abonado-server-go/internal/domain/subscriber/aggregate"
	"abonado-server-go/internal/domain/subscriber/service"
	httptransport "abonado-server-go/internal/transport/http"
	"abonado-server-go/internal/platform/config"
	platerr "abonado-server-go/internal/platform/errors"
	"abonado-server-go/internal/platform/logging"
)

// Service WebAPI服务的HTTP传输层实现
type Service struct {
	logger      *logging.Logger
	config      *config.Config
	subscribers *service.SubscriberService
	auth        *auth.Manager
}

// NewService 创建新的WebAPI服务实例
func NewService(
	cfg *config.Config,
	logger *logging.Logger,
	subscribers *service.SubscriberService,
	authManager *auth.Manager,
) (*Service, error) {
	if cfg == nil {
		return nil, platerr.New(platerr.KindConfig, "webapi.new", "config is required")
	}
	if logger == nil {
		return nil, platerr.New(platerr.KindConfig, "webapi.new", "logger is required")
	}
	if subscribers == nil {
		return nil, platerr.New(platerr.KindConfig, "webapi.new", "subscriber service is required")
	}
	if authManager == nil {
		return nil, platerr.New(platerr.KindConfig, "webapi.new", "auth manager is required")
	}

	return &Service{
		logger:      logger,
		config:      cfg,
		subscribers: subscribers,
		auth:        authManager,
	}, nil
}

// Register 注册WebAPI相关的HTTP路由
func (s *Service) Register(ctx context.Context, public, secured *gin.RouterGroup) error {
	// 登录不需要认证
	public.POST("/user/login", s.handleLogin)
	public.OPTIONS("/user/login", s.handleOptions)

	// 账号相关
	secured.POST("/user/logout", s.handleLogout)
	secured.GET("/user/profile", s.handleProfile)
	secured.POST("/user/change-password", s.handleChangePassword)

	// 用户记录相关
	secured.GET("/abonados", s.handleSubscriberList)
	secured.GET("/abonados/search", s.handleSubscriberSearch)
	secured.GET("/abonados/:id", s.handleSubscriberGet)
	secured.POST("/abonados/:id", s.handleSubscriberEdit)
	secured.POST("/abonados/:id/clear", s.handleSubscriberClear)

	// 管理员状态
	secured.GET("/admin/status", s.handleAdminStatus)

	s.logger.InfoTag("HTTP", "WebAPI服务路由注册完成")
	return nil
}

// handleOptions 处理OPTIONS请求
func (s *Service) handleOptions(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Status(http.StatusNoContent)
}

// respondSuccess 返回成功响应
func (s *Service) respondSuccess(c *gin.Context, status int, data interface{}, message string) {
	httptransport.RespondSuccess(c, status, data, message)
}

// respondError 将领域错误映射为HTTP状态码
func (s *Service) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, aggregate.ErrInvalidSubscriberNumber),
		errors.Is(err, aggregate.ErrInvalidMACFormat),
		errors.Is(err, service.ErrONUNotInteger),
		errors.Is(err, service.ErrONURange):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionExpired):
		status = http.StatusUnauthorized
	case platerr.IsKind(err, platerr.KindDomain):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.ErrorTag("HTTP", "请求处理失败: %v", err)
	}
	httptransport.RespondError(c, status, userMessage(err), nil)
}

// userMessage 取链路上最内层业务错误的提示文案
func userMessage(err error) string {
	var typed *platerr.Error
	if errors.As(err, &typed) {
		return typed.Message
	}
	return err.Error()
}
