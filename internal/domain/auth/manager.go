package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"abonado-server-go/internal/domain/auth/model"
	"abonado-server-go/internal/domain/auth/repository"
	"abonado-server-go/internal/domain/auth/store"
	"abonado-server-go/internal/domain/eventbus"
	platerr "abonado-server-go/internal/platform/errors"
)

type (
	// SessionInfo re-exports the shared auth entity for callers.
	SessionInfo = model.SessionInfo
	// User re-exports the admin account entity.
	User = model.User
	// Logger re-exports the logging interface used across the domain.
	Logger = model.Logger
)

const (
	defaultCleanupInterval = 10 * time.Minute
	minCleanupInterval     = 30 * time.Second
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = platerr.New(platerr.KindAuth, "auth.login", "usuario o contraseña incorrectos")

	// ErrSessionExpired 令牌对应的会话不存在或已过期
	ErrSessionExpired = platerr.New(platerr.KindAuth, "auth.verify", "la sesión ha expirado, inicie sesión de nuevo")

	// ErrInvalidToken 令牌无法解析或签名不符
	ErrInvalidToken = platerr.New(platerr.KindAuth, "auth.verify", "token inválido")
)

// UserRepository re-exports the account repository contract.
type UserRepository = repository.UserRepository

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Store           store.Store
	Users           UserRepository
	Logger          Logger
	JWTSecret       string
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// Manager coordinates admin authentication: credential checks, token
// issuing and the session lifecycle behind them.
type Manager struct {
	store      store.Store
	users      UserRepository
	logger     Logger
	issuer     *TokenIssuer
	sessionTTL time.Duration

	cleanupInterval time.Duration
	cleanupStop     chan struct{}
	cleanupOnce     sync.Once
	mu              sync.RWMutex
}

// NewManager wires a Manager using the supplied options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("auth manager requires a store")
	}
	if opts.Users == nil {
		return nil, errors.New("auth manager requires a user repository")
	}
	if opts.Logger == nil {
		return nil, errors.New("auth manager requires a logger")
	}
	if opts.JWTSecret == "" {
		return nil, errors.New("auth manager requires a jwt secret")
	}
	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	cleanupInterval := opts.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	} else if cleanupInterval < minCleanupInterval {
		opts.Logger.Warn("cleanup interval too small, adjusting to %v", minCleanupInterval)
		cleanupInterval = minCleanupInterval
	}
	mgr := &Manager{
		store:           opts.Store,
		users:           opts.Users,
		logger:          opts.Logger,
		issuer:          NewTokenIssuer(opts.JWTSecret, sessionTTL),
		sessionTTL:      sessionTTL,
		cleanupInterval: cleanupInterval,
		cleanupStop:     make(chan struct{}),
	}

	go mgr.runCleanup()
	return mgr, nil
}

func (m *Manager) runCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.store.CleanupExpired(context.Background()); err != nil {
				m.logger.Warn("auth store cleanup failed: %v", err)
			}
		case <-m.cleanupStop:
			return
		}
	}
}

// Login 校验账号密码，成功后落一条会话记录并签发令牌
func (m *Manager) Login(ctx context.Context, username, password, ip string) (string, error) {
	user, err := m.users.FindByUsername(ctx, username)
	if err != nil {
		m.logger.Error("user lookup failed: %s: %v", username, err)
		return "", platerr.Wrap(platerr.KindAuth, "auth.login", "failed to look up user", err)
	}
	if user == nil || !VerifyPassword(user.PasswordHash, password) {
		m.logger.Warn("login rejected for %s from %s", username, ip)
		return "", ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, err := m.issuer.Issue(username, sessionID)
	if err != nil {
		return "", platerr.Wrap(platerr.KindAuth, "auth.login", "failed to sign token", err)
	}

	now := time.Now()
	expiresAt := now.Add(m.sessionTTL)
	info := SessionInfo{
		SessionID: sessionID,
		Username:  username,
		IP:        ip,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}

	m.mu.Lock()
	err = m.store.Store(ctx, info)
	m.mu.Unlock()
	if err != nil {
		m.logger.Error("failed to persist session for %s: %v", username, err)
		return "", platerr.Wrap(platerr.KindAuth, "auth.login", "failed to persist session", err)
	}

	eventbus.Publish(eventbus.TopicUserLoggedIn, eventbus.UserLoggedInEvent{
		UserID:     user.ID,
		Username:   username,
		IP:         ip,
		OccurredAt: now,
	})

	m.logger.Info("admin %s logged in from %s", username, ip)
	return token, nil
}

// Verify 解析令牌并确认其会话仍然有效
func (m *Manager) Verify(ctx context.Context, token string) (SessionInfo, error) {
	claims, err := m.issuer.Parse(token)
	if err != nil {
		return SessionInfo{}, ErrInvalidToken
	}

	m.mu.RLock()
	info, ok, err := m.store.Active(ctx, claims.ID)
	m.mu.RUnlock()
	if err != nil {
		return SessionInfo{}, platerr.Wrap(platerr.KindAuth, "auth.verify", "session lookup failed", err)
	}
	if !ok {
		return SessionInfo{}, ErrSessionExpired
	}
	return info, nil
}

// Logout 撤销令牌对应的会话；令牌非法时静默返回
func (m *Manager) Logout(ctx context.Context, token string) error {
	claims, err := m.issuer.Parse(token)
	if err != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Remove(ctx, claims.ID); err != nil {
		return platerr.Wrap(platerr.KindAuth, "auth.logout", "failed to remove session", err)
	}
	m.logger.Info("session revoked for %s", claims.Subject)
	return nil
}

// ChangePassword 校验旧密码后更新bcrypt散列
func (m *Manager) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, err := m.users.FindByUsername(ctx, username)
	if err != nil {
		return platerr.Wrap(platerr.KindAuth, "auth.change_password", "failed to look up user", err)
	}
	if user == nil || !VerifyPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return platerr.Wrap(platerr.KindAuth, "auth.change_password", "failed to hash password", err)
	}
	if err := m.users.UpdatePassword(ctx, username, hash); err != nil {
		return platerr.Wrap(platerr.KindAuth, "auth.change_password", "failed to update password", err)
	}
	m.logger.Info("password changed for %s", username)
	return nil
}

// Sessions returns active session identifiers.
func (m *Manager) Sessions(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.store.List(ctx)
}

// Stats returns debug information from the store backend.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.store.Stats(ctx)
}

// Close releases underlying resources.
func (m *Manager) Close() error {
	var err error

	m.cleanupOnce.Do(func() {
		close(m.cleanupStop)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if closeErr := m.store.Close(context.Background()); closeErr != nil {
		err = closeErr
		m.logger.Error("failed closing auth store: %v", closeErr)
	}
	return err
}
