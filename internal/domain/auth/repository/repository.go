package repository

import (
	"context"

	"abonado-server-go/internal/domain/auth/model"
)

// UserRepository 管理员账号仓库接口。
// 查找方法在账号不存在时返回 (nil, nil)。
type UserRepository interface {
	// FindByUsername 根据用户名查找账号
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// UpdatePassword 更新账号的密码散列
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
