package storage

import (
	"context"

	"gorm.io/gorm"

	"abonado-server-go/internal/domain/auth/model"
	"abonado-server-go/internal/domain/auth/repository"
	"abonado-server-go/internal/platform/errors"
)

// userRepository 管理员账号仓库实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建管理员账号仓库实例
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		db: db,
	}
}

// FindByUsername 根据用户名查找账号，不存在时返回 (nil, nil)
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var record User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // 账号不存在
		}
		return nil, errors.Wrap(errors.KindStorage, "user.find_by_username", "failed to find user", err)
	}
	return &model.User{
		ID:           int(record.ID),
		Username:     record.Username,
		PasswordHash: record.PasswordHash,
		Role:         record.Role,
		Status:       record.Status,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}

// UpdatePassword 更新账号的密码散列
func (r *userRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	err := r.db.WithContext(ctx).
		Model(&User{}).
		Where("username = ?", username).
		Update("password_hash", passwordHash).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "user.update_password", "failed to update password", err)
	}
	return nil
}
