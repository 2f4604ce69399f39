package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"abonado-server-go/internal/platform/config"
	"abonado-server-go/internal/platform/errors"
	"abonado-server-go/internal/platform/logging"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// InitDatabase 打开sqlite数据库并迁移全部表结构
func InitDatabase(cfg *config.Config, logger *logging.Logger) (*gorm.DB, error) {
	dir := cfg.Database.Dir
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "db.mkdir", "failed to create database directory", err)
	}

	dsn := filepath.Join(dir, cfg.Database.File)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "db.open", fmt.Sprintf("failed to open database %s", dsn), err)
	}

	if err := db.AutoMigrate(
		&Subscriber{},
		&User{},
		&AuthSession{},
		&DomainEvent{},
	); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "db.migrate", "failed to migrate schema", err)
	}

	logger.InfoTag("存储", "数据库已就绪: %s", dsn)
	return db, nil
}

// InitAdminUser 在用户表为空时写入初始管理员账号。
// 账号与明文密码可通过 ADMIN_USERNAME / ADMIN_PASSWORD 覆盖，密码只存bcrypt散列。
func InitAdminUser(db *gorm.DB, logger *logging.Logger) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "user.count", "failed to count users", err)
	}
	if count > 0 {
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = defaultAdminUsername
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "user.hash", "failed to hash admin password", err)
	}

	admin := &User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
		Status:       "active",
	}
	if err := db.Create(admin).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "user.seed", "failed to create admin user", err)
	}

	logger.InfoTag("存储", "初始管理员账号已创建: %s", username)
	return nil
}
