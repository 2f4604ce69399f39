package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Subscriber 用户表，列宽沿用历史库结构
type Subscriber struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	SubscriberNumber string `gorm:"column:subscriber_number;type:varchar(6);uniqueIndex;not null"`
	Password         string `gorm:"type:varchar(6)"`
	OLT              string `gorm:"column:olt;type:varchar(6)"`
	Interface        string `gorm:"column:interface;type:varchar(4)"`
	ONU              *int   `gorm:"column:onu"`
	Brand            string `gorm:"column:brand;type:varchar(16)"`
	MAC              string `gorm:"column:mac;type:varchar(22)"`
	AdjustedMAC      string `gorm:"column:adjusted_mac;type:varchar(23)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName 表名
func (Subscriber) TableName() string {
	return "subscribers"
}

// User 管理员账号表
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"type:varchar(32);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(100);not null"`
	Role         string `gorm:"type:varchar(16);default:admin"`
	Status       string `gorm:"type:varchar(16);default:active"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// AuthSession 登录会话表，sqlite驱动的会话存储使用
type AuthSession struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	SessionID string         `gorm:"column:session_id;type:varchar(64);uniqueIndex;not null"`
	Username  string         `gorm:"type:varchar(32)"`
	IP        string         `gorm:"type:varchar(45)"`
	UserAgent string         `gorm:"column:user_agent;type:varchar(255)"`
	CreatedAt time.Time      `gorm:"not null"`
	ExpiresAt *time.Time     `gorm:"index"`
	Metadata  datatypes.JSON `gorm:"type:json"`
}

// TableName 表名
func (AuthSession) TableName() string {
	return "auth_sessions"
}

// DomainEvent 领域事件流水，用于操作审计
type DomainEvent struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	Topic     string         `gorm:"type:varchar(64);index;not null"`
	Payload   datatypes.JSON `gorm:"type:json"`
	CreatedAt time.Time      `gorm:"index"`
}

// TableName 表名
func (DomainEvent) TableName() string {
	return "domain_events"
}
