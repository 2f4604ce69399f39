package repository

import (
	"context"

	"abonado-server-go/internal/domain/subscriber/aggregate"
)

// SubscriberRepository 用户记录仓库接口。
// 查找方法在记录不存在时返回 (nil, nil)，缺失不是故障。
type SubscriberRepository interface {
	// Save 新增用户记录（仅启动导入时使用）
	Save(ctx context.Context, sub *aggregate.Subscriber) error

	// Update 持久化记录的全部可变字段；单条写入，读方不会看到半新半旧的记录
	Update(ctx context.Context, sub *aggregate.Subscriber) error

	// FindByID 根据主键查找
	FindByID(ctx context.Context, id int) (*aggregate.Subscriber, error)

	// FindBySubscriberNumber 根据用户号码查找
	FindBySubscriberNumber(ctx context.Context, number string) (*aggregate.Subscriber, error)

	// FindAll 按插入顺序列出全部记录
	FindAll(ctx context.Context) ([]*aggregate.Subscriber, error)

	// ClearProvisioning 原子清空开通字段，保留ID与号码；重复调用幂等
	ClearProvisioning(ctx context.Context, id int) error
}
