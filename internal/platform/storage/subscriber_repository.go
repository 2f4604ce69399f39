package storage

import (
	"context"

	"gorm.io/gorm"

	"abonado-server-go/internal/domain/subscriber/aggregate"
	"abonado-server-go/internal/domain/subscriber/repository"
	"abonado-server-go/internal/platform/errors"
)

// subscriberRepository 用户记录仓库实现
type subscriberRepository struct {
	db *gorm.DB
}

// NewSubscriberRepository 创建用户记录仓库实例
func NewSubscriberRepository(db *gorm.DB) repository.SubscriberRepository {
	return &subscriberRepository{
		db: db,
	}
}

// Save 保存用户记录
func (r *subscriberRepository) Save(ctx context.Context, sub *aggregate.Subscriber) error {
	model := r.toModel(sub)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "subscriber.save", "failed to save subscriber", err)
	}
	sub.ID = int(model.ID)
	return nil
}

// Update 更新用户记录，整行写入
func (r *subscriberRepository) Update(ctx context.Context, sub *aggregate.Subscriber) error {
	model := r.toModel(sub)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "subscriber.update", "failed to update subscriber", err)
	}
	return nil
}

// FindByID 根据主键查找
func (r *subscriberRepository) FindByID(ctx context.Context, id int) (*aggregate.Subscriber, error) {
	var model Subscriber
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // 记录不存在
		}
		return nil, errors.Wrap(errors.KindStorage, "subscriber.find_by_id", "failed to find subscriber", err)
	}
	return r.fromModel(&model), nil
}

// FindBySubscriberNumber 根据用户号码查找
func (r *subscriberRepository) FindBySubscriberNumber(ctx context.Context, number string) (*aggregate.Subscriber, error) {
	var model Subscriber
	if err := r.db.WithContext(ctx).Where("subscriber_number = ?", number).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil // 记录不存在
		}
		return nil, errors.Wrap(errors.KindStorage, "subscriber.find_by_number", "failed to find subscriber", err)
	}
	return r.fromModel(&model), nil
}

// FindAll 按主键顺序列出全部记录
func (r *subscriberRepository) FindAll(ctx context.Context) ([]*aggregate.Subscriber, error) {
	var models []Subscriber
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "subscriber.find_all", "failed to find subscribers", err)
	}

	subs := make([]*aggregate.Subscriber, len(models))
	for i, model := range models {
		subs[i] = r.fromModel(&model)
	}
	return subs, nil
}

// ClearProvisioning 单条UPDATE清空开通字段；目标行不存在时也返回成功
func (r *subscriberRepository) ClearProvisioning(ctx context.Context, id int) error {
	err := r.db.WithContext(ctx).
		Model(&Subscriber{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"olt":          "",
			"interface":    "",
			"onu":          nil,
			"brand":        "",
			"mac":          "",
			"adjusted_mac": "",
		}).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "subscriber.clear", "failed to clear provisioning", err)
	}
	return nil
}

// toModel 将领域对象转换为存储模型
func (r *subscriberRepository) toModel(sub *aggregate.Subscriber) *Subscriber {
	return &Subscriber{
		ID:               uint(sub.ID),
		SubscriberNumber: sub.SubscriberNumber,
		Password:         truncate(sub.Password, 6),
		OLT:              truncate(sub.OLT, 6),
		Interface:        truncate(sub.Interface, 4),
		ONU:              sub.ONU,
		Brand:            truncate(string(sub.Brand), 16),
		MAC:              truncate(sub.MAC, 22),
		AdjustedMAC:      truncate(sub.AdjustedMAC, 23),
		CreatedAt:        sub.CreatedAt,
		UpdatedAt:        sub.UpdatedAt,
	}
}

// fromModel 将存储模型转换为领域对象
func (r *subscriberRepository) fromModel(model *Subscriber) *aggregate.Subscriber {
	return &aggregate.Subscriber{
		ID:               int(model.ID),
		SubscriberNumber: model.SubscriberNumber,
		Password:         model.Password,
		OLT:              model.OLT,
		Interface:        model.Interface,
		ONU:              model.ONU,
		Brand:            aggregate.Brand(model.Brand),
		MAC:              model.MAC,
		AdjustedMAC:      model.AdjustedMAC,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

// truncate 按列宽截断，超出部分丢弃
func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
