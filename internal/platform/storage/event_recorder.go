package storage

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"abonado-server-go/internal/domain/eventbus"
	"abonado-server-go/internal/platform/logging"
)

// EventRecorder 订阅领域事件并落入domain_events表，作为操作审计流水
type EventRecorder struct {
	db     *gorm.DB
	logger *logging.Logger
}

// NewEventRecorder 创建事件记录器
func NewEventRecorder(db *gorm.DB, logger *logging.Logger) *EventRecorder {
	return &EventRecorder{
		db:     db,
		logger: logger,
	}
}

// Start 注册事件订阅，写库在独立goroutine中进行，不阻塞发布方
func (r *EventRecorder) Start() error {
	if err := eventbus.SubscribeAsync(eventbus.TopicSubscriberUpdated, func(evt eventbus.SubscriberUpdatedEvent) {
		r.record(eventbus.TopicSubscriberUpdated, evt)
	}); err != nil {
		return err
	}
	if err := eventbus.SubscribeAsync(eventbus.TopicSubscriberCleared, func(evt eventbus.SubscriberClearedEvent) {
		r.record(eventbus.TopicSubscriberCleared, evt)
	}); err != nil {
		return err
	}
	return eventbus.SubscribeAsync(eventbus.TopicUserLoggedIn, func(evt eventbus.UserLoggedInEvent) {
		r.record(eventbus.TopicUserLoggedIn, evt)
	})
}

func (r *EventRecorder) record(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.ErrorTag("事件", "事件序列化失败 %s: %v", topic, err)
		return
	}

	record := &DomainEvent{
		Topic:     topic,
		Payload:   datatypes.JSON(data),
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(record).Error; err != nil {
		r.logger.ErrorTag("事件", "事件落库失败 %s: %v", topic, err)
	}
}
