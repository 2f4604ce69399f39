package eventbus

import (
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

var (
	instance evbus.Bus
	once     sync.Once
)

// Get 获取事件总线实例
func Get() evbus.Bus {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New 创建新的事件总线
func New() evbus.Bus {
	return evbus.New()
}

// Publish 发布事件
func Publish(topic string, args ...interface{}) {
	Get().Publish(topic, args...)
}

// Subscribe 订阅事件
func Subscribe(topic string, fn interface{}) error {
	return Get().Subscribe(topic, fn)
}

// SubscribeAsync 订阅事件（独立goroutine中处理）
func SubscribeAsync(topic string, fn interface{}) error {
	return Get().SubscribeAsync(topic, fn, false)
}

// WaitAsync 等待所有异步回调完成（测试与关停时使用）
func WaitAsync() {
	Get().WaitAsync()
}
