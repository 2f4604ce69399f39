package eventbus

import "time"

// 事件主题
const (
	TopicSubscriberUpdated = "subscriber.updated"
	TopicSubscriberCleared = "subscriber.cleared"
	TopicUserLoggedIn      = "user.logged_in"
)

// SubscriberUpdatedEvent 开通数据提交成功
type SubscriberUpdatedEvent struct {
	SubscriberID     int       `json:"subscriberId"`
	SubscriberNumber string    `json:"nAbonado"`
	OLT              string    `json:"olt"`
	Interface        string    `json:"interface"`
	ONU              *int      `json:"onu"`
	Brand            string    `json:"marca"`
	MAC              string    `json:"mac"`
	AdjustedMAC      string    `json:"macAjustada"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// SubscriberClearedEvent 开通数据被清空
type SubscriberClearedEvent struct {
	SubscriberID     int       `json:"subscriberId"`
	SubscriberNumber string    `json:"nAbonado"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// UserLoggedInEvent 管理员登录成功
type UserLoggedInEvent struct {
	UserID     int       `json:"userId"`
	Username   string    `json:"username"`
	IP         string    `json:"ip"`
	OccurredAt time.Time `json:"occurredAt"`
}
