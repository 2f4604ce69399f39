package aggregate

import (
	"regexp"
	"time"

	"abonado-server-go/internal/platform/errors"
)

// Brand ONU设备品牌
type Brand string

const (
	BrandFurukawa Brand = "FURUKAWA"
	BrandBDCOM    Brand = "BDCOM"
	BrandLatic    Brand = "LATIC"
)

var subscriberNumberPattern = regexp.MustCompile(`^[0-9]{5,6}$`)

// ErrInvalidSubscriberNumber 号码格式错误（5-6位数字）
var ErrInvalidSubscriberNumber = errors.New(
	errors.KindDomain,
	"subscriber.number",
	"N_ABONADO debe tener entre 5 y 6 dígitos numéricos",
)

// Subscriber 用户（abonado）聚合根
type Subscriber struct {
	ID               int       `json:"id"`
	SubscriberNumber string    `json:"nAbonado"`    // 用户号码，5-6位数字，唯一
	Password         string    `json:"contrasena"`  // 开通用的遗留凭证，非登录密码
	OLT              string    `json:"olt"`         // OLT设备标识
	Interface        string    `json:"interface"`   // 物理接口
	ONU              *int      `json:"onu"`         // ONU序号，1-128
	Brand            Brand     `json:"marca"`       // 设备品牌
	MAC              string    `json:"mac"`         // 设备上报的基础MAC
	AdjustedMAC      string    `json:"macAjustada"` // 按品牌偏移修正后的MAC
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ValidateSubscriberNumber 校验用户号码格式
func ValidateSubscriberNumber(number string) error {
	if !subscriberNumberPattern.MatchString(number) {
		return ErrInvalidSubscriberNumber
	}
	return nil
}

// NewSubscriber 创建未开通的用户记录（仅号码与凭证，无开通数据）
func NewSubscriber(number, password string) (*Subscriber, error) {
	if err := ValidateSubscriberNumber(number); err != nil {
		return nil, err
	}
	if len(password) > 6 {
		password = password[:6]
	}
	return &Subscriber{
		SubscriberNumber: number,
		Password:         password,
	}, nil
}

// ApplyProvisioning 更新开通字段并重新计算修正MAC。
// 修正MAC始终由当前的MAC与品牌重新推导，不能单独编辑。
func (s *Subscriber) ApplyProvisioning(olt, iface string, onu *int, brand Brand, mac string) error {
	adjusted, err := AdjustMAC(mac, brand)
	if err != nil {
		return err
	}

	s.OLT = olt
	s.Interface = iface
	s.ONU = onu
	s.Brand = brand
	s.MAC = mac
	s.AdjustedMAC = adjusted
	return nil
}

// ClearProvisioning 清空全部开通字段，保留号码与凭证（软清除，不删行）
func (s *Subscriber) ClearProvisioning() {
	s.OLT = ""
	s.Interface = ""
	s.ONU = nil
	s.Brand = ""
	s.MAC = ""
	s.AdjustedMAC = ""
}

// IsProvisioned 是否已有开通数据
func (s *Subscriber) IsProvisioned() bool {
	return s.OLT != "" || s.Interface != "" || s.ONU != nil ||
		s.Brand != "" || s.MAC != ""
}
