package aggregate

import (
	"fmt"
	"strconv"
	"strings"

	"abonado-server-go/internal/platform/errors"
)

// ErrInvalidMACFormat MAC末两位不是十六进制
var ErrInvalidMACFormat = errors.New(
	errors.KindDomain,
	"mac.adjust",
	"la MAC contiene caracteres no hexadecimales",
)

// 各品牌ONU固件的MAC末字节偏移
var brandOffsets = map[Brand]uint64{
	BrandFurukawa: 1,
	BrandBDCOM:    5,
	BrandLatic:    3,
}

// AdjustMAC 计算品牌修正MAC：末两位按十六进制加上品牌偏移，
// 其余部分原样保留。未知品牌偏移为0，仅做大写格式化。
//
// 纯函数：相同的 (mac, brand) 输入总是得到相同输出。
// 空MAC不做推导也不报错。末字节加偏移后超过0xFF时不回绕，
// 直接输出三位十六进制（与历史行为保持一致）。
func AdjustMAC(mac string, brand Brand) (string, error) {
	if mac == "" {
		return "", nil
	}

	cut := len(mac) - 2
	if cut < 0 {
		cut = 0
	}
	prefix, suffix := mac[:cut], mac[cut:]

	value, err := strconv.ParseUint(suffix, 16, 64)
	if err != nil {
		return "", ErrInvalidMACFormat
	}

	value += brandOffsets[brand]
	return prefix + fmt.Sprintf("%02X", value), nil
}

// NormalizeBrand 将表单提交的品牌值规整为枚举值；未知品牌原样保留
func NormalizeBrand(raw string) Brand {
	return Brand(strings.ToUpper(strings.TrimSpace(raw)))
}
