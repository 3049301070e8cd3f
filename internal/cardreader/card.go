// Package cardreader 提供支付终端的读卡会话抽象
package cardreader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoCardPresented 读卡器上当前没有卡片。
// 这是轮询中的常态结果，不属于故障。
var ErrNoCardPresented = errors.New("no card presented")

// CardType 卡片类型（封闭枚举）
type CardType int

const (
	CardTypeBank       CardType = iota // 银行卡
	CardTypeMembership                 // 会员卡（RFID）
)

func (t CardType) String() string {
	switch t {
	case CardTypeBank:
		return "bank"
	case CardTypeMembership:
		return "membership"
	default:
		return fmt.Sprintf("CardType(%d)", int(t))
	}
}

// ParseCardType 解析卡片类型字符串
func ParseCardType(s string) (CardType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bank":
		return CardTypeBank, nil
	case "membership":
		return CardTypeMembership, nil
	default:
		return 0, fmt.Errorf("unknown card type %q", s)
	}
}

// CardInfo 一次成功读卡的结果，仅在单次循环内有效
type CardInfo struct {
	Type  CardType
	TagID *string
}

// Session 读卡会话，持有与终端的物理连接。
//
// ReadCard 每次调用恰好返回一个结果：
//   - (info, nil)                    读到卡片
//   - errors.Is(err, ErrNoCardPresented) 当前无卡
//   - 其他 error                      设备故障（致命）
//
// 不会返回解码不完整的 CardInfo。
type Session interface {
	io.Closer
	ReadCard(ctx context.Context) (*CardInfo, error)
}

// StringPtr 返回字符串指针
func StringPtr(s string) *string { return &s }
