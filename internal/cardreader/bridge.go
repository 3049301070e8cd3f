package cardreader

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/config"
)

// bridge 应答状态
const (
	bridgeStatusCard   = "card"
	bridgeStatusNoCard = "no_card"
	bridgeStatusError  = "error"
)

// BridgeRequest 发送给终端桥接进程的一次读卡请求
type BridgeRequest struct {
	TerminalID             string `json:"terminalId"`
	Serial                 string `json:"serial"`
	Currency               int    `json:"currency"`
	PreAuthorizationAmount int    `json:"preAuthorizationAmount"`
}

// BridgeReply 桥接进程的应答
type BridgeReply struct {
	Status   string  `json:"status"`
	CardType string  `json:"cardType,omitempty"`
	TagID    *string `json:"tagId,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Bridge 通过 TCP 行协议与终端桥接进程通信的读卡会话。
// 每次读卡建立一条短连接：一行 JSON 请求，一行 JSON 应答。
type Bridge struct {
	addr        string
	req         BridgeRequest
	dialTimeout time.Duration
	readTimeout time.Duration
	logger      *zap.Logger

	mu     sync.Mutex
	closed bool
	dialer net.Dialer
}

// NewBridge 创建桥接读卡会话
func NewBridge(term config.TerminalConfig, rcfg config.ReaderConfig, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialTimeout := rcfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	readTimeout := rcfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &Bridge{
		addr: term.Address(),
		req: BridgeRequest{
			TerminalID:             term.TerminalID,
			Serial:                 term.FeigSerial,
			Currency:               term.Currency,
			PreAuthorizationAmount: term.PreAuthorizationAmount,
		},
		dialTimeout: dialTimeout,
		readTimeout: readTimeout,
		logger:      logger,
		dialer:      net.Dialer{Timeout: dialTimeout},
	}
}

// ReadCard 向桥接进程请求一次读卡
func (b *Bridge) ReadCard(ctx context.Context) (*CardInfo, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, errors.New("reader session closed")
	}

	conn, err := b.dialer.DialContext(ctx, "tcp", b.addr)
	if err != nil {
		return nil, fmt.Errorf("dial terminal %s: %w", b.addr, err)
	}
	defer conn.Close()

	// ctx 取消时立即中断阻塞中的读写
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := conn.SetDeadline(time.Now().Add(b.readTimeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	payload, err := json.Marshal(b.req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := conn.Write(payload); err != nil {
		return nil, b.ioError(ctx, "write request", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, b.ioError(ctx, "read reply", err)
	}

	var reply BridgeReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return decodeReply(reply)
}

func (b *Bridge) ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%s: timeout after %s: %w", op, b.readTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func decodeReply(r BridgeReply) (*CardInfo, error) {
	switch r.Status {
	case bridgeStatusNoCard:
		return nil, ErrNoCardPresented
	case bridgeStatusError:
		msg := r.Error
		if msg == "" {
			msg = "unspecified terminal error"
		}
		return nil, fmt.Errorf("terminal error: %s", msg)
	case bridgeStatusCard:
		t, err := ParseCardType(r.CardType)
		if err != nil {
			return nil, fmt.Errorf("decode reply: %w", err)
		}
		info := &CardInfo{Type: t}
		if r.TagID != nil {
			info.TagID = StringPtr(*r.TagID)
		}
		return info, nil
	default:
		return nil, fmt.Errorf("decode reply: unknown status %q", r.Status)
	}
}

// Close 关闭会话
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		b.logger.Info("reader session closed", zap.String("addr", b.addr))
	}
	return nil
}
