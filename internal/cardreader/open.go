package cardreader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/config"
)

// Open 按配置的驱动建立读卡会话。
// 终端配置只在此处读取一次。
func Open(term config.TerminalConfig, rcfg config.ReaderConfig, logger *zap.Logger) (Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch rcfg.Driver {
	case config.ReaderDriverBridge, "":
		logger.Info("reader session opened",
			zap.String("driver", config.ReaderDriverBridge),
			zap.String("terminal_id", term.TerminalID),
			zap.String("addr", term.Address()),
			zap.Int("currency", term.Currency))
		return NewBridge(term, rcfg, logger), nil
	case config.ReaderDriverSimulator:
		s, err := OpenSimulator(rcfg.Script)
		if err != nil {
			return nil, err
		}
		logger.Info("reader session opened",
			zap.String("driver", config.ReaderDriverSimulator),
			zap.String("terminal_id", term.TerminalID),
			zap.String("script", rcfg.Script))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown reader driver %q", rcfg.Driver)
	}
}
