package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pgstorage "github.com/taoyao-code/card-terminal/internal/storage/pg"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// JournalReader 令牌流水查询
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]pgstorage.JournalEntry, error)
}

// TokenHandler 令牌流水API处理器
type TokenHandler struct {
	journal JournalReader
	logger  *zap.Logger
}

// NewTokenHandler 创建令牌流水API处理器
func NewTokenHandler(journal JournalReader, logger *zap.Logger) *TokenHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenHandler{journal: journal, logger: logger}
}

// Recent 查询最近投递的令牌
// GET /api/tokens/recent?limit=N
func (h *TokenHandler) Recent(c *gin.Context) {
	limit := defaultRecentLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecentLimit)
	}

	entries, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("query token journal failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query token journal failed"})
		return
	}
	if entries == nil {
		entries = []pgstorage.JournalEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"tokens": entries, "count": len(entries)})
}
