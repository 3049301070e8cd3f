package pg

import (
	"context"
	"embed"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrations 令牌流水表结构迁移
//
//go:embed migrations/*.sql
var Migrations embed.FS

// JournalEntry 一条已投递令牌的流水
type JournalEntry struct {
	EventID    uuid.UUID `json:"event_id"`
	TerminalID string    `json:"terminal_id"`
	IDToken    string    `json:"id_token"`
	AuthType   string    `json:"authorization_type"`
	Sink       string    `json:"sink"`
	ProvidedAt time.Time `json:"provided_at"`
}

// Journal 令牌流水仓库
type Journal struct {
	Pool *pgxpool.Pool
}

// NewJournal 创建令牌流水仓库
func NewJournal(pool *pgxpool.Pool) *Journal {
	return &Journal{Pool: pool}
}

// Append 追加一条流水；同一 event_id 重复写入时忽略
func (j *Journal) Append(ctx context.Context, e JournalEntry) error {
	const q = `INSERT INTO token_journal (event_id, terminal_id, id_token, auth_type, sink, provided_at)
               VALUES ($1,$2,$3,$4,$5,$6)
               ON CONFLICT (event_id) DO NOTHING`
	_, err := j.Pool.Exec(ctx, q, e.EventID, e.TerminalID, e.IDToken, e.AuthType, e.Sink, e.ProvidedAt)
	return err
}

// Recent 按投递时间倒序返回最近 limit 条流水
func (j *Journal) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const q = `SELECT event_id, terminal_id, id_token, auth_type, sink, provided_at
               FROM token_journal
               ORDER BY provided_at DESC, id DESC
               LIMIT $1`
	rows, err := j.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (JournalEntry, error) {
		var e JournalEntry
		err := row.Scan(&e.EventID, &e.TerminalID, &e.IDToken, &e.AuthType, &e.Sink, &e.ProvidedAt)
		return e, err
	})
}

// Ping 探活
func (j *Journal) Ping(ctx context.Context) error {
	return j.Pool.Ping(ctx)
}
