package health

import "sync/atomic"

// Readiness 就绪状态聚合（读卡会话、令牌下游）
type Readiness struct {
	readerReady atomic.Bool
	sinkReady   atomic.Bool
}

func New() *Readiness { return &Readiness{} }

func (r *Readiness) SetReaderReady(v bool) { r.readerReady.Store(v) }
func (r *Readiness) SetSinkReady(v bool)   { r.sinkReady.Store(v) }

func (r *Readiness) ReaderReady() bool { return r.readerReady.Load() }
func (r *Readiness) SinkReady() bool   { return r.sinkReady.Load() }

// Ready 总体就绪：各子系统均为 true
func (r *Readiness) Ready() bool {
	return r.readerReady.Load() && r.sinkReady.Load()
}
