package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/metrics"
	"github.com/taoyao-code/card-terminal/internal/provider"
	"github.com/taoyao-code/card-terminal/internal/storage/pg"
	"github.com/taoyao-code/card-terminal/internal/thirdparty"
)

var testToken = provider.ProvidedIDToken{IDToken: "04A1B2C3", AuthorizationType: provider.AuthorizationRFID}

// fakeQueue 记录入队的负载
type fakeQueue struct {
	mu    sync.Mutex
	items [][]byte
	err   error
}

func (q *fakeQueue) Push(_ context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, payload)
	return nil
}

// memDeduper 内存去重
type memDeduper struct {
	seen     map[string]bool
	err      error
	released []string
}

func (d *memDeduper) IsDuplicate(_ context.Context, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[key] {
		return true, nil
	}
	d.seen[key] = true
	return false, nil
}

func (d *memDeduper) Release(_ context.Context, key string) error {
	delete(d.seen, key)
	d.released = append(d.released, key)
	return nil
}

// fakeJournal 记录流水
type fakeJournal struct {
	entries []pg.JournalEntry
	err     error
}

func (j *fakeJournal) Append(_ context.Context, e pg.JournalEntry) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, e)
	return nil
}

func TestLog(t *testing.T) {
	assert.NoError(t, NewLog(nil).ProvideToken(context.Background(), testToken))
}

func TestRedis_ProvideToken(t *testing.T) {
	q := &fakeQueue{}
	s := NewRedis(q, "T-1")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.ProvideToken(context.Background(), testToken))
	require.Len(t, q.items, 1)

	var ev TokenEvent
	require.NoError(t, json.Unmarshal(q.items[0], &ev))
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, "T-1", ev.TerminalID)
	assert.Equal(t, testToken, ev.Token)
	assert.True(t, fixed.Equal(ev.ProvidedAt))

	t.Run("队列错误透传", func(t *testing.T) {
		q.err = errors.New("redis down")
		err := s.ProvideToken(context.Background(), testToken)
		assert.ErrorIs(t, err, q.err)
	})
}

func TestNewEvent_UsesContextID(t *testing.T) {
	id := uuid.New()
	ev := NewEvent(WithEventID(context.Background(), id), "T-1", testToken, time.Now())
	assert.Equal(t, id, ev.ID)

	other := NewEvent(context.Background(), "T-1", testToken, time.Now())
	assert.NotEqual(t, id, other.ID)
}

func TestWebhook_ProvideToken(t *testing.T) {
	var mu sync.Mutex
	var received []TokenEvent
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !thirdparty.VerifyRequest("secret", r, body) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var ev TokenEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, ev)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	reg := metrics.NewRegistry()
	m := metrics.NewTerminalMetrics(reg)

	t.Run("签名正确", func(t *testing.T) {
		w := NewWebhook(thirdparty.NewPusher(nil, "key", "secret"), ts.URL+"/tokens", "T-1", zap.NewNop(), m)
		require.NoError(t, w.ProvideToken(context.Background(), testToken))
		mu.Lock()
		defer mu.Unlock()
		require.Len(t, received, 1)
		assert.Equal(t, "04A1B2C3", received[0].Token.IDToken)
		assert.Equal(t, "T-1", received[0].TerminalID)
	})

	t.Run("签名错误", func(t *testing.T) {
		w := NewWebhook(thirdparty.NewPusher(nil, "key", "wrong"), ts.URL+"/tokens", "T-1", zap.NewNop(), m)
		err := w.ProvideToken(context.Background(), testToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})

}

func TestDeduped(t *testing.T) {
	reg := metrics.NewRegistry()
	m := metrics.NewTerminalMetrics(reg)
	q := &fakeQueue{}
	dd := &memDeduper{seen: map[string]bool{}}
	s := NewDeduped(NewRedis(q, "T-1"), dd, zap.NewNop(), m)
	ctx := context.Background()

	require.NoError(t, s.ProvideToken(ctx, testToken))
	require.NoError(t, s.ProvideToken(ctx, testToken))
	assert.Len(t, q.items, 1, "窗口内重复令牌不转发")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenDispatchTotal.WithLabelValues(metrics.DispatchDuplicate)))

	t.Run("下游失败释放占位", func(t *testing.T) {
		q.err = errors.New("redis down")
		other := provider.ProvidedIDToken{IDToken: "B2", AuthorizationType: provider.AuthorizationRFID}
		assert.Error(t, s.ProvideToken(ctx, other))
		assert.Equal(t, []string{"B2"}, dd.released)
		assert.False(t, dd.seen["B2"])
	})

	t.Run("去重存储失败", func(t *testing.T) {
		dd.err = errors.New("setnx failed")
		assert.ErrorIs(t, s.ProvideToken(ctx, testToken), dd.err)
	})
}

func TestJournaled(t *testing.T) {
	reg := metrics.NewRegistry()
	m := metrics.NewTerminalMetrics(reg)
	q := &fakeQueue{}
	j := &fakeJournal{}
	s := NewJournaled(NewRedis(q, "T-1"), j, "redis", "T-1", zap.NewNop(), m)

	require.NoError(t, s.ProvideToken(context.Background(), testToken))
	require.Len(t, j.entries, 1)
	require.Len(t, q.items, 1)

	var ev TokenEvent
	require.NoError(t, json.Unmarshal(q.items[0], &ev))
	assert.Equal(t, ev.ID, j.entries[0].EventID, "流水与投递共用事件 ID")
	assert.Equal(t, "redis", j.entries[0].Sink)
	assert.Equal(t, "04A1B2C3", j.entries[0].IDToken)
	assert.Equal(t, "RFID", j.entries[0].AuthType)

	t.Run("流水失败不影响投递", func(t *testing.T) {
		j.err = errors.New("db down")
		require.NoError(t, s.ProvideToken(context.Background(), testToken))
		assert.Len(t, q.items, 2)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.JournalErrorsTotal))
	})

	t.Run("下游失败不写流水", func(t *testing.T) {
		j.err = nil
		q.err = errors.New("redis down")
		require.Error(t, s.ProvideToken(context.Background(), testToken))
		assert.Len(t, j.entries, 1)
	})
}
