// Package thirdparty 向第三方平台推送带签名的 JSON 事件
package thirdparty

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// 签名相关请求头
const (
	HeaderAPIKey    = "X-Api-Key"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"
	HeaderNonce     = "X-Nonce"
)

// StatusError 非 2xx 应答
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.Code)
}

type Pusher struct {
	Client  *http.Client
	APIKey  string
	Secret  string
	Retries int
	Backoff []time.Duration
}

func NewPusher(client *http.Client, apiKey, secret string) *Pusher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Pusher{
		Client:  client,
		APIKey:  apiKey,
		Secret:  secret,
		Retries: 5,
		Backoff: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 500 * time.Millisecond, time.Second, 2 * time.Second},
	}
}

// buildCanonical 构建 canonical string: method\npath\ntimestamp\nnonce\nbodySha256Hex
func buildCanonical(method, path string, ts int64, nonce, bodyHex string) string {
	return fmt.Sprintf("%s\n%s\n%d\n%s\n%s", strings.ToUpper(method), path, ts, nonce, bodyHex)
}

// hashHex 计算 sha256(body) 的 hex 小写
func hashHex(body []byte) string {
	h := sha256.Sum256(body)
	return hex.EncodeToString(h[:])
}

// SendJSON 发送 JSON 事件，自动添加签名头。
// 5xx 与网络错误按 Backoff 重试；最终非 2xx 返回 *StatusError。
func (p *Pusher) SendJSON(ctx context.Context, endpoint string, payload any) (int, []byte, error) {
	if p == nil || p.Client == nil {
		return 0, nil, errors.New("nil pusher")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return 0, nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	bodyHex := hashHex(body)

	var respBody []byte
	var code int
	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		// 每次重试重新签名并重建请求体
		req, err := p.newRequest(ctx, u, body, bodyHex)
		if err != nil {
			return 0, nil, err
		}
		resp, err := p.Client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			lastErr = nil
			code = resp.StatusCode
			rb, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			respBody = rb
			if code >= 200 && code < 300 {
				return code, respBody, nil
			}
			// 非2xx：仅对5xx重试
			if code < 500 {
				return code, respBody, &StatusError{Code: code, Body: respBody}
			}
		}
		if attempt == p.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return code, respBody, &StatusError{Code: code, Body: respBody}
}

func (p *Pusher) newRequest(ctx context.Context, u *url.URL, body []byte, bodyHex string) (*http.Request, error) {
	ts := time.Now().Unix()
	nonce := fmt.Sprintf("%08x", rand.Uint32())
	sig := SignHMAC(p.Secret, buildCanonical(http.MethodPost, u.Path, ts, nonce, bodyHex))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderAPIKey, p.APIKey)
	req.Header.Set(HeaderSignature, sig)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderNonce, nonce)
	return req, nil
}

func (p *Pusher) backoff(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	return p.Backoff[min(attempt, len(p.Backoff)-1)]
}
