package thirdparty

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
)

// SignHMAC 生成 HMAC-SHA256 签名（hex）
func SignHMAC(secret string, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRequest 校验 SendJSON 产生的签名头（接收方使用）
func VerifyRequest(secret string, r *http.Request, body []byte) bool {
	ts, err := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return false
	}
	canonical := buildCanonical(r.Method, r.URL.Path, ts, r.Header.Get(HeaderNonce), hashHex(body))
	want := SignHMAC(secret, canonical)
	return hmac.Equal([]byte(want), []byte(r.Header.Get(HeaderSignature)))
}
