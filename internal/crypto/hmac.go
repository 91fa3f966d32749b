package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// APICredential is the session credential derived once per session from the
// CLOB auth flow. It authenticates L2 (order and query) requests via HMAC.
type APICredential struct {
	Key        string // API key
	Secret     string // base64-encoded HMAC secret
	Passphrase string
}

// L2Headers returns the POLY_* headers for one CLOB request. The signature is
// HMAC-SHA256(base64-decoded secret, timestamp+method+path+body). The
// timestamp is taken at call time; like the Kalshi signer, headers are
// generated immediately before dispatch.
func (c *APICredential) L2Headers(address, method, path, body string) map[string]string {
	return c.L2HeadersAt(address, method, path, body, time.Now().Unix())
}

// L2HeadersAt is L2Headers with a caller-supplied Unix timestamp, for
// deterministic tests.
func (c *APICredential) L2HeadersAt(address, method, path, body string, unixTS int64) map[string]string {
	ts := strconv.FormatInt(unixTS, 10)

	secret, err := base64.StdEncoding.DecodeString(c.Secret)
	if err != nil {
		// An undecodable secret yields an obviously-wrong signature rather
		// than a panic; the venue rejects it as an auth failure.
		secret = []byte(c.Secret)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + method + path + body))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"POLY_ADDRESS":    address,
		"POLY_API_KEY":    c.Key,
		"POLY_TIMESTAMP":  ts,
		"POLY_PASSPHRASE": c.Passphrase,
		"POLY_SIGNATURE":  sig,
	}
}

// String returns a redacted representation suitable for logging.
func (c *APICredential) String() string {
	redact := func(s string) string {
		if len(s) <= 4 {
			return "****"
		}
		return s[:4] + "****"
	}
	return fmt.Sprintf("APICredential{key=%s, secret=%s}", redact(c.Key), redact(c.Secret))
}
