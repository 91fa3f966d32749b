package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPICredential_L2HeadersAt(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret"))
	cred := &APICredential{Key: "api-key", Secret: secret, Passphrase: "phrase"}

	headers := cred.L2HeadersAt("0xabc", "POST", "/order", `{"order":{}}`, 1700000000)

	assert.Equal(t, "0xabc", headers["POLY_ADDRESS"])
	assert.Equal(t, "api-key", headers["POLY_API_KEY"])
	assert.Equal(t, "1700000000", headers["POLY_TIMESTAMP"])
	assert.Equal(t, "phrase", headers["POLY_PASSPHRASE"])

	mac := hmac.New(sha256.New, []byte("super-secret"))
	mac.Write([]byte(`1700000000POST/order{"order":{}}`))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, headers["POLY_SIGNATURE"])
}

func TestAPICredential_L2HeadersAt_BodyChangesSignature(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret"))
	cred := &APICredential{Key: "api-key", Secret: secret, Passphrase: "phrase"}

	h1 := cred.L2HeadersAt("0xabc", "POST", "/order", `{"a":1}`, 1700000000)
	h2 := cred.L2HeadersAt("0xabc", "POST", "/order", `{"a":2}`, 1700000000)
	assert.NotEqual(t, h1["POLY_SIGNATURE"], h2["POLY_SIGNATURE"])
}

func TestAPICredential_StringRedacts(t *testing.T) {
	cred := &APICredential{Key: "abcdef123456", Secret: "s3cr3tvalue"}
	s := cred.String()
	require.NotContains(t, s, "123456")
	require.NotContains(t, s, "s3cr3tvalue")
}
