// Package crypto provides request signing for both venues: RSA-PSS header
// signatures for the Kalshi REST API, EIP-712 order and auth signatures for
// the Polymarket CLOB, HMAC L2 authentication, and wallet key management.
package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/okaybet/crossarb/internal/domain"
)

// RSASigner produces Kalshi authentication headers. The signed message is the
// exact concatenation timestamp_ms || method || full_path, where full_path
// includes the API base path prefix; a prefix mismatch surfaces as a
// server-side 401, not a local error.
type RSASigner struct {
	keyID      string
	privateKey *rsa.PrivateKey
}

// NewRSASigner parses a PEM-encoded RSA private key (PKCS#8, falling back to
// PKCS#1). A key that cannot be parsed, or is not RSA, is fatal: there is no
// fallback to unsigned requests.
func NewRSASigner(keyID string, pemBytes []byte) (*RSASigner, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("crypto: %w: no PEM block in private key", domain.ErrSigningFailed)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return nil, fmt.Errorf("crypto: %w: parse private key: %v (pkcs1: %v)", domain.ErrSigningFailed, err, pkcs1Err)
		}
		return &RSASigner{keyID: keyID, privateKey: pkcs1Key}, nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("crypto: %w: expected RSA private key, got %T", domain.ErrSigningFailed, key)
	}
	return &RSASigner{keyID: keyID, privateKey: rsaKey}, nil
}

// LoadRSASigner reads a PEM private key file and builds a signer from it.
func LoadRSASigner(keyID, path string) (*RSASigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("crypto: %w: read key file: %v", domain.ErrSigningFailed, err)
	}
	return NewRSASigner(keyID, data)
}

// NewRSASignerFromKey wraps an already-parsed key. Used by tests with
// generated keys.
func NewRSASignerFromKey(keyID string, key *rsa.PrivateKey) *RSASigner {
	return &RSASigner{keyID: keyID, privateKey: key}
}

// KeyID returns the API key identifier sent in KALSHI-ACCESS-KEY.
func (s *RSASigner) KeyID() string { return s.keyID }

// PublicKey returns the public half for signature verification.
func (s *RSASigner) PublicKey() *rsa.PublicKey { return &s.privateKey.PublicKey }

// SignAt signs the (timestamp, method, path) triple with RSA-PSS over
// SHA-256, MGF1(SHA-256) and salt length equal to the digest length, and
// returns the base64-encoded signature. PSS signatures are salted, so two
// calls with identical inputs produce different bytes that both verify.
func (s *RSASigner) SignAt(timestampMs int64, method, path string) (string, error) {
	message := strconv.FormatInt(timestampMs, 10) + method + path
	hashed := sha256.Sum256([]byte(message))

	sig, err := rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, hashed[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", fmt.Errorf("crypto: %w: rsa-pss sign: %v", domain.ErrSigningFailed, err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Headers returns the three KALSHI-ACCESS-* headers for one request. The
// timestamp is taken at call time, never cached; each HTTP call must obtain a
// fresh pair immediately before dispatch so the signature cannot go stale.
func (s *RSASigner) Headers(method, path string) (map[string]string, error) {
	ts := time.Now().UnixMilli()
	sig, err := s.SignAt(ts, method, path)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"KALSHI-ACCESS-KEY":       s.keyID,
		"KALSHI-ACCESS-SIGNATURE": sig,
		"KALSHI-ACCESS-TIMESTAMP": strconv.FormatInt(ts, 10),
	}, nil
}
